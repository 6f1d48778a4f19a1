package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// normalizeReplacer removes the punctuation OCR output and catalog names disagree on most:
// hyphens, dots, commas and parentheses (ASCII and full-width forms).
var normalizeReplacer = strings.NewReplacer(
	"-", "", "－", "", "–", "", "—", "",
	".", "", "。", "", "·", "",
	",", "", "，", "", "、", "",
	"(", "", ")", "", "（", "", "）", "",
)

// Normalize folds a product name into the form used for fuzzy comparison.
func Normalize(name string) string {
	return normalizeReplacer.Replace(removeSpaces(strings.ToLower(name)))
}

// stripPunctuation removes separators but keeps case, producing an exact-match alias.
func stripPunctuation(name string) string {
	return normalizeReplacer.Replace(removeSpaces(name))
}

// removeSpaces drops every Unicode space, including newlines and U+00A0.
func removeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
