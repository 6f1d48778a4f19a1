package parser

import (
	"fmt"
	"unicode/utf8"

	"agroprice/internal/domain"
)

// NetworkError wraps a transport failure talking to the vision provider.
func NetworkError(provider string, err error) *domain.ExtractionError {
	return &domain.ExtractionError{
		Kind:    domain.ExtractionNetwork,
		Message: fmt.Sprintf("calling %s API", provider),
		Err:     err,
	}
}

// HTTPStatusError reports a non-200 response. The body is truncated into the message.
func HTTPStatusError(provider string, status int, body []byte) *domain.ExtractionError {
	return &domain.ExtractionError{
		Kind:       domain.ExtractionHTTPStatus,
		StatusCode: status,
		Message:    fmt.Sprintf("%s API returned %s", provider, Truncate(string(body), 500)),
	}
}

// EmptyContentError reports a response that carried no message content.
func EmptyContentError(provider, detail string) *domain.ExtractionError {
	return &domain.ExtractionError{
		Kind:    domain.ExtractionEmptyContent,
		Message: fmt.Sprintf("%s API returned no content: %s", provider, detail),
	}
}

// JSONDecodeError reports model output that could not be decoded into price rows.
func JSONDecodeError(raw string, err error) *domain.ExtractionError {
	return &domain.ExtractionError{
		Kind:    domain.ExtractionJSONDecode,
		Message: fmt.Sprintf("decoding model output (raw: %s)", Truncate(raw, 500)),
		Err:     err,
	}
}

// Truncate shortens s to at most maxLen bytes without splitting a rune,
// appending "..." when cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
