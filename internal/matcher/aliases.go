package matcher

// knownAliases lists spellings of active ingredients that OCR and suppliers render in
// several ways. Keys are the spelling most often found in the catalog.
var knownAliases = map[string][]string{
	"2,4-D": {
		"2, 4-D", "2,4D", "2.4-D", "2，4-D", "2,4-滴",
	},
	"2,4-D丁酯": {
		"2, 4-D丁酯", "2,4D丁酯", "2,4-滴丁酯",
	},
	"2,4-D二甲胺盐": {
		"2, 4-D二甲胺盐", "2,4D二甲胺盐", "2,4-D 二甲胺盐",
	},
	"2-甲-4-氯": {
		"2甲4氯", "2-甲4-氯", "MCPA",
	},
	"S-异丙甲草胺": {
		"S异丙甲草胺", "精异丙甲草胺",
	},
	"高效氯氟氰菊酯": {
		"高效氯氟氰", "λ-氯氟氰菊酯",
	},
	"草铵膦": {
		"草胺膦",
	},
	"精草铵膦": {
		"精草胺膦",
	},
}
