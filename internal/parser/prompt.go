package parser

import (
	"strings"
	"time"
)

// BuildPriceTablePrompt returns the extraction prompt for a photographed weekly price table.
// The full catalog name list is embedded so the model can normalize product names, and the
// current date is included so it can correct stale or missing years.
func BuildPriceTablePrompt(referenceNames []string, now time.Time) string {
	var b strings.Builder

	b.WriteString(`You are a data extraction assistant for an agrochemical marketplace. The image is a photographed table of weekly pesticide prices.

Extract EVERY row of the table into the following JSON structure:
{
  "priceData": [
    {"productName": "", "weekEndDate": "YYYY-MM-DD", "unitPrice": 0}
  ]
}

IMPORTANT INSTRUCTIONS:
- A table usually has one product column and one column per week. Emit one entry per (product, week) cell that contains a price.
- "weekEndDate" is the last day of the week the price belongs to, formatted YYYY-MM-DD.
- "unitPrice" is a plain number. Strip currency symbols, thousands separators and units.
- Skip empty cells, header rows and totals. Do not invent values.
- When a product name matches or closely resembles a name from the reference list below, output the reference name exactly as written.
`)

	b.WriteString("- Today is ")
	b.WriteString(now.Format("2006-01-02"))
	b.WriteString(". Column headers often omit the year or show the wrong one; use the most recent year that does not put the date in the future.\n")

	b.WriteString("\nReturn ONLY valid JSON with no markdown formatting, no code fences and no explanation.\n")

	if len(referenceNames) > 0 {
		b.WriteString("\nReference product names:\n")
		for _, name := range referenceNames {
			b.WriteString("- ")
			b.WriteString(name)
			b.WriteString("\n")
		}
	}

	return b.String()
}
