package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"agroprice/internal/domain"
)

// StripCodeFences removes a surrounding markdown code fence (``` or ```json) from model
// output. Text without a fence is returned trimmed.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

type rawPriceRecord struct {
	ProductName string          `json:"productName"`
	WeekEndDate string          `json:"weekEndDate"`
	UnitPrice   json.RawMessage `json:"unitPrice"`
}

// DecodePriceData decodes model output of the form {"priceData": [...]} into price records.
// Rows with an empty product name or an unreadable price are dropped.
func DecodePriceData(content string) ([]domain.ParsedPriceRecord, error) {
	text := StripCodeFences(content)

	var payload struct {
		PriceData []rawPriceRecord `json:"priceData"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, JSONDecodeError(text, err)
	}

	records := make([]domain.ParsedPriceRecord, 0, len(payload.PriceData))
	for _, r := range payload.PriceData {
		name := strings.TrimSpace(r.ProductName)
		if name == "" {
			continue
		}
		price, err := parsePrice(r.UnitPrice)
		if err != nil {
			log.Printf("parser.DecodePriceData: dropping row %q: %v", name, err)
			continue
		}
		records = append(records, domain.ParsedPriceRecord{
			ProductName: name,
			WeekEndDate: strings.TrimSpace(r.WeekEndDate),
			UnitPrice:   price,
		})
	}
	return records, nil
}

// parsePrice accepts a JSON number or a numeric string such as "1,250.50".
func parsePrice(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("missing unit price")
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unit price is neither number nor string: %s", string(raw))
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unit price %q is not numeric", s)
	}
	return n, nil
}
