package finnhub

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// quoteResponse is the /quote payload. Prices may arrive as numbers or
// numeric strings.
type quoteResponse struct {
	Current       json.RawMessage `json:"c"`
	PreviousClose json.RawMessage `json:"pc"`
	Error         string          `json:"error"`
}

// parseNumber accepts a JSON number or a numeric string. Anything else is nil.
func parseNumber(raw json.RawMessage) *decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		text = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil
	}
	return &d
}
