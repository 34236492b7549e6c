package settings

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"ticker_go/internal/domain"
	"ticker_go/internal/normalize"
)

// Set updates one setting by its persisted JSON name. The value is parsed as
// JSON when possible ("true", "25") and used as a plain string otherwise.
func Set(s Settings, key, value string) (Settings, error) {
	fields, err := toMap(s)
	if err != nil {
		return s, err
	}
	if _, ok := fields[key]; !ok {
		return s, fmt.Errorf("unknown setting %q", key)
	}

	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		parsed = value
	}
	if _, isString := fields[key].(string); isString {
		parsed = value
	}
	if key == "finnhubSymbols" {
		if err := checkSymbols(value); err != nil {
			return s, fmt.Errorf("setting %q: %w", key, err)
		}
	}
	fields[key] = parsed

	data, err := json.Marshal(fields)
	if err != nil {
		return s, err
	}
	out := Defaults()
	if err := json.Unmarshal(data, &out); err != nil {
		return s, fmt.Errorf("setting %q: %w", key, err)
	}
	return out, nil
}

// symbolChars are the characters a Finnhub ticker may contain,
// e.g. BRK.B, BINANCE:BTCUSDT, ^GSPC.
const symbolChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.:-^=_"

func checkSymbols(value string) error {
	for _, sym := range normalize.Symbols(value) {
		if strings.Trim(sym, symbolChars) != "" {
			return fmt.Errorf("%w %q", domain.ErrInvalidSymbol, sym)
		}
	}
	return nil
}

// Keys lists every setting name in sorted order.
func Keys() []string {
	fields, _ := toMap(Defaults())
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fields returns the settings keyed by their persisted names.
func Fields(s Settings) map[string]any {
	fields, _ := toMap(s)
	return fields
}

func toMap(s Settings) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
