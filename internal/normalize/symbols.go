package normalize

import (
	"strings"
	"unicode"
)

// Symbols splits on commas and whitespace, uppercases, and removes
// duplicates keeping first-seen order: "aapl, AAPL msft" -> [AAPL MSFT].
func Symbols(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r) || unicode.IsControl(r)
	})

	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		sym := strings.ToUpper(strings.TrimSpace(f))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}
