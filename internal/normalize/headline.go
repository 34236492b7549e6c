package normalize

import (
	"encoding/json"
	"strings"
	"unicode"

	"ticker_go/internal/domain"
)

// Headline trims a provider record. It returns false when no title is left.
func Headline(raw domain.RawHeadline) (domain.Headline, bool) {
	title := Text(raw.Title)
	if title == "" {
		return domain.Headline{}, false
	}
	return domain.Headline{
		Title:    title,
		URL:      strings.TrimSpace(raw.URL),
		Source:   Text(raw.Source),
		Category: category(raw.Category),
	}, true
}

// Text makes provider text safe for a single terminal row: control
// characters become spaces and whitespace runs collapse to one space.
func Text(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// HeadlineText builds a headline from a bare string.
func HeadlineText(s string) (domain.Headline, bool) {
	title := Text(s)
	if title == "" {
		return domain.Headline{}, false
	}
	return domain.Headline{Title: title}, true
}

// HeadlineJSON accepts either a JSON object or a bare JSON string, as found
// in caches written by older versions.
func HeadlineJSON(data json.RawMessage) (domain.Headline, bool) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return HeadlineText(s)
	}
	var raw domain.RawHeadline
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Headline{}, false
	}
	return Headline(raw)
}

// Headlines normalizes a batch, dropping items without a title.
func Headlines(raws []domain.RawHeadline) []domain.Headline {
	out := make([]domain.Headline, 0, len(raws))
	for _, raw := range raws {
		if h, ok := Headline(raw); ok {
			out = append(out, h)
		}
	}
	return out
}

func category(c domain.Category) domain.Category {
	if !c.IsList {
		if c.IsZero() {
			return domain.Category{}
		}
		if v := Text(c.Values[0]); v != "" {
			return domain.SingleCategory(v)
		}
		return domain.Category{}
	}
	values := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		if v = Text(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return domain.Category{}
	}
	return domain.ListCategory(values...)
}
