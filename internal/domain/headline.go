package domain

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
)

// Category is either a single label or an ordered list of labels.
// Providers send both shapes; the shape is preserved on round trips.
type Category struct {
	Values []string
	IsList bool
}

// SingleCategory wraps one label.
func SingleCategory(value string) Category {
	return Category{Values: []string{value}}
}

// ListCategory wraps an ordered list of labels.
func ListCategory(values ...string) Category {
	return Category{Values: values, IsList: true}
}

// IsZero reports whether no label is present (used by omitzero).
func (c Category) IsZero() bool {
	return len(c.Values) == 0
}

// First returns the first non-blank label.
func (c Category) First() string {
	for _, v := range c.Values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (c Category) MarshalJSON() ([]byte, error) {
	if c.IsZero() {
		return []byte("null"), nil
	}
	if !c.IsList {
		return json.Marshal(c.Values[0])
	}
	return json.Marshal(c.Values)
}

// UnmarshalJSON accepts a string, an array or null. Non-string array
// elements decode as empty strings and are dropped by the normalizer.
func (c *Category) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Category{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = SingleCategory(s)
	case '[':
		var raw []any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		values := make([]string, 0, len(raw))
		for _, v := range raw {
			s, _ := v.(string)
			values = append(values, s)
		}
		*c = ListCategory(values...)
	default:
		*c = Category{}
	}
	return nil
}

// RawHeadline is a provider record before normalization.
type RawHeadline struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Author      string   `json:"author,omitempty"`
	Image       string   `json:"image,omitempty"`
	Language    string   `json:"language,omitempty"`
	Category    Category `json:"category,omitzero"`
	Published   string   `json:"published,omitempty"`
	Source      string   `json:"source,omitempty"`
	Country     string   `json:"country,omitempty"`
}

// Headline is a normalized ticker item. Title is always non-empty.
type Headline struct {
	Title    string   `json:"title"`
	URL      string   `json:"url,omitempty"`
	Source   string   `json:"source,omitempty"`
	Category Category `json:"category,omitzero"`
}

// Key is the deduplication identity: the URL when present, else the title.
func (h Headline) Key() string {
	if h.URL != "" {
		return h.URL
	}
	return h.Title
}

// HasURL reports whether the headline links somewhere.
func (h Headline) HasURL() bool {
	return strings.TrimSpace(h.URL) != ""
}

// SourceLabel returns the source name, or the URL host without "www.".
func (h Headline) SourceLabel() string {
	if source := strings.TrimSpace(h.Source); source != "" {
		return source
	}
	raw := strings.TrimSpace(h.URL)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// CategoryLabel returns the first non-blank category.
func (h Headline) CategoryLabel() string {
	return h.Category.First()
}

// FallbackHeadlines is shown when no Currents credential is configured or
// nothing could be fetched or served from cache.
var FallbackHeadlines = []Headline{
	{Title: "Sample Headline 1: Please Add Your API Key"},
	{Title: "Sample Headline 2: To Fetch Live News"},
	{Title: "Sample Headline 3: And Actually Get News"},
	{Title: "Sample Headline 4: These Are Just Placeholder!"},
}
