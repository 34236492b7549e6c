package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestCategory_JSON(t *testing.T) {
	t.Run("single string", func(t *testing.T) {
		var c Category
		if err := json.Unmarshal([]byte(`"business"`), &c); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if c.IsList || c.First() != "business" {
			t.Errorf("unexpected category %+v", c)
		}
		out, _ := json.Marshal(c)
		if string(out) != `"business"` {
			t.Errorf("Marshal = %s, want \"business\"", out)
		}
	})

	t.Run("list with junk", func(t *testing.T) {
		var c Category
		if err := json.Unmarshal([]byte(`["", 3, "tech", "world"]`), &c); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if !c.IsList || !reflect.DeepEqual(c.Values, []string{"", "", "tech", "world"}) {
			t.Errorf("unexpected category %+v", c)
		}
		if c.First() != "tech" {
			t.Errorf("First() = %q, want tech", c.First())
		}
	})

	t.Run("omitted when empty", func(t *testing.T) {
		out, err := json.Marshal(Headline{Title: "A"})
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(out) != `{"title":"A"}` {
			t.Errorf("Marshal = %s", out)
		}
	})
}

func TestHeadline_Key(t *testing.T) {
	if got := (Headline{Title: "T", URL: "https://a.com/x"}).Key(); got != "https://a.com/x" {
		t.Errorf("Key() = %q, want url", got)
	}
	if got := (Headline{Title: "T"}).Key(); got != "T" {
		t.Errorf("Key() = %q, want title", got)
	}
}

func TestHeadline_Labels(t *testing.T) {
	tests := []struct {
		h        Headline
		source   string
		category string
	}{
		{Headline{Title: "a", Source: " Reuters "}, "Reuters", ""},
		{Headline{Title: "a", URL: "https://www.bbc.co.uk/news/1"}, "bbc.co.uk", ""},
		{Headline{Title: "a", URL: "::bad"}, "", ""},
		{Headline{Title: "a", Category: ListCategory(" ", "tech")}, "", "tech"},
		{Headline{Title: "a", Category: SingleCategory(" world ")}, "", "world"},
	}
	for _, tt := range tests {
		if got := tt.h.SourceLabel(); got != tt.source {
			t.Errorf("SourceLabel(%+v) = %q, want %q", tt.h, got, tt.source)
		}
		if got := tt.h.CategoryLabel(); got != tt.category {
			t.Errorf("CategoryLabel(%+v) = %q, want %q", tt.h, got, tt.category)
		}
	}
}
