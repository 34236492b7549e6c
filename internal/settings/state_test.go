package settings

import (
	"testing"
	"time"

	"ticker_go/internal/domain"
	"ticker_go/internal/scroll"
)

func TestUpgrade_Empty(t *testing.T) {
	state, err := Upgrade(nil)
	if err != nil {
		t.Fatalf("Upgrade(nil) failed: %v", err)
	}
	if state.Version != SchemaVersion || state.HeadlinesCache != nil {
		t.Errorf("unexpected default state %+v", state)
	}
	if state.Settings.FinnhubSymbols != Defaults().FinnhubSymbols {
		t.Error("defaults should be applied")
	}
}

func TestUpgrade_LegacyFlat(t *testing.T) {
	blob := []byte(`{
		"mySetting": "default",
		"tickerSpeed": "fast",
		"currentsApiKey": "currents-key",
		"currentsLimit": 5,
		"headlinesCache": {"cacheKey": "x", "fetchedAt": 1, "headlines": ["a"]}
	}`)

	state, err := Upgrade(blob)
	if err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}
	s := state.Settings
	if s.NewsTickerSpeed != scroll.SpeedFast || s.StockTickerSpeed != scroll.SpeedFast {
		t.Errorf("tickerSpeed should seed both speeds, got %s/%s", s.NewsTickerSpeed, s.StockTickerSpeed)
	}
	if s.CurrentsAPIKey != "currents-key" || s.ResolvedLimit() != 5 {
		t.Errorf("flat fields not merged: %+v", s)
	}
	if !s.ShowNewsFooter || s.TickerDisplayMode != DisplayBoth {
		t.Error("missing fields should take defaults")
	}
	if state.HeadlinesCache != nil {
		t.Error("legacy flat blobs carry no usable cache")
	}
}

func TestUpgrade_TickerSpeedDoesNotOverrideExplicit(t *testing.T) {
	blob := []byte(`{"settings": {"tickerSpeed": "fast", "newsTickerSpeed": "very-slow"}}`)
	state, err := Upgrade(blob)
	if err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}
	if state.Settings.NewsTickerSpeed != scroll.SpeedVerySlow {
		t.Errorf("explicit news speed overwritten: %s", state.Settings.NewsTickerSpeed)
	}
	if state.Settings.StockTickerSpeed != scroll.SpeedFast {
		t.Errorf("stock speed should come from tickerSpeed, got %s", state.Settings.StockTickerSpeed)
	}
}

func TestUpgrade_RenormalizesCache(t *testing.T) {
	blob := []byte(`{
		"settings": {"currentsLimit": 4},
		"headlinesCache": {
			"cacheKey": "k",
			"fetchedAt": 1700000000000,
			"headlines": [
				"  bare string title ",
				{"title": " With URL ", "url": " https://a.com/1 ", "category": ["", "tech"]},
				{"title": "   "},
				{"url": "https://no-title"}
			]
		}
	}`)

	state, err := Upgrade(blob)
	if err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}
	cache := state.HeadlinesCache
	if cache == nil {
		t.Fatal("cache should be loaded")
	}
	if cache.CacheKey != "k" || !cache.FetchedTime().Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("cache metadata lost: %+v", cache)
	}
	if len(cache.Headlines) != 2 {
		t.Fatalf("expected 2 headlines, got %+v", cache.Headlines)
	}
	if cache.Headlines[0].Title != "bare string title" {
		t.Errorf("bare string not normalized: %+v", cache.Headlines[0])
	}
	want := domain.Headline{Title: "With URL", URL: "https://a.com/1", Category: domain.ListCategory("tech")}
	got := cache.Headlines[1]
	if got.Title != want.Title || got.URL != want.URL || got.CategoryLabel() != "tech" {
		t.Errorf("object not normalized: %+v", got)
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	in := DefaultState()
	in.Settings.CurrentsDomains = "bbc.com"
	in.HeadlinesCache = &HeadlinesCache{
		CacheKey:  in.Settings.HeadlineFingerprint(),
		FetchedAt: 42,
		Headlines: []domain.Headline{{Title: "A", URL: "https://a"}},
	}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out, err := Upgrade(data)
	if err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}
	if out.Settings.CurrentsDomains != "bbc.com" || out.HeadlinesCache == nil ||
		out.HeadlinesCache.CacheKey != in.HeadlinesCache.CacheKey || len(out.HeadlinesCache.Headlines) != 1 {
		t.Errorf("round trip lost data: %+v", out)
	}
}

func TestUpgrade_Corrupt(t *testing.T) {
	state, err := Upgrade([]byte("{not json"))
	if err == nil {
		t.Error("expected error for corrupt blob")
	}
	if state.Settings.FinnhubSymbols == "" {
		t.Error("defaults should still be returned")
	}
}
