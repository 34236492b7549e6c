// Package settings holds the user-facing ticker configuration, the request
// fingerprints derived from it, and the persisted state schema.
package settings

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"ticker_go/internal/normalize"
	"ticker_go/internal/scroll"
)

// DisplayMode selects which feeds are shown.
type DisplayMode string

const (
	DisplayBoth   DisplayMode = "both"
	DisplayNews   DisplayMode = "news"
	DisplayStocks DisplayMode = "stocks"
)

// ShowsNews reports whether the headline strip is visible.
func (m DisplayMode) ShowsNews() bool { return m != DisplayStocks }

// ShowsStocks reports whether the stock strip is visible.
func (m DisplayMode) ShowsStocks() bool { return m != DisplayNews }

const (
	DefaultLimit = 3
	MinLimit     = 1
	MaxLimit     = 50
)

// Limit is the configured headline count. It decodes from a number or a
// numeric string; anything else decodes as NaN and resolves to DefaultLimit.
type Limit float64

func (l *Limit) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = Limit(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*l = Limit(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*l = Limit(parsed)
			return nil
		}
	}
	*l = Limit(math.NaN())
	return nil
}

func (l Limit) MarshalJSON() ([]byte, error) {
	f := float64(l)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Resolved floors and clamps the limit to [MinLimit, MaxLimit].
func (l Limit) Resolved() int {
	f := float64(l)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultLimit
	}
	return int(math.Min(MaxLimit, math.Max(MinLimit, math.Floor(f))))
}

// Settings mirrors the persisted settings object. JSON names are kept stable
// so blobs written by older versions keep loading.
type Settings struct {
	NewsTickerSpeed      scroll.Speed     `json:"newsTickerSpeed"`
	StockTickerSpeed     scroll.Speed     `json:"stockTickerSpeed"`
	NewsTickerDirection  scroll.Direction `json:"newsTickerDirection"`
	StockTickerDirection scroll.Direction `json:"stockTickerDirection"`
	ShowNewsFooter       bool             `json:"showNewsFooter"`
	ShowStockFooter      bool             `json:"showStockFooter"`
	UseUSDateFormat      bool             `json:"useUsDateFormat"`
	RefreshOnAppOpen     bool             `json:"refreshOnAppOpen"`
	TickerDisplayMode    DisplayMode      `json:"tickerDisplayMode"`
	ShowHeadlineMeta     bool             `json:"showHeadlineMeta"`

	StockChangeColor         string `json:"stockChangeColor"`
	StockChangeNegativeColor string `json:"stockChangeNegativeColor"`
	StockPriceColor          string `json:"stockPriceColor"`

	// Secret names, resolved through the secret store. Never the key itself.
	FinnhubAPIKey  string `json:"finnhubApiKey"`
	FinnhubSymbols string `json:"finnhubSymbols"`
	CurrentsAPIKey string `json:"currentsApiKey"`

	CurrentsCategory       string `json:"currentsCategory"`
	CurrentsLimit          Limit  `json:"currentsLimit"`
	CurrentsRegion         string `json:"currentsRegion"`
	CurrentsLanguage       string `json:"currentsLanguage"`
	CurrentsDomains        string `json:"currentsDomains"`
	CurrentsExcludeDomains string `json:"currentsExcludeDomains"`
}

// Defaults returns a fresh copy of the default settings.
func Defaults() Settings {
	return Settings{
		NewsTickerSpeed:      scroll.SpeedSlow,
		StockTickerSpeed:     scroll.SpeedSlow,
		NewsTickerDirection:  scroll.DirectionLeft,
		StockTickerDirection: scroll.DirectionLeft,
		ShowNewsFooter:       true,
		ShowStockFooter:      true,
		TickerDisplayMode:    DisplayBoth,
		ShowHeadlineMeta:     true,
		FinnhubSymbols:       "AAPL, MSFT, GOOGL, AMZN, TSLA, NVDA, META",
		CurrentsLimit:        10,
	}
}

// DisplayMode returns the configured mode, defaulting to both feeds.
func (s Settings) DisplayMode() DisplayMode {
	switch s.TickerDisplayMode {
	case DisplayNews, DisplayStocks:
		return s.TickerDisplayMode
	default:
		return DisplayBoth
	}
}

// ResolvedLimit is the effective headline limit.
func (s Settings) ResolvedLimit() int {
	return s.CurrentsLimit.Resolved()
}

// Symbols returns the normalized stock symbols.
func (s Settings) Symbols() []string {
	return normalize.Symbols(s.FinnhubSymbols)
}

// Domains returns the normalized included news domains.
func (s Settings) Domains() []string {
	return normalize.Domains(s.CurrentsDomains)
}

// ExcludedDomains returns the normalized excluded news domains.
func (s Settings) ExcludedDomains() []string {
	return normalize.Domains(s.CurrentsExcludeDomains)
}

// Fingerprint is an opaque cache key. Equal fingerprints mean the requests
// are interchangeable.
type Fingerprint string

type headlineKey struct {
	Category        string   `json:"category"`
	Region          string   `json:"region"`
	Language        string   `json:"language"`
	Domains         []string `json:"domains"`
	ExcludedDomains []string `json:"excludedDomains"`
	Limit           int      `json:"limit"`
}

type quoteKey struct {
	Symbols []string `json:"symbols"`
}

// HeadlineFingerprint covers every parameter that changes the headline
// result set. Domain lists are compared as sets.
func (s Settings) HeadlineFingerprint() Fingerprint {
	return encodeKey(headlineKey{
		Category:        strings.TrimSpace(s.CurrentsCategory),
		Region:          strings.TrimSpace(s.CurrentsRegion),
		Language:        strings.TrimSpace(s.CurrentsLanguage),
		Domains:         sortedSet(s.Domains()),
		ExcludedDomains: sortedSet(s.ExcludedDomains()),
		Limit:           s.ResolvedLimit(),
	})
}

// QuoteFingerprint keys the quote cache on the symbol set.
func QuoteFingerprint(symbols []string) Fingerprint {
	return encodeKey(quoteKey{Symbols: sortedSet(symbols)})
}

func encodeKey(v any) Fingerprint {
	// Marshal of these plain structs cannot fail.
	b, _ := json.Marshal(v)
	return Fingerprint(b)
}

func sortedSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
