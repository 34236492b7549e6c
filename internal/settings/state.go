package settings

import (
	"encoding/json"
	"fmt"
	"time"

	"ticker_go/internal/domain"
	"ticker_go/internal/normalize"
	"ticker_go/internal/scroll"
)

// SchemaVersion is the version written by Marshal.
//
//	0: flat settings object, no wrapper, single tickerSpeed
//	1: {settings, headlinesCache}
//	2: adds version
const SchemaVersion = 2

// HeadlinesCache is the persisted form of the headline cache entry.
type HeadlinesCache struct {
	CacheKey  Fingerprint       `json:"cacheKey"`
	FetchedAt int64             `json:"fetchedAt"` // unix milliseconds
	Headlines []domain.Headline `json:"headlines"`
}

// FetchedTime converts FetchedAt to a time.Time.
func (c *HeadlinesCache) FetchedTime() time.Time {
	if c == nil || c.FetchedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(c.FetchedAt)
}

// State is everything persisted between runs. The quote cache is never
// persisted.
type State struct {
	Version        int             `json:"version"`
	Settings       Settings        `json:"settings"`
	HeadlinesCache *HeadlinesCache `json:"headlinesCache"`
}

// DefaultState is used when nothing has been persisted yet.
func DefaultState() State {
	return State{Version: SchemaVersion, Settings: Defaults()}
}

// Marshal encodes the state at the current schema version.
func Marshal(s State) ([]byte, error) {
	s.Version = SchemaVersion
	return json.Marshal(s)
}

type rawState struct {
	Version        int             `json:"version"`
	Settings       json.RawMessage `json:"settings"`
	HeadlinesCache json.RawMessage `json:"headlinesCache"`
}

type rawCache struct {
	CacheKey  Fingerprint       `json:"cacheKey"`
	FetchedAt int64             `json:"fetchedAt"`
	Headlines []json.RawMessage `json:"headlines"`
}

// Upgrade decodes a persisted blob of any schema version into the current
// State. Settings are merged over Defaults and cached headlines are
// re-normalized.
func Upgrade(data []byte) (State, error) {
	if len(data) == 0 {
		return DefaultState(), nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return DefaultState(), fmt.Errorf("decode persisted state: %w", err)
	}
	if fields == nil {
		return DefaultState(), nil
	}

	raw := rawState{}
	if _, wrapped := fields["settings"]; wrapped {
		if err := json.Unmarshal(data, &raw); err != nil {
			return DefaultState(), fmt.Errorf("decode persisted state: %w", err)
		}
		if raw.Version == 0 {
			raw.Version = 1
		}
	} else {
		// v0: the whole object is the settings, and there is no cache.
		raw.Settings = data
	}

	settings, err := upgradeSettings(raw.Settings)
	if err != nil {
		return DefaultState(), err
	}

	state := State{Version: SchemaVersion, Settings: settings}
	if raw.Version >= 1 {
		state.HeadlinesCache = upgradeCache(raw.HeadlinesCache)
	}
	return state, nil
}

func upgradeSettings(data json.RawMessage) (Settings, error) {
	s := Defaults()
	if len(data) == 0 || string(data) == "null" {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Defaults(), fmt.Errorf("decode settings: %w", err)
	}

	// A single legacy tickerSpeed seeds both per-feed speeds when they were
	// never saved.
	var legacy struct {
		TickerSpeed      *string `json:"tickerSpeed"`
		NewsTickerSpeed  *string `json:"newsTickerSpeed"`
		StockTickerSpeed *string `json:"stockTickerSpeed"`
	}
	if err := json.Unmarshal(data, &legacy); err == nil && legacy.TickerSpeed != nil {
		if legacy.NewsTickerSpeed == nil {
			s.NewsTickerSpeed = scrollSpeed(*legacy.TickerSpeed)
		}
		if legacy.StockTickerSpeed == nil {
			s.StockTickerSpeed = scrollSpeed(*legacy.TickerSpeed)
		}
	}
	return s, nil
}

func upgradeCache(data json.RawMessage) *HeadlinesCache {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var rc rawCache
	if err := json.Unmarshal(data, &rc); err != nil {
		return nil
	}
	headlines := make([]domain.Headline, 0, len(rc.Headlines))
	for _, item := range rc.Headlines {
		if h, ok := normalize.HeadlineJSON(item); ok {
			headlines = append(headlines, h)
		}
	}
	return &HeadlinesCache{
		CacheKey:  rc.CacheKey,
		FetchedAt: rc.FetchedAt,
		Headlines: headlines,
	}
}

func scrollSpeed(v string) scroll.Speed {
	if sp := scroll.Speed(v); sp.Valid() {
		return sp
	}
	return scroll.SpeedMedium
}
