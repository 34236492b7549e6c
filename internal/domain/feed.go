package domain

import "time"

// Feed identifies one of the two independent data streams.
type Feed string

const (
	FeedHeadlines Feed = "news"
	FeedQuotes    Feed = "stock"
)

// Outcome classifies how a feed result was produced.
type Outcome int

const (
	// OutcomeFresh means a live fetch just succeeded.
	OutcomeFresh Outcome = iota
	// OutcomeCached means a still-valid cache entry was served.
	OutcomeCached
	// OutcomeStale means the live fetch failed and a matching older entry was served.
	OutcomeStale
	// OutcomePlaceholder means sample data was served.
	OutcomePlaceholder
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFresh:
		return "fresh"
	case OutcomeCached:
		return "cached"
	case OutcomeStale:
		return "stale"
	case OutcomePlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Degraded reports whether the caller should be told the data is not live.
func (o Outcome) Degraded() bool {
	return o == OutcomeStale || o == OutcomePlaceholder
}

// FormatLastRefreshed renders the footer timestamp, "dd/mm/yy hh:mm" or the
// US "mm/dd/yy hh:mm" form. The zero time renders as "---".
func FormatLastRefreshed(t time.Time, usDateFormat bool) string {
	if t.IsZero() {
		return "Last refreshed: ---"
	}
	layout := "02/01/06 15:04"
	if usDateFormat {
		layout = "01/02/06 15:04"
	}
	return "Last refreshed: " + t.Local().Format(layout)
}
