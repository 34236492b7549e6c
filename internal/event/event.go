// Package event defines the messages fanned out to rendering surfaces.
package event

import (
	"time"

	"ticker_go/internal/domain"
	"ticker_go/internal/settings"
)

// Type names an event kind.
type Type string

const (
	TypeHeadlines Type = "headlines"
	TypeQuotes    Type = "quotes"
	TypeNotice    Type = "notice"
	TypeSettings  Type = "settings"
)

// Event is anything the dispatcher can deliver.
type Event interface {
	GetSeq() uint64
	GetType() Type
	GetTs() int64
}

// BaseEvent carries the ordering fields. Seq orders updates of the same
// feed; Ts is unix milliseconds.
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64 { return e.Seq }
func (e BaseEvent) GetTs() int64   { return e.Ts }

// NewBase stamps an event with seq and the current time.
func NewBase(seq uint64) BaseEvent {
	return BaseEvent{Seq: seq, Ts: time.Now().UnixMilli()}
}

// HeadlinesEvent replaces the headline strip content.
type HeadlinesEvent struct {
	BaseEvent
	Outcome     domain.Outcome    `json:"outcome"`
	Headlines   []domain.Headline `json:"headlines"`
	RefreshedAt time.Time         `json:"refreshed_at"`
}

func (e *HeadlinesEvent) GetType() Type { return TypeHeadlines }

// QuotesEvent replaces the stock strip content.
type QuotesEvent struct {
	BaseEvent
	Outcome     domain.Outcome      `json:"outcome"`
	Quotes      []domain.StockQuote `json:"quotes"`
	RefreshedAt time.Time           `json:"refreshed_at"`
}

func (e *QuotesEvent) GetType() Type { return TypeQuotes }

// NoticeEvent is an advisory message for the user.
type NoticeEvent struct {
	BaseEvent
	Message string `json:"message"`
}

func (e *NoticeEvent) GetType() Type { return TypeNotice }

// SettingsEvent tells surfaces that display settings changed.
type SettingsEvent struct {
	BaseEvent
	Settings settings.Settings `json:"settings"`
}

func (e *SettingsEvent) GetType() Type { return TypeSettings }

// Feed returns the feed an event updates, or "" for unordered events.
func Feed(ev Event) domain.Feed {
	switch ev.GetType() {
	case TypeHeadlines:
		return domain.FeedHeadlines
	case TypeQuotes:
		return domain.FeedQuotes
	default:
		return ""
	}
}
