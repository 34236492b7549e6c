package service

import (
	"context"
	"sync"
	"time"

	"ticker_go/internal/domain"
	"ticker_go/internal/settings"
)

type fakeSecrets map[string]string

func (f fakeSecrets) Secret(name string) string { return f[name] }

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type fakeHeadlineProvider struct {
	mu       sync.Mutex
	queries  []domain.HeadlineQuery
	byDomain map[string][]domain.RawHeadline
	latest   []domain.RawHeadline
	err      error
}

func (f *fakeHeadlineProvider) FetchHeadlines(_ context.Context, _ string, q domain.HeadlineQuery) ([]domain.RawHeadline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	if q.Endpoint == domain.EndpointSearch {
		return f.byDomain[q.Domain], nil
	}
	return f.latest, nil
}

func (f *fakeHeadlineProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeQuoteProvider struct {
	mu     sync.Mutex
	calls  int
	quotes func(symbols []string) []domain.StockQuote
	err    error
}

func (f *fakeQuoteProvider) FetchQuotes(_ context.Context, _ string, symbols []string) ([]domain.StockQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes(symbols), nil
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// settingsBox holds mutable settings for a service under test.
type settingsBox struct {
	mu sync.Mutex
	s  settings.Settings
}

func newSettingsBox(mutate func(*settings.Settings)) *settingsBox {
	s := settings.Defaults()
	s.CurrentsAPIKey = "currents"
	s.FinnhubAPIKey = "finnhub"
	if mutate != nil {
		mutate(&s)
	}
	return &settingsBox{s: s}
}

func (b *settingsBox) Get() settings.Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.s
}

func (b *settingsBox) Update(mutate func(*settings.Settings)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	mutate(&b.s)
}
