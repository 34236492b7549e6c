package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ticker_go/internal/domain"
	"ticker_go/internal/event"
	"ticker_go/internal/infra"
	"ticker_go/internal/service"
	"ticker_go/internal/settings"
)

// StateKey is the AppConfig row holding the persisted ticker state.
const StateKey = "ticker_state"

// Publisher delivers events to rendering surfaces.
type Publisher interface {
	Publish(ctx context.Context, ev event.Event) error
}

// Ticker owns the settings, both feed orchestrators and the persisted state.
// Every result it obtains is published to the surfaces.
type Ticker struct {
	store     domain.BlobStore
	publisher Publisher

	headlines *service.HeadlineService
	quotes    *service.QuoteService

	mu       sync.RWMutex
	settings settings.Settings

	saveMu sync.Mutex
	logger *slog.Logger
}

// TickerDeps are the collaborators of a Ticker.
type TickerDeps struct {
	Store     domain.BlobStore
	Headlines domain.HeadlineProvider
	Quotes    domain.QuoteProvider
	Secrets   domain.SecretResolver
	Publisher Publisher // nil: results are returned but not published
	Metrics   *infra.Metrics
}

// NewTicker loads and upgrades the persisted state, then wires the feed
// orchestrators. A corrupt blob is logged and replaced by defaults.
func NewTicker(deps TickerDeps) (*Ticker, error) {
	t := &Ticker{
		store:     deps.Store,
		publisher: deps.Publisher,
		logger:    slog.Default().With("module", "ticker"),
	}

	state, err := t.loadState()
	if err != nil {
		return nil, err
	}
	t.settings = state.Settings

	metrics := deps.Metrics
	if metrics == nil {
		metrics = infra.GlobalMetrics
	}
	notices := service.NewNotices(t)

	t.headlines = service.NewHeadlineService(deps.Headlines, deps.Secrets, t.Settings, notices,
		service.WithHeadlinePersist(t.persistHeadlines),
		service.WithHeadlineMetrics(metrics),
	)
	t.headlines.Restore(state.HeadlinesCache)

	t.quotes = service.NewQuoteService(deps.Quotes, deps.Secrets, t.Settings, notices,
		service.WithQuoteMetrics(metrics),
	)
	return t, nil
}

func (t *Ticker) loadState() (settings.State, error) {
	data, err := t.store.LoadBlob(StateKey)
	if err != nil {
		return settings.State{}, fmt.Errorf("load ticker state: %w", err)
	}
	state, err := settings.Upgrade(data)
	if err != nil {
		t.logger.Warn("Persisted state unreadable, using defaults", slog.Any("error", err))
		return settings.DefaultState(), nil
	}
	return state, nil
}

// Settings returns the current settings.
func (t *Ticker) Settings() settings.Settings {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.settings
}

// CachedHeadlines returns the cached headlines without fetching.
func (t *Ticker) CachedHeadlines() []domain.Headline {
	if snap := t.headlines.Snapshot(); snap != nil {
		return snap.Headlines
	}
	return nil
}

// LastRefreshed returns the fetch times behind the footers. The stock time
// is zero unless quotes are cached.
func (t *Ticker) LastRefreshed() (news, stocks time.Time) {
	return t.headlines.LastRefreshedAt(), t.quotes.LastRefreshedAt()
}

// UpdateSettings applies mutate, persists the result and redraws both feeds.
func (t *Ticker) UpdateSettings(ctx context.Context, mutate func(settings.Settings) (settings.Settings, error)) (settings.Settings, error) {
	next, err := t.SaveSettings(mutate)
	if err != nil {
		return next, err
	}

	t.publish(ctx, &event.SettingsEvent{BaseEvent: event.NewBase(0), Settings: next})
	t.Render(ctx)
	return next, nil
}

// SaveSettings applies mutate and persists the result without touching
// the feeds.
func (t *Ticker) SaveSettings(mutate func(settings.Settings) (settings.Settings, error)) (settings.Settings, error) {
	t.mu.Lock()
	next, err := mutate(t.settings)
	if err != nil {
		t.mu.Unlock()
		return t.settings, err
	}
	t.settings = next
	t.mu.Unlock()

	if err := t.save(); err != nil {
		return next, err
	}
	return next, nil
}

// Open runs the startup sequence. With refresh-on-open both feeds are
// force-refreshed silently before the surfaces are drawn.
func (t *Ticker) Open(ctx context.Context) {
	if t.Settings().RefreshOnAppOpen {
		t.publishHeadlines(ctx, t.headlines.Get(ctx, service.GetOptions{Force: true, Silent: true}))
		t.publishQuotes(ctx, t.quotes.Get(ctx, service.GetOptions{Force: true, Silent: true}))
		return
	}
	t.Render(ctx)
}

// Render serves both visible feeds from cache where possible.
func (t *Ticker) Render(ctx context.Context) {
	mode := t.Settings().DisplayMode()
	if mode.ShowsNews() {
		t.LoadHeadlines(ctx)
	}
	if mode.ShowsStocks() {
		t.LoadQuotes(ctx)
	}
}

// LoadHeadlines serves headlines without forcing a fetch.
func (t *Ticker) LoadHeadlines(ctx context.Context) service.Result[domain.Headline] {
	res := t.headlines.Get(ctx, service.GetOptions{})
	t.publishHeadlines(ctx, res)
	return res
}

// LoadQuotes serves quotes without forcing a fetch.
func (t *Ticker) LoadQuotes(ctx context.Context) service.Result[domain.StockQuote] {
	res := t.quotes.Get(ctx, service.GetOptions{})
	t.publishQuotes(ctx, res)
	return res
}

// RefreshHeadlines bypasses the cache. Surfaces always receive the result;
// the return value reports whether it is new.
func (t *Ticker) RefreshHeadlines(ctx context.Context) bool {
	res := t.headlines.Refresh(ctx)
	t.publishHeadlines(ctx, res)
	t.logger.Info("Headlines refreshed", slog.String("outcome", res.Outcome.String()), slog.Int("count", len(res.Items)))
	return res.Refreshed()
}

// RefreshStocks drops the quote cache and fetches.
func (t *Ticker) RefreshStocks(ctx context.Context) bool {
	res := t.quotes.Refresh(ctx)
	t.publishQuotes(ctx, res)
	t.logger.Info("Stocks refreshed", slog.String("outcome", res.Outcome.String()), slog.Int("count", len(res.Items)))
	return res.Refreshed()
}

// Notify implements domain.Notifier by publishing a notice event.
func (t *Ticker) Notify(msg string) {
	t.publish(context.Background(), &event.NoticeEvent{BaseEvent: event.NewBase(0), Message: msg})
}

func (t *Ticker) publishHeadlines(ctx context.Context, res service.Result[domain.Headline]) {
	t.publish(ctx, &event.HeadlinesEvent{
		BaseEvent:   event.NewBase(res.Seq),
		Outcome:     res.Outcome,
		Headlines:   res.Items,
		RefreshedAt: res.RefreshedAt,
	})
}

func (t *Ticker) publishQuotes(ctx context.Context, res service.Result[domain.StockQuote]) {
	t.publish(ctx, &event.QuotesEvent{
		BaseEvent:   event.NewBase(res.Seq),
		Outcome:     res.Outcome,
		Quotes:      res.Items,
		RefreshedAt: res.RefreshedAt,
	})
}

func (t *Ticker) publish(ctx context.Context, ev event.Event) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.Publish(ctx, ev); err != nil {
		t.logger.Warn("Failed to publish event", slog.String("type", string(ev.GetType())), slog.Any("error", err))
	}
}

func (t *Ticker) persistHeadlines(settings.HeadlinesCache) {
	if err := t.save(); err != nil {
		t.logger.Error("Failed to persist headline cache", slog.Any("error", err))
	}
}

// save writes settings and the headline cache as one blob.
func (t *Ticker) save() error {
	t.saveMu.Lock()
	defer t.saveMu.Unlock()

	data, err := settings.Marshal(settings.State{
		Settings:       t.Settings(),
		HeadlinesCache: t.headlines.Snapshot(),
	})
	if err != nil {
		return fmt.Errorf("encode ticker state: %w", err)
	}
	if err := t.store.SaveBlob(StateKey, data); err != nil {
		return fmt.Errorf("save ticker state: %w", err)
	}
	return nil
}
