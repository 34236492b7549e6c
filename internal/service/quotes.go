package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"ticker_go/internal/domain"
	"ticker_go/internal/infra"
	"ticker_go/internal/settings"
)

const (
	// QuoteTTL is how long quotes are served without refetching.
	QuoteTTL = 60 * time.Second

	finnhubLabel = "Finnhub"
)

// QuoteService is the quote counterpart of HeadlineService. Its cache lives
// in memory only.
type QuoteService struct {
	provider domain.QuoteProvider
	secrets  domain.SecretResolver
	settings func() settings.Settings
	notices  *Notices
	metrics  *infra.Metrics

	cache Cache[domain.StockQuote]
	seq   atomic.Uint64

	now    func() time.Time
	logger *slog.Logger
}

// QuoteOption configures a QuoteService.
type QuoteOption func(*QuoteService)

// WithQuoteClock overrides time.Now.
func WithQuoteClock(now func() time.Time) QuoteOption {
	return func(s *QuoteService) { s.now = now }
}

// WithQuoteMetrics records outcomes into m.
func WithQuoteMetrics(m *infra.Metrics) QuoteOption {
	return func(s *QuoteService) { s.metrics = m }
}

// NewQuoteService wires the orchestrator.
func NewQuoteService(provider domain.QuoteProvider, secrets domain.SecretResolver, current func() settings.Settings, notices *Notices, opts ...QuoteOption) *QuoteService {
	s := &QuoteService{
		provider: provider,
		secrets:  secrets,
		settings: current,
		notices:  notices,
		metrics:  &infra.Metrics{},
		now:      time.Now,
		logger:   slog.Default().With("module", "quotes"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notices == nil {
		s.notices = NewNotices(nil)
	}
	return s
}

// LastRefreshedAt is the fetch time of the cached quotes.
func (s *QuoteService) LastRefreshedAt() time.Time {
	entry, ok := s.cache.Get()
	if !ok {
		return time.Time{}
	}
	return entry.FetchedAt
}

// Get serves quotes for the configured symbols. An empty Items slice means
// the surfaces show their sample cells.
func (s *QuoteService) Get(ctx context.Context, opts GetOptions) Result[domain.StockQuote] {
	cfg := s.settings()
	symbols := cfg.Symbols()
	if len(symbols) == 0 {
		return Result[domain.StockQuote]{Items: []domain.StockQuote{}, Outcome: domain.OutcomePlaceholder, Seq: s.cache.Seq()}
	}

	apiKey := s.secrets.Secret(cfg.FinnhubAPIKey)
	if apiKey == "" {
		s.notices.MissingSecret(finnhubLabel, cfg.FinnhubAPIKey)
		s.metrics.RecordPlaceholder()
		return Result[domain.StockQuote]{
			Items:   []domain.StockQuote{},
			Outcome: domain.OutcomePlaceholder,
			Seq:     s.cache.Seq(),
			Err:     domain.ErrMissingCredential,
		}
	}

	fp := settings.QuoteFingerprint(symbols)
	entry, hasEntry := s.cache.Get()
	matches := hasEntry && entry.Matches(fp)

	if !opts.Force && matches && entry.FreshAt(s.now(), QuoteTTL) && len(entry.Items) > 0 {
		s.metrics.RecordCacheHit()
		return s.served(entry, symbols, domain.OutcomeCached, nil)
	}

	seq := s.seq.Add(1)
	started := s.now()
	quotes, err := s.provider.FetchQuotes(ctx, apiKey, symbols)
	s.metrics.RecordFetch(s.now().Sub(started))
	if err == nil && len(quotes) > 0 {
		fresh := CacheEntry[domain.StockQuote]{
			Fingerprint: fp,
			FetchedAt:   s.now(),
			Items:       quotes,
			Seq:         seq,
		}
		if !s.cache.Store(fresh) {
			s.logger.Debug("Newer quotes already cached, keeping them", slog.Uint64("seq", seq))
		}
		return s.served(fresh, symbols, domain.OutcomeFresh, nil)
	}
	if err != nil {
		s.metrics.RecordError()
		s.logger.Error("Failed to fetch Finnhub stock quotes", slog.Any("error", err))
	} else {
		err = errors.New("no quotes returned")
	}

	if matches && len(entry.Items) > 0 {
		s.metrics.RecordStale()
		return s.served(entry, symbols, domain.OutcomeStale, err)
	}

	s.metrics.RecordPlaceholder()
	return Result[domain.StockQuote]{Items: []domain.StockQuote{}, Outcome: domain.OutcomePlaceholder, Seq: s.cache.Seq(), Err: err}
}

// Refresh drops the quote cache, then fetches. With the cache gone a failed
// refresh falls through to the placeholder.
func (s *QuoteService) Refresh(ctx context.Context) Result[domain.StockQuote] {
	s.cache.Clear()
	return s.Get(ctx, GetOptions{Force: true})
}

// served orders entry's quotes like symbols. The fingerprint is order
// independent, so a reordered symbol list still hits the cache.
func (s *QuoteService) served(entry CacheEntry[domain.StockQuote], symbols []string, outcome domain.Outcome, err error) Result[domain.StockQuote] {
	bySymbol := make(map[string]domain.StockQuote, len(entry.Items))
	for _, q := range entry.Items {
		if _, dup := bySymbol[q.Symbol]; !dup {
			bySymbol[q.Symbol] = q
		}
	}

	items := make([]domain.StockQuote, 0, len(symbols))
	for _, sym := range symbols {
		if q, ok := bySymbol[sym]; ok {
			items = append(items, q)
		}
	}
	if len(items) == 0 {
		items = truncate(entry.Items, len(symbols))
	}

	return Result[domain.StockQuote]{
		Items:       items,
		Outcome:     outcome,
		Seq:         entry.Seq,
		RefreshedAt: entry.FetchedAt,
		Err:         err,
	}
}
