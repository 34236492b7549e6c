package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"ticker_go/internal/domain"
	"ticker_go/internal/infra"
	"ticker_go/internal/normalize"
	"ticker_go/internal/settings"
)

const (
	// HeadlineTTL is how long a headline fetch is served without refetching.
	// It is also the search window for per-domain requests.
	HeadlineTTL = 12 * time.Hour

	currentsLabel = "Currents"

	noticeHeadlinesFailed = "Failed to fetch Currents headlines. Showing cached items."
	noticeHeadlinesSample = "No cached headlines available. Showing sample items."
)

// HeadlineService decides, per request, whether to serve cached headlines,
// fetch new ones, or fall back to stale or sample items.
type HeadlineService struct {
	provider domain.HeadlineProvider
	secrets  domain.SecretResolver
	settings func() settings.Settings
	notices  *Notices
	metrics  *infra.Metrics

	cache Cache[domain.Headline]
	seq   atomic.Uint64

	// onStore is called after a new entry replaced the cache.
	onStore func(settings.HeadlinesCache)
	now     func() time.Time
	logger  *slog.Logger
}

// HeadlineOption configures a HeadlineService.
type HeadlineOption func(*HeadlineService)

// WithHeadlinePersist registers the hook that persists new cache entries.
func WithHeadlinePersist(fn func(settings.HeadlinesCache)) HeadlineOption {
	return func(s *HeadlineService) { s.onStore = fn }
}

// WithHeadlineClock overrides time.Now.
func WithHeadlineClock(now func() time.Time) HeadlineOption {
	return func(s *HeadlineService) { s.now = now }
}

// WithHeadlineMetrics records outcomes into m.
func WithHeadlineMetrics(m *infra.Metrics) HeadlineOption {
	return func(s *HeadlineService) { s.metrics = m }
}

// NewHeadlineService wires the orchestrator. current is read on every
// request so settings changes apply immediately.
func NewHeadlineService(provider domain.HeadlineProvider, secrets domain.SecretResolver, current func() settings.Settings, notices *Notices, opts ...HeadlineOption) *HeadlineService {
	s := &HeadlineService{
		provider: provider,
		secrets:  secrets,
		settings: current,
		notices:  notices,
		metrics:  &infra.Metrics{},
		now:      time.Now,
		logger:   slog.Default().With("module", "headlines"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notices == nil {
		s.notices = NewNotices(nil)
	}
	return s
}

// Restore seeds the cache from persisted state.
func (s *HeadlineService) Restore(c *settings.HeadlinesCache) {
	if c == nil {
		return
	}
	s.cache.Restore(CacheEntry[domain.Headline]{
		Fingerprint: c.CacheKey,
		FetchedAt:   c.FetchedTime(),
		Items:       c.Headlines,
	})
}

// Snapshot returns the cache in its persisted form, or nil when empty.
func (s *HeadlineService) Snapshot() *settings.HeadlinesCache {
	entry, ok := s.cache.Get()
	if !ok {
		return nil
	}
	return toPersisted(entry)
}

// LastRefreshedAt is the fetch time of the cached headlines.
func (s *HeadlineService) LastRefreshedAt() time.Time {
	entry, ok := s.cache.Get()
	if !ok {
		return time.Time{}
	}
	return entry.FetchedAt
}

// Get serves headlines in strict precedence: fresh cache, placeholder when
// no credential, live fetch, stale cache, placeholder.
func (s *HeadlineService) Get(ctx context.Context, opts GetOptions) Result[domain.Headline] {
	cfg := s.settings()
	limit := cfg.ResolvedLimit()
	fp := cfg.HeadlineFingerprint()
	apiKey := s.secrets.Secret(cfg.CurrentsAPIKey)

	entry, hasEntry := s.cache.Get()
	matches := hasEntry && entry.Matches(fp)

	// 1. Fresh cache. A cache without any URL predates URL support and is
	// only reused when nothing could replace it.
	if !opts.Force && matches && entry.FreshAt(s.now(), HeadlineTTL) && len(entry.Items) > 0 &&
		(anyURL(entry.Items) || apiKey == "") {
		s.metrics.RecordCacheHit()
		return s.result(entry.Items, limit, domain.OutcomeCached, entry.Seq, nil)
	}

	// 2. No credential: sample items, cache untouched.
	if apiKey == "" {
		s.notices.MissingSecret(currentsLabel, cfg.CurrentsAPIKey)
		s.metrics.RecordPlaceholder()
		return s.result(domain.FallbackHeadlines, limit, domain.OutcomePlaceholder, s.cache.Seq(), domain.ErrMissingCredential)
	}

	// 3. Live fetch.
	seq := s.seq.Add(1)
	started := s.now()
	headlines, err := s.fetch(ctx, cfg, apiKey, limit)
	s.metrics.RecordFetch(s.now().Sub(started))
	if err == nil && len(headlines) > 0 {
		fresh := CacheEntry[domain.Headline]{
			Fingerprint: fp,
			FetchedAt:   s.now(),
			Items:       headlines,
			Seq:         seq,
		}
		if s.cache.Store(fresh) {
			s.persist(fresh)
		} else {
			s.logger.Debug("Newer headlines already cached, keeping them", slog.Uint64("seq", seq))
		}
		return Result[domain.Headline]{
			Items:       truncate(headlines, limit),
			Outcome:     domain.OutcomeFresh,
			Seq:         seq,
			RefreshedAt: fresh.FetchedAt,
		}
	}
	if err != nil {
		s.metrics.RecordError()
		s.logger.Error("Failed to fetch Currents headlines", slog.Any("error", err))
		if !opts.Silent {
			s.notices.Notify(noticeHeadlinesFailed)
		}
	} else {
		err = errors.New("no headlines returned")
	}

	// 4. Stale cache for the same request.
	if matches && len(entry.Items) > 0 {
		s.metrics.RecordStale()
		return s.result(entry.Items, limit, domain.OutcomeStale, entry.Seq, err)
	}

	// 5. Sample items.
	if !opts.Silent {
		s.notices.Notify(noticeHeadlinesSample)
	}
	s.metrics.RecordPlaceholder()
	return s.result(domain.FallbackHeadlines, limit, domain.OutcomePlaceholder, s.cache.Seq(), err)
}

// Refresh bypasses the cache. The result is what surfaces should show;
// Refreshed() tells whether it is new.
func (s *HeadlineService) Refresh(ctx context.Context) Result[domain.Headline] {
	return s.Get(ctx, GetOptions{Force: true})
}

func (s *HeadlineService) result(items []domain.Headline, limit int, outcome domain.Outcome, seq uint64, err error) Result[domain.Headline] {
	return Result[domain.Headline]{
		Items:       truncate(items, limit),
		Outcome:     outcome,
		Seq:         seq,
		RefreshedAt: s.LastRefreshedAt(),
		Err:         err,
	}
}

func (s *HeadlineService) persist(entry CacheEntry[domain.Headline]) {
	if s.onStore == nil {
		return
	}
	s.onStore(*toPersisted(entry))
}

// fetch queries latest news, or each configured domain in turn.
func (s *HeadlineService) fetch(ctx context.Context, cfg settings.Settings, apiKey string, limit int) ([]domain.Headline, error) {
	base := domain.HeadlineQuery{
		Language:  strings.TrimSpace(cfg.CurrentsLanguage),
		Category:  nonEmpty(cfg.CurrentsCategory),
		Country:   nonEmpty(cfg.CurrentsRegion),
		DomainNot: cfg.ExcludedDomains(),
		Limit:     limit,
	}

	domains := cfg.Domains()
	if len(domains) == 0 {
		q := base
		q.Endpoint = domain.EndpointLatest
		raw, err := s.provider.FetchHeadlines(ctx, apiKey, q)
		if err != nil {
			return nil, err
		}
		return normalize.Headlines(raw), nil
	}

	return s.fetchDomains(ctx, base, apiKey, domains, limit)
}

// fetchDomains searches domain by domain, deduplicating by URL or title,
// and stops as soon as limit items were collected. Requests are sequential
// because each depends on the running total.
func (s *HeadlineService) fetchDomains(ctx context.Context, base domain.HeadlineQuery, apiKey string, domains []string, limit int) ([]domain.Headline, error) {
	startDate := s.now().Add(-HeadlineTTL)
	collected := make([]domain.Headline, 0, limit)
	seen := make(map[string]bool)
	queried := make(map[string]bool, len(domains))

	for _, d := range domains {
		if queried[d] {
			continue
		}
		queried[d] = true

		q := base
		q.Endpoint = domain.EndpointSearch
		q.Domain = d
		q.StartDate = startDate

		raw, err := s.provider.FetchHeadlines(ctx, apiKey, q)
		if err != nil {
			return nil, err
		}

		for _, h := range normalize.Headlines(raw) {
			key := h.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			collected = append(collected, h)
		}

		if len(collected) >= limit {
			break
		}
	}

	return truncate(collected, limit), nil
}

func toPersisted(entry CacheEntry[domain.Headline]) *settings.HeadlinesCache {
	var fetchedAt int64
	if !entry.FetchedAt.IsZero() {
		fetchedAt = entry.FetchedAt.UnixMilli()
	}
	return &settings.HeadlinesCache{
		CacheKey:  entry.Fingerprint,
		FetchedAt: fetchedAt,
		Headlines: append([]domain.Headline(nil), entry.Items...),
	}
}

func anyURL(items []domain.Headline) bool {
	for _, h := range items {
		if h.HasURL() {
			return true
		}
	}
	return false
}

func nonEmpty(value string) []string {
	if v := strings.TrimSpace(value); v != "" {
		return []string{v}
	}
	return nil
}
