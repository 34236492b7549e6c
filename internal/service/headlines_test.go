package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ticker_go/internal/domain"
	"ticker_go/internal/settings"
)

var keys = fakeSecrets{"currents": "live-key", "finnhub": "live-key"}

func raw(title, url string) domain.RawHeadline {
	return domain.RawHeadline{Title: title, URL: url}
}

func newHeadlineService(provider domain.HeadlineProvider, box *settingsBox, clk *clock, notifier *recordingNotifier, opts ...HeadlineOption) *HeadlineService {
	if notifier == nil {
		notifier = &recordingNotifier{}
	}
	opts = append([]HeadlineOption{WithHeadlineClock(clk.Now)}, opts...)
	return NewHeadlineService(provider, keys, box.Get, NewNotices(notifier), opts...)
}

func titles(items []domain.Headline) []string {
	out := make([]string, len(items))
	for i, h := range items {
		out[i] = h.Title
	}
	return out
}

func TestHeadlines_FreshCacheHit(t *testing.T) {
	provider := &fakeHeadlineProvider{latest: []domain.RawHeadline{raw("A", "https://a"), raw("B", "https://b")}}
	clk := newClock()
	svc := newHeadlineService(provider, newSettingsBox(nil), clk, nil)

	first := svc.Get(context.Background(), GetOptions{})
	if first.Outcome != domain.OutcomeFresh || len(first.Items) != 2 {
		t.Fatalf("first Get = %+v", first)
	}

	clk.Advance(HeadlineTTL - time.Minute)
	second := svc.Get(context.Background(), GetOptions{})
	if second.Outcome != domain.OutcomeCached {
		t.Errorf("expected cache hit, got %s", second.Outcome)
	}
	if provider.calls() != 1 {
		t.Errorf("cache hit must not call the provider, calls = %d", provider.calls())
	}
	if fmt.Sprint(titles(second.Items)) != fmt.Sprint(titles(first.Items)) {
		t.Errorf("cached payload differs: %v vs %v", titles(second.Items), titles(first.Items))
	}
	if second.Seq != first.Seq {
		t.Errorf("cache hit must carry the seq of the fetch that filled the cache: %d vs %d", second.Seq, first.Seq)
	}

	clk.Advance(2 * time.Minute)
	third := svc.Get(context.Background(), GetOptions{})
	if third.Outcome != domain.OutcomeFresh || provider.calls() != 2 {
		t.Errorf("expired cache should refetch: %s, calls = %d", third.Outcome, provider.calls())
	}
}

func TestHeadlines_FingerprintChangeInvalidates(t *testing.T) {
	provider := &fakeHeadlineProvider{latest: []domain.RawHeadline{raw("A", "https://a")}}
	box := newSettingsBox(nil)
	svc := newHeadlineService(provider, box, newClock(), nil)

	svc.Get(context.Background(), GetOptions{})
	box.Update(func(s *settings.Settings) { s.CurrentsCategory = "sports" })
	res := svc.Get(context.Background(), GetOptions{})

	if res.Outcome != domain.OutcomeFresh || provider.calls() != 2 {
		t.Errorf("changed parameters must refetch: %s, calls = %d", res.Outcome, provider.calls())
	}
	if got := provider.queries[1].Category; len(got) != 1 || got[0] != "sports" {
		t.Errorf("category not forwarded: %v", got)
	}
}

func TestHeadlines_StaleFallback(t *testing.T) {
	provider := &fakeHeadlineProvider{latest: []domain.RawHeadline{raw("Cached", "https://c")}}
	clk := newClock()
	notifier := &recordingNotifier{}
	svc := newHeadlineService(provider, newSettingsBox(nil), clk, notifier)

	svc.Get(context.Background(), GetOptions{})
	provider.err = &domain.HTTPError{Provider: "Currents", Status: 500}

	res := svc.Get(context.Background(), GetOptions{Force: true})
	if res.Outcome != domain.OutcomeStale {
		t.Fatalf("expected stale outcome, got %s", res.Outcome)
	}
	if len(res.Items) != 1 || res.Items[0].Title != "Cached" {
		t.Errorf("stale payload = %v", titles(res.Items))
	}
	var httpErr *domain.HTTPError
	if !errors.As(res.Err, &httpErr) {
		t.Errorf("degraded result should carry the fetch error, got %v", res.Err)
	}
	if got := notifier.all(); len(got) != 1 || got[0] != noticeHeadlinesFailed {
		t.Errorf("notices = %v", got)
	}

	// Stale entries are served even after the TTL.
	clk.Advance(48 * time.Hour)
	if res := svc.Get(context.Background(), GetOptions{}); res.Outcome != domain.OutcomeStale {
		t.Errorf("expired matching cache should still back a failure, got %s", res.Outcome)
	}
}

func TestHeadlines_FailureWithoutCache(t *testing.T) {
	provider := &fakeHeadlineProvider{err: errors.New("boom")}
	notifier := &recordingNotifier{}
	box := newSettingsBox(func(s *settings.Settings) { s.CurrentsLimit = 2 })
	svc := newHeadlineService(provider, box, newClock(), notifier)

	res := svc.Get(context.Background(), GetOptions{})
	if res.Outcome != domain.OutcomePlaceholder || len(res.Items) != 2 {
		t.Fatalf("expected 2 sample items, got %+v", res)
	}
	if got := notifier.all(); len(got) != 2 || got[1] != noticeHeadlinesSample {
		t.Errorf("notices = %v", got)
	}

	silent := &recordingNotifier{}
	svc = newHeadlineService(provider, box, newClock(), silent)
	svc.Get(context.Background(), GetOptions{Silent: true})
	if len(silent.all()) != 0 {
		t.Errorf("silent request raised notices: %v", silent.all())
	}
}

func TestHeadlines_EmptySuccessFallsBack(t *testing.T) {
	provider := &fakeHeadlineProvider{latest: []domain.RawHeadline{raw("  ", "https://blank")}}
	svc := newHeadlineService(provider, newSettingsBox(nil), newClock(), nil)

	res := svc.Get(context.Background(), GetOptions{})
	if res.Outcome != domain.OutcomePlaceholder {
		t.Errorf("zero usable items should fall back, got %s", res.Outcome)
	}
	if _, ok := svc.cache.Get(); ok {
		t.Error("an empty result must not be cached")
	}
}

func TestHeadlines_NoCredential(t *testing.T) {
	provider := &fakeHeadlineProvider{latest: []domain.RawHeadline{raw("A", "https://a")}}
	notifier := &recordingNotifier{}
	box := newSettingsBox(func(s *settings.Settings) {
		s.CurrentsAPIKey = "unknown-secret"
		s.CurrentsLimit = 3
	})
	svc := newHeadlineService(provider, box, newClock(), notifier)

	res := svc.Get(context.Background(), GetOptions{})
	svc.Get(context.Background(), GetOptions{Force: true})

	if provider.calls() != 0 {
		t.Error("no credential must never call the provider")
	}
	if res.Outcome != domain.OutcomePlaceholder || len(res.Items) != 3 {
		t.Errorf("expected 3 sample items, got %+v", res)
	}
	if res.Items[0].Title != domain.FallbackHeadlines[0].Title {
		t.Errorf("unexpected placeholder %q", res.Items[0].Title)
	}
	if !errors.Is(res.Err, domain.ErrMissingCredential) {
		t.Errorf("Err = %v", res.Err)
	}
	want := `Currents secret "unknown-secret" not found. Re-select it in Settings.`
	if got := notifier.all(); len(got) != 1 || got[0] != want {
		t.Errorf("missing secret should be reported once, got %v", got)
	}
}

func TestHeadlines_URLlessCacheRule(t *testing.T) {
	box := newSettingsBox(nil)
	fp := box.Get().HeadlineFingerprint()
	clk := newClock()
	legacy := &settings.HeadlinesCache{
		CacheKey:  fp,
		FetchedAt: clk.Now().Add(-time.Minute).UnixMilli(),
		Headlines: []domain.Headline{{Title: "old format"}},
	}

	t.Run("credential present refetches", func(t *testing.T) {
		provider := &fakeHeadlineProvider{latest: []domain.RawHeadline{raw("New", "https://n")}}
		svc := newHeadlineService(provider, box, clk, nil)
		svc.Restore(legacy)

		res := svc.Get(context.Background(), GetOptions{})
		if res.Outcome != domain.OutcomeFresh || provider.calls() != 1 {
			t.Errorf("url-less cache should be refetched, got %s", res.Outcome)
		}
	})

	t.Run("no credential serves it", func(t *testing.T) {
		provider := &fakeHeadlineProvider{}
		noKey := newSettingsBox(func(s *settings.Settings) { s.CurrentsAPIKey = "" })
		svc := NewHeadlineService(provider, keys, noKey.Get, nil, WithHeadlineClock(clk.Now))
		svc.Restore(&settings.HeadlinesCache{
			CacheKey:  noKey.Get().HeadlineFingerprint(),
			FetchedAt: legacy.FetchedAt,
			Headlines: legacy.Headlines,
		})

		res := svc.Get(context.Background(), GetOptions{})
		if res.Outcome != domain.OutcomeCached || res.Items[0].Title != "old format" {
			t.Errorf("url-less cache should be served without a credential, got %+v", res)
		}
	})
}

func TestHeadlines_DomainMerge(t *testing.T) {
	provider := &fakeHeadlineProvider{byDomain: map[string][]domain.RawHeadline{
		"bbc.com": {raw("Shared", "https://x/1"), raw("No URL", ""), raw("BBC only", "https://bbc/2")},
		"cnn.com": {raw("Shared again", "https://x/1"), raw("No URL", ""), raw("CNN only", "https://cnn/3")},
	}}
	clk := newClock()
	box := newSettingsBox(func(s *settings.Settings) {
		s.CurrentsDomains = "https://www.bbc.com, cnn.com, bbc.com"
		s.CurrentsExcludeDomains = "fox.com"
		s.CurrentsLimit = 10
	})
	svc := newHeadlineService(provider, box, clk, nil)

	res := svc.Get(context.Background(), GetOptions{})

	want := []string{"Shared", "No URL", "BBC only", "CNN only"}
	if fmt.Sprint(titles(res.Items)) != fmt.Sprint(want) {
		t.Errorf("merged = %v, want %v", titles(res.Items), want)
	}
	if provider.calls() != 2 {
		t.Errorf("each distinct domain is queried once, calls = %d", provider.calls())
	}
	for _, q := range provider.queries {
		if q.Endpoint != domain.EndpointSearch || q.Limit != 10 {
			t.Errorf("unexpected query %+v", q)
		}
		if !q.StartDate.Equal(clk.Now().Add(-HeadlineTTL)) {
			t.Errorf("start date = %v", q.StartDate)
		}
		if len(q.DomainNot) != 1 || q.DomainNot[0] != "fox.com" {
			t.Errorf("excluded domains = %v", q.DomainNot)
		}
	}
}

func TestHeadlines_DomainMergeEarlyExit(t *testing.T) {
	provider := &fakeHeadlineProvider{byDomain: map[string][]domain.RawHeadline{
		"a.com": {raw("1", "https://a/1"), raw("2", "https://a/2")},
		"b.com": {raw("3", "https://b/3"), raw("4", "https://b/4")},
		"c.com": {raw("5", "https://c/5")},
	}}
	box := newSettingsBox(func(s *settings.Settings) {
		s.CurrentsDomains = "a.com, b.com, c.com"
		s.CurrentsLimit = 3
	})
	svc := newHeadlineService(provider, box, newClock(), nil)

	res := svc.Get(context.Background(), GetOptions{})

	if provider.calls() != 2 {
		t.Errorf("merge should stop once the limit is reached, calls = %d", provider.calls())
	}
	if len(res.Items) != 3 {
		t.Errorf("output length = %d, want 3", len(res.Items))
	}
}

func TestHeadlines_DomainErrorFailsFetch(t *testing.T) {
	provider := &fakeHeadlineProvider{err: errors.New("search down")}
	box := newSettingsBox(func(s *settings.Settings) { s.CurrentsDomains = "a.com, b.com" })
	svc := newHeadlineService(provider, box, newClock(), nil)

	res := svc.Get(context.Background(), GetOptions{Silent: true})
	if res.Outcome != domain.OutcomePlaceholder || provider.calls() != 1 {
		t.Errorf("first domain failure should abort, got %s after %d calls", res.Outcome, provider.calls())
	}
}

func TestHeadlines_PersistHook(t *testing.T) {
	provider := &fakeHeadlineProvider{latest: []domain.RawHeadline{raw("A", "https://a")}}
	clk := newClock()
	var persisted []settings.HeadlinesCache
	svc := newHeadlineService(provider, newSettingsBox(nil), clk, nil,
		WithHeadlinePersist(func(c settings.HeadlinesCache) { persisted = append(persisted, c) }))

	svc.Get(context.Background(), GetOptions{})
	svc.Get(context.Background(), GetOptions{}) // cache hit, nothing new

	if len(persisted) != 1 {
		t.Fatalf("expected one persist, got %d", len(persisted))
	}
	if persisted[0].FetchedAt != clk.Now().UnixMilli() || persisted[0].Headlines[0].Title != "A" {
		t.Errorf("persisted = %+v", persisted[0])
	}
	if !svc.LastRefreshedAt().Equal(clk.Now()) {
		t.Errorf("LastRefreshedAt = %v", svc.LastRefreshedAt())
	}
	if snap := svc.Snapshot(); snap == nil || snap.CacheKey != persisted[0].CacheKey {
		t.Errorf("Snapshot = %+v", snap)
	}
}

func TestHeadlines_Refresh(t *testing.T) {
	provider := &fakeHeadlineProvider{latest: []domain.RawHeadline{raw("A", "https://a")}}
	svc := newHeadlineService(provider, newSettingsBox(nil), newClock(), nil)

	svc.Get(context.Background(), GetOptions{})
	res := svc.Refresh(context.Background())
	if !res.Refreshed() || provider.calls() != 2 {
		t.Errorf("refresh must bypass a fresh cache: %s, calls = %d", res.Outcome, provider.calls())
	}

	provider.err = errors.New("down")
	res = svc.Refresh(context.Background())
	if res.Refreshed() || res.Outcome != domain.OutcomeStale {
		t.Errorf("failed refresh should report stale, got %s", res.Outcome)
	}
}
