package currents

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticker_go/internal/domain"
)

func newTestServer(t *testing.T, status int, body string, check func(*http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchHeadlines_LatestNews(t *testing.T) {
	var gotPath, gotKey, gotCategory, gotLimit string
	server := newTestServer(t, http.StatusOK, `{
		"status": "ok",
		"news": [
			{"title": "One", "url": "https://a.com/1", "category": ["world"]},
			{"title": "Two", "url": "https://a.com/2", "category": "tech"},
			{"title": "Three"}
		]
	}`, func(r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("apiKey")
		gotCategory = r.URL.Query().Get("category")
		gotLimit = r.URL.Query().Get("limit")
	})

	client := New(server.URL)
	items, err := client.FetchHeadlines(context.Background(), "  secret  ", domain.HeadlineQuery{
		Endpoint: domain.EndpointLatest,
		Category: []string{"world", "", "tech"},
		Limit:    2,
	})
	if err != nil {
		t.Fatalf("FetchHeadlines failed: %v", err)
	}

	if gotPath != "/latest-news" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("apiKey = %q, want trimmed key", gotKey)
	}
	if gotCategory != "world,tech" {
		t.Errorf("category = %q, want comma-joined list", gotCategory)
	}
	if gotLimit != "" {
		t.Errorf("latest-news should not send limit, got %q", gotLimit)
	}
	if len(items) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(items))
	}
	if !items[0].Category.IsList || items[1].Category.IsList {
		t.Errorf("category shapes not preserved: %+v", items)
	}
}

func TestFetchHeadlines_SearchParams(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	server := newTestServer(t, http.StatusOK, `{"status":"ok","news":[]}`, func(r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if q.Get("domain") != "bbc.com" {
			t.Errorf("domain = %q", q.Get("domain"))
		}
		if q.Get("domain_not") != "cnn.com,fox.com" {
			t.Errorf("domain_not = %q", q.Get("domain_not"))
		}
		if q.Get("start_date") != "2026-01-02T03:04:05.000Z" {
			t.Errorf("start_date = %q", q.Get("start_date"))
		}
		if q.Get("limit") != "5" || q.Get("language") != "en" || q.Get("country") != "US" {
			t.Errorf("unexpected query %v", q)
		}
	})

	items, err := New(server.URL).FetchHeadlines(context.Background(), "k", domain.HeadlineQuery{
		Endpoint:  domain.EndpointSearch,
		Domain:    "bbc.com",
		DomainNot: []string{"cnn.com", "fox.com"},
		StartDate: start,
		Language:  "en",
		Country:   []string{"US"},
		Limit:     5,
	})
	if err != nil {
		t.Fatalf("FetchHeadlines failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result, got %d", len(items))
	}
}

func TestFetchHeadlines_HeaderAuth(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"status":"ok","news":[]}`, func(r *http.Request) {
		if r.Header.Get("Authorization") != "k" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Has("apiKey") {
			t.Error("header mode must not leak the key into the query")
		}
	})

	_, err := New(server.URL, WithAuthMode(AuthHeader)).FetchHeadlines(context.Background(), "k", domain.HeadlineQuery{})
	if err != nil {
		t.Fatalf("FetchHeadlines failed: %v", err)
	}
}

func TestFetchHeadlines_Errors(t *testing.T) {
	t.Run("missing credential", func(t *testing.T) {
		called := false
		server := newTestServer(t, http.StatusOK, `{}`, func(*http.Request) { called = true })
		_, err := New(server.URL).FetchHeadlines(context.Background(), "   ", domain.HeadlineQuery{})
		if !errors.Is(err, domain.ErrMissingCredential) {
			t.Errorf("expected ErrMissingCredential, got %v", err)
		}
		if called {
			t.Error("no request should be made without a key")
		}
	})

	t.Run("http status", func(t *testing.T) {
		server := newTestServer(t, http.StatusUnauthorized, `{"status":"error","message":"Invalid key"}`, nil)
		_, err := New(server.URL).FetchHeadlines(context.Background(), "k", domain.HeadlineQuery{})
		var httpErr *domain.HTTPError
		if !errors.As(err, &httpErr) {
			t.Fatalf("expected HTTPError, got %v", err)
		}
		if httpErr.Status != 401 || httpErr.Message != "Invalid key" {
			t.Errorf("unexpected error %+v", httpErr)
		}
	})

	t.Run("status >= 400 with ok body", func(t *testing.T) {
		server := newTestServer(t, http.StatusInternalServerError, `{"status":"ok","news":[]}`, nil)
		_, err := New(server.URL).FetchHeadlines(context.Background(), "k", domain.HeadlineQuery{})
		if !domain.IsRetriable(err) {
			t.Errorf("5xx should be a retriable HTTPError, got %v", err)
		}
	})

	payloads := map[string]string{
		"error status":   `{"status":"error","message":"quota"}`,
		"missing news":   `{"status":"ok"}`,
		"news not array": `{"status":"ok","news":{"title":"x"}}`,
		"not json":       `<html>`,
	}
	for name, body := range payloads {
		t.Run(name, func(t *testing.T) {
			server := newTestServer(t, http.StatusOK, body, nil)
			_, err := New(server.URL).FetchHeadlines(context.Background(), "k", domain.HeadlineQuery{})
			var payloadErr *domain.PayloadError
			if !errors.As(err, &payloadErr) {
				t.Errorf("expected PayloadError, got %v", err)
			}
		})
	}

	t.Run("network", func(t *testing.T) {
		server := newTestServer(t, http.StatusOK, `{}`, nil)
		server.Close()
		_, err := New(server.URL).FetchHeadlines(context.Background(), "k", domain.HeadlineQuery{})
		var netErr *domain.NetworkError
		if !errors.As(err, &netErr) {
			t.Errorf("expected NetworkError, got %v", err)
		}
	})
}

func TestFetchHeadlines_SkipsMalformedRecord(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{
		"status": "ok",
		"news": [
			{"title": "Kept one", "url": "https://a.com/1"},
			{"title": 123, "url": "https://a.com/2"},
			"not an object",
			{"title": "Kept two", "category": ["world"]}
		]
	}`, nil)

	items, err := New(server.URL).FetchHeadlines(context.Background(), "k", domain.HeadlineQuery{})
	if err != nil {
		t.Fatalf("one bad record should not fail the batch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(items), items)
	}
	if items[0].Title != "Kept one" || items[1].Title != "Kept two" {
		t.Errorf("wrong records kept: %+v", items)
	}
}

func TestFetchHeadlines_BadBaseURL(t *testing.T) {
	_, err := New("http://bad\x7fhost").FetchHeadlines(context.Background(), "k", domain.HeadlineQuery{})
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.Retriable {
		t.Error("a request that cannot be built should not be retried")
	}
}
