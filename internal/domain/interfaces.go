package domain

import (
	"context"
	"time"
)

// HeadlineEndpoint selects the Currents endpoint.
type HeadlineEndpoint string

const (
	EndpointLatest HeadlineEndpoint = "latest-news"
	EndpointSearch HeadlineEndpoint = "search"
)

// HeadlineQuery describes one upstream headline request.
type HeadlineQuery struct {
	Endpoint  HeadlineEndpoint
	Language  string
	Category  []string
	Country   []string
	Domain    string    // search only
	DomainNot []string  // excluded domains
	StartDate time.Time // search only; zero means unset
	Limit     int       // truncates the result; also sent upstream for search
}

// HeadlineProvider performs a single headline request. Never retried.
type HeadlineProvider interface {
	FetchHeadlines(ctx context.Context, apiKey string, q HeadlineQuery) ([]RawHeadline, error)
}

// QuoteProvider returns one quote per requested symbol, in order. Only a
// missing credential fails the whole batch.
type QuoteProvider interface {
	FetchQuotes(ctx context.Context, apiKey string, symbols []string) ([]StockQuote, error)
}

// BlobStore persists opaque blobs by key. Load returns (nil, nil) when absent.
type BlobStore interface {
	LoadBlob(key string) ([]byte, error)
	SaveBlob(key string, data []byte) error
}

// SecretResolver resolves a secret name to its value ("" when unknown).
type SecretResolver interface {
	Secret(name string) string
}

// Notifier shows advisory, non-blocking messages to the user.
type Notifier interface {
	Notify(msg string)
}
