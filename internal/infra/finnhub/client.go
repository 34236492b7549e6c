// Package finnhub fetches stock quotes from the Finnhub API, one request per
// symbol, concurrently.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"ticker_go/internal/domain"
)

const (
	// DefaultBaseURL is the public Finnhub API root.
	DefaultBaseURL = "https://finnhub.io/api/v1"

	providerName       = "Finnhub"
	defaultConcurrency = 4
	maxBodyBytes       = 1 << 20
)

// Client fetches quotes from Finnhub.
type Client struct {
	baseURL     string
	userAgent   string
	concurrency int
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
}

var _ domain.QuoteProvider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit caps requests per minute. Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
}

// WithConcurrency bounds the number of in-flight symbol requests.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(ua)
	}
}

// New creates a Finnhub client. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		concurrency: defaultConcurrency,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		limiter:     rate.NewLimiter(rate.Every(time.Second), 60),
		logger:      slog.Default().With("module", "finnhub"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// FetchQuotes requests every symbol independently. The result has one entry
// per non-blank symbol, in order; a symbol whose request failed carries only
// its Symbol. Only a missing credential fails the batch.
func (c *Client) FetchQuotes(ctx context.Context, apiKey string, symbols []string) ([]domain.StockQuote, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("finnhub api key: %w", domain.ErrMissingCredential)
	}

	cleaned := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return []domain.StockQuote{}, nil
	}

	quotes := make([]domain.StockQuote, len(cleaned))
	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, symbol := range cleaned {
		i, symbol := i, symbol
		g.Go(func() error {
			quote, err := c.fetchQuote(ctx, apiKey, symbol)
			if err != nil {
				c.logger.Warn("Failed to fetch quote",
					slog.String("symbol", symbol),
					slog.Any("error", err),
				)
				quote = domain.StockQuote{Symbol: symbol}
			}
			quotes[i] = quote
			return nil // per-symbol failures never fail the batch
		})
	}

	_ = g.Wait()
	return quotes, nil
}

func (c *Client) fetchQuote(ctx context.Context, apiKey, symbol string) (domain.StockQuote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.StockQuote{}, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("token", apiKey)
	reqURL := c.baseURL + "/quote?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.StockQuote{}, domain.NewFatalNetworkError("build finnhub request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.StockQuote{}, domain.NewNetworkError("finnhub quote", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.StockQuote{}, domain.NewNetworkError("finnhub quote", err)
	}

	var payload quoteResponse
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode >= http.StatusBadRequest {
		return domain.StockQuote{}, &domain.HTTPError{Provider: providerName, Status: resp.StatusCode, Message: payload.Error}
	}
	if decodeErr != nil {
		return domain.StockQuote{}, &domain.PayloadError{Provider: providerName, Message: decodeErr.Error()}
	}
	if payload.Error != "" {
		return domain.StockQuote{}, &domain.PayloadError{Provider: providerName, Message: payload.Error}
	}

	return domain.NewStockQuote(symbol, parseNumber(payload.Current), parseNumber(payload.PreviousClose)), nil
}
