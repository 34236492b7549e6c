package currents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ticker_go/internal/domain"
)

const (
	// DefaultBaseURL is the public Currents API root.
	DefaultBaseURL = "https://api.currentsapi.services/v1"

	providerName = "Currents"
	startDateFmt = "2006-01-02T15:04:05.000Z07:00"
	maxBodyBytes = 4 << 20
)

// Client fetches raw headlines from the Currents API.
type Client struct {
	baseURL    string
	authMode   AuthMode
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.HeadlineProvider = (*Client)(nil)

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

// WithAuthMode selects query or header authentication.
func WithAuthMode(mode AuthMode) Option {
	return func(c *Client) {
		if mode == AuthQuery || mode == AuthHeader {
			c.authMode = mode
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(ua)
	}
}

// New creates a Currents client. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authMode:   AuthQuery,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default().With("module", "currents"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// FetchHeadlines performs one request against the latest-news or search
// endpoint. Results are truncated to q.Limit when it is positive.
func (c *Client) FetchHeadlines(ctx context.Context, apiKey string, q domain.HeadlineQuery) ([]domain.RawHeadline, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("currents api key: %w", domain.ErrMissingCredential)
	}

	endpoint := strings.TrimLeft(string(q.Endpoint), "/")
	if endpoint == "" {
		endpoint = string(domain.EndpointLatest)
	}

	params := c.buildParams(apiKey, q)
	reqURL := c.baseURL + "/" + endpoint
	if encoded := params.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, domain.NewFatalNetworkError("build currents request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.authMode == AuthHeader {
		req.Header.Set("Authorization", apiKey)
	}

	c.logger.Debug("Fetching headlines", slog.String("endpoint", endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, domain.NewNetworkError("currents "+endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.NewNetworkError("currents "+endpoint, err)
	}

	res := decode(body)
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &domain.HTTPError{Provider: providerName, Status: resp.StatusCode, Message: res.message}
	}
	if !res.ok {
		return nil, &domain.PayloadError{Provider: providerName, Message: res.message}
	}

	headlines := res.headlines
	if q.Limit > 0 && len(headlines) > q.Limit {
		headlines = headlines[:q.Limit]
	}
	return headlines, nil
}

func (c *Client) buildParams(apiKey string, q domain.HeadlineQuery) url.Values {
	params := url.Values{}
	setList := func(key string, values []string) {
		if joined := joinList(values); joined != "" {
			params.Set(key, joined)
		}
	}

	if q.Domain != "" {
		params.Set("domain", q.Domain)
	}
	setList("domain_not", q.DomainNot)
	if !q.StartDate.IsZero() {
		params.Set("start_date", q.StartDate.UTC().Format(startDateFmt))
	}
	if q.Endpoint == domain.EndpointSearch && q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if lang := strings.TrimSpace(q.Language); lang != "" {
		params.Set("language", lang)
	}
	setList("category", q.Category)
	setList("country", q.Country)
	if c.authMode == AuthQuery {
		params.Set("apiKey", apiKey)
	}
	return params
}

func joinList(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ",")
}
