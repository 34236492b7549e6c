package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ticker_go/internal/domain"
)

// maxPollBackoff caps how many ticks a feed skips after permanent failures.
const maxPollBackoff = 8

// feedLoader serves one feed, publishes it and returns the fetch failure
// behind a degraded result.
type feedLoader func(ctx context.Context) error

// Poller periodically re-serves both feeds so long-running surfaces pick up
// new data once the cache expires. Requests are never forced.
type Poller struct {
	ticker        *Ticker
	newsInterval  time.Duration
	stockInterval time.Duration
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	logger        *slog.Logger
}

// NewPoller creates a poller. A zero interval disables that feed.
func NewPoller(ticker *Ticker, newsInterval, stockInterval time.Duration) *Poller {
	return &Poller{
		ticker:        ticker,
		newsInterval:  newsInterval,
		stockInterval: stockInterval,
		logger:        slog.Default().With("module", "poller"),
	}
}

// Start begins polling. The first poll happens after one interval; the
// startup render is done by Ticker.Open.
func (p *Poller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	p.loop(ctx, "news", p.newsInterval, func(ctx context.Context) error {
		if !p.ticker.Settings().DisplayMode().ShowsNews() {
			return nil
		}
		return p.ticker.LoadHeadlines(ctx).Err
	})
	p.loop(ctx, "stock", p.stockInterval, func(ctx context.Context) error {
		if !p.ticker.Settings().DisplayMode().ShowsStocks() {
			return nil
		}
		return p.ticker.LoadQuotes(ctx).Err
	})
	return nil
}

func (p *Poller) loop(ctx context.Context, feed string, interval time.Duration, load feedLoader) {
	if interval <= 0 {
		p.logger.Info("Polling disabled", slog.String("feed", feed))
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("Polling panic recovered", slog.String("feed", feed), slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		backoff, skip := 0, 0
		for {
			select {
			case <-ctx.Done():
				p.logger.Info("Polling stopped", slog.String("feed", feed))
				return
			case <-ticker.C:
				if skip > 0 {
					skip--
					continue
				}
				err := load(ctx)
				backoff = nextBackoff(backoff, err)
				skip = backoff
				if backoff > 0 {
					p.logger.Warn("Poll failed permanently, backing off",
						slog.String("feed", feed),
						slog.Int("skip_ticks", backoff),
						slog.Any("error", err),
					)
				}
			}
		}
	}()
}

// nextBackoff returns how many ticks to skip after a poll. Only provider
// errors that say they are permanent (bad credentials, broken payloads)
// back off, doubling up to maxPollBackoff; anything else retries on the
// next tick.
func nextBackoff(prev int, err error) int {
	var typed domain.RetriableError
	if err == nil || !errors.As(err, &typed) || domain.IsRetriable(err) {
		return 0
	}
	return min(max(prev*2, 1), maxPollBackoff)
}

// Stop stops polling and waits for in-flight loads.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		p.wg.Wait()
	}
}
