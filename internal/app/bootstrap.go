package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"ticker_go/internal/domain"
	"ticker_go/internal/infra"
	"ticker_go/internal/infra/currents"
	"ticker_go/internal/infra/finnhub"
	"ticker_go/internal/infra/storage"
	"ticker_go/internal/normalize"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Downloader *infra.IconDownloader
	Secrets    *infra.SecretStore
	Metrics    *infra.Metrics

	lock *flock.Flock
}

// Options tunes Initialize.
type Options struct {
	ConfigPath string
	// Console also logs to stdout. Off for the terminal ticker, which owns
	// the screen.
	Console bool
	// Exclusive takes the single-instance lock beside the database.
	Exclusive bool
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{Metrics: infra.GlobalMetrics}
}

// Initialize performs core system initialization (config, logging, lock,
// storage, secrets, icons).
func (b *Bootstrap) Initialize(opts Options) error {
	// 1. Load Config
	cfg, err := infra.LoadConfigOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg, opts.Console))
	slog.Info("Bootstrapping ticker", slog.String("version", cfg.App.Version))

	// 3. Resolve the database location and take the lock beside it
	dbPath := cfg.Storage.Path
	if dbPath == "" {
		if dbPath, err = storage.DefaultDBPath(); err != nil {
			return fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}
	if opts.Exclusive {
		if err := b.acquireLock(dbPath + ".lock"); err != nil {
			return err
		}
	}

	// 4. Initialize Storage (DB)
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		b.releaseLock()
		return err
	}
	b.Storage = store
	slog.Info("Database initialized", slog.String("path", store.Path()))

	// 5. Secrets
	b.Secrets = infra.NewSecretStore(cfg.Secrets)

	// 6. Icon downloader, stored next to the database unless configured
	if cfg.Icons.URLTemplate != "" {
		dir := cfg.Icons.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(dbPath), dir)
		}
		downloader, err := infra.NewIconDownloader(dir, cfg.Icons.URLTemplate)
		if err != nil {
			b.Close()
			return err
		}
		b.Downloader = downloader
		slog.Info("Icon downloader ready", slog.String("dir", dir))
	}

	return nil
}

func (b *Bootstrap) acquireLock(path string) error {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", domain.ErrAlreadyRunning, path)
	}
	b.lock = lock
	return nil
}

func (b *Bootstrap) releaseLock() {
	if b.lock == nil {
		return
	}
	if err := b.lock.Unlock(); err != nil {
		slog.Warn("Failed to release lock", slog.Any("error", err))
	}
	b.lock = nil
}

// NewTicker builds the provider adapters from the configuration and wires
// a Ticker over the storage.
func (b *Bootstrap) NewTicker(publisher Publisher) (*Ticker, error) {
	cfg := b.Config
	httpClient := &http.Client{Timeout: cfg.Timeout()}

	headlines := currents.New(cfg.API.Currents.BaseURL,
		currents.WithHTTPClient(httpClient),
		currents.WithAuthMode(currents.AuthMode(cfg.API.Currents.AuthMode)),
		currents.WithUserAgent(infra.DefaultUserAgent),
	)
	quotes := finnhub.New(cfg.API.Finnhub.BaseURL,
		finnhub.WithHTTPClient(httpClient),
		finnhub.WithRateLimit(cfg.API.Finnhub.RateLimitRPM),
		finnhub.WithConcurrency(cfg.API.Finnhub.Concurrency),
		finnhub.WithUserAgent(infra.DefaultUserAgent),
	)

	return NewTicker(TickerDeps{
		Store:     b.Storage,
		Headlines: headlines,
		Quotes:    quotes,
		Secrets:   b.Secrets,
		Publisher: publisher,
		Metrics:   b.Metrics,
	})
}

// Close releases storage and the lock.
func (b *Bootstrap) Close() {
	if b.Storage != nil {
		if err := b.Storage.Close(); err != nil {
			slog.Warn("Failed to close storage", slog.Any("error", err))
		}
	}
	b.releaseLock()
}

// IconDomains lists the source domains worth an icon: the configured
// domains plus the hosts of the given headlines.
func IconDomains(configured []string, headlines []domain.Headline) []string {
	set := make(map[string]bool)
	for _, d := range configured {
		set[d] = true
	}
	for _, h := range headlines {
		if !h.HasURL() {
			continue
		}
		u, err := url.Parse(strings.TrimSpace(h.URL))
		if err != nil || u.Hostname() == "" {
			continue
		}
		set[normalize.Domain(u.Hostname())] = true
	}

	out := make([]string, 0, len(set))
	for d := range set {
		if d != "" {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// SyncIcons downloads missing source icons in the background and records
// them in storage.
func (b *Bootstrap) SyncIcons(ctx context.Context, domains []string) {
	if b.Downloader == nil || len(domains) == 0 {
		return
	}
	slog.Info("Starting icon synchronization", slog.Int("domains", len(domains)))

	workers := b.Config.Icons.Workers
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers) // Limit concurrent downloads

	for _, d := range domains {
		wg.Add(1)
		go func(sourceDomain string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			icon := &domain.SourceIcon{Domain: sourceDomain}
			if existing, _ := b.Storage.GetIcon(sourceDomain); existing != nil {
				icon = existing
			}

			path, err := b.Downloader.DownloadIcon(ctx, sourceDomain)
			if err != nil {
				slog.Warn("Failed to download icon", slog.String("domain", sourceDomain), slog.Any("error", err))
				return
			}
			if path == icon.IconPath && !icon.LastSyncedAt.IsZero() {
				return
			}

			icon.IconPath = path
			icon.LastSyncedAt = time.Now()
			if err := b.Storage.UpsertIcon(icon); err != nil {
				slog.Error("Failed to record icon", slog.String("domain", sourceDomain), slog.Any("error", err))
			}
		}(d)
	}

	wg.Wait()
	slog.Info("Icon synchronization completed")
}
