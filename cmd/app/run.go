package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ticker_go/internal/app"
	"ticker_go/internal/engine"
	"ticker_go/internal/infra/ws"
	"ticker_go/internal/ui/ticker"
)

const inboxSize = 256

func runTUI(parent context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := engine.NewDispatcher(inboxSize, nil)
	boot, tk, err := openTicker(configPath, app.Options{Exclusive: true}, dispatcher)
	if err != nil {
		return err
	}
	defer boot.Close()

	cfg := boot.Config
	model := ticker.NewModel(ctx, tk, tk.Settings(), ticker.Options{
		ReducedMotion: cfg.UI.ReducedMotion,
		Frame:         cfg.FrameInterval(),
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	unregister := dispatcher.Register(ticker.NewSurface(program))
	defer unregister()
	go dispatcher.Run(ctx)

	go func() {
		tk.Open(ctx)
		boot.SyncIcons(ctx, app.IconDomains(tk.Settings().Domains(), tk.CachedHeadlines()))
	}()

	newsEvery, stockEvery := cfg.PollIntervals()
	poller := app.NewPoller(tk, newsEvery, stockEvery)
	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer poller.Stop()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve ticker panels over websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(parent context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := engine.NewDispatcher(inboxSize, nil)
	boot, tk, err := openTicker(configPath, app.Options{Console: true, Exclusive: true}, dispatcher)
	if err != nil {
		return err
	}
	defer boot.Close()

	iconDir := ""
	if boot.Downloader != nil {
		iconDir = boot.Downloader.Dir()
	}
	hub := ws.NewHub(iconDir, boot.Metrics)
	defer hub.Close()

	unregister := dispatcher.Register(hub)
	defer unregister()
	go dispatcher.Run(ctx)

	tk.Open(ctx)
	go boot.SyncIcons(ctx, app.IconDomains(tk.Settings().Domains(), tk.CachedHeadlines()))

	newsEvery, stockEvery := boot.Config.PollIntervals()
	poller := app.NewPoller(tk, newsEvery, stockEvery)
	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer poller.Stop()

	server := &http.Server{
		Addr:              boot.Config.Server.Addr,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Panel server listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
