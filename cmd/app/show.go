package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ticker_go/internal/app"
	"ticker_go/internal/domain"
)

func newShowCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "show [news|stocks|all]",
		Short:     "Print the current headlines and quotes",
		Long:      "Print headlines and quotes as tables. Cached results are used while they are fresh.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"news", "stocks", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), *configPath, cmd.OutOrStdout(), feedArg(args))
		},
	}
}

func newRefreshCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "refresh [news|stocks|all]",
		Short:     "Refresh feeds, bypassing the cache",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"news", "stocks", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			boot, tk, err := openTicker(*configPath, app.Options{Exclusive: true}, noticePrinter{w: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer boot.Close()

			ctx := commandContext(cmd)
			feed := feedArg(args)
			usDate := tk.Settings().UseUSDateFormat
			if feed != "stocks" {
				fmt.Fprintln(out, refreshStatus("Headlines", tk.RefreshHeadlines(ctx)))
				news, _ := tk.LastRefreshed()
				fmt.Fprintln(out, "  "+domain.FormatLastRefreshed(news, usDate))
			}
			if feed != "news" {
				fmt.Fprintln(out, refreshStatus("Stock quotes", tk.RefreshStocks(ctx)))
				_, stocks := tk.LastRefreshed()
				fmt.Fprintln(out, "  "+domain.FormatLastRefreshed(stocks, usDate))
			}
			return nil
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func feedArg(args []string) string {
	if len(args) == 0 {
		return "all"
	}
	return strings.ToLower(args[0])
}

func refreshStatus(label string, refreshed bool) string {
	if refreshed {
		return label + " refreshed"
	}
	return label + " not refreshed, showing previous data"
}

func runShow(ctx context.Context, configPath string, out io.Writer, feed string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	boot, tk, err := openTicker(configPath, app.Options{Exclusive: true}, noticePrinter{w: out})
	if err != nil {
		return err
	}
	defer boot.Close()

	rounded := isTerminal(out)
	s := tk.Settings()

	if feed != "stocks" {
		res := tk.LoadHeadlines(ctx)
		fmt.Fprintln(out, headlineTable(res.Items, rounded))
		fmt.Fprintln(out, footerLine(res.RefreshedAt, res.Outcome, s.UseUSDateFormat))
	}
	if feed != "news" {
		res := tk.LoadQuotes(ctx)
		refreshed := time.Time{}
		if len(res.Items) > 0 {
			refreshed = res.RefreshedAt
		}
		fmt.Fprintln(out, quoteTable(domain.StockDisplays(res.Items), rounded))
		fmt.Fprintln(out, footerLine(refreshed, res.Outcome, s.UseUSDateFormat))
	}
	return nil
}

func headlineTable(headlines []domain.Headline, rounded bool) string {
	rows := make([][]string, 0, len(headlines))
	for i, h := range headlines {
		rows = append(rows, []string{strconv.Itoa(i + 1), h.Title, h.SourceLabel(), h.CategoryLabel()})
	}
	return renderTable(
		[]string{"#", "Headline", "Source", "Category"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
		rounded,
	)
}

func quoteTable(stocks []domain.StockDisplay, rounded bool) string {
	rows := make([][]string, 0, len(stocks))
	for _, s := range stocks {
		rows = append(rows, []string{s.Symbol, s.PriceText, s.ChangeText})
	}
	return renderTable(
		[]string{"Symbol", "Price", "Change"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
		rounded,
	)
}

func footerLine(refreshedAt time.Time, outcome domain.Outcome, usDate bool) string {
	return fmt.Sprintf("%s (%s)", domain.FormatLastRefreshed(refreshedAt, usDate), outcome)
}
