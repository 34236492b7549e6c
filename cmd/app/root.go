package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"ticker_go/internal/app"
	"ticker_go/internal/event"
)

const defaultConfigPath = "configs/config.yaml"

var version = "dev"

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "ticker",
		Short:         "Scrolling news headline and stock quote ticker",
		Long:          "ticker shows live Currents headlines and Finnhub stock quotes as scrolling strips, with local caching when offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd.OutOrStdout()) {
				return runShow(cmd.Context(), configFlag, cmd.OutOrStdout(), "all")
			}
			return runTUI(cmd.Context(), configFlag)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", defaultConfigPath, "Configuration file path")

	rootCmd.AddCommand(newServeCommand(&configFlag))
	rootCmd.AddCommand(newShowCommand(&configFlag))
	rootCmd.AddCommand(newRefreshCommand(&configFlag))
	rootCmd.AddCommand(newSettingsCommand(&configFlag))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ticker %s\n", version)
		},
	})

	return rootCmd
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// openTicker bootstraps storage and wires a ticker. The caller closes the
// returned bootstrap.
func openTicker(configPath string, opts app.Options, publisher app.Publisher) (*app.Bootstrap, *app.Ticker, error) {
	opts.ConfigPath = configPath
	boot := app.NewBootstrap()
	if err := boot.Initialize(opts); err != nil {
		return nil, nil, err
	}
	ticker, err := boot.NewTicker(publisher)
	if err != nil {
		boot.Close()
		return nil, nil, err
	}
	return boot, ticker, nil
}

// noticePrinter publishes notices to w and drops feed updates, for
// one-shot commands without surfaces.
type noticePrinter struct {
	w io.Writer
}

func (p noticePrinter) Publish(_ context.Context, ev event.Event) error {
	if notice, ok := ev.(*event.NoticeEvent); ok {
		fmt.Fprintln(p.w, "notice:", notice.Message)
	}
	return nil
}
