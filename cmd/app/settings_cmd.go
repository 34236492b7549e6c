package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ticker_go/internal/app"
	"ticker_go/internal/domain"
	"ticker_go/internal/settings"
)

func newSettingsCommand(configPath *string) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "List ticker settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			boot, tk, err := openTicker(*configPath, app.Options{}, nil)
			if err != nil {
				return err
			}
			defer boot.Close()

			fmt.Fprintln(cmd.OutOrStdout(), settingsTable(tk.Settings(), isTerminal(cmd.OutOrStdout())))
			return nil
		},
	}

	settingsCmd.AddCommand(&cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change one setting",
		Long:      "Change one setting by its name. Known settings:\n  " + strings.Join(settings.Keys(), "\n  "),
		Args:      cobra.ExactArgs(2),
		ValidArgs: settings.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			// A running ticker would overwrite the edit on its next save.
			boot, tk, err := openTicker(*configPath, app.Options{Exclusive: true}, nil)
			if errors.Is(err, domain.ErrAlreadyRunning) {
				return fmt.Errorf("%w: stop it before changing settings", err)
			}
			if err != nil {
				return err
			}
			defer boot.Close()

			next, err := tk.SaveSettings(func(s settings.Settings) (settings.Settings, error) {
				return settings.Set(s, args[0], args[1])
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", args[0], settings.Fields(next)[args[0]])
			return nil
		},
	})

	return settingsCmd
}

func settingsTable(s settings.Settings, rounded bool) string {
	fields := settings.Fields(s)
	keys := settings.Keys()

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, fmt.Sprint(fields[k])})
	}
	return renderTable([]string{"Setting", "Value"}, rows, nil, rounded)
}
