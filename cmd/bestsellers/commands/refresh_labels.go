package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"nytbestsellers/internal/scrapers/nyt"
	"nytbestsellers/internal/snapshot"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(refreshLabelsCmd)
}

var refreshLabelsCmd = &cobra.Command{
	Use:   "refresh-labels",
	Short: "Adds the Apple Books category of every new storefront link of the YEAR/MONTH/DAY snapshot to the labels file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := readPeriod()
		if err != nil {
			return err
		}
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		tel, err := runTelemetry()
		if err != nil {
			return err
		}
		client, err := newAppleClient(cfg, tel)
		if err != nil {
			return err
		}

		rows, err := snapshot.NewDir(cfg.Data.RawDir).LoadSnapshot(period)
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("no snapshot for the period, nothing to refresh", "period", period.String())
			rows = nil
		} else if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}

		urls := snapshot.BuyLinkURLs(rows, nyt.AppleBooksLink)
		table, err := client.RefreshLabelsFile(cmd.Context(), cfg.Data.LabelsCsv, urls)
		if err != nil {
			return fmt.Errorf("refresh labels: %w", err)
		}
		slog.Info("labels refreshed", "file", cfg.Data.LabelsCsv, "labels", table.Len(), "links", len(urls))
		return nil
	},
}
