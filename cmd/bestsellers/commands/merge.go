package commands

import (
	"fmt"
	"log/slog"
	"nytbestsellers/internal/snapshot"
	"path/filepath"

	"github.com/spf13/cobra"
)

var mergeOut *string

func init() {
	mergeOut = mergeCmd.Flags().String("out", "", "The merged snapshot, defaults to best_sellers.json in the raw data directory.")
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge-snapshots [--out <path/to/merged.json>]",
	Short: "Concatenates every period snapshot into a single file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		out := *mergeOut
		if out == "" {
			out = filepath.Join(cfg.Data.RawDir, "best_sellers.json")
		}
		count, err := snapshot.Merge(cfg.Data.RawDir, out)
		if err != nil {
			return fmt.Errorf("merge snapshots: %w", err)
		}
		slog.Info("snapshots merged", "out", out, "rows", count)
		return nil
	},
}
