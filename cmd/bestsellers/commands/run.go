package commands

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collects, transforms and loads one new book of the YEAR/MONTH/DAY period.",
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

		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore(st)

		t1 := time.Now()
		item, err := collectStep(cmd.Context(), cfg, st, tel, period)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}
		_, err = transformStep(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		_, err = loadStep(cmd.Context(), cfg, st, tel)
		if err != nil {
			return err
		}
		t2 := time.Now()

		slog.Info("run time", "seconds", t2.Sub(t1).Seconds())
		return nil
	},
}
