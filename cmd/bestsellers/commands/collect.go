package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(collectCmd)
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Snapshots the bestsellers of the YEAR/MONTH/DAY period and stages the next unstored book.",
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

		_, err = collectStep(cmd.Context(), cfg, st, tel, period)
		return err
	},
}
