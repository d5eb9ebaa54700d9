package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loadCmd)
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Appends the processed files to the store, rows already stored are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		_, err = loadStep(cmd.Context(), cfg, st, tel)
		return err
	},
}
