package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(transformCmd)
}

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Normalizes the staged item into the processed book, rank and review files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		_, err = transformStep(cmd.Context(), cfg)
		return err
	},
}
