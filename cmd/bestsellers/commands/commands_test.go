package commands

import (
	"nytbestsellers/internal/config"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestPeriodCommandsCheckEnvironmentFirst(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "bestsellers.json5")
	previous := *configPath
	*configPath = missing
	t.Cleanup(func() {
		*configPath = previous
	})

	t.Setenv("YEAR", "2023")
	t.Setenv("MONTH", "")
	t.Setenv("DAY", "24")

	for _, cmd := range []*cobra.Command{collectCmd, runCmd, refreshLabelsCmd} {
		t.Run(cmd.Name(), func(t *testing.T) {
			err := cmd.RunE(cmd, nil)
			require.ErrorIs(t, err, config.ErrMissingPeriod)
		})
	}
}

func TestCommandsReturnConfigErrors(t *testing.T) {
	previous := *configPath
	*configPath = filepath.Join(t.TempDir(), "bestsellers.json5")
	t.Cleanup(func() {
		*configPath = previous
	})

	for _, cmd := range []*cobra.Command{transformCmd, loadCmd, showCmd, mergeCmd} {
		t.Run(cmd.Name(), func(t *testing.T) {
			err := cmd.RunE(cmd, nil)
			require.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}
