package commands

import (
	"context"
	"log/slog"
	"nytbestsellers/internal/config"
	"nytbestsellers/lib/serviceutil"
	libtelemetry "nytbestsellers/lib/telemetry"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool

	otelTelemetry libtelemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:           "bestsellers",
	Short:         "bestsellers reconciles NYT bestseller lists with storefront data and loads them into a database.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		libtelemetry.InitSlog(*verbose)

		var err error
		otelTelemetry, err = libtelemetry.SetupFromEnv(cmd.Context(), "bestsellers")
		if err != nil {
			slog.Warn("telemetry setup failed, continuing without exporters", "err", err.Error())
			return
		}
		if otelTelemetry.MeterProvider != nil {
			libtelemetry.InstrumentPerfStats(cmd.Context())
		}
	},
}

func flushTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := otelTelemetry.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err.Error())
	}
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", config.DefaultFile, "The config file, a `.local` sibling overrides it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug reports.")
}

// ExecuteContext runs the command line, telemetry is flushed even when the
// command fails.
func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	flushTelemetry()
	if err != nil {
		serviceutil.Fatal("command failed", err)
	}
}
