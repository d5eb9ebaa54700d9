package main

import (
	"fmt"
	"nytbestsellers/internal/components/telemetry"
	"nytbestsellers/lib/serviceutil"
	libtelemetry "nytbestsellers/lib/telemetry"
	"nytbestsellers/test/fuzzing"
	"os"

	"github.com/spf13/cobra"
)

var tel = telemetry.SlogAPI{}

var (
	minSteps *int
	maxSteps *int
	replay   *string
)

var rootCmd = &cobra.Command{
	Use:   "test",
	Short: "the bestsellers test runner",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		libtelemetry.InitSlog(true)
	},
}

var fuzzCmd = &cobra.Command{
	Use:   "fuzz",
	Short: "run fuzzer ...",
}

var fuzzLoaderCmd = &cobra.Command{
	Use:   "loader [--path <seed>:<steps>]",
	Short: "Fuzzes loading random records into an in memory store.",
	Run: func(cmd *cobra.Command, args []string) {
		f, err := fuzzing.New(tel, fuzzing.LoaderProvider{}, *minSteps, *maxSteps)
		if err != nil {
			serviceutil.Fatal("failed to create fuzzer", err)
		}
		if *replay != "" {
			path, err := fuzzing.ParsePath(*replay)
			if err != nil {
				serviceutil.Fatal("invalid path", err)
			}
			f.Replay(cmd.Context(), path)
			return
		}
		f.StartFuzzTest(cmd.Context())
	},
}

func init() {
	minSteps = fuzzCmd.PersistentFlags().Int("min-steps", 10, "the minimum amount of steps that must be executed on any given fuzz target")
	maxSteps = fuzzCmd.PersistentFlags().Int("max-steps", 100, "the maximum amount of steps that can be executed on any given fuzz target")
	replay = fuzzCmd.PersistentFlags().StringP("path", "p", "", "replay a fuzzer with a given fuzzing path")

	fuzzCmd.AddCommand(fuzzLoaderCmd)
	rootCmd.AddCommand(fuzzCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(serviceutil.SignalContext()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
