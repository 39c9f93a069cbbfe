package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "squeeze-sim",
	Short: "Simulate adaptive concurrency limit algorithms",
	Long: `squeeze-sim runs a synthetic workload against an adaptive concurrency
limit algorithm (AIMD, Vegas, Gradient or a static limit) and prints how the
limit evolves over time.

The workload and server model are described in a YAML scenario file: how many
clients offer load, the server's base latency, the concurrency at which it
starts queueing, and the concurrency at which it starts failing.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "scenario file path (defaults to a built-in scenario)")
}
