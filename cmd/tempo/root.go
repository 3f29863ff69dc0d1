package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pacekit/tempo/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tempo",
	Short: "Tempo - adaptive credit-pacing engine",
	Long: `Tempo paces consumption of metered API quotas.

It polls a usage endpoint, compares utilization in each quota window
against a time-proportional allowance, and emits throttle delays sized
so the quota lasts for the whole window. Decisions are cached between
polls and replayed, so checking is cheap.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.tempo/tempo.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configPath resolves the configuration file path, falling back to the
// state directory default.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(config.DefaultStateDir(), "tempo.yaml")
}
