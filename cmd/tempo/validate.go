package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pacekit/tempo/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file.

All validation errors are reported together, so one pass over the
output is enough to fix a broken file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if _, err := config.LoadConfigWithEnvOverrides(path); err != nil {
			return err
		}
		fmt.Printf("✓ Configuration valid: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
