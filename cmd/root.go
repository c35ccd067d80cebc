package cmd

import (
	"github.com/spf13/cobra"

	"ubike-availability/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "ubike-availability",
	Short: "Bike-share station availability reconciliation service",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig loads the configured file, or defaults when none is given.
func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}
