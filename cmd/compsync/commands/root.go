package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/compsync/pkg/config"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "compsync",
	Short: "compsync - MetaTFT composition extractor",
	Long: `compsync Unified CLI

Downloads composition statistics from MetaTFT, extracts one composition,
reshapes it into the agent-facing record and writes it under data/.

Usage:
  go run ./cmd/compsync [command]

Examples:
  go run ./cmd/compsync extract
  go run ./cmd/compsync extract --comp-id 381014 --no-id
  go run ./cmd/compsync serve --port 8089`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production), overrides ENV")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (LOG_LEVEL=debug)")
}

// loadConfig loads the environment, applies the global flags and validates the result
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
