package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/compsync/pkg/config"
	"github.com/wonny/compsync/pkg/logger"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Download, extract and save one composition",
	Long: `Runs the pipeline once:

  download → extract → reshape → save → summary

The record is written to <output-dir>/<name>_<id>.json, or to
<output-dir>/comp_config.json with --no-id. Diagnostics go to stderr and
the summary to stdout.

Example:
  go run ./cmd/compsync extract
  go run ./cmd/compsync extract --comp-id 381014 --name "Piltover T-Hex" --main-carry THex
  go run ./cmd/compsync extract --strategy strategies/thex.yaml --no-id`,
	RunE: runExtract,
}

var (
	extractCompID    string
	extractName      string
	extractMainCarry string
	extractStrategy  string
	extractNoID      bool
	extractOutputDir string
)

func init() {
	rootCmd.AddCommand(extractCmd)

	// Flags
	extractCmd.Flags().StringVar(&extractCompID, "comp-id", "", "cluster id to extract (overrides COMP_ID)")
	extractCmd.Flags().StringVar(&extractName, "name", "", "composition name (overrides COMP_NAME)")
	extractCmd.Flags().StringVar(&extractMainCarry, "main-carry", "", "main carry unit (overrides COMP_MAIN_CARRY)")
	extractCmd.Flags().StringVar(&extractStrategy, "strategy", "", "strategy profile YAML (overrides STRATEGY_FILE)")
	extractCmd.Flags().BoolVar(&extractNoID, "no-id", false, "write comp_config.json instead of <name>_<id>.json")
	extractCmd.Flags().StringVar(&extractOutputDir, "output-dir", "", "output directory (overrides OUTPUT_DIR)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := applyExtractFlags(cfg); err != nil {
		return err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"comp_id": cfg.Strategy.CompID,
		"name":    cfg.Strategy.Name,
		"queue":   cfg.MetaTFT.Queue,
	}).Debug("Initializing extraction")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire the pipeline
	c := buildComponents(ctx, cfg, log, cmd.OutOrStdout(), !extractNoID)
	defer c.Close()

	// 4. Run
	if _, err := c.orchestrator.Run(ctx); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nData extraction complete!")
	return nil
}

// applyExtractFlags layers --strategy then the individual flags over the loaded config
func applyExtractFlags(cfg *config.Config) error {
	if extractStrategy != "" {
		profile, err := config.LoadStrategyFile(extractStrategy)
		if err != nil {
			return err
		}
		cfg.Strategy = cfg.Strategy.Merge(profile)
	}

	cfg.Strategy = cfg.Strategy.Merge(config.StrategyConfig{
		CompID:    extractCompID,
		Name:      extractName,
		MainCarry: extractMainCarry,
	})

	if extractOutputDir != "" {
		cfg.Output.Dir = extractOutputDir
	}

	return cfg.Validate()
}
