// Package main is the entry point for the portfolio allocation analyzer.
// It computes allocation drift against stored target sets, recommends
// rebalancing actions, simulates funding scenarios and prints an ordered
// trade roadmap for each target set.
//
// The application follows the repository pattern for data access, with
// business logic in the module services and a thin CLI layer on top.
package main

import (
	"fmt"
	"os"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/settings"
	"github.com/aristath/rebalancer/internal/modules/taxonomy"
	"github.com/aristath/rebalancer/pkg/logger"
)

// main orchestrates the analyzer startup sequence:
// 1. Loads configuration from environment variables (.env file)
// 2. Initializes the logging system
// 3. Opens the portfolio and config databases and applies migrations
// 4. Loads the asset-class taxonomy
// 5. Wires repositories and the rebalancing service
// 6. Runs the analysis for all target sets and prints the roadmaps
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use a fallback logger so the configuration error itself is logged
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("taxonomy", cfg.TaxonomyPath).
		Msg("Starting portfolio analyzer")

	portfolioDB, err := database.New(database.Config{
		Path: cfg.DatabasePath("portfolio.db"),
		Name: "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	configDB, err := database.New(database.Config{
		Path: cfg.DatabasePath("config.db"),
		Name: "config",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open config database")
	}
	defer configDB.Close()

	if err := portfolioDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate portfolio database")
	}
	if err := configDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate config database")
	}

	tax, err := taxonomy.Load(cfg.TaxonomyPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load taxonomy")
	}

	holdingsRepo := portfolio.NewHoldingsRepository(portfolioDB.Conn(), log)
	targetRepo := allocation.NewTargetRepository(configDB.Conn(), log)
	settingsRepo := settings.NewRepository(configDB.Conn(), log)

	params, err := rebalancing.ResolveParams(settingsRepo, cfg.Analysis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve analysis parameters")
	}

	service := rebalancing.NewService(holdingsRepo, targetRepo, tax, params, log)

	results, err := service.RunAll()
	if err != nil {
		log.Error().Err(err).Msg("Analysis completed with errors")
	}
	if len(results) == 0 {
		os.Exit(1)
	}

	if err := settingsRepo.Touch("last_analysis_run"); err != nil {
		log.Warn().Err(err).Msg("Failed to record analysis run time")
	}

	for _, targetSet := range []string{allocation.SetHistorical, allocation.SetTemplate} {
		result, ok := results[targetSet]
		if !ok {
			continue
		}
		printResult(result)
	}
}

// printResult writes one target set's roadmap and diagnostics to stdout.
func printResult(result *rebalancing.Result) {
	fmt.Printf("=== Target set: %s (run %s) ===\n\n", result.TargetSet, result.RunID)
	fmt.Printf("Concentration: %s (HHI %.4f, largest %s at %.1f%%)\n\n",
		result.Concentration.Classification,
		result.Concentration.HHI,
		result.Concentration.LargestClass,
		result.Concentration.LargestPct*100)

	fmt.Println(result.Roadmap.Text)

	if len(result.Diagnostics) > 0 {
		fmt.Println("\nDiagnostics:")
		for _, diag := range result.Diagnostics {
			fmt.Printf("  [%s] %s: %s\n", diag.Level, diag.Code, diag.Message)
		}
	}
	fmt.Println()
}
