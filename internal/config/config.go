// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/aristath/rebalancer/internal/modules/settings"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for databases (always absolute)
	TaxonomyPath string // Path to the taxonomy YAML file
	LogLevel     string
	DevMode      bool

	Analysis AnalysisConfig
}

// AnalysisConfig holds the default financial parameters for an analysis run.
// Values stored in the settings database take precedence over these; the
// settings database in turn defaults to the same numbers.
type AnalysisConfig struct {
	RebalancingThreshold float64 // Minimum |drift| before an action is emitted
	NewInvestment        float64 // Fresh capital available for the run
	TaxRate              float64 // Applied to gross sale proceeds
	TransactionCostRate  float64 // Applied to every traded amount
	MinTransactionAmount float64 // Roadmap filter, in currency units
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("REBALANCER_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	taxonomyPath := getEnv("REBALANCER_TAXONOMY_PATH", "")
	if taxonomyPath == "" {
		taxonomyPath = filepath.Join(absDataDir, "taxonomy.yaml")
	}

	cfg := &Config{
		DataDir:      absDataDir,
		TaxonomyPath: taxonomyPath,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		Analysis: AnalysisConfig{
			RebalancingThreshold: getEnvAsFloat("REBALANCING_THRESHOLD", settings.SettingDefaults["rebalancing_threshold"]),
			NewInvestment:        getEnvAsFloat("NEW_INVESTMENT", settings.SettingDefaults["new_investment"]),
			TaxRate:              getEnvAsFloat("TAX_RATE", settings.SettingDefaults["tax_rate"]),
			TransactionCostRate:  getEnvAsFloat("TRANSACTION_COST_RATE", settings.SettingDefaults["transaction_cost_rate"]),
			MinTransactionAmount: getEnvAsFloat("MIN_TRANSACTION_AMOUNT", settings.SettingDefaults["min_transaction_amount"]),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabasePath returns the absolute path of a database file under DataDir
func (c *Config) DatabasePath(filename string) string {
	return filepath.Join(c.DataDir, filename)
}

// Validate checks that configured parameters are in their documented domains
func (c *Config) Validate() error {
	a := c.Analysis
	if a.RebalancingThreshold < 0 {
		return fmt.Errorf("rebalancing threshold must be >= 0, got %f", a.RebalancingThreshold)
	}
	if a.NewInvestment < 0 {
		return fmt.Errorf("new investment must be >= 0, got %f", a.NewInvestment)
	}
	if a.TaxRate < 0 || a.TaxRate > 1 {
		return fmt.Errorf("tax rate must be in [0,1], got %f", a.TaxRate)
	}
	if a.TransactionCostRate < 0 {
		return fmt.Errorf("transaction cost rate must be >= 0, got %f", a.TransactionCostRate)
	}
	if a.MinTransactionAmount < 0 {
		return fmt.Errorf("minimum transaction amount must be >= 0, got %f", a.MinTransactionAmount)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
