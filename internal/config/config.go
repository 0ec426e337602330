package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	Database DatabaseConfig
	AI       AIConfig
	Ledger   LedgerConfig
	Import   ImportConfig
}

// DatabaseConfig locates the local SQLite store.
type DatabaseConfig struct {
	Path string
}

// AIConfig configures the external categorization model. A missing APIKey is
// a configuration error surfaced on first use, never a retryable one.
type AIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// LedgerConfig configures the external ledger service.
type LedgerConfig struct {
	Token      string
	DatabaseID string
	BaseURL    string
}

// ImportConfig tunes the processing pipeline.
type ImportConfig struct {
	WriteDelay              time.Duration
	MinCorrectionConfidence float64
}

// Load resolves the configuration from viper (config file, environment,
// bound flags), applying defaults for anything unset.
func Load() Config {
	viper.SetDefault("database.path", DefaultDatabasePath())
	viper.SetDefault("ai.model", "claude-3-5-haiku-latest")
	viper.SetDefault("ai.max_tokens", 150)
	viper.SetDefault("ai.temperature", 0.0)
	viper.SetDefault("ledger.base_url", "")
	viper.SetDefault("import.write_delay", "400ms")
	viper.SetDefault("import.min_correction_confidence", 0.7)

	return Config{
		Database: DatabaseConfig{
			Path: ExpandPath(viper.GetString("database.path")),
		},
		AI: AIConfig{
			APIKey:      viper.GetString("ai.api_key"),
			Model:       viper.GetString("ai.model"),
			MaxTokens:   viper.GetInt("ai.max_tokens"),
			Temperature: viper.GetFloat64("ai.temperature"),
		},
		Ledger: LedgerConfig{
			Token:      viper.GetString("ledger.token"),
			DatabaseID: viper.GetString("ledger.database_id"),
			BaseURL:    viper.GetString("ledger.base_url"),
		},
		Import: ImportConfig{
			WriteDelay:              viper.GetDuration("import.write_delay"),
			MinCorrectionConfidence: viper.GetFloat64("import.min_correction_confidence"),
		},
	}
}
