package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/config"
	"github.com/Veraticus/cashmind/internal/health"
	"github.com/Veraticus/cashmind/internal/llm"
	"github.com/Veraticus/cashmind/internal/storage"
)

const monthLayout = "2006-01"

// databasePath resolves the configured database path.
func databasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/cashmind/cashmind.db"
	}
	return config.ExpandPath(dbPath)
}

// initStorage opens the database and applies pending migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// providerKeyEnv names the conventional API key variable of each provider.
var providerKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// loadLLMConfig reads the llm section and falls back to the provider's usual env var for the key.
func loadLLMConfig() (llm.Config, error) {
	cfg := llm.Config{
		Provider:    viper.GetString("llm.provider"),
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		BaseURL:     viper.GetString("llm.base_url"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		MaxRetries:  viper.GetInt("llm.max_retries"),
		RetryDelay:  viper.GetDuration("llm.retry_delay"),
		CacheTTL:    viper.GetDuration("llm.cache_ttl"),
		Timeout:     viper.GetDuration("llm.timeout"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
	}

	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}
	envVar, ok := providerKeyEnv[cfg.Provider]
	if !ok {
		return llm.Config{}, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, cfg.Provider)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(envVar)
	}
	if cfg.APIKey == "" {
		return llm.Config{}, common.NewUserError(
			fmt.Sprintf("Configurá llm.api_key o la variable %s", envVar),
			fmt.Errorf("%w: %s API key", common.ErrMissingConfig, cfg.Provider))
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 60
	}

	return cfg, nil
}

// newGateway builds the shared LLM gateway from configuration.
func newGateway(logger *slog.Logger) (*llm.Gateway, error) {
	cfg, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}
	return llm.NewGateway(cfg, logger)
}

// loadHealthConfig overlays the health section on the stock scoring settings.
// Invalid weights fall back to the default split.
func loadHealthConfig() (health.Config, error) {
	cfg := health.DefaultConfig()
	if viper.IsSet("health") {
		if err := viper.UnmarshalKey("health", &cfg); err != nil {
			return health.Config{}, fmt.Errorf("%w: health: %w", common.ErrInvalidConfig, err)
		}
	}
	if !cfg.Weights.Valid() {
		slog.Warn("Health weights must be non-negative and sum to 100, using defaults", "weights", cfg.Weights)
		cfg.Weights = health.DefaultWeights()
	}
	return cfg, nil
}

// parseMonth parses YYYY-MM, defaulting to the current month.
func parseMonth(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(monthLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month must be YYYY-MM", common.ErrInvalidInput)
	}
	return t, nil
}

// defaultTokenFile is where the interactive Sheets login stores its token.
func defaultTokenFile() string {
	return config.ExpandPath(filepath.Join("$HOME", ".config", "cashmind", "sheets_token.json"))
}

// redirectLogs sends logs to logging.file while the full-screen interface owns the terminal.
func redirectLogs() (func(), error) {
	path := viper.GetString("logging.file")
	if path == "" {
		path = "$HOME/.local/share/cashmind/cashmind.log"
	}
	path = config.ExpandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	previous := slog.Default()
	level, _ := common.ParseLevel(viper.GetString("logging.level"))
	common.SetupLogger(f, level, viper.GetString("logging.format"))

	return func() {
		slog.SetDefault(previous)
		_ = f.Close()
	}, nil
}
