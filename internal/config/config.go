package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Environment string
	LogLevel    slog.Level

	// LLM provider: "anthropic" or "ollama".
	LLMProvider     string
	AnthropicAPIKey string
	AnthropicModel  string
	OllamaBaseURL   string
	OllamaModel     string

	// Showdown connection.
	ShowdownURL      string
	ShowdownUsername string
	ShowdownPassword string
	BattleFormat     string
	MaxBattles       int

	// DataDir holds the static move and species data files.
	DataDir string

	// Redis backs the set-data cache and the strategy note store.
	// Empty disables both.
	RedisAddr     string
	RedisPassword string
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		LLMProvider:     getEnv("LLM_PROVIDER", "anthropic"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "llama3.2"),

		ShowdownURL:      getEnv("SHOWDOWN_URL", "wss://sim3.psim.us/showdown/websocket"),
		ShowdownUsername: getEnv("SHOWDOWN_USERNAME", ""),
		ShowdownPassword: getEnv("SHOWDOWN_PASSWORD", ""),
		BattleFormat:     getEnv("BATTLE_FORMAT", "gen9randombattle"),
		MaxBattles:       getEnvInt("MAX_BATTLES", 1),

		DataDir: getEnv("DATA_DIR", "./data"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}

	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic", "ollama":
	default:
		return nil, fmt.Errorf("invalid LLM provider %q", cfg.LLMProvider)
	}
	if cfg.ShowdownUsername == "" {
		return nil, fmt.Errorf("SHOWDOWN_USERNAME is required")
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
