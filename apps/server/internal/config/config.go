// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StrategyScripted = "scripted"
	StrategyOracle   = "oracle"

	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	DefaultOpenAIBaseURL = "https://api.x.ai/v1"
	DefaultOllamaBaseURL = "http://localhost:11434"

	ArchiveModeMemory   = "memory"
	ArchiveModeSQLite   = "sqlite"
	ArchiveModePostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	Addr      string `env:"STEALSPLIT_ADDR" envDefault:":8080"`
	MaxRounds int    `env:"STEALSPLIT_MAX_ROUNDS" envDefault:"200"`

	Opponent OpponentConfig
	Oracle   OracleConfig
	Archive  ArchiveConfig

	SessionCapacity int `env:"SESSION_CAPACITY" envDefault:"10000"`
}

type OpponentConfig struct {
	Strategy     string `env:"OPPONENT_STRATEGY" envDefault:"scripted"`
	Persona      string `env:"OPPONENT_PERSONA" envDefault:"default"`
	PersonasFile string `env:"OPPONENT_PERSONAS_FILE"`
	// Zero seeds from the clock.
	Seed int64 `env:"OPPONENT_SEED" envDefault:"0"`
}

// OracleConfig selects the language-model endpoint. An empty BaseURL
// resolves to the provider's default.
type OracleConfig struct {
	Provider string        `env:"ORACLE_PROVIDER" envDefault:"openai"`
	APIKey   string        `env:"X_API_KEY"`
	BaseURL  string        `env:"ORACLE_BASE_URL"`
	Model    string        `env:"ORACLE_MODEL" envDefault:"grok-beta"`
	Timeout  time.Duration `env:"ORACLE_TIMEOUT" envDefault:"20s"`
}

type ArchiveConfig struct {
	Mode              string `env:"ARCHIVE_MODE" envDefault:"memory"`
	DatabaseDSN       string `env:"ARCHIVE_DATABASE_DSN"`
	LocalDatabasePath string `env:"ARCHIVE_LOCAL_DATABASE_PATH" envDefault:"data/stealsplit.db"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment take precedence over .env.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Opponent.Strategy = strategyAlias(c.Opponent.Strategy)
	c.Oracle.Provider = strings.ToLower(strings.TrimSpace(c.Oracle.Provider))
	c.Archive.Mode = ArchiveModeAlias(c.Archive.Mode)
	c.Oracle.BaseURL = strings.TrimRight(strings.TrimSpace(c.Oracle.BaseURL), "/")
	if c.Oracle.BaseURL == "" {
		switch c.Oracle.Provider {
		case ProviderOpenAI:
			c.Oracle.BaseURL = DefaultOpenAIBaseURL
		case ProviderOllama:
			c.Oracle.BaseURL = DefaultOllamaBaseURL
		}
	}
}

func (c Config) Validate() error {
	if c.MaxRounds <= 0 {
		return fmt.Errorf("invalid STEALSPLIT_MAX_ROUNDS %d (must be > 0)", c.MaxRounds)
	}
	if c.SessionCapacity <= 0 {
		return fmt.Errorf("invalid SESSION_CAPACITY %d (must be > 0)", c.SessionCapacity)
	}
	switch c.Opponent.Strategy {
	case StrategyScripted, StrategyOracle:
	default:
		return fmt.Errorf("invalid OPPONENT_STRATEGY %q (supported: %s, %s)", c.Opponent.Strategy, StrategyScripted, StrategyOracle)
	}
	switch c.Oracle.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("invalid ORACLE_PROVIDER %q (supported: %s, %s)", c.Oracle.Provider, ProviderOpenAI, ProviderOllama)
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("invalid ORACLE_TIMEOUT %s (must be > 0)", c.Oracle.Timeout)
	}
	switch c.Archive.Mode {
	case ArchiveModeMemory, ArchiveModeSQLite, ArchiveModePostgres:
	default:
		return fmt.Errorf("invalid ARCHIVE_MODE %q (supported: %s, %s, %s)", c.Archive.Mode, ArchiveModeMemory, ArchiveModeSQLite, ArchiveModePostgres)
	}
	return nil
}

func strategyAlias(raw string) string {
	mode := strings.ToLower(strings.TrimSpace(raw))
	switch mode {
	case "", StrategyScripted, "scripted-random", "random":
		return StrategyScripted
	case StrategyOracle, "llm", "api":
		return StrategyOracle
	default:
		return mode
	}
}

// ArchiveModeAlias normalizes the archive mode names accepted from the
// environment.
func ArchiveModeAlias(raw string) string {
	mode := strings.ToLower(strings.TrimSpace(raw))
	switch mode {
	case "", ArchiveModeMemory, "mem":
		return ArchiveModeMemory
	case ArchiveModeSQLite, "local":
		return ArchiveModeSQLite
	case ArchiveModePostgres, "postgresql", "db":
		return ArchiveModePostgres
	default:
		return mode
	}
}
