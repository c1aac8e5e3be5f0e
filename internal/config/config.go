package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by the server and the CLI.
type Config struct {
	Addr         string        `env:"GAMBIT_ADDR" envDefault:"127.0.0.1:8080"`
	DBPath       string        `env:"GAMBIT_DB_PATH" envDefault:"gambit.db"`
	LogLevel     string        `env:"GAMBIT_LOG_LEVEL" envDefault:"info"`
	LogJSON      bool          `env:"GAMBIT_LOG_JSON" envDefault:"false"`
	JokerScripts string        `env:"GAMBIT_JOKER_SCRIPTS"`
	ScanTimeout  time.Duration `env:"GAMBIT_SCAN_TIMEOUT" envDefault:"30s"`
	ScanMaxRange uint64        `env:"GAMBIT_SCAN_MAX_RANGE" envDefault:"1000000"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses a Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
