// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all server configuration.
type Config struct {
	Port         string        `envconfig:"PORT" default:"8080"`
	DatabaseURL  string        `envconfig:"DATABASE_URL"`
	RedisURL     string        `envconfig:"REDIS_URL"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"30s"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	SweepSchedule string       `envconfig:"SWEEP_SCHEDULE" default:"@every 10m"`
	ScenarioFile string        `envconfig:"SCENARIO_FILE"`
}

// Load reads configuration from the environment. A missing .env file is
// not an error; production sets real environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
