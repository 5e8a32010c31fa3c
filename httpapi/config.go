package httpapi

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the single environment-sourced setting surface of this layer:
// the portal API base URL and the transport timeout.
type Config struct {
	BaseURL string        `env:"PORTAL_API_BASE_URL" envDefault:"http://localhost:8080"`
	Timeout time.Duration `env:"PORTAL_API_TIMEOUT" envDefault:"30s"`
}

// LoadConfig parses Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
