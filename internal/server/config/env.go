package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv loads a .env file from the working directory when present and
// then overlays every variable named in the Config env tags. Variables
// already set in the process environment win over .env entries.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
