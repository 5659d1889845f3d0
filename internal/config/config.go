package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all server settings sourced from the environment.
// godotenv (loaded in main) lets a local .env file populate these in dev.
type Config struct {
	Port          string `env:"PORT" envDefault:"5175"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	ClientOrigin  string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	WordsFile     string `env:"WORDS_FILE"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	HintTimeoutMS int    `env:"HINT_TIMEOUT_MS" envDefault:"4000"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}
