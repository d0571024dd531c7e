package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration of the server
type Config struct {
	// Port the HTTP server listens on
	Port string

	// FrontendURL is the origin allowed to open websocket connections.
	// Empty means any origin is accepted (development mode).
	FrontendURL string

	// LogLevel is the minimum logrus level ("debug", "info", ...)
	LogLevel string
}

// Load reads the configuration from the environment, after loading a .env
// file if one is present. Missing variables fall back to defaults.
func Load() *Config {
	// A missing .env file is not an error, the environment may already
	// be populated (containers, CI)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        "8080",
		FrontendURL: "",
		LogLevel:    "info",
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.FrontendURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg
}
