package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries the process-level settings shared by the CLI commands.
type Config struct {
	BackendURL  string
	RedisAddr   string
	DatabaseURL string
	RelayListen string
	AuthToken   string
}

// Load reads a .env file when present and falls back to localhost
// defaults, matching the development setup.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		BackendURL:  getenv("BACKEND_URL", "http://localhost:8000"),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RelayListen: getenv("RELAY_LISTEN", "8765"),
		AuthToken:   os.Getenv("AUTH_TOKEN"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
