// Package config reads server settings from the environment.
// A .env file in the working directory is loaded first when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every knob the server reads at startup.
type Config struct {
	Port          string        // PORT, default 5175
	LogLevel      string        // LOG_LEVEL, default info
	LogPretty     bool          // LOG_PRETTY, human-readable console logs
	Store         string        // STORE: memory | sqlite
	DBPath        string        // DB_PATH, default ./data/geoguess.db
	DailySalt     string        // DAILY_SALT, shifts the daily target sequence
	JWTSecret     string        // JWT_SECRET, signs player cookies
	ClientOrigin  string        // CLIENT_ORIGIN, CORS origin
	CountriesFile string        // COUNTRIES_FILE, optional .json or .xlsx table
	StateTTL      time.Duration // STATE_TTL, how long idle rounds are kept
	OTLPEndpoint  string        // OTEL_EXPORTER_OTLP_ENDPOINT, tracing off when empty
	Production    bool          // APP_ENV=production: secure cookies
}

// Load reads .env (if any) and the process environment.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:          Env("PORT", "5175"),
		LogLevel:      Env("LOG_LEVEL", "info"),
		LogPretty:     envBool("LOG_PRETTY", false),
		Store:         Env("STORE", "memory"),
		DBPath:        Env("DB_PATH", "./data/geoguess.db"),
		DailySalt:     Env("DAILY_SALT", ""),
		JWTSecret:     Env("JWT_SECRET", "dev_secret_change_me"),
		ClientOrigin:  Env("CLIENT_ORIGIN", "http://localhost:5173"),
		CountriesFile: Env("COUNTRIES_FILE", ""),
		StateTTL:      envDuration("STATE_TTL", 48*time.Hour),
		OTLPEndpoint:  Env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Production:    os.Getenv("APP_ENV") == "production",
	}
}

// Env returns the value of k or def if unset/empty.
func Env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(k)); err == nil {
		return b
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}
