package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort  int
	SQLiteDSN string
	JWTSecret string
	TokenTTL  time.Duration
}

// Load parses configuration values from the current process environment.
//
// A .env file in the working directory is applied first when present; real
// environment variables always win. Optional fields fall back to defaults
// while required values are validated with localized error messages.
func Load() (Config, error) {
	// Missing .env files are fine; any other read error is not.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("no se pudo leer el archivo .env: %w", err)
	}

	cfg := Config{
		HTTPPort:  8080,
		SQLiteDSN: "file:scheduler.db?_foreign_keys=on",
		TokenTTL:  24 * time.Hour,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SCHEDULER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SCHEDULER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("SCHEDULER_JWT_SECRET")); secret == "" {
		missing = append(missing, "SCHEDULER_JWT_SECRET")
	} else {
		cfg.JWTSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SCHEDULER_TOKEN_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SCHEDULER_TOKEN_TTL")
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("faltan variables de entorno obligatorias: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("variables de entorno con valores inválidos: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
