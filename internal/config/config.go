package config

import (
	"errors"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-this-secret"

type Config struct {
	AppEnv              string
	LogLevel            string
	Port                string
	DBPath              string
	JWTSecret           string
	TokenTTL            time.Duration
	CookieName          string
	CORSOrigins         []string
	MigrationsDir       string
	GoogleClientID      string
	DefaultProfileImage string
	WSMaxMessageSize    int64
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Port:                getEnv("PORT", "8080"),
		DBPath:              getEnv("DB_PATH", "./data/focusmate.db"),
		JWTSecret:           getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:            time.Duration(getEnvInt("TOKEN_TTL_HOURS", 1)) * time.Hour,
		CookieName:          getEnv("COOKIE_NAME", "token"),
		CORSOrigins:         getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", ""),
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		DefaultProfileImage: getEnv("DEFAULT_PROFILE_PIC", ""),
		WSMaxMessageSize:    int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 4096)),
	}
}

// Validate rejects settings that are only acceptable for local development.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: PORT is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: TOKEN_TTL_HOURS must be positive")
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return errors.New("config: in production JWT_SECRET must be set")
	}
	if c.IsProduction() && slices.Contains(c.CORSOrigins, "*") {
		return errors.New("config: in production CORS_ORIGINS must list origins explicitly")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GoogleEnabled reports whether Google sign-in can be offered.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
