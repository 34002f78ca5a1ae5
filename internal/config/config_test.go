package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusmate/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("TOKEN_TTL_HOURS", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := config.Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "token", cfg.CookieName)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.CORSOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("TOKEN_TTL_HOURS", "24")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")

	cfg := config.Load()
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.GoogleEnabled())
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	cfg := config.Load()
	require.Error(t, cfg.Validate())

	cfg.JWTSecret = "a-real-secret"
	require.NoError(t, cfg.Validate())
}

func TestValidate_ProductionRejectsWildcardOrigin(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "a-real-secret")
	t.Setenv("CORS_ORIGINS", "https://app.example,*")

	cfg := config.Load()
	require.ErrorContains(t, cfg.Validate(), "CORS_ORIGINS")

	cfg.AppEnv = "development"
	require.NoError(t, cfg.Validate())

	cfg.AppEnv = "production"
	cfg.CORSOrigins = []string{"https://app.example"}
	require.NoError(t, cfg.Validate())
}

func TestLoadClient_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.LoadClient(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.ClientDefaults(), cfg)
}

func TestLoadClient_MergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	content := "server_url: https://focus.example\npresence:\n  transport: nats\n  fallback_linger: 500ms\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "https://focus.example", cfg.ServerURL)
	assert.Equal(t, config.TransportNATS, cfg.Presence.Transport)
	assert.Equal(t, 500*time.Millisecond, cfg.Presence.FallbackLinger)
	assert.Equal(t, config.ClientDefaults().Presence.NATSURL, cfg.Presence.NATSURL)
}

func TestLoadClient_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: [unterminated"), 0o644))

	_, err := config.LoadClient(path)
	var parseErr *config.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, path, parseErr.Path)
}

func TestLoadClient_UnknownTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("presence:\n  transport: carrier-pigeon\n"), 0o644))

	_, err := config.LoadClient(path)
	require.Error(t, err)
}
