package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names accepted in the client configuration.
const (
	TransportWebSocket = "ws"
	TransportNATS      = "nats"
	TransportMemory    = "memory"
	TransportFile      = "file"
)

// ClientConfig configures the terminal client.
type ClientConfig struct {
	ServerURL  string         `yaml:"server_url"`
	CookieName string         `yaml:"cookie_name"`
	DataDir    string         `yaml:"data_dir"`
	LogLevel   string         `yaml:"log_level"`
	Presence   PresenceConfig `yaml:"presence"`
}

type PresenceConfig struct {
	Transport      string        `yaml:"transport"`
	NATSURL        string        `yaml:"nats_url"`
	FallbackLinger time.Duration `yaml:"fallback_linger"`
}

// ClientDefaults returns the configuration used when no file is present.
func ClientDefaults() ClientConfig {
	return ClientConfig{
		ServerURL:  "http://localhost:8080",
		CookieName: "token",
		LogLevel:   "info",
		Presence: PresenceConfig{
			Transport:      TransportWebSocket,
			NATSURL:        "nats://127.0.0.1:4222",
			FallbackLinger: 2 * time.Second,
		},
	}
}

// DefaultClientConfigPath is ~/.config/focusmate/client.yaml, honouring
// XDG_CONFIG_HOME.
func DefaultClientConfigPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "focusmate", "client.yaml"), nil
}

// LoadClient reads the client configuration at path. A missing file yields
// the defaults; fields left empty in the file keep their default values.
func LoadClient(path string) (ClientConfig, error) {
	cfg := ClientDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read client config: %w", err)
	}

	var file ClientConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, &ParseError{Path: path, Err: err}
	}

	if file.ServerURL != "" {
		cfg.ServerURL = file.ServerURL
	}
	if file.CookieName != "" {
		cfg.CookieName = file.CookieName
	}
	if file.DataDir != "" {
		cfg.DataDir = file.DataDir
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.Presence.Transport != "" {
		cfg.Presence.Transport = file.Presence.Transport
	}
	if file.Presence.NATSURL != "" {
		cfg.Presence.NATSURL = file.Presence.NATSURL
	}
	if file.Presence.FallbackLinger > 0 {
		cfg.Presence.FallbackLinger = file.Presence.FallbackLinger
	}

	switch cfg.Presence.Transport {
	case TransportWebSocket, TransportNATS, TransportMemory, TransportFile:
	default:
		return cfg, fmt.Errorf("client config: unknown presence transport %q", cfg.Presence.Transport)
	}
	return cfg, nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
