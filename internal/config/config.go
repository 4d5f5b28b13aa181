// Package config loads the environment configuration of the backend and the
// settings CLI.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultBackendURL is the MCP endpoint of a backend started with default flags.
const DefaultBackendURL = "http://localhost:8765/mcp"

// ErrMissingCredentials is returned when the Google OAuth client is not configured.
var ErrMissingCredentials = errors.New("env variables OAUTH_GOOGLE_CLIENT_ID and OAUTH_GOOGLE_CLIENT_SECRET must be set")

// Backend is the environment of the backend process.
type Backend struct {
	GoogleClientID     string        `env:"OAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"OAUTH_GOOGLE_CLIENT_SECRET"`
	DBPath             string        `env:"PROVIDER_DB"               envDefault:"./data/gmail-provider.db"`
	ShutdownTimeout    time.Duration `env:"PROVIDER_SHUTDOWN_TIMEOUT" envDefault:"3s"`
}

// Settings is the environment of the settings CLI.
type Settings struct {
	BackendURL string `env:"PROVIDER_BACKEND_URL"`
}

// LoadBackend parses the backend environment. A non-empty envFile is loaded
// first; variables already set in the process win over the file.
func LoadBackend(envFile string) (Backend, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Backend{}, fmt.Errorf("godotenv.Load failed: %w", err)
		}
	}

	var cfg Backend
	if err := env.Parse(&cfg); err != nil {
		return Backend{}, fmt.Errorf("env.Parse failed: %w", err)
	}
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return Backend{}, ErrMissingCredentials
	}

	return cfg, nil
}

// OAuth returns the Google client config redirecting to redirectURL. Scopes are
// chosen per grant.
func (b Backend) OAuth(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     b.GoogleClientID,
		ClientSecret: b.GoogleClientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
	}
}

// LoadSettings parses the settings CLI environment. BackendURL defaults to
// DefaultBackendURL.
func LoadSettings() (Settings, error) {
	var cfg Settings
	if err := env.Parse(&cfg); err != nil {
		return Settings{}, fmt.Errorf("env.Parse failed: %w", err)
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = DefaultBackendURL
	}
	return cfg, nil
}
