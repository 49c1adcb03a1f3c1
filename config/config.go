// Package config loads the repository connection settings.
//
// A config file (YAML or JSON, chosen by extension) is read with cleanenv,
// then OMEKAS_* environment variables override individual fields.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the user's home directory.
const DefaultFileName = "omekas.yaml"

type (
	// Config is the complete client configuration.
	Config struct {
		Repository Repository `yaml:"repository" json:"repository"`
		Client     Client     `yaml:"client" json:"client"`
		Log        Log        `yaml:"log" json:"log"`
	}

	// Repository identifies the API and its key pair.
	Repository struct {
		APIEndpoint      string `yaml:"api_endpoint" json:"api_endpoint" env:"OMEKAS_API_ENDPOINT" env-description:"Repository API endpoint, e.g. https://example.org/api"`
		APIKeyIdentity   string `yaml:"api_key_identity" json:"api_key_identity" env:"OMEKAS_API_KEY_IDENTITY" env-description:"API key identity"`
		APIKeyCredential string `yaml:"api_key_credential" json:"api_key_credential" env:"OMEKAS_API_KEY_CREDENTIAL" env-description:"API key credential"`
	}

	// Client tunes the HTTP client.
	Client struct {
		AuthenticateAllRequests bool          `yaml:"authenticate_all_requests" json:"authenticate_all_requests" env:"OMEKAS_AUTHENTICATE_ALL_REQUESTS" env-description:"Send the key pair with GET requests too"`
		Timeout                 time.Duration `yaml:"timeout" json:"timeout" env:"OMEKAS_TIMEOUT" env-description:"Per-request timeout"`
		HTTP2                   bool          `yaml:"http2" json:"http2" env:"OMEKAS_HTTP2" env-description:"Negotiate HTTP/2 over TLS"`
		UserAgent               string        `yaml:"user_agent" json:"user_agent" env:"OMEKAS_USER_AGENT" env-description:"User-Agent header"`
		TLS                     TLS           `yaml:"tls" json:"tls"`
	}

	// TLS configures mutual TLS. Leave empty for plain HTTPS.
	TLS struct {
		CertPath string `yaml:"cert_path" json:"cert_path" env:"OMEKAS_TLS_CERT_PATH" env-description:"Client certificate (mTLS)"`
		KeyPath  string `yaml:"key_path" json:"key_path" env:"OMEKAS_TLS_KEY_PATH" env-description:"Client key (mTLS)"`
		CAPath   string `yaml:"ca_path" json:"ca_path" env:"OMEKAS_TLS_CA_PATH" env-description:"CA certificate (mTLS)"`
	}

	// Log configures the CLI logger.
	Log struct {
		Level string `yaml:"level" json:"level" env:"OMEKAS_LOG_LEVEL" env-description:"debug, info, warn or error"`
	}
)

// Default returns a Config with defaults for everything but the repository.
func Default() Config {
	return Config{
		Client: Client{
			AuthenticateAllRequests: true,
			Timeout:                 30 * time.Second,
			UserAgent:               "omekas-client",
		},
		Log: Log{Level: "info"},
	}
}

// DefaultPath returns ~/omekas.yaml, or "" when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultFileName)
}

// Load reads path (if non-empty) on top of Default, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the required fields.
func (c Config) Validate() error {
	if c.Repository.APIEndpoint == "" {
		return fmt.Errorf("repository.api_endpoint required")
	}
	u, err := url.Parse(c.Repository.APIEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("repository.api_endpoint must be an absolute URL: %q", c.Repository.APIEndpoint)
	}
	if (c.Repository.APIKeyIdentity == "") != (c.Repository.APIKeyCredential == "") {
		return fmt.Errorf("repository.api_key_identity and repository.api_key_credential must be set together")
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("client.timeout must not be negative")
	}
	tls := c.Client.TLS
	if tls.CertPath != "" || tls.KeyPath != "" || tls.CAPath != "" {
		if tls.CertPath == "" || tls.KeyPath == "" || tls.CAPath == "" {
			return fmt.Errorf("client.tls requires cert_path, key_path and ca_path")
		}
	}
	return nil
}

// EnvUsage describes the supported environment variables.
func EnvUsage() string {
	cfg := Default()
	usage, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return usage
}

// WriteStarter writes cfg as YAML to path. The file holds credentials, so it
// is created with mode 0600.
func WriteStarter(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
