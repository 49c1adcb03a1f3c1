package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_YAMLOnTopOfDefaults(t *testing.T) {
	path := writeFile(t, "omekas.yaml", `
repository:
  api_endpoint: https://example.org/api
  api_key_identity: ident
  api_key_credential: secret
client:
  timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/api", cfg.Repository.APIEndpoint)
	assert.Equal(t, "ident", cfg.Repository.APIKeyIdentity)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.True(t, cfg.Client.AuthenticateAllRequests, "unset keys keep their defaults")
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "omekas.json", `{
		"repository": {
			"api_endpoint": "https://example.org/api",
			"api_key_identity": "ident",
			"api_key_credential": "secret"
		},
		"client": {"authenticate_all_requests": false}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Client.AuthenticateAllRequests)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "omekas.yaml", `
repository:
  api_endpoint: https://example.org/api
`)
	t.Setenv("OMEKAS_API_ENDPOINT", "https://other.example.org/api")
	t.Setenv("OMEKAS_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.org/api", cfg.Repository.APIEndpoint)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvironmentOnly(t *testing.T) {
	t.Setenv("OMEKAS_API_ENDPOINT", "https://example.org/api")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/api", cfg.Repository.APIEndpoint)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Repository.APIEndpoint = "https://example.org/api"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing endpoint", func(c *Config) { c.Repository.APIEndpoint = "" }, "api_endpoint required"},
		{"relative endpoint", func(c *Config) { c.Repository.APIEndpoint = "example.org/api" }, "absolute URL"},
		{"half key pair", func(c *Config) { c.Repository.APIKeyIdentity = "ident" }, "set together"},
		{"negative timeout", func(c *Config) { c.Client.Timeout = -time.Second }, "timeout"},
		{"partial tls", func(c *Config) { c.Client.TLS.CertPath = "/certs/client.pem" }, "client.tls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteStarter_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Repository.APIEndpoint = "https://example.org/api"
	cfg.Repository.APIKeyIdentity = "ident"
	cfg.Repository.APIKeyCredential = "secret"

	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	require.NoError(t, WriteStarter(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnvUsage(t *testing.T) {
	assert.Contains(t, EnvUsage(), "OMEKAS_API_ENDPOINT")
}
