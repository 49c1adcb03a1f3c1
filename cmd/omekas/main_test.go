package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/st-keller/omekas-client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := rootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	item := map[string]any{
		"o:id": 3,
		"dcterms:title": []map[string]any{
			{"@value": "Harbour map", "property_id": 1, "property_label": "Title", "type": "literal"},
		},
		"dcterms:subject": []map[string]any{
			{"@value": "maps", "is_public": false, "property_id": 3, "property_label": "Subject", "type": "literal"},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]any{item})
	})
	mux.HandleFunc("GET /api/items/3", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(item)
	})
	mux.HandleFunc("PATCH /api/items/3", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	})
	mux.HandleFunc("GET /api/properties", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("term") != "dcterms:subject" {
			_ = json.NewEncoder(w).Encode([]any{})
			return
		}
		_ = json.NewEncoder(w).Encode([]any{map[string]any{
			"o:id": 3, "o:term": "dcterms:subject", "o:local_name": "subject", "o:label": "Subject",
			"o:vocabulary": map[string]any{"o:id": 1},
		}})
	})
	mux.HandleFunc("GET /api/vocabularies/1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"o:id": 1, "o:prefix": "dcterms", "o:namespace_uri": "http://purl.org/dc/terms/", "o:label": "Dublin Core",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, endpoint string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "omekas.yaml")
	cfg := config.Default()
	cfg.Repository.APIEndpoint = endpoint
	require.NoError(t, config.WriteStarter(path, cfg))
	return path
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "omekas.yaml")

	out, _, err := execute(t, "config", "init", "--config", path, "--endpoint", "https://repo.example.org/api")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://repo.example.org/api", cfg.Repository.APIEndpoint)

	_, _, err = execute(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = execute(t, "config", "init", "--config", path, "--force")
	require.NoError(t, err)
}

func TestConfigEnv(t *testing.T) {
	out, _, err := execute(t, "config", "env")
	require.NoError(t, err)
	assert.Contains(t, out, "OMEKAS_API_ENDPOINT")
}

func TestItemsCommand(t *testing.T) {
	srv := newServer(t)
	path := writeConfig(t, srv.URL+"/api")

	out, _, err := execute(t, "items", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "3\tHarbour map\n", out)
}

func TestItemCommand(t *testing.T) {
	srv := newServer(t)
	path := writeConfig(t, srv.URL+"/api")

	out, _, err := execute(t, "item", "3", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "3\tHarbour map")
	assert.Contains(t, out, "dcterms:subject: maps (private)")

	out, _, err = execute(t, "item", "3", "--json", "--config", path)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.EqualValues(t, 3, payload["o:id"])

	_, _, err = execute(t, "item", "abc", "--config", path)
	assert.ErrorContains(t, err, "invalid id")
}

func TestPropertyCommand(t *testing.T) {
	srv := newServer(t)
	path := writeConfig(t, srv.URL+"/api")

	out, stderr, err := execute(t, "property", "dcterms:subject", "--config", path, "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "term:       dcterms:subject")
	assert.Contains(t, out, "vocabulary: dcterms (http://purl.org/dc/terms/)")
	assert.Contains(t, stderr, "properties")
	assert.Contains(t, stderr, `omekas_http_requests_total{status="200",verb="get"} 2`)
	assert.Contains(t, stderr, `omekas_cache_misses_total{verb="get"} 2`)
	assert.Contains(t, stderr, `omekas_http_request_duration_seconds{verb="get"} count=2`)

	_, _, err = execute(t, "property", "dcterms:nope", "--config", path)
	assert.ErrorContains(t, err, "not found")
}

func TestAddValueCommand(t *testing.T) {
	srv := newServer(t)
	path := writeConfig(t, srv.URL+"/api")

	out, _, err := execute(t, "add-value", "3", "dcterms:subject", "harbours", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "Updated item 3 (version 1)\n", out)
}

func TestMissingConfig(t *testing.T) {
	_, _, err := execute(t, "items", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestEnvironmentOnlyConfig(t *testing.T) {
	srv := newServer(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OMEKAS_API_ENDPOINT", srv.URL+"/api")

	out, _, err := execute(t, "items")
	require.NoError(t, err)
	assert.Equal(t, "3\tHarbour map\n", out)
}
