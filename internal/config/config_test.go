package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("HOME", dir)
	t.Setenv("STRIDE_CONFIG", "")
	t.Setenv("STRIDE_BACKEND", "")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, filepath.Join(dir, "data", "stride", "stride.db"), cfg.SQLite.Path)
	assert.Equal(t, filepath.Join(dir, "data", "stride", "stride.log"), cfg.Log.File)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10*time.Second, cfg.PostgREST.Timeout)
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
backend: postgrest
sqlite:
  path: ~/notes/stride.db
postgrest:
  url: https://example.supabase.co
  api_key: anon
  timeout: 3s
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendPostgREST, cfg.Backend)
	assert.Equal(t, filepath.Join(dir, "notes", "stride.db"), cfg.SQLite.Path)
	assert.Equal(t, "https://example.supabase.co", cfg.PostgREST.URL)
	assert.Equal(t, "anon", cfg.PostgREST.APIKey)
	assert.Equal(t, "public", cfg.PostgREST.Schema)
	assert.Equal(t, 3*time.Second, cfg.PostgREST.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "backend: sqlite\npostgrest:\n  url: https://file.example\n")

	t.Setenv("STRIDE_BACKEND", "PostgREST")
	t.Setenv("SUPABASE_URL", "https://env.example")
	t.Setenv("SUPABASE_ANON_KEY", "key")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendPostgREST, cfg.Backend)
	assert.Equal(t, "https://env.example", cfg.PostgREST.URL)
	assert.Equal(t, "key", cfg.PostgREST.APIKey)
}

func TestLoad_StrideConfigEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "elsewhere.yaml")
	writeFile(t, path, "log:\n  level: warn\n")
	t.Setenv("STRIDE_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"bad yaml", "backend: [", "failed to parse config file"},
		{"unknown backend", "backend: mongo", `unknown backend "mongo"`},
		{"postgrest without url", "backend: postgrest", "postgrest.url"},
		{"postgrest without key", "backend: postgrest\npostgrest:\n  url: https://x", "postgrest.api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "config.yaml")
			writeFile(t, path, tt.content)

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "SUPABASE_URL=https://dotenv.example\nSUPABASE_ANON_KEY=fromdotenv\n")
	t.Chdir(dir)

	// already-set variables win over the file
	t.Setenv("SUPABASE_ANON_KEY", "fromenv")
	require.NoError(t, os.Unsetenv("SUPABASE_URL"))

	require.NoError(t, LoadDotEnv())
	assert.Equal(t, "https://dotenv.example", os.Getenv("SUPABASE_URL"))
	assert.Equal(t, "fromenv", os.Getenv("SUPABASE_ANON_KEY"))
}

func TestPath(t *testing.T) {
	isolate(t)
	t.Setenv("STRIDE_CONFIG", "/tmp/custom.yaml")

	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.yaml", path)
}
