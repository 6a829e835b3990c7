package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"MYPEEPS_CONFIG", "MYPEEPS_ADDR", "MYPEEPS_PUBLIC_URL", "MYPEEPS_STORE_DRIVER",
	"MYPEEPS_DB_PATH", "SURREALDB_URL", "SURREALDB_NAMESPACE", "SURREALDB_DATABASE",
	"SURREALDB_USER", "SURREALDB_PASS", "MYPEEPS_MEDIA_DRIVER", "MYPEEPS_MEDIA_DIR",
	"CLOUDINARY_CLOUD_NAME", "CLOUDINARY_UPLOAD_PRESET", "CLOUDINARY_FOLDER",
	"JWT_SECRET", "JWT_ISSUER", "MYPEEPS_MATERIALIZE_CONCURRENCY", "LOG_LEVEL", "LOG_FORMAT",
}

// isolate runs the test in an empty directory with a clean environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, path, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, path)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.Server.PublicURL)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, MediaLocal, cfg.Media.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	// No secret by default.
	assert.Error(t, cfg.Validate())
}

func TestLoad_PublicURLFromAddr(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":9090", "http://localhost:9090"},
		{"0.0.0.0:8080", "http://localhost:8080"},
		{"127.0.0.1:3000", "http://localhost:3000"},
		{"[::]:8443", "http://localhost:8443"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			isolate(t)
			t.Setenv("MYPEEPS_ADDR", tt.addr)

			cfg, _, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.addr, cfg.Server.Addr)
			assert.Equal(t, tt.want, cfg.Server.PublicURL)
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)

	yamlBody := `
server:
  addr: ":9000"
store:
  driver: surreal
  surreal:
    url: ws://db:8000
    namespace: contacts
media:
  cloud_name: demo
  upload_preset: unsigned
  timeout: 10s
auth:
  secret: from-file
  token_duration: 2h
catalog:
  materialize_concurrency: 4
log:
  format: json
`
	path := filepath.Join(dir, "mypeeps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, found, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mypeeps.yaml", found)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, DriverSurreal, cfg.Store.Driver)
	assert.Equal(t, "ws://db:8000", cfg.Store.Surreal.URL)
	assert.Equal(t, "contacts", cfg.Store.Surreal.Namespace)
	assert.Equal(t, "mypeeps", cfg.Store.Surreal.Database)
	assert.Equal(t, MediaCloudinary, cfg.Media.Driver)
	assert.Equal(t, 10*time.Second, cfg.Media.Timeout)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, 4, cfg.Catalog.MaterializeConcurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "elsewhere.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  secret: s3cret\n"), 0o644))
	t.Setenv("MYPEEPS_CONFIG", path)

	cfg, found, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, path, found)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)

	flagPath := filepath.Join(dir, "flag.yaml")
	require.NoError(t, os.WriteFile(flagPath, []byte("auth:\n  secret: from-flag\n"), 0o644))

	cfg, found, err = Load(flagPath)
	require.NoError(t, err)
	assert.Equal(t, flagPath, found)
	assert.Equal(t, "from-flag", cfg.Auth.Secret)

	_, _, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MYPEEPS_TEST_DOTENV=loaded\n"), 0o644))
	t.Setenv("MYPEEPS_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("MYPEEPS_TEST_DOTENV"))

	_, _, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "loaded", os.Getenv("MYPEEPS_TEST_DOTENV"))
}

func TestLoad_BadYAML(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mypeeps.yaml"), []byte("server: [unclosed"), 0o644))

	_, _, err := Load("")
	assert.Error(t, err)
}

func TestLoad_InvalidIntEnvKeepsFileValue(t *testing.T) {
	isolate(t)
	t.Setenv("MYPEEPS_MATERIALIZE_CONCURRENCY", "lots")

	cfg, _, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Catalog.MaterializeConcurrency)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Auth: AuthConfig{Secret: "x"}}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"surreal without url", func(c *Config) { c.Store.Driver = DriverSurreal }},
		{"cloudinary without preset", func(c *Config) {
			c.Media.Driver = MediaCloudinary
			c.Media.CloudName = "demo"
		}},
		{"unknown media driver", func(c *Config) { c.Media.Driver = "s3" }},
		{"missing secret", func(c *Config) { c.Auth.Secret = "" }},
		{"negative concurrency", func(c *Config) { c.Catalog.MaterializeConcurrency = -1 }},
		{"bad level", func(c *Config) { c.Log.Level = "chatty" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := valid()
	cfg.Store.Driver = DriverMemory
	cfg.Media.Driver = MediaNone
	assert.NoError(t, cfg.Validate())
}
