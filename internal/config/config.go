// Package config loads server settings.
//
// Config file locations (priority order):
//  1. $MYPEEPS_CONFIG
//  2. ./mypeeps.yaml
//  3. ~/.config/mypeeps/config.yaml
//
// A .env file in the working directory is loaded first. Environment
// variables override file values, and defaults fill whatever is left.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/mypeeps/pkg/logging"
)

const (
	DriverSQLite  = "sqlite"
	DriverSurreal = "surreal"
	DriverMemory  = "memory"

	MediaCloudinary = "cloudinary"
	MediaLocal      = "local"
	MediaNone       = "none"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Media   MediaConfig   `yaml:"media"`
	Auth    AuthConfig    `yaml:"auth"`
	Catalog CatalogConfig `yaml:"catalog"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// PublicURL is the origin clients reach the server on. Local media URLs
	// are built from it.
	PublicURL   string   `yaml:"public_url"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type StoreConfig struct {
	Driver  string        `yaml:"driver"`
	Path    string        `yaml:"path"`
	Surreal SurrealConfig `yaml:"surreal"`
}

type SurrealConfig struct {
	URL       string `yaml:"url"`
	Namespace string `yaml:"namespace"`
	Database  string `yaml:"database"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

type MediaConfig struct {
	// Driver is cloudinary, local or none. Empty picks cloudinary when a
	// cloud name is set and local otherwise.
	Driver       string        `yaml:"driver"`
	Dir          string        `yaml:"dir"`
	CloudName    string        `yaml:"cloud_name"`
	UploadPreset string        `yaml:"upload_preset"`
	Folder       string        `yaml:"folder"`
	Timeout      time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	Secret        string        `yaml:"secret"`
	Issuer        string        `yaml:"issuer"`
	TokenDuration time.Duration `yaml:"token_duration"`
}

type CatalogConfig struct {
	MaterializeConcurrency int `yaml:"materialize_concurrency"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads .env, parses the config file, then applies environment
// overrides and defaults. An empty path searches the usual locations. The
// returned path is empty when no file was found.
func Load(path string) (*Config, string, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path == "" {
		path = FindConfigPath()
	}
	if path != "" {
		var err error
		cfg, err = LoadFromPath(path)
		if err != nil {
			return nil, path, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, path, nil
}

// LoadFromPath parses a single config file without env overrides or defaults.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// FindConfigPath returns the first config file that exists, or "".
func FindConfigPath() string {
	if p := os.Getenv("MYPEEPS_CONFIG"); p != "" {
		return p
	}

	candidates := []string{"mypeeps.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "mypeeps", "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnvOrDefault("MYPEEPS_ADDR", c.Server.Addr)
	c.Server.PublicURL = getEnvOrDefault("MYPEEPS_PUBLIC_URL", c.Server.PublicURL)

	c.Store.Driver = getEnvOrDefault("MYPEEPS_STORE_DRIVER", c.Store.Driver)
	c.Store.Path = getEnvOrDefault("MYPEEPS_DB_PATH", c.Store.Path)
	c.Store.Surreal.URL = getEnvOrDefault("SURREALDB_URL", c.Store.Surreal.URL)
	c.Store.Surreal.Namespace = getEnvOrDefault("SURREALDB_NAMESPACE", c.Store.Surreal.Namespace)
	c.Store.Surreal.Database = getEnvOrDefault("SURREALDB_DATABASE", c.Store.Surreal.Database)
	c.Store.Surreal.Username = getEnvOrDefault("SURREALDB_USER", c.Store.Surreal.Username)
	c.Store.Surreal.Password = getEnvOrDefault("SURREALDB_PASS", c.Store.Surreal.Password)

	c.Media.Driver = getEnvOrDefault("MYPEEPS_MEDIA_DRIVER", c.Media.Driver)
	c.Media.Dir = getEnvOrDefault("MYPEEPS_MEDIA_DIR", c.Media.Dir)
	c.Media.CloudName = getEnvOrDefault("CLOUDINARY_CLOUD_NAME", c.Media.CloudName)
	c.Media.UploadPreset = getEnvOrDefault("CLOUDINARY_UPLOAD_PRESET", c.Media.UploadPreset)
	c.Media.Folder = getEnvOrDefault("CLOUDINARY_FOLDER", c.Media.Folder)

	c.Auth.Secret = getEnvOrDefault("JWT_SECRET", c.Auth.Secret)
	c.Auth.Issuer = getEnvOrDefault("JWT_ISSUER", c.Auth.Issuer)

	c.Catalog.MaterializeConcurrency = getEnvIntOrDefault("MYPEEPS_MATERIALIZE_CONCURRENCY", c.Catalog.MaterializeConcurrency)

	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvOrDefault("LOG_FORMAT", c.Log.Format)
}

// localURL turns a listen address into a loopback origin. The host part is
// dropped since wildcard binds like 0.0.0.0 are not reachable addresses.
func localURL(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return "http://localhost"
	}
	return "http://localhost:" + port
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.PublicURL == "" {
		c.Server.PublicURL = localURL(c.Server.Addr)
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	if c.Store.Path == "" {
		c.Store.Path = "./data/mypeeps.db"
	}
	if c.Store.Surreal.Namespace == "" {
		c.Store.Surreal.Namespace = "mypeeps"
	}
	if c.Store.Surreal.Database == "" {
		c.Store.Surreal.Database = "mypeeps"
	}
	if c.Media.Driver == "" {
		if c.Media.CloudName != "" {
			c.Media.Driver = MediaCloudinary
		} else {
			c.Media.Driver = MediaLocal
		}
	}
	if c.Media.Dir == "" {
		c.Media.Dir = "./data/media"
	}
	if c.Media.Timeout == 0 {
		c.Media.Timeout = 30 * time.Second
	}
	if c.Auth.TokenDuration == 0 {
		c.Auth.TokenDuration = 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = logging.FormatText
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite driver"))
		}
	case DriverSurreal:
		if c.Store.Surreal.URL == "" {
			errs = append(errs, errors.New("store.surreal.url is required for the surreal driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	switch c.Media.Driver {
	case MediaCloudinary:
		if c.Media.CloudName == "" || c.Media.UploadPreset == "" {
			errs = append(errs, errors.New("media.cloud_name and media.upload_preset are required for cloudinary"))
		}
	case MediaLocal:
		if c.Media.Dir == "" {
			errs = append(errs, errors.New("media.dir is required for local media"))
		}
	case MediaNone:
	default:
		errs = append(errs, fmt.Errorf("unknown media driver %q", c.Media.Driver))
	}

	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("auth.secret (JWT_SECRET) is required"))
	}
	if c.Catalog.MaterializeConcurrency < 0 {
		errs = append(errs, errors.New("catalog.materialize_concurrency must not be negative"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		slog.Warn("Ignoring invalid integer env var", "key", key, "value", valStr, "error", err)
		return defaultValue
	}
	return val
}
