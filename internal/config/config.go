// Package config loads client settings from a YAML file with FRAMEZ_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is read once at startup and treated as immutable.
type Config struct {
	Store       string        `yaml:"store"`
	DatabaseDSN string        `yaml:"database_dsn"`
	JWTKey      string        `yaml:"jwt_key"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	ConfigDir   string        `yaml:"config_dir"`
	Device      string        `yaml:"device"`

	Media   Media   `yaml:"media"`
	Limiter Limiter `yaml:"limiter"`
	Log     Log     `yaml:"log"`
}

// Media configures the image upload endpoint.
type Media struct {
	BaseURL      string        `yaml:"base_url"`
	CloudName    string        `yaml:"cloud_name"`
	UploadPreset string        `yaml:"upload_preset"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Limiter configures sign-in throttling.
type Limiter struct {
	Window   time.Duration `yaml:"window"`
	MaxFails int           `yaml:"max_fails"`
	BlockFor time.Duration `yaml:"block_for"`
}

// Log configures the zap logger.
type Log struct {
	Level string `yaml:"level"`
	Dev   bool   `yaml:"dev"`
}

// Dir returns $XDG_CONFIG_HOME/framez, falling back to ~/.config/framez.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "framez")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "framez")
}

// DefaultPath is the config file looked up when none is given.
func DefaultPath() string { return filepath.Join(Dir(), "config.yaml") }

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Store:     StorePostgres,
		TokenTTL:  30 * 24 * time.Hour,
		ConfigDir: Dir(),
		Media: Media{
			BaseURL: "https://api.cloudinary.com",
			Timeout: 30 * time.Second,
		},
		Limiter: Limiter{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute},
		Log:     Log{Level: "info"},
	}
}

// Option adjusts the loaded config before validation, e.g. from CLI flags.
type Option func(*Config)

// Load reads path over the defaults, then applies the environment and opts.
// A missing file is only an error when required is true.
func Load(path string, required bool, opts ...Option) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return Config{}, err
		}
	}
	cfg.applyEnv()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Store = getEnvString("FRAMEZ_STORE", c.Store)
	c.DatabaseDSN = getEnvString("FRAMEZ_DATABASE_DSN", c.DatabaseDSN)
	c.JWTKey = getEnvString("FRAMEZ_JWT_KEY", c.JWTKey)
	c.TokenTTL = getEnvDuration("FRAMEZ_TOKEN_TTL", c.TokenTTL)
	c.ConfigDir = getEnvString("FRAMEZ_CONFIG_DIR", c.ConfigDir)
	c.Device = getEnvString("FRAMEZ_DEVICE", c.Device)

	c.Media.BaseURL = getEnvString("FRAMEZ_MEDIA_BASE_URL", c.Media.BaseURL)
	c.Media.CloudName = getEnvString("FRAMEZ_MEDIA_CLOUD_NAME", c.Media.CloudName)
	c.Media.UploadPreset = getEnvString("FRAMEZ_MEDIA_UPLOAD_PRESET", c.Media.UploadPreset)
	c.Media.Timeout = getEnvDuration("FRAMEZ_MEDIA_TIMEOUT", c.Media.Timeout)

	c.Limiter.Window = getEnvDuration("FRAMEZ_LIMITER_WINDOW", c.Limiter.Window)
	c.Limiter.MaxFails = getEnvInt("FRAMEZ_LIMITER_MAX_FAILS", c.Limiter.MaxFails)
	c.Limiter.BlockFor = getEnvDuration("FRAMEZ_LIMITER_BLOCK_FOR", c.Limiter.BlockFor)

	c.Log.Level = getEnvString("FRAMEZ_LOG_LEVEL", c.Log.Level)
	c.Log.Dev = getEnvBool("FRAMEZ_LOG_DEV", c.Log.Dev)
}

// Validate checks settings that have no usable default.
func (c Config) Validate() error {
	var problems []error
	switch c.Store {
	case StorePostgres:
		if c.DatabaseDSN == "" {
			problems = append(problems, errors.New("database_dsn is required for the postgres store"))
		}
		if c.JWTKey == "" {
			problems = append(problems, errors.New("jwt_key is required for the postgres store"))
		}
	case StoreMemory:
	default:
		problems = append(problems, fmt.Errorf("unknown store %q", c.Store))
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, errors.New("token_ttl must be positive"))
	}
	if c.Limiter.MaxFails <= 0 {
		problems = append(problems, errors.New("limiter.max_fails must be positive"))
	}
	return errors.Join(problems...)
}

// TokenPath is where the session token is persisted.
func (c Config) TokenPath() string { return filepath.Join(c.ConfigDir, "session.json") }

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
