// Package config provides configuration management for Pathium.
//
// This package handles loading configuration from multiple sources:
//   - YAML configuration files
//   - Environment variables (with PM_ prefix)
//   - .env files
//   - Default values
//
// # Configuration Sources Priority
//
// Configuration is loaded in the following order (later sources override earlier ones):
//  1. Default values (hardcoded)
//  2. Configuration files (./config.yaml, ./configs/config.yaml, ~/.pathium/config.yaml, /etc/pathium/config.yaml)
//  3. .env files
//  4. Environment variables (PM_ prefix)
//
// # Usage Example
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("API: %s\n", cfg.API.BaseURL)
//
// # Environment Variables
//
// Environment variables override all other configuration sources.
// Use PM_ prefix and underscores for nested keys:
//   - PM_API_BASE_URL=http://localhost:8000
//   - PM_SERVER_PORT=8000
//   - PM_SEED_REQUIRE_AUTH=false
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure for Pathium.
type Config struct {
	// API contains settings for the remote route-planning service
	API APIConfig `mapstructure:"api"`

	// Session contains authentication session settings
	Session SessionConfig `mapstructure:"session"`

	// Seed contains graph bootstrap seeding policy
	Seed SeedConfig `mapstructure:"seed"`

	// Server contains the embedded development API server settings
	Server ServerConfig `mapstructure:"server"`

	// Logging contains logging settings
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig contains settings for reaching the route-planning service.
type APIConfig struct {
	// BaseURL is the service base URL (e.g. http://localhost:8000)
	BaseURL string `mapstructure:"base_url"`

	// Timeout is the per-request HTTP timeout
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig contains authentication session settings.
type SessionConfig struct {
	// TokenFile is the path of the persisted credential.
	// Defaults to ~/.pathium/token.
	TokenFile string `mapstructure:"token_file"`
}

// SeedConfig controls the bootstrap behavior against an empty graph.
type SeedConfig struct {
	// RequireAuth refuses to seed an empty graph without an authenticated
	// identity. When false, bootstrap seeds anonymously.
	RequireAuth bool `mapstructure:"require_auth"`
}

// ServerConfig contains the embedded development server configuration.
type ServerConfig struct {
	// Host is the server bind address (default: localhost)
	Host string `mapstructure:"host"`

	// Port is the server listen port (default: 8000)
	Port int `mapstructure:"port"`

	// Debug enables debug logging and verbose error details
	Debug bool `mapstructure:"debug"`

	// JWTSecret is the secret key for signing access tokens
	JWTSecret string `mapstructure:"jwt_secret"`

	// JWTExpiration is the access token lifetime (default: 1h)
	JWTExpiration time.Duration `mapstructure:"jwt_expiration"`

	// RateLimit is the maximum requests per second per client (0 disables)
	RateLimit int `mapstructure:"rate_limit"`

	// AllowedOrigins are the CORS allowed origins
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// JobWorkers is the async batch job worker count
	JobWorkers int `mapstructure:"job_workers"`

	// HistoryLimit is the maximum retained history entries
	HistoryLimit int `mapstructure:"history_limit"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Format is the log format (json, text)
	Format string `mapstructure:"format"`
}

var cfg *Config

// Load reads configuration from a file and environment variables.
// If cfgFile is empty, it searches for config.yaml in standard locations.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (PM_ prefix)
//  2. .env file
//  3. Configuration file
//  4. Default values
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.pathium")
		v.AddConfigPath("/etc/pathium")
	}

	if err := v.ReadInConfig(); err != nil {
		// An explicitly specified file may be absent; proceed with defaults
		// in that case but fail on parse errors. For auto-discovery only
		// fail on errors other than ConfigFileNotFoundError.
		if cfgFile != "" {
			if !isFileNotFoundError(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.MergeInConfig() // Ignore error if .env file doesn't exist

	v.SetEnvPrefix("PM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", "30s")

	v.SetDefault("session.token_file", defaultTokenFile())

	v.SetDefault("seed.require_auth", true)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.jwt_secret", "change-me-in-production")
	v.SetDefault("server.jwt_expiration", "1h")
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.job_workers", 4)
	v.SetDefault("server.history_limit", 1000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api base_url is required")
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.Session.TokenFile == "" {
		return fmt.Errorf("session token_file is required")
	}

	return nil
}

func Get() *Config {
	return cfg
}

// defaultTokenFile places the credential under the user's home directory.
// Falls back to the working directory when home cannot be resolved.
func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pathium-token"
	}
	return filepath.Join(home, ".pathium", "token")
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	return false
}
