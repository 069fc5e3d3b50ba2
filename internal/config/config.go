// Package config loads bundlesize settings from a YAML file, BUNDLESIZE_*
// environment variables and the variables GitHub Actions exports.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/bundlesize/internal/forge"
	"github.com/Sumatoshi-tech/bundlesize/pkg/keys"
)

// Store backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendGitHub = "github"
	BackendMemory = "memory"
)

// Config is the top-level configuration struct for bundlesize.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Files       []string        `mapstructure:"files"`
	KeyPattern  string          `mapstructure:"key_pattern"`
	Root        string          `mapstructure:"root"`
	SHA         string          `mapstructure:"sha"`
	MaxFileSize string          `mapstructure:"max_file_size"`
	Store       StoreConfig     `mapstructure:"store"`
	GitHub      GitHubConfig    `mapstructure:"github"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

// StoreConfig selects and configures the snapshot store.
type StoreConfig struct {
	Backend   string `mapstructure:"backend"`
	Directory string `mapstructure:"directory"`
	DSN       string `mapstructure:"dsn"`
}

// GitHubConfig holds GitHub API access settings.
type GitHubConfig struct {
	Token      string `mapstructure:"token"`
	Repository string `mapstructure:"repository"`
	APIURL     string `mapstructure:"api_url"`
	ServerURL  string `mapstructure:"server_url"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds tracing and metrics export settings.
type TelemetryConfig struct {
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPInsecure   bool   `mapstructure:"otlp_insecure"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
}

// Sentinel errors for configuration validation.
var (
	// ErrUnknownBackend indicates store.backend names no known store.
	ErrUnknownBackend = errors.New("store.backend must be one of file, sqlite, github, memory")
	// ErrMissingDSN indicates the sqlite backend has no database path.
	ErrMissingDSN = errors.New("store.dsn is required for the sqlite backend")
	// ErrMissingRepository indicates a GitHub-backed feature has no repository.
	ErrMissingRepository = errors.New("github.repository is required")
	// ErrMissingToken indicates a GitHub-backed feature has no token.
	ErrMissingToken = errors.New("github.token is required")
	// ErrInvalidMaxFileSize indicates max_file_size is not a byte size.
	ErrInvalidMaxFileSize = errors.New("max_file_size must be a byte size such as 5MB")
	// ErrInvalidLogLevel indicates logging.level is not a slog level.
	ErrInvalidLogLevel = errors.New("logging.level must be debug, info, warn or error")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	storeErr := c.validateStore()
	if storeErr != nil {
		return storeErr
	}

	if c.GitHub.Repository != "" {
		_, repoErr := forge.ParseRepository(c.GitHub.Repository)
		if repoErr != nil {
			return fmt.Errorf("github.repository: %w", repoErr)
		}
	}

	_, sizeErr := c.MaxFileSizeBytes()
	if sizeErr != nil {
		return sizeErr
	}

	_, levelErr := c.LogLevel()
	if levelErr != nil {
		return levelErr
	}

	_, patternErr := c.Pattern()
	if patternErr != nil {
		return fmt.Errorf("key_pattern: %w", patternErr)
	}

	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case BackendFile, BackendMemory:
		return nil
	case BackendSQLite:
		if c.Store.DSN == "" {
			return ErrMissingDSN
		}

		return nil
	case BackendGitHub:
		return c.RequireGitHub()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Store.Backend)
	}
}

// RequireGitHub reports whether the GitHub API can be reached with this config.
func (c *Config) RequireGitHub() error {
	if c.GitHub.Repository == "" {
		return ErrMissingRepository
	}

	if c.GitHub.Token == "" {
		return ErrMissingToken
	}

	return nil
}

// Repository returns the parsed github.repository.
func (c *Config) Repository() (forge.Repository, error) {
	return forge.ParseRepository(c.GitHub.Repository)
}

// RepositoryURL is the web URL of the repository, empty when unknown.
func (c *Config) RepositoryURL() string {
	if c.GitHub.Repository == "" {
		return ""
	}

	return strings.TrimSuffix(c.GitHub.ServerURL, "/") + "/" + c.GitHub.Repository
}

// Pattern compiles key_pattern. An empty pattern yields nil, which matches
// records by name only.
func (c *Config) Pattern() (*keys.Pattern, error) {
	if strings.TrimSpace(c.KeyPattern) == "" {
		return nil, nil //nolint:nilnil // nil pattern is the unkeyed mode.
	}

	return keys.Compile(c.KeyPattern)
}

// MaxFileSizeBytes parses max_file_size. Zero means unlimited.
func (c *Config) MaxFileSizeBytes() (uint64, error) {
	if c.MaxFileSize == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxFileSize, c.MaxFileSize)
	}

	return n, nil
}

// LogLevel parses logging.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Logging.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return level, nil
}
