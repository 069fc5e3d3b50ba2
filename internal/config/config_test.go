package config_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bundlesize/internal/config"
	"github.com/Sumatoshi-tech/bundlesize/internal/forge"
	"github.com/Sumatoshi-tech/bundlesize/pkg/keys"
)

func validConfig() config.Config {
	return config.Config{
		Files:       []string{"dist/**/*.js"},
		KeyPattern:  `([^/]+)\.[0-9a-f]+(\.js)$`,
		Root:        ".",
		MaxFileSize: "5MB",
		Store:       config.StoreConfig{Backend: config.BackendFile, Directory: ".bundlesize"},
		GitHub: config.GitHubConfig{
			Token:      "t",
			Repository: "acme/web",
			ServerURL:  "https://github.com",
		},
		Logging: config.LoggingConfig{Level: "info"},
	}
}

func TestValidate_ValidConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_UnknownBackend_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Store.Backend = "s3"

	assert.ErrorIs(t, cfg.Validate(), config.ErrUnknownBackend)
}

func TestValidate_SQLiteWithoutDSN_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Store.Backend = config.BackendSQLite

	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingDSN)

	cfg.Store.DSN = "sizes.db"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_GitHubBackendNeedsCredentials(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Store.Backend = config.BackendGitHub
	cfg.GitHub.Token = ""

	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingToken)

	cfg.GitHub.Token = "t"
	cfg.GitHub.Repository = ""

	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingRepository)
}

func TestValidate_BadRepository_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.GitHub.Repository = "acme"

	assert.ErrorIs(t, cfg.Validate(), forge.ErrInvalidRepository)
}

func TestValidate_BadMaxFileSize_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.MaxFileSize = "lots"

	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidMaxFileSize)
}

func TestValidate_BadLogLevel_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Logging.Level = "chatty"

	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidLogLevel)
}

func TestValidate_BadKeyPattern_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.KeyPattern = `no-groups\.js`

	assert.ErrorIs(t, cfg.Validate(), keys.ErrNoCaptureGroups)
}

func TestPattern_EmptyIsNil(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.KeyPattern = "  "

	pattern, err := cfg.Pattern()
	require.NoError(t, err)
	assert.Nil(t, pattern)
}

func TestMaxFileSizeBytes(t *testing.T) {
	t.Parallel()

	cfg := validConfig()

	n, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), n)

	cfg.MaxFileSize = ""

	n, err = cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Logging.Level = "DEBUG"

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestRepositoryURL(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.GitHub.ServerURL = "https://git.example.com/"

	assert.Equal(t, "https://git.example.com/acme/web", cfg.RepositoryURL())

	repo, err := cfg.Repository()
	require.NoError(t, err)
	assert.Equal(t, forge.Repository{Owner: "acme", Name: "web"}, repo)

	cfg.GitHub.Repository = ""
	assert.Empty(t, cfg.RepositoryURL())
}
