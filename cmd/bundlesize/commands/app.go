// Package commands implements CLI command handlers for bundlesize.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bundlesize/internal/config"
	"github.com/Sumatoshi-tech/bundlesize/internal/forge"
	"github.com/Sumatoshi-tech/bundlesize/internal/gitrepo"
	"github.com/Sumatoshi-tech/bundlesize/pkg/keys"
	"github.com/Sumatoshi-tech/bundlesize/pkg/observability"
	"github.com/Sumatoshi-tech/bundlesize/pkg/store"
	"github.com/Sumatoshi-tech/bundlesize/pkg/version"
)

// GlobalOptions holds the persistent root flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
}

// app bundles what a command needs after startup.
type app struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
	store     store.Store
	pattern   *keys.Pattern

	closers []func() error
}

// newApp loads configuration, starts observability and opens the store.
// The caller must Close the returned app.
func newApp(cmd *cobra.Command, opts *GlobalOptions, mode observability.AppMode) (*app, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	providers, err := observability.Init(observabilityConfig(cmd, cfg, opts, mode))
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	a := &app{cfg: cfg, providers: providers, logger: providers.Logger}

	pattern, err := cfg.Pattern()
	if err != nil {
		return nil, errors.Join(err, a.Close(cmd.Context()))
	}

	a.pattern = pattern

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, errors.Join(err, a.Close(cmd.Context()))
	}

	a.store = st

	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	return a, nil
}

func observabilityConfig(cmd *cobra.Command, cfg *config.Config, opts *GlobalOptions, mode observability.AppMode) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.PushgatewayURL = cfg.Telemetry.PushgatewayURL
	obsCfg.LogJSON = cfg.Logging.JSON || mode == observability.ModeMCP
	obsCfg.LogOutput = cmd.ErrOrStderr()

	// Validate already rejected unknown levels.
	obsCfg.LogLevel, _ = cfg.LogLevel()

	if opts.Verbose {
		obsCfg.LogLevel = slog.LevelDebug
	}

	return obsCfg
}

// openStore builds the configured snapshot store. The returned closer may be nil.
func openStore(cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil, nil
	case config.BackendSQLite:
		st, err := store.OpenSQLite(cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}

		return st, st.Close, nil
	case config.BackendGitHub:
		repo, err := cfg.Repository()
		if err != nil {
			return nil, nil, err
		}

		client, err := forge.NewGitHubClient(cfg.GitHub.Token, cfg.GitHub.APIURL)
		if err != nil {
			return nil, nil, err
		}

		st, err := store.NewGitHubStore(client, repo.Owner, repo.Name, cfg.Store.Directory)
		if err != nil {
			return nil, nil, err
		}

		return st, nil, nil
	default:
		st, err := store.NewFileStore(cfg.Store.Directory)
		if err != nil {
			return nil, nil, err
		}

		return st, nil, nil
	}
}

// newForge connects to the configured GitHub repository.
func (a *app) newForge() (*forge.GitHub, error) {
	requireErr := a.cfg.RequireGitHub()
	if requireErr != nil {
		return nil, requireErr
	}

	repo, err := a.cfg.Repository()
	if err != nil {
		return nil, err
	}

	client, err := forge.NewGitHubClient(a.cfg.GitHub.Token, a.cfg.GitHub.APIURL)
	if err != nil {
		return nil, err
	}

	return forge.NewGitHub(client, repo), nil
}

// currentSHA returns the configured SHA, or HEAD of the repository at root.
func (a *app) currentSHA(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if a.cfg.SHA != "" {
		return a.cfg.SHA, nil
	}

	sha, err := gitrepo.HeadSHA(a.cfg.Root)
	if err != nil {
		return "", fmt.Errorf("determine current commit: %w", err)
	}

	return sha, nil
}

func (a *app) runMetrics() *observability.RunMetrics {
	rm, err := observability.NewRunMetrics(a.providers.Meter)
	if err != nil {
		a.logger.Warn("run metrics unavailable", "error", err)

		return observability.NoopRunMetrics()
	}

	return rm
}

// Close releases the store and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	var errs []error

	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}

	if a.providers.Shutdown != nil {
		errs = append(errs, a.providers.Shutdown(context.WithoutCancel(ctx)))
	}

	return errors.Join(errs...)
}
