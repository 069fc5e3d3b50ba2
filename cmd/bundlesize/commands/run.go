package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bundlesize/internal/forge"
	"github.com/Sumatoshi-tech/bundlesize/internal/runner"
	"github.com/Sumatoshi-tech/bundlesize/pkg/observability"
	"github.com/Sumatoshi-tech/bundlesize/pkg/sizer"
)

// RunCommand is the CI entrypoint.
type RunCommand struct {
	global *GlobalOptions

	sha  string
	root string

	// newForge is replaced in tests.
	newForge func(*app) (forge.Forge, error)
}

// NewRunCommand creates the run command.
func NewRunCommand(global *GlobalOptions) *cobra.Command {
	return newRunCommandWithForge(global, func(a *app) (forge.Forge, error) {
		return a.newForge()
	})
}

func newRunCommandWithForge(global *GlobalOptions, newForge func(*app) (forge.Forge, error)) *cobra.Command {
	rc := &RunCommand{global: global, newForge: newForge}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Measure, store and comment size changes on pull requests",
		Long: `Run the CI flow: measure the configured files, store the snapshot for the
current commit, then post or refresh the size report on every open pull
request whose base or head tip is the current commit.`,
		Args: cobra.NoArgs,
		RunE: rc.run,
	}

	cmd.Flags().StringVar(&rc.sha, flagSHA, "", "Current commit SHA (default: config, then git HEAD)")
	cmd.Flags().StringVar(&rc.root, flagRoot, "", "Directory the patterns are relative to (default: config root)")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(cmd, rc.global, observability.ModeCLI)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := a.Close(ctx)
		if closeErr != nil {
			a.logger.Warn("shutdown failed", "error", closeErr)
		}
	}()

	if rc.root != "" {
		a.cfg.Root = rc.root
	}

	if len(a.cfg.Files) == 0 {
		a.logger.WarnContext(ctx, "no file patterns configured, nothing to measure")

		return nil
	}

	sha, err := a.currentSHA(rc.sha)
	if err != nil {
		return err
	}

	limit, err := a.cfg.MaxFileSizeBytes()
	if err != nil {
		return err
	}

	sz, err := sizer.New(a.cfg.Root, sizer.WithMaxFileSize(limit))
	if err != nil {
		return err
	}

	fg, err := rc.newForge(a)
	if err != nil {
		return err
	}

	r := runner.New(runner.Deps{
		Sizer:         sz,
		Store:         a.store,
		Forge:         fg,
		Keys:          a.pattern,
		Patterns:      a.cfg.Files,
		SHA:           sha,
		RepositoryURL: a.cfg.RepositoryURL(),
		Logger:        a.logger,
		Metrics:       a.runMetrics(),
		Tracer:        a.providers.Tracer,
	})

	res, err := r.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files, %d commented, %d unchanged, %d skipped, %d failed\n",
		shortRef(sha), len(res.Snapshot), res.Commented, res.Unchanged, res.Skipped, res.Failed)

	return nil
}
