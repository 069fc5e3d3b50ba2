package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bundlesize/pkg/observability"
	"github.com/Sumatoshi-tech/bundlesize/pkg/report"
	"github.com/Sumatoshi-tech/bundlesize/pkg/sizer"
	"github.com/Sumatoshi-tech/bundlesize/pkg/store"
)

const (
	flagSHA   = "sha"
	flagRoot  = "root"
	flagFiles = "files"
)

// CollectCommand measures the configured files and stores the snapshot.
type CollectCommand struct {
	global *GlobalOptions

	sha   string
	root  string
	files []string
}

// NewCollectCommand creates the collect command.
func NewCollectCommand(global *GlobalOptions) *cobra.Command {
	cc := &CollectCommand{global: global}

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Measure build output and store the snapshot for a commit",
		Long: `Measure raw and gzip sizes of the files matched by the configured glob
patterns and store the snapshot under the current commit SHA.`,
		Args: cobra.NoArgs,
		RunE: cc.run,
	}

	cmd.Flags().StringVar(&cc.sha, flagSHA, "", "Commit SHA to store the snapshot under (default: config, then git HEAD)")
	cmd.Flags().StringVar(&cc.root, flagRoot, "", "Directory the patterns are relative to (default: config root)")
	cmd.Flags().StringSliceVar(&cc.files, flagFiles, nil, "Glob patterns overriding the configured files")

	return cmd
}

func (cc *CollectCommand) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(cmd, cc.global, observability.ModeCLI)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := a.Close(ctx)
		if closeErr != nil {
			a.logger.Warn("shutdown failed", "error", closeErr)
		}
	}()

	if cc.root != "" {
		a.cfg.Root = cc.root
	}

	patterns := a.cfg.Files
	if len(cc.files) > 0 {
		patterns = cc.files
	}

	if len(patterns) == 0 {
		a.logger.WarnContext(ctx, "no file patterns configured, nothing to measure")

		return nil
	}

	sha, err := a.currentSHA(cc.sha)
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

	metrics := a.runMetrics()
	start := time.Now()

	snap, err := sz.Collect(patterns)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	total := snap.Total()
	metrics.Collected(ctx, len(snap), total.Size, time.Since(start))

	saveErr := a.store.Save(ctx, sha, snap)

	switch {
	case errors.Is(saveErr, store.ErrAlreadyExists):
		a.logger.WarnContext(ctx, "snapshot already stored, keeping the first one", "sha", sha)
	case saveErr != nil:
		return fmt.Errorf("save snapshot: %w", saveErr)
	default:
		metrics.SnapshotSaved(ctx)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files, %s (%s gzip)\n",
		shortRef(sha), len(snap), report.FormatBytes(total.Size), report.FormatBytes(total.CompressedSize))

	return nil
}

func shortRef(sha string) string {
	const shortLen = 7

	if len(sha) > shortLen {
		return sha[:shortLen]
	}

	return sha
}
