package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bundlesize/internal/gitrepo"
	"github.com/Sumatoshi-tech/bundlesize/pkg/observability"
	"github.com/Sumatoshi-tech/bundlesize/pkg/report"
	"github.com/Sumatoshi-tech/bundlesize/pkg/sizediff"
	"github.com/Sumatoshi-tech/bundlesize/pkg/store"
)

// Output formats of the diff command.
const (
	FormatTerminal = "terminal"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatHTML     = "html"
)

const (
	flagFormat  = "format"
	flagOutput  = "output"
	flagNoColor = "no-color"
)

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

// DiffCommand compares two stored snapshots.
type DiffCommand struct {
	global *GlobalOptions

	format  string
	output  string
	noColor bool
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(global *GlobalOptions) *cobra.Command {
	dc := &DiffCommand{global: global}

	cmd := &cobra.Command{
		Use:   "diff <base> <head>",
		Short: "Compare the stored snapshots of two commits",
		Long: `Compare the stored snapshots of two commits and print the size report.

Revisions are resolved through the local git repository when one is found
(branches, tags, short SHAs, HEAD~1); otherwise they are used as given.
A commit without a stored snapshot compares as empty.`,
		Args: cobra.ExactArgs(2), //nolint:mnd // base and head.
		RunE: dc.run,
	}

	cmd.Flags().StringVar(&dc.format, flagFormat, FormatTerminal, "Output format: terminal, markdown, json, yaml, html")
	cmd.Flags().StringVarP(&dc.output, flagOutput, "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&dc.noColor, flagNoColor, false, "Disable colored terminal output")

	return cmd
}

func (dc *DiffCommand) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	render, err := dc.renderer()
	if err != nil {
		return err
	}

	a, err := newApp(cmd, dc.global, observability.ModeCLI)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := a.Close(ctx)
		if closeErr != nil {
			a.logger.Warn("shutdown failed", "error", closeErr)
		}
	}()

	baseSHA, headSHA := dc.resolve(a, args[0]), dc.resolve(a, args[1])

	base, head, err := store.LoadPair(ctx, a.store, baseSHA, headSHA)
	if err != nil {
		return err
	}

	rep := sizediff.DiffKeyed(a.pattern, base, head)
	opts := report.Options{RepositoryURL: a.cfg.RepositoryURL(), BaseSHA: baseSHA, HeadSHA: headSHA}

	if dc.output == "" {
		return render(cmd.OutOrStdout(), rep, opts)
	}

	f, err := os.Create(dc.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	renderErr := render(f, rep, opts)

	return errors.Join(renderErr, f.Close())
}

type renderFunc func(io.Writer, sizediff.Report, report.Options) error

func (dc *DiffCommand) renderer() (renderFunc, error) {
	switch dc.format {
	case FormatTerminal:
		noColor := dc.noColor || dc.output != ""

		return func(w io.Writer, rep sizediff.Report, _ report.Options) error {
			return report.Terminal(w, rep, report.TerminalOptions{NoColor: noColor})
		}, nil
	case FormatMarkdown:
		return func(w io.Writer, rep sizediff.Report, opts report.Options) error {
			_, err := io.WriteString(w, report.Markdown(rep, opts))

			return err
		}, nil
	case FormatJSON:
		return report.JSON, nil
	case FormatYAML:
		return report.YAML, nil
	case FormatHTML:
		return report.HTML, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, dc.format)
	}
}

// resolve maps a revision to a full SHA via the local repository, falling
// back to the revision itself.
func (dc *DiffCommand) resolve(a *app, rev string) string {
	repo, err := gitrepo.Open(a.cfg.Root)
	if err != nil {
		a.logger.Debug("no git repository, using revision as given", "rev", rev, "error", err)

		return rev
	}

	sha, err := repo.Resolve(rev)
	if err != nil {
		a.logger.Debug("revision not resolvable, using it as given", "rev", rev, "error", err)

		return rev
	}

	return sha
}
