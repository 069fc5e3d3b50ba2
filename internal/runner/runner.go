// Package runner drives one CI invocation: measure the build output, archive
// the snapshot, and refresh the size report on every pull request the
// current commit belongs to.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/bundlesize/internal/forge"
	"github.com/Sumatoshi-tech/bundlesize/pkg/keys"
	"github.com/Sumatoshi-tech/bundlesize/pkg/observability"
	"github.com/Sumatoshi-tech/bundlesize/pkg/report"
	"github.com/Sumatoshi-tech/bundlesize/pkg/sizediff"
	"github.com/Sumatoshi-tech/bundlesize/pkg/sizer"
	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
	"github.com/Sumatoshi-tech/bundlesize/pkg/store"
)

// ErrNoSHA is returned when the current commit SHA is unknown.
var ErrNoSHA = errors.New("current commit SHA is not set")

// Deps holds the collaborators of a run. Zero-value Logger, Metrics and
// Tracer fall back to slog.Default and no-op instruments.
type Deps struct {
	Sizer *sizer.Sizer
	Store store.Store
	Forge forge.Forge

	// Keys derives correlation keys. Nil leaves every record unkeyed.
	Keys *keys.Pattern

	// Patterns are the glob patterns of files to measure.
	Patterns []string

	// SHA is the commit being built.
	SHA string

	// RepositoryURL is the web URL used for compare links.
	RepositoryURL string

	Logger  *slog.Logger
	Metrics *observability.RunMetrics
	Tracer  trace.Tracer
}

// Runner executes the CI flow.
type Runner struct {
	deps Deps
}

// Result summarizes a run.
type Result struct {
	// Snapshot is what was measured for the current SHA.
	Snapshot snapshot.Snapshot
	// Commented counts pull requests whose comment was created or updated.
	Commented int
	// Unchanged counts pull requests whose comment already matched.
	Unchanged int
	// Skipped counts drafts and pull requests the current SHA is not a tip of.
	Skipped int
	// Failed counts pull requests whose comment could not be written.
	Failed int
}

// New creates a Runner.
func New(deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if deps.Metrics == nil {
		deps.Metrics = observability.NoopRunMetrics()
	}

	if deps.Tracer == nil {
		deps.Tracer = nooptrace.NewTracerProvider().Tracer("runner")
	}

	return &Runner{deps: deps}
}

// Run performs the whole flow. With no patterns configured it does nothing.
// A failure to write one pull request's comment is logged and the loop goes
// on; store and API failures abort the run.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	log := r.deps.Logger

	if len(r.deps.Patterns) == 0 {
		log.WarnContext(ctx, "no file patterns configured, nothing to measure")

		return Result{}, nil
	}

	if r.deps.SHA == "" {
		return Result{}, ErrNoSHA
	}

	current, err := r.collect(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{Snapshot: current}

	saveErr := r.deps.Store.Save(ctx, r.deps.SHA, current)

	switch {
	case errors.Is(saveErr, store.ErrAlreadyExists):
		log.WarnContext(ctx, "snapshot already stored, keeping the first one", "sha", r.deps.SHA)
	case saveErr != nil:
		return res, fmt.Errorf("save snapshot: %w", saveErr)
	default:
		r.deps.Metrics.SnapshotSaved(ctx)
		log.InfoContext(ctx, "snapshot saved", "sha", r.deps.SHA, "files", len(current))
	}

	prs, err := r.deps.Forge.ListOpenPullRequests(ctx)
	if err != nil {
		return res, err
	}

	for _, pr := range prs {
		prErr := r.pullRequest(ctx, pr, current, &res)
		if prErr != nil {
			return res, fmt.Errorf("pull request #%d: %w", pr.Number, prErr)
		}
	}

	log.InfoContext(ctx, "run finished",
		"commented", res.Commented, "unchanged", res.Unchanged, "skipped", res.Skipped, "failed", res.Failed)

	return res, nil
}

func (r *Runner) collect(ctx context.Context) (snapshot.Snapshot, error) {
	ctx, span := r.deps.Tracer.Start(ctx, "bundlesize.collect")
	defer span.End()

	start := time.Now()

	snap, err := r.deps.Sizer.Collect(r.deps.Patterns)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("collect: %w", err)
	}

	total := snap.Total()
	r.deps.Metrics.Collected(ctx, len(snap), total.Size, time.Since(start))
	span.SetAttributes(attribute.Int("files", len(snap)))

	r.deps.Logger.DebugContext(ctx, "files measured", "files", len(snap), "bytes", total.Size, "gzip", total.CompressedSize)

	return snap, nil
}

func (r *Runner) pullRequest(ctx context.Context, pr forge.PullRequest, current snapshot.Snapshot, res *Result) error {
	ctx, span := r.deps.Tracer.Start(ctx, "bundlesize.pull_request",
		trace.WithAttributes(attribute.Int("pr.number", pr.Number)))
	defer span.End()

	log := r.deps.Logger.With("pr", pr.Number)

	if pr.Draft {
		log.DebugContext(ctx, "skipping draft pull request")
		r.deps.Metrics.PullRequest(ctx, observability.PRSkippedDraft)
		res.Skipped++

		return nil
	}

	baseSHA, err := r.deps.Forge.ResolveRef(ctx, pr.Base.Repository, pr.Base.Ref)
	if err != nil {
		return err
	}

	headSHA, err := r.deps.Forge.ResolveRef(ctx, pr.Head.Repository, pr.Head.Ref)
	if err != nil {
		return err
	}

	if r.deps.SHA != baseSHA && r.deps.SHA != headSHA {
		log.DebugContext(ctx, "current commit is not a tip of this pull request", "base", baseSHA, "head", headSHA)
		r.deps.Metrics.PullRequest(ctx, observability.PRSkippedStale)
		res.Skipped++

		return nil
	}

	base, err := r.snapshotFor(ctx, baseSHA, current)
	if err != nil {
		return err
	}

	head, err := r.snapshotFor(ctx, headSHA, current)
	if err != nil {
		return err
	}

	rep := sizediff.DiffKeyed(r.deps.Keys, base, head)
	body := report.Markdown(rep, report.Options{
		RepositoryURL: r.deps.RepositoryURL,
		BaseSHA:       baseSHA,
		HeadSHA:       headSHA,
	})

	action, err := forge.UpsertComment(ctx, r.deps.Forge, pr.Number, report.Heading, body)
	if err != nil {
		log.ErrorContext(ctx, "could not write size report comment", "error", err)
		span.SetStatus(codes.Error, err.Error())
		r.deps.Metrics.Comment(ctx, "failed")
		r.deps.Metrics.PullRequest(ctx, observability.PRFailed)
		res.Failed++

		return nil
	}

	r.deps.Metrics.Comment(ctx, string(action))
	r.deps.Metrics.PullRequest(ctx, observability.PRProcessed)

	if action == forge.ActionUnchanged {
		res.Unchanged++
	} else {
		res.Commented++
	}

	log.InfoContext(ctx, "size report comment written", "action", action, "rows", len(rep.Rows))

	return nil
}

// snapshotFor returns current for the SHA being built and loads any other.
// A missing snapshot is empty; an expired one is an error.
func (r *Runner) snapshotFor(ctx context.Context, sha string, current snapshot.Snapshot) (snapshot.Snapshot, error) {
	if sha == r.deps.SHA {
		return current, nil
	}

	snap, err := r.deps.Store.Load(ctx, sha)

	switch {
	case err == nil:
		r.deps.Metrics.SnapshotLoaded(ctx, observability.LoadFound)

		return snap, nil
	case errors.Is(err, store.ErrNotFound):
		r.deps.Metrics.SnapshotLoaded(ctx, observability.LoadMissing)
		r.deps.Logger.InfoContext(ctx, "no snapshot stored, comparing against nothing", "sha", sha)

		return snapshot.Snapshot{}, nil
	case errors.Is(err, store.ErrExpired):
		r.deps.Metrics.SnapshotLoaded(ctx, observability.LoadExpired)
	default:
		r.deps.Metrics.SnapshotLoaded(ctx, observability.LoadError)
	}

	return nil, fmt.Errorf("load snapshot %s: %w", sha, err)
}
