package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"

	"github.com/Sumatoshi-tech/bundlesize/pkg/safeconv"
)

const (
	metricSnapshotsSaved  = "bundlesize.snapshots.saved"
	metricSnapshotLoads   = "bundlesize.snapshot.loads"
	metricFilesMeasured   = "bundlesize.files.measured"
	metricBytesMeasured   = "bundlesize.bytes.measured"
	metricCollectDuration = "bundlesize.collect.duration.seconds"
	metricPullRequests    = "bundlesize.pull_requests"
	metricComments        = "bundlesize.comments"

	attrOutcome = "outcome"
	attrAction  = "action"
)

// Snapshot load outcomes.
const (
	LoadFound   = "found"
	LoadMissing = "missing"
	LoadExpired = "expired"
	LoadError   = "error"
)

// Pull request outcomes.
const (
	PRProcessed    = "processed"
	PRSkippedDraft = "skipped_draft"
	PRSkippedStale = "skipped_stale"
	PRFailed       = "failed"
)

// RunMetrics counts what one CI run did.
type RunMetrics struct {
	snapshotsSaved  metric.Int64Counter
	snapshotLoads   metric.Int64Counter
	filesMeasured   metric.Int64Counter
	bytesMeasured   metric.Int64Counter
	collectDuration metric.Float64Histogram
	pullRequests    metric.Int64Counter
	comments        metric.Int64Counter
}

// NewRunMetrics creates the run instruments from mt.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &RunMetrics{
		snapshotsSaved:  b.counter(metricSnapshotsSaved, "Snapshots written to the store", "{snapshot}"),
		snapshotLoads:   b.counter(metricSnapshotLoads, "Snapshot loads by outcome", "{snapshot}"),
		filesMeasured:   b.counter(metricFilesMeasured, "Files measured", "{file}"),
		bytesMeasured:   b.counter(metricBytesMeasured, "Raw bytes measured", "By"),
		collectDuration: b.histogram(metricCollectDuration, "Time spent measuring files", "s", durationBucketBoundaries...),
		pullRequests:    b.counter(metricPullRequests, "Pull requests seen by outcome", "{pull_request}"),
		comments:        b.counter(metricComments, "Report comments by action", "{comment}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// NoopRunMetrics returns instruments that record nothing.
func NoopRunMetrics() *RunMetrics {
	rm, _ := NewRunMetrics(noopmetric.NewMeterProvider().Meter(instrumentationName)) //nolint:errcheck // noop meter never fails

	return rm
}

// Collected records a measurement pass.
func (rm *RunMetrics) Collected(ctx context.Context, files int, bytes uint64, duration time.Duration) {
	rm.filesMeasured.Add(ctx, int64(files))
	rm.bytesMeasured.Add(ctx, safeconv.Uint64ToInt64(bytes))
	rm.collectDuration.Record(ctx, duration.Seconds())
}

// SnapshotSaved records a store write.
func (rm *RunMetrics) SnapshotSaved(ctx context.Context) {
	rm.snapshotsSaved.Add(ctx, 1)
}

// SnapshotLoaded records a store read with one of the Load* outcomes.
func (rm *RunMetrics) SnapshotLoaded(ctx context.Context, outcome string) {
	rm.snapshotLoads.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// PullRequest records one of the PR* outcomes.
func (rm *RunMetrics) PullRequest(ctx context.Context, outcome string) {
	rm.pullRequests.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// Comment records a comment upsert action.
func (rm *RunMetrics) Comment(ctx context.Context, action string) {
	rm.comments.Add(ctx, 1, metric.WithAttributes(attribute.String(attrAction, action)))
}
