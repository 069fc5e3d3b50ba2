package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/bundlesize/pkg/observability"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}

	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()

	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestRunMetrics_Records(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	rm, err := observability.NewRunMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	rm.Collected(ctx, 3, 4096, 20*time.Millisecond)
	rm.SnapshotSaved(ctx)
	rm.SnapshotLoaded(ctx, observability.LoadFound)
	rm.SnapshotLoaded(ctx, observability.LoadMissing)
	rm.PullRequest(ctx, observability.PRProcessed)
	rm.PullRequest(ctx, observability.PRSkippedDraft)
	rm.Comment(ctx, "updated")

	got := collect(t, reader)

	assert.Equal(t, int64(3), sumOf(t, got["bundlesize.files.measured"]))
	assert.Equal(t, int64(4096), sumOf(t, got["bundlesize.bytes.measured"]))
	assert.Equal(t, int64(1), sumOf(t, got["bundlesize.snapshots.saved"]))
	assert.Equal(t, int64(2), sumOf(t, got["bundlesize.snapshot.loads"]))
	assert.Equal(t, int64(2), sumOf(t, got["bundlesize.pull_requests"]))
	assert.Equal(t, int64(1), sumOf(t, got["bundlesize.comments"]))
	assert.Contains(t, got, "bundlesize.collect.duration.seconds")
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	done := red.TrackInflight(ctx, "size_diff")
	red.RecordRequest(ctx, "size_diff", observability.StatusOK, time.Millisecond)
	red.RecordRequest(ctx, "size_diff", observability.StatusError, time.Millisecond)
	done()

	got := collect(t, reader)

	assert.Equal(t, int64(2), sumOf(t, got["bundlesize.requests.total"]))
	assert.Equal(t, int64(1), sumOf(t, got["bundlesize.errors.total"]))
	assert.Equal(t, int64(0), sumOf(t, got["bundlesize.inflight.requests"]))
}

func TestNoopRunMetrics(t *testing.T) {
	t.Parallel()

	rm := observability.NoopRunMetrics()
	require.NotNil(t, rm)

	assert.NotPanics(t, func() { rm.SnapshotSaved(context.Background()) })
}
