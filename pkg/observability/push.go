package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push replaces the job's metric group on a Prometheus Pushgateway with
// everything g gathers.
func Push(ctx context.Context, url, job string, g prometheus.Gatherer) error {
	if job == "" {
		job = defaultPushJob
	}

	err := push.New(url, job).Gatherer(g).PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}

	return nil
}
