// Package observability provides OpenTelemetry tracing and metrics plus
// trace-aware structured logging for every bundlesize command.
package observability

import (
	"io"
	"log/slog"
)

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is a one-shot command (collect, diff, run).
	ModeCLI AppMode = "cli"
	// ModeMCP is the MCP stdio server.
	ModeMCP AppMode = "mcp"
)

const (
	defaultServiceName        = "bundlesize"
	defaultShutdownTimeoutSec = 5
	defaultPushJob            = "bundlesize"
)

// Config holds all observability configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Mode           AppMode

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables OTLP export.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	OTLPInsecure bool

	// SampleRatio is the root trace sampling ratio. Zero samples everything.
	SampleRatio float64

	// PushgatewayURL enables pushing the run's metrics to a Prometheus
	// Pushgateway on shutdown.
	PushgatewayURL string
	// PushJob is the Pushgateway job label.
	PushJob string

	LogLevel slog.Level
	LogJSON  bool
	// LogOutput receives log lines. Nil means stderr.
	LogOutput io.Writer

	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config with sensible defaults for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		PushJob:            defaultPushJob,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
