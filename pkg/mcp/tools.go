package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/bundlesize/pkg/report"
	"github.com/Sumatoshi-tech/bundlesize/pkg/sizediff"
	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
	"github.com/Sumatoshi-tech/bundlesize/pkg/store"
)

// Tool names.
const (
	ToolNameDiff     = "size_diff"
	ToolNameSnapshot = "size_snapshot"
)

// Output formats of size_diff.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Sentinel errors for tool input validation.
var (
	ErrEmptySHA      = errors.New("commit SHA parameter is required and must not be empty")
	ErrUnknownFormat = errors.New("format must be json or markdown")
	ErrNoStore       = errors.New("no snapshot store configured")
)

// DiffInput is the input schema for the size_diff tool.
type DiffInput struct {
	BaseSHA string `json:"base_sha"         jsonschema:"commit SHA of the comparison base"`
	HeadSHA string `json:"head_sha"         jsonschema:"commit SHA being compared"`
	Format  string `json:"format,omitempty" jsonschema:"json (default) or markdown"`
}

// SnapshotInput is the input schema for the size_snapshot tool.
type SnapshotInput struct {
	SHA string `json:"sha" jsonschema:"commit SHA whose snapshot to return"`
}

// SnapshotOutput is the size_snapshot result.
type SnapshotOutput struct {
	SHA   string                 `json:"sha"`
	Total snapshot.AggregateSize `json:"total"`
	Files snapshot.Snapshot      `json:"files"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleDiff(ctx context.Context, _ *mcpsdk.CallToolRequest, in DiffInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if in.BaseSHA == "" || in.HeadSHA == "" {
		return errorResult(ErrEmptySHA)
	}

	if in.Format != "" && in.Format != FormatJSON && in.Format != FormatMarkdown {
		return errorResult(fmt.Errorf("%w: %q", ErrUnknownFormat, in.Format))
	}

	rep, err := s.compare(ctx, in.BaseSHA, in.HeadSHA)
	if err != nil {
		return errorResult(err)
	}

	opts := report.Options{RepositoryURL: s.deps.RepositoryURL, BaseSHA: in.BaseSHA, HeadSHA: in.HeadSHA}

	if in.Format == FormatMarkdown {
		body := report.Markdown(rep, opts)

		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: body}},
		}, ToolOutput{Data: body}, nil
	}

	return jsonResult(report.NewDocument(rep, opts))
}

func (s *Server) compare(ctx context.Context, baseSHA, headSHA string) (sizediff.Report, error) {
	if s.deps.Store == nil {
		return sizediff.Report{}, ErrNoStore
	}

	base, head, err := store.LoadPair(ctx, s.deps.Store, baseSHA, headSHA)
	if err != nil {
		return sizediff.Report{}, err
	}

	return sizediff.DiffKeyed(s.deps.Keys, base, head), nil
}

func (s *Server) handleSnapshot(ctx context.Context, _ *mcpsdk.CallToolRequest, in SnapshotInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if in.SHA == "" {
		return errorResult(ErrEmptySHA)
	}

	if s.deps.Store == nil {
		return errorResult(ErrNoStore)
	}

	snap, err := s.deps.Store.Load(ctx, in.SHA)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(SnapshotOutput{SHA: in.SHA, Total: snap.Total(), Files: snap})
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
