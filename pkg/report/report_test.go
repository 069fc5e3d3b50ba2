package report_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/bundlesize/pkg/report"
	"github.com/Sumatoshi-tech/bundlesize/pkg/sizediff"
	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
)

const (
	testRepoURL = "https://github.com/acme/web"
	testBaseSHA = "0123456789abcdef0123456789abcdef01234567"
	testHeadSHA = "fedcba9876543210fedcba9876543210fedcba98"
)

func sampleReport() sizediff.Report {
	base := snapshot.Snapshot{
		snapshot.FileRecord{Name: "chunk.abc123.js", Size: 100, CompressedSize: 60}.WithKey("chunk"),
		snapshot.FileRecord{Name: "old.js", Size: 2000, CompressedSize: 900}.WithKey("old"),
	}
	head := snapshot.Snapshot{
		snapshot.FileRecord{Name: "chunk.def456.js", Size: 120, CompressedSize: 60}.WithKey("chunk"),
		snapshot.FileRecord{Name: "new.js", Size: 500, CompressedSize: 250}.WithKey("new"),
	}

	return sizediff.Diff(base, head)
}

func TestFormatPercentage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "=", report.FormatPercentage(0))
	assert.Equal(t, "+20.00%", report.FormatPercentage(20))
	assert.Equal(t, "-7.50%", report.FormatPercentage(-7.5))
	assert.Equal(t, "+100.00%", report.FormatPercentage(100))
	assert.Equal(t, "+0.00%", report.FormatPercentage(0.001))
	assert.Equal(t, "-0.00%", report.FormatPercentage(-0.004))
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+20 B", report.FormatDelta(20))
	assert.Equal(t, "-20 B", report.FormatDelta(-20))
	assert.Equal(t, "0 B", report.FormatDelta(0))
	assert.Equal(t, "+1.5 kB", report.FormatDelta(1500))
	assert.Equal(t, "+20.00% (+20 B)", report.FormatChange(20, 20))
	assert.Equal(t, "= (0 B)", report.FormatChange(0, 0))
}

func TestMarkdown_Structure(t *testing.T) {
	t.Parallel()

	body := report.Markdown(sampleReport(), report.Options{
		RepositoryURL: testRepoURL,
		BaseSHA:       testBaseSHA,
		HeadSHA:       testHeadSHA,
	})

	require.True(t, report.IsReport(body))
	assert.True(t, strings.HasPrefix(body, report.Heading+"\n"))
	assert.Contains(t, body, "[`0123456...fedcba9`]("+testRepoURL+"/compare/"+testBaseSHA+"..."+testHeadSHA+")")

	for _, header := range []string{"File", "+/-", "Base", "Current", "+/- gzip", "Base gzip", "Current gzip"} {
		assert.Contains(t, body, header)
	}

	assert.Contains(t, body, "**Total**")
	assert.Contains(t, body, "`chunk.def456.js`")
	assert.Contains(t, body, "+20.00% (+20 B)")
	assert.Contains(t, body, "`new.js`")
	assert.Contains(t, body, "+100.00% (+500 B)")
	assert.Contains(t, body, "`old.js`")
	assert.Contains(t, body, "-100.00% (-2.0 kB)")
	assert.NotContains(t, body, "chunk.abc123.js")

	totalIdx := strings.Index(body, "**Total**")
	chunkIdx := strings.Index(body, "chunk.def456.js")
	oldIdx := strings.Index(body, "old.js")
	newIdx := strings.Index(body, "new.js")

	assert.Less(t, totalIdx, chunkIdx)
	assert.Less(t, chunkIdx, oldIdx)
	assert.Less(t, oldIdx, newIdx)
}

func TestMarkdown_NoCompareLink(t *testing.T) {
	t.Parallel()

	body := report.Markdown(sampleReport(), report.Options{BaseSHA: testBaseSHA, HeadSHA: testHeadSHA})
	assert.NotContains(t, body, "/compare/")
}

func TestMarkdown_Deterministic(t *testing.T) {
	t.Parallel()

	opts := report.Options{RepositoryURL: testRepoURL, BaseSHA: testBaseSHA, HeadSHA: testHeadSHA}

	first := report.Markdown(sampleReport(), opts)
	second := report.Markdown(sampleReport(), opts)

	assert.Equal(t, first, second)
}

func TestMarkdown_UnchangedShowsEquals(t *testing.T) {
	t.Parallel()

	snap := snapshot.Snapshot{{Name: "a.js", Size: 1000, CompressedSize: 400}}

	body := report.Markdown(sizediff.Diff(snap, snap), report.Options{})

	assert.Contains(t, body, "= (0 B)")
	assert.Contains(t, body, "1.0 kB")
	assert.NotContains(t, body, "a.js")
}

func TestMarkdown_HeadOnlyShowsZeroBase(t *testing.T) {
	t.Parallel()

	head := snapshot.Snapshot{{Name: "fresh.js", Size: 42, CompressedSize: 30}}

	body := report.Markdown(sizediff.Diff(nil, head), report.Options{})

	var line string

	for _, l := range strings.Split(body, "\n") {
		if strings.Contains(l, "fresh.js") {
			line = l
		}
	}

	require.NotEmpty(t, line)
	assert.Contains(t, line, "+100.00% (+42 B)")
	assert.Contains(t, line, "| 0 B |")
}

func TestIsReport(t *testing.T) {
	t.Parallel()

	assert.True(t, report.IsReport(report.Heading+"\nanything"))
	assert.False(t, report.IsReport("LGTM"))
	assert.False(t, report.IsReport(" "+report.Heading))
}

func TestTerminal_NoColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.Terminal(&buf, sampleReport(), report.TerminalOptions{NoColor: true}))

	out := buf.String()
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "chunk.def456.js")
	assert.Contains(t, out, "1 added, 1 removed, 1 grown, 0 shrunk")
	assert.NotContains(t, out, "\x1b[")
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	opts := report.Options{RepositoryURL: testRepoURL, BaseSHA: testBaseSHA, HeadSHA: testHeadSHA}
	require.NoError(t, report.JSON(&buf, sampleReport(), opts))

	var doc report.Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	require.Len(t, doc.Rows, 4)
	assert.True(t, doc.Rows[0].Total)
	assert.Equal(t, testBaseSHA, doc.Base)
	assert.Equal(t, sizediff.Summary{Added: 1, Removed: 1, Grown: 1}, doc.Summary)
	assert.Equal(t, int64(20), doc.Rows[1].Delta)
	assert.Nil(t, doc.Rows[3].Base)
}

func TestYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.YAML(&buf, sampleReport(), report.Options{}))

	var doc report.Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	require.Len(t, doc.Rows, 4)
	assert.Equal(t, "chunk.def456.js", doc.Rows[1].Label)
	assert.InDelta(t, 20.0, doc.Rows[1].Percentage, 1e-9)
}

func TestHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.HTML(&buf, sampleReport(), report.Options{}))

	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "Build size changes")
	assert.Contains(t, out, "chunk.def456.js")
}
