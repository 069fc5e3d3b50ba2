// Package report renders size change reports for pull request comments,
// terminals, and machine consumers.
package report

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/bundlesize/pkg/sizediff"
)

// Heading starts every rendered comment body. It is how an existing report
// comment is found again, so it must never change between runs.
const Heading = "### 📦 Build size report"

// shortSHALength is the number of SHA characters shown in the compare link.
const shortSHALength = 7

// Column headers of the report table.
var columns = table.Row{"File", "+/-", "Base", "Current", "+/- gzip", "Base gzip", "Current gzip"}

// Options controls the optional parts of a rendered report.
type Options struct {
	// RepositoryURL is the web URL of the repository (e.g. https://github.com/o/r).
	// The compare link is omitted when it or either SHA is empty.
	RepositoryURL string
	BaseSHA       string
	HeadSHA       string
}

// CompareURL returns the web link comparing base and head, or "" when unknown.
func (o Options) CompareURL() string {
	if o.RepositoryURL == "" || o.BaseSHA == "" || o.HeadSHA == "" {
		return ""
	}

	return strings.TrimSuffix(o.RepositoryURL, "/") + "/compare/" + o.BaseSHA + "..." + o.HeadSHA
}

// Markdown renders the report as a comment body: heading, optional compare
// link, and a markdown table. Output depends only on the input values.
func Markdown(rep sizediff.Report, opts Options) string {
	var sb strings.Builder

	sb.WriteString(Heading)
	sb.WriteString("\n\n")

	if link := opts.CompareURL(); link != "" {
		sb.WriteString("Comparing [`")
		sb.WriteString(shortSHA(opts.BaseSHA))
		sb.WriteString("...")
		sb.WriteString(shortSHA(opts.HeadSHA))
		sb.WriteString("`](")
		sb.WriteString(link)
		sb.WriteString(")\n\n")
	}

	tw := table.NewWriter()
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(columns)

	for _, row := range rows(rep) {
		c := cells(row)
		c[0] = markdownLabel(row)

		tw.AppendRow(toRow(c))
	}

	sb.WriteString(tw.RenderMarkdown())
	sb.WriteString("\n")

	return sb.String()
}

// IsReport reports whether a comment body was produced by Markdown.
func IsReport(body string) bool {
	return strings.HasPrefix(body, Heading)
}

// rows returns the rows to render, substituting an empty total when the
// report has none.
func rows(rep sizediff.Report) []sizediff.ChangeRow {
	if len(rep.Rows) == 0 {
		return []sizediff.ChangeRow{rep.Total()}
	}

	return rep.Rows
}

func markdownLabel(row sizediff.ChangeRow) string {
	if row.Total {
		return "**" + row.Label + "**"
	}

	return "`" + row.Label + "`"
}

func toRow(c []string) table.Row {
	out := make(table.Row, len(c))
	for i, v := range c {
		out[i] = v
	}

	return out
}

func shortSHA(sha string) string {
	if len(sha) <= shortSHALength {
		return sha
	}

	return sha[:shortSHALength]
}
