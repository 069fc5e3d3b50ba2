package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/bundlesize/pkg/sizediff"
)

// TerminalOptions controls terminal rendering.
type TerminalOptions struct {
	NoColor bool
}

// Terminal writes the report as a box-drawn table. Growth is red, shrinkage
// green.
func Terminal(w io.Writer, rep sizediff.Report, opts TerminalOptions) error {
	grow := color.New(color.FgRed)
	shrink := color.New(color.FgGreen)
	bold := color.New(color.Bold)

	if opts.NoColor {
		grow.DisableColor()
		shrink.DisableColor()
		bold.DisableColor()
	}

	paint := func(delta int64, cell string) string {
		switch {
		case delta > 0:
			return grow.Sprint(cell)
		case delta < 0:
			return shrink.Sprint(cell)
		default:
			return cell
		}
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(columns)

	for _, row := range rows(rep) {
		c := cells(row)
		if row.Total {
			c[0] = bold.Sprint(c[0])
		}

		c[1] = paint(row.Delta(), c[1])
		c[4] = paint(row.CompressedDelta(), c[4])

		tw.AppendRow(toRow(c))
	}

	summary := rep.Summary()
	tw.AppendFooter(table.Row{fmt.Sprintf("%d added, %d removed, %d grown, %d shrunk",
		summary.Added, summary.Removed, summary.Grown, summary.Shrunk)})

	_, err := fmt.Fprintln(w, tw.Render())
	if err != nil {
		return fmt.Errorf("write terminal report: %w", err)
	}

	return nil
}
