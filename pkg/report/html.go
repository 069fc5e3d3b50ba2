package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/bundlesize/pkg/sizediff"
)

const (
	chartTitle    = "Build size changes"
	chartWidth    = "100%"
	chartHeight   = "500px"
	xAxisRotate   = 60
	seriesRaw     = "bytes"
	seriesGzip    = "gzip bytes"
	tooltipAxis   = "axis"
	labelInterval = "0"
)

// HTML writes a standalone page with a bar chart of the per-file deltas. The
// total row is shown in the subtitle rather than as a bar.
func HTML(w io.Writer, rep sizediff.Report, o Options) error {
	total := rep.Total()

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(optsInit()),
		charts.WithTitleOpts(optsTitle(total, o)),
		charts.WithTooltipOpts(optsTooltip()),
		charts.WithXAxisOpts(optsXAxis()),
	)

	files := rep.Files()

	labels := make([]string, 0, len(files))
	raw := make([]opts.BarData, 0, len(files))
	gz := make([]opts.BarData, 0, len(files))

	for _, row := range files {
		labels = append(labels, row.Label)
		raw = append(raw, opts.BarData{Value: row.Delta()})
		gz = append(gz, opts.BarData{Value: row.CompressedDelta()})
	}

	bar.SetXAxis(labels).
		AddSeries(seriesRaw, raw).
		AddSeries(seriesGzip, gz)

	err := bar.Render(w)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}

func optsInit() opts.Initialization {
	return opts.Initialization{
		PageTitle: chartTitle,
		Width:     chartWidth,
		Height:    chartHeight,
	}
}

func optsTitle(total sizediff.ChangeRow, o Options) opts.Title {
	subtitle := fmt.Sprintf("Total %s → %s, %s",
		FormatBytes(total.BaseSize().Size),
		FormatBytes(total.HeadSize().Size),
		FormatChange(total.Percentage(), total.Delta()))

	if link := o.CompareURL(); link != "" {
		subtitle += "\n" + link
	}

	return opts.Title{Title: chartTitle, Subtitle: subtitle}
}

func optsTooltip() opts.Tooltip {
	return opts.Tooltip{Trigger: tooltipAxis}
}

func optsXAxis() opts.XAxis {
	return opts.XAxis{
		AxisLabel: &opts.AxisLabel{
			Rotate:   xAxisRotate,
			Interval: labelInterval,
		},
	}
}
