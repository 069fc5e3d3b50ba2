package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/bundlesize/pkg/sizediff"
	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
)

// Document is the machine-readable form of a report.
type Document struct {
	Base    string           `json:"base,omitempty" yaml:"base,omitempty"`
	Head    string           `json:"head,omitempty" yaml:"head,omitempty"`
	Compare string           `json:"compare,omitempty" yaml:"compare,omitempty"`
	Summary sizediff.Summary `json:"summary" yaml:"summary"`
	Rows    []DocumentRow    `json:"rows" yaml:"rows"`
}

// DocumentRow is one row with its derived deltas.
type DocumentRow struct {
	Label                string                  `json:"label" yaml:"label"`
	Total                bool                    `json:"total,omitempty" yaml:"total,omitempty"`
	Base                 *snapshot.AggregateSize `json:"base" yaml:"base"`
	Head                 *snapshot.AggregateSize `json:"head" yaml:"head"`
	Delta                int64                   `json:"delta" yaml:"delta"`
	Percentage           float64                 `json:"percentage" yaml:"percentage"`
	CompressedDelta      int64                   `json:"gzip_delta" yaml:"gzip_delta"`
	CompressedPercentage float64                 `json:"gzip_percentage" yaml:"gzip_percentage"`
}

// NewDocument builds the machine-readable form.
func NewDocument(rep sizediff.Report, opts Options) Document {
	doc := Document{
		Base:    opts.BaseSHA,
		Head:    opts.HeadSHA,
		Compare: opts.CompareURL(),
		Summary: rep.Summary(),
	}

	for _, row := range rows(rep) {
		doc.Rows = append(doc.Rows, DocumentRow{
			Label:                row.Label,
			Total:                row.Total,
			Base:                 row.Base,
			Head:                 row.Head,
			Delta:                row.Delta(),
			Percentage:           row.Percentage(),
			CompressedDelta:      row.CompressedDelta(),
			CompressedPercentage: row.CompressedPercentage(),
		})
	}

	return doc
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, rep sizediff.Report, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(NewDocument(rep, opts))
	if err != nil {
		return fmt.Errorf("json encode report: %w", err)
	}

	return nil
}

// YAML writes the report as YAML.
func YAML(w io.Writer, rep sizediff.Report, opts Options) error {
	enc := yaml.NewEncoder(w)

	err := enc.Encode(NewDocument(rep, opts))
	if err != nil {
		return fmt.Errorf("yaml encode report: %w", err)
	}

	closeErr := enc.Close()
	if closeErr != nil {
		return fmt.Errorf("yaml encode report: %w", closeErr)
	}

	return nil
}
