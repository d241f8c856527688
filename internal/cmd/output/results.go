package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/agentstation/servicemap/internal/cmd/table"
	"github.com/agentstation/servicemap/pkg/analysis"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/similarity"
)

// Printer writes command results in a configured format. Table formats get
// a human-readable rendering; everything else goes through the structured
// formatters.
type Printer struct {
	out    io.Writer
	format Format

	heading *color.Color
	good    *color.Color
	warn    *color.Color
	bad     *color.Color
	dim     *color.Color
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, format Format, noColor bool) *Printer {
	p := &Printer{
		out:     out,
		format:  format,
		heading: color.New(color.Bold),
		good:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		bad:     color.New(color.FgRed),
		dim:     color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{p.heading, p.good, p.warn, p.bad, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

// Format returns the configured format.
func (p *Printer) Format() Format {
	return p.format
}

// Result writes a federated search result.
func (p *Printer) Result(res *federation.Result) error {
	if !p.format.IsTable() {
		return NewFormatter(p.format).Format(p.out, res)
	}

	if len(res.Ranked) == 0 {
		p.warn.Fprintln(p.out, "No providers matched.")
	} else {
		data := table.ResultsToTableData(res.Ranked, p.format == FormatWide)
		if err := NewFormatter(p.format).Format(p.out, data); err != nil {
			return err
		}
	}

	s := res.Summary
	fmt.Fprintln(p.out)
	p.heading.Fprintln(p.out, "Summary")
	fmt.Fprintf(p.out, "  Coverage:   %s\n", p.coverage(s.Coverage))
	fmt.Fprintf(p.out, "  Matches:    %d primary, %d secondary\n", s.PrimaryMatches, s.SecondaryMatches)
	fmt.Fprintf(p.out, "  Kept:       %d primary, %d secondary\n", s.PrimaryKept, s.SecondaryKept)
	fmt.Fprintf(p.out, "  Duplicates: %d removed\n", s.DuplicatesRemoved)
	for _, origin := range s.Unavailable {
		p.bad.Fprintf(p.out, "  %s catalog unavailable\n", origin.Label())
	}
	for _, origin := range s.FallbackUsed {
		p.warn.Fprintf(p.out, "  %s results are sample profiles (*)\n", origin.Label())
	}
	for _, note := range s.Notes {
		p.dim.Fprintf(p.out, "  - %s\n", note)
	}

	if len(res.Merges) > 0 {
		fmt.Fprintln(p.out)
		p.heading.Fprintln(p.out, "Merged duplicates")
		if err := NewFormatter(FormatTable).Format(p.out, table.MergesToTableData(res.Merges)); err != nil {
			return err
		}
	}
	return nil
}

// Report writes a duplicate audit report.
func (p *Printer) Report(r *analysis.Report) error {
	if !p.format.IsTable() {
		return NewFormatter(p.format).Format(p.out, r)
	}

	p.heading.Fprintln(p.out, "Catalog health")
	if err := NewFormatter(FormatTable).Format(p.out, table.StatsToTableData(r.Stats)); err != nil {
		return err
	}

	fmt.Fprintln(p.out)
	if len(r.Duplicates) == 0 {
		p.good.Fprintln(p.out, "No duplicates found.")
		return nil
	}
	p.heading.Fprintf(p.out, "Duplicates (%d)\n", len(r.Duplicates))
	return NewFormatter(FormatTable).Format(p.out, table.DuplicatesToTableData(r.Duplicates))
}

// Comparison is the outcome of comparing two provider names.
type Comparison struct {
	A         string          `json:"a" yaml:"a"`
	B         string          `json:"b" yaml:"b"`
	Score     float64         `json:"score" yaml:"score"`
	Band      similarity.Band `json:"band" yaml:"band"`
	Duplicate bool            `json:"duplicate" yaml:"duplicate"`
	Threshold float64         `json:"threshold" yaml:"threshold"`
}

// Comparison writes a name comparison.
func (p *Printer) Comparison(c Comparison) error {
	if !p.format.IsTable() {
		return NewFormatter(p.format).Format(p.out, c)
	}

	var band string
	switch c.Band {
	case similarity.Confirmed:
		band = p.bad.Sprint(c.Band)
	case similarity.Possible:
		band = p.warn.Sprint(c.Band)
	default:
		band = p.good.Sprint(c.Band)
	}
	fmt.Fprintf(p.out, "%q vs %q\n", c.A, c.B)
	fmt.Fprintf(p.out, "  Similarity: %s (threshold %s)\n", table.FormatPercent(c.Score), table.FormatPercent(c.Threshold))
	fmt.Fprintf(p.out, "  Band:       %s\n", band)
	return nil
}

func (p *Printer) coverage(c federation.Coverage) string {
	switch c {
	case federation.CoverageExcellent, federation.CoverageGood:
		return p.good.Sprint(c)
	case federation.CoveragePoor:
		return p.bad.Sprint(c)
	default:
		return p.warn.Sprint(c)
	}
}
