// Package table converts search results and audit reports into table data
// for CLI output.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/servicemap/pkg/analysis"
	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/ranking"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// Column widths for truncated cells.
const (
	NameWidth        = 32
	DescriptionWidth = 60
)

// ResultsToTableData converts ranked results to table format. Wide output
// adds the score breakdown and contact details.
func ResultsToTableData(results []ranking.Result, wide bool) Data {
	headers := []string{"#", "Name", "Type", "Source", "Rating", "Rate", "Regions", "Score"}
	align := []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft, AlignRight}
	if wide {
		for _, f := range ranking.Factors() {
			headers = append(headers, titleCase(f.String()))
			align = append(align, AlignRight)
		}
		headers = append(headers, "Emergency", "Phone", "Description")
		align = append(align, AlignCenter, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(results))
	for i, r := range results {
		p := r.Provider
		name := Truncate(p.DisplayName, NameWidth)
		if p.Seeded {
			name += " *"
		}
		row := []string{
			strconv.Itoa(i + 1),
			name,
			p.Kind.Label(),
			p.Origin.Label(),
			FormatRating(p.Rating),
			FormatCost(p.HourlyCost),
			orDash(strings.Join(p.RegionTags, ", ")),
			fmt.Sprintf("%.1f", r.Score),
		}
		if wide {
			for _, f := range ranking.Factors() {
				row = append(row, fmt.Sprintf("%.1f", r.Breakdown[f]))
			}
			row = append(row,
				yesNo(p.SupportsEmergency),
				orDash(p.Phone),
				orDash(Truncate(p.Description, DescriptionWidth)),
			)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// MergesToTableData converts merge records to table format.
func MergesToTableData(merges []dedup.MergeRecord) Data {
	rows := make([][]string, 0, len(merges))
	for _, m := range merges {
		rows = append(rows, []string{
			Truncate(m.KeptName, NameWidth),
			m.KeptOrigin.Label(),
			Truncate(m.RemovedName, NameWidth),
			m.RemovedOrigin.Label(),
			FormatPercent(m.Similarity),
		})
	}
	return Data{
		Headers:         []string{"Kept", "Source", "Removed", "Source", "Similarity"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight},
	}
}

// DuplicatesToTableData converts audit duplicates to table format.
func DuplicatesToTableData(dups []analysis.Duplicate) Data {
	rows := make([][]string, 0, len(dups))
	for _, d := range dups {
		status := "active"
		if d.Cancelled {
			status = "cancelled"
		}
		rows = append(rows, []string{
			d.Type.String(),
			Truncate(d.First.Name, NameWidth),
			d.First.Origin.Label(),
			Truncate(d.Second.Name, NameWidth),
			d.Second.Origin.Label(),
			FormatPercent(d.Similarity),
			status,
		})
	}
	return Data{
		Headers:         []string{"Type", "First", "Source", "Second", "Source", "Similarity", "Status"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft},
	}
}

// StatsToTableData converts audit statistics to a key-value table.
func StatsToTableData(s analysis.Stats) Data {
	return Data{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total providers", FormatNumber(int64(s.TotalProviders))},
			{providers.CatalogA.Label() + " providers", FormatNumber(int64(s.PrimaryProviders))},
			{providers.CatalogB.Label() + " providers", FormatNumber(int64(s.SecondaryProviders))},
			{"Duplicates", FormatNumber(int64(s.TotalDuplicates))},
			{"Cross-catalog", FormatNumber(int64(s.CrossCatalog))},
			{"Within-catalog", FormatNumber(int64(s.WithinCatalog))},
			{"Active", FormatNumber(int64(s.Active))},
			{"Cancelled", FormatNumber(int64(s.Cancelled))},
			{"Possible matches", FormatNumber(int64(s.PossibleMatches))},
			{"Duplicate ratio", fmt.Sprintf("%.1f%%", s.DuplicateRatio)},
			{"Quality", fmt.Sprintf("%.1f (%s)", s.QualityScore, s.Quality)},
			{"Health", string(s.Health)},
		},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// FormatRating formats a 0-5 rating.
func FormatRating(r float64) string {
	if r <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", r)
}

// FormatCost formats an hourly cost, or "-" when unknown.
func FormatCost(c *float64) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f/h", *c)
}

// FormatPercent formats a 0-1 ratio as a percentage.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// FormatNumber formats large numbers with comma separators.
func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(str, "-")
	if neg {
		str = str[1:]
	}
	if len(str) <= 3 {
		if neg {
			return "-" + str
		}
		return str
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Truncate shortens s to at most width display cells, ending in "...".
func Truncate(s string, width int) string {
	return runewidth.Truncate(strings.TrimSpace(s), width, "...")
}

func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
