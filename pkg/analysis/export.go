package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/servicemap/pkg/errors"
)

// Sheet names used by WriteXLSX.
const (
	SummarySheet    = "Summary"
	DuplicatesSheet = "Duplicates"
)

var duplicateHeaders = []string{
	"Duplicate Type",
	"Item 1 ID", "Item 1 Name", "Item 1 Origin", "Item 1 Status",
	"Item 2 ID", "Item 2 Name", "Item 2 Origin", "Item 2 Status",
	"Similarity %", "Is Cancelled",
}

func status(e Entry) string {
	if e.Availability == "" {
		return "n/a"
	}
	return e.Availability
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (d Duplicate) record() []string {
	return []string{
		d.Type.String(),
		d.First.ID, d.First.Name, d.First.Origin.Label(), status(d.First),
		d.Second.ID, d.Second.Name, d.Second.Origin.Label(), status(d.Second),
		fmt.Sprintf("%.1f%%", d.Similarity*100),
		yesNo(d.Cancelled),
	}
}

// WriteCSV writes one row per duplicate.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(duplicateHeaders); err != nil {
		return errors.WrapIO("write", "csv", err)
	}
	for _, d := range r.Duplicates {
		if err := cw.Write(d.record()); err != nil {
			return errors.WrapIO("write", "csv", err)
		}
	}
	cw.Flush()
	return errors.WrapIO("flush", "csv", cw.Error())
}

// WriteXLSX writes a workbook with a Summary sheet of statistics and a
// Duplicates sheet with one row per duplicate.
func (r *Report) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return errors.WrapResource("rename", "sheet", SummarySheet, err)
	}
	if _, err := f.NewSheet(DuplicatesSheet); err != nil {
		return errors.WrapResource("create", "sheet", DuplicatesSheet, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errors.WrapResource("create", "style", "header", err)
	}

	summary := [][]any{
		{"Metric", "Value"},
		{"Generated At", r.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Total Providers", r.Stats.TotalProviders},
		{"Primary Providers", r.Stats.PrimaryProviders},
		{"Secondary Providers", r.Stats.SecondaryProviders},
		{"Total Duplicates", r.Stats.TotalDuplicates},
		{"Cross Catalog", r.Stats.CrossCatalog},
		{"Within Catalog", r.Stats.WithinCatalog},
		{"Active", r.Stats.Active},
		{"Cancelled", r.Stats.Cancelled},
		{"Possible Matches", r.Stats.PossibleMatches},
		{"Duplicate Ratio %", round2(r.Stats.DuplicateRatio)},
		{"Quality Score", round2(r.Stats.QualityScore)},
		{"Quality", r.Stats.Quality},
		{"Health", string(r.Stats.Health)},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return errors.WrapResource("write", "sheet", SummarySheet, err)
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle); err != nil {
		return errors.WrapResource("style", "sheet", SummarySheet, err)
	}
	_ = f.SetColWidth(SummarySheet, "A", "A", 22)
	_ = f.SetColWidth(SummarySheet, "B", "B", 22)

	if err := f.SetSheetRow(DuplicatesSheet, "A1", &duplicateHeaders); err != nil {
		return errors.WrapResource("write", "sheet", DuplicatesSheet, err)
	}
	last, _ := excelize.ColumnNumberToName(len(duplicateHeaders))
	if err := f.SetCellStyle(DuplicatesSheet, "A1", last+"1", headerStyle); err != nil {
		return errors.WrapResource("style", "sheet", DuplicatesSheet, err)
	}
	for i, d := range r.Duplicates {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		rec := d.record()
		if err := f.SetSheetRow(DuplicatesSheet, cell, &rec); err != nil {
			return errors.WrapResource("write", "sheet", DuplicatesSheet, err)
		}
	}
	_ = f.SetColWidth(DuplicatesSheet, "A", last, 18)

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return errors.WrapIO("write", "xlsx", err)
	}
	return nil
}

func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}
