// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/agentstation/servicemap/internal/cmd/table"
	"github.com/agentstation/servicemap/pkg/errors"
)

// Format names an output rendering.
type Format string

// Output formats.
const (
	FormatTable Format = "table"
	FormatWide  Format = "wide"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --format value. The empty string is accepted and
// left for DetectFormat to resolve.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case FormatTable, FormatWide, FormatJSON, FormatYAML, "":
		return format, nil
	}
	return "", errors.NewValidationError("format", s, "must be one of: table, wide, json, yaml")
}

// DetectFormat returns the explicit format when set. Otherwise terminals get
// a table and pipes get JSON.
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return FormatTable
	}
	return FormatJSON
}

// IsTable reports whether the format renders as a table.
func (f Format) IsTable() bool {
	return f == FormatTable || f == FormatWide || f == ""
}

// Formatter writes a value in one format.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// Data is a rendered table.
type Data = table.Data

// Tabular is implemented by values that know their own table layout.
type Tabular interface {
	TableData(wide bool) Data
}

// NewFormatter returns the formatter for format. Unknown formats render as
// a table.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return JSONFormatter{Indent: "  "}
	case FormatYAML:
		return YAMLFormatter{}
	}
	return TableFormatter{Wide: format == FormatWide}
}

// JSONFormatter writes indented JSON.
type JSONFormatter struct {
	Indent string
}

// Format implements Formatter.
func (f JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.Indent)
	return enc.Encode(data)
}

// YAMLFormatter writes YAML with two-space indentation and flush sequences.
type YAMLFormatter struct{}

// Format implements Formatter.
func (YAMLFormatter) Format(w io.Writer, data any) error {
	out, err := yaml.MarshalWithOptions(data, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return errors.WrapParse("yaml", "output", err)
	}
	_, err = w.Write(out)
	return err
}

// TableFormatter renders Data and Tabular values through tablewriter. Any
// other value is written as JSON.
type TableFormatter struct {
	Wide bool
}

// Format implements Formatter.
func (f TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case Data:
		return render(w, v)
	case *Data:
		return render(w, *v)
	case Tabular:
		return render(w, v.TableData(f.Wide))
	}
	return JSONFormatter{Indent: "  "}.Format(w, data)
}

func render(w io.Writer, data Data) error {
	var cfg tablewriter.Config
	if len(data.ColumnAlignment) > 0 {
		align := tw.CellAlignment{PerColumn: alignments(data.ColumnAlignment)}
		cfg.Header.Alignment = align
		cfg.Row.Alignment = align
	}
	t := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))

	if len(data.Headers) > 0 {
		t.Header(cells(data.Headers)...)
	}
	for _, row := range data.Rows {
		if err := t.Append(cells(row)...); err != nil {
			return err
		}
	}
	return t.Render()
}

func alignments(in []table.Align) []tw.Align {
	out := make([]tw.Align, len(in))
	for i, a := range in {
		switch a {
		case table.AlignLeft:
			out[i] = tw.AlignLeft
		case table.AlignCenter:
			out[i] = tw.AlignCenter
		case table.AlignRight:
			out[i] = tw.AlignRight
		default:
			out[i] = tw.Skip
		}
	}
	return out
}

func cells(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
