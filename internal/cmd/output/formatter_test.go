package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/servicemap/internal/cmd/table"
	"github.com/agentstation/servicemap/pkg/errors"
)

type sample struct {
	Name   string `json:"name" yaml:"name"`
	Rating string `json:"rating_value,omitempty" yaml:"rating_value"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"wide", FormatWide, false},
		{"", "", false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsTable(t *testing.T) {
	assert.True(t, FormatTable.IsTable())
	assert.True(t, FormatWide.IsTable())
	assert.True(t, Format("").IsTable())
	assert.False(t, FormatJSON.IsTable())
	assert.False(t, FormatYAML.IsTable())
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, sample{Name: "Acme"}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Acme", got["name"])
	assert.Contains(t, buf.String(), "\n  \"name\"")
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, sample{Name: "Acme", Rating: "4.5"}))

	assert.Contains(t, buf.String(), "name: Acme")
	assert.Contains(t, buf.String(), "rating_value:")
}

func TestTableFormatterData(t *testing.T) {
	var buf bytes.Buffer
	data := Data{
		Headers:         []string{"Name", "Rating"},
		Rows:            [][]string{{"Blue Peak", "4.9"}, {"Metro Electric", "4.4"}},
		ColumnAlignment: []table.Align{table.AlignLeft, table.AlignRight},
	}
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, data))

	out := buf.String()
	assert.Contains(t, out, "Blue Peak")
	assert.Contains(t, out, "Metro Electric")
	assert.Contains(t, strings.ToUpper(out), "RATING")
}

type board []sample

func (b board) TableData(wide bool) Data {
	d := Data{Headers: []string{"Name"}}
	if wide {
		d.Headers = append(d.Headers, "Rating")
	}
	for _, r := range b {
		row := []string{r.Name}
		if wide {
			row = append(row, r.Rating)
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

func TestTableFormatterTabular(t *testing.T) {
	rows := board{{Name: "Acme", Rating: "4.5"}, {Name: "Globex", Rating: "3.9"}}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatTable).Format(&buf, rows))
		assert.Contains(t, buf.String(), "Globex")
		assert.NotContains(t, buf.String(), "3.9")
	})

	t.Run("wide", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatWide).Format(&buf, rows))
		assert.Contains(t, buf.String(), "3.9")
	})

	t.Run("other values fall back to json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatTable).Format(&buf, map[string]int{"count": 3}))
		assert.Contains(t, buf.String(), `"count": 3`)
	})
}
