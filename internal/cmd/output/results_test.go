package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/servicemap/pkg/analysis"
	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/ranking"
	"github.com/agentstation/servicemap/pkg/similarity"
)

func sampleResult() *federation.Result {
	return &federation.Result{
		RequestID: "req-1",
		Ranked: []ranking.Result{{
			Provider: providers.Provider{
				DisplayName: "Blue Peak Plumbing LLC",
				Origin:      providers.CatalogB,
				Kind:        providers.IndividualWorker,
				Rating:      4.9,
			},
			Score: 71.5,
		}},
		Summary: federation.Summary{
			PrimaryMatches:    1,
			SecondaryMatches:  1,
			SecondaryKept:     1,
			DuplicatesRemoved: 1,
			Coverage:          federation.CoverageGood,
			Unavailable:       []providers.Origin{providers.CatalogA},
			Notes:             []string{"Company results came from the sample catalog."},
		},
		Merges: []dedup.MergeRecord{{
			KeptName:      "Blue Peak Plumbing LLC",
			KeptOrigin:    providers.CatalogB,
			RemovedName:   "Blue Peak Plumbing Co.",
			RemovedOrigin: providers.CatalogA,
			Similarity:    0.91,
		}},
	}
}

func TestPrinterResultTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, true).Result(sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "Blue Peak Plumbing LLC")
	assert.Contains(t, out, "Coverage:   Good")
	assert.Contains(t, out, "Duplicates: 1 removed")
	assert.Contains(t, out, "Primary catalog unavailable")
	assert.Contains(t, out, "- Company results came from the sample catalog.")
	assert.Contains(t, out, "Merged duplicates")
	assert.Contains(t, out, "91.0%")
	assert.NotContains(t, out, "\x1b[", "no-color output has no escape codes")
}

func TestPrinterResultEmpty(t *testing.T) {
	var buf bytes.Buffer
	res := &federation.Result{Summary: federation.Summary{Coverage: federation.CoveragePoor}}
	require.NoError(t, NewPrinter(&buf, FormatTable, true).Result(res))

	assert.Contains(t, buf.String(), "No providers matched.")
	assert.NotContains(t, buf.String(), "Merged duplicates")
}

func TestPrinterResultJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON, true).Result(sampleResult()))

	var got federation.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "req-1", got.RequestID)
	assert.Len(t, got.Merges, 1)
}

func TestPrinterReport(t *testing.T) {
	report := &analysis.Report{
		Duplicates: []analysis.Duplicate{{
			Type:       analysis.CrossCatalog,
			First:      analysis.Entry{Name: "Blue Peak Plumbing Co.", Origin: providers.CatalogA},
			Second:     analysis.Entry{Name: "Blue Peak Plumbing LLC", Origin: providers.CatalogB},
			Similarity: 0.91,
		}},
		Stats: analysis.Stats{TotalProviders: 4, TotalDuplicates: 1, Health: analysis.Warning},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, true).Report(report))
	assert.Contains(t, buf.String(), "Catalog health")
	assert.Contains(t, buf.String(), "Duplicates (1)")
	assert.Contains(t, buf.String(), "cross_catalog")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatTable, true).Report(&analysis.Report{Stats: analysis.Stats{Health: analysis.Healthy}}))
	assert.Contains(t, buf.String(), "No duplicates found.")
}

func TestPrinterComparison(t *testing.T) {
	c := Comparison{A: "Acme", B: "Acme Inc", Score: 0.75, Band: similarity.Possible, Threshold: 0.8}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, true).Comparison(c))
	assert.Contains(t, buf.String(), `"Acme" vs "Acme Inc"`)
	assert.Contains(t, buf.String(), "Similarity: 75.0% (threshold 80.0%)")
	assert.Contains(t, buf.String(), "Band:       possible")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatYAML, true).Comparison(c))
	assert.Contains(t, buf.String(), "band: possible")
	assert.Contains(t, buf.String(), "duplicate: false")
}
