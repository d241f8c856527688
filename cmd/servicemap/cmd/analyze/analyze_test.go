package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agentstation/servicemap/cmd/application"
	"github.com/agentstation/servicemap/internal/catalogs/memory"
	"github.com/agentstation/servicemap/pkg/analysis"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/providers"
)

type failingLister struct{}

func (failingLister) Name() string { return "broken" }

func (failingLister) All(context.Context) ([]providers.Provider, error) {
	return nil, errors.NewSourceError("broken", "list", context.DeadlineExceeded)
}

func catalogs() (application.Lister, application.Lister) {
	companies := memory.New("companies", memory.Companies, []federation.Row{
		{"company_id": 1, "company_name": "Blue Peak Plumbing Co.", "business_type": "Plumbing", "rating": 4.6, "total_reviews": 140, "service_regions": "Midwest, Chicago"},
		{"company_id": 2, "company_name": "Metro Electric", "business_type": "Electrical", "rating": 4.4, "total_reviews": 60, "service_regions": "Downtown"},
	})
	workers := memory.New("workers", memory.Workers, []federation.Row{
		{"employee_id": 7, "name": "Blue Peak Plumbing LLC", "specialization": "Plumbing", "rating": 4.9, "total_completed_orders": 30, "preferred_regions": "Midwest, Chicago", "availability_status": "Available"},
		{"employee_id": 8, "name": "Dana Whitfield", "specialization": "Plumbing, Drains", "rating": 4.2, "total_completed_orders": 55, "preferred_regions": "Midwest, Chicago", "availability_status": "Available"},
	})
	return companies, workers
}

func testApp(format string, primary, secondary application.Lister) *application.Mock {
	return &application.Mock{
		CatalogsFunc: func(context.Context) (application.Lister, application.Lister, error) {
			return primary, secondary, nil
		},
		OutputFormatFunc: func() string { return format },
	}
}

func runCommand(t *testing.T, app application.Application, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), errOut.String(), err
}

func TestAnalyzeJSON(t *testing.T) {
	a, b := catalogs()
	out, _, err := runCommand(t, testApp("json", a, b))
	require.NoError(t, err)

	var report analysis.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 4, report.Stats.TotalProviders)
	assert.Equal(t, 2, report.Stats.PrimaryProviders)
	assert.Equal(t, 2, report.Stats.SecondaryProviders)
	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, 1, report.Stats.CrossCatalog)
}

func TestAnalyzeTable(t *testing.T) {
	a, b := catalogs()
	out, _, err := runCommand(t, testApp("table", a, b))
	require.NoError(t, err)

	assert.Contains(t, out, "Catalog health")
	assert.Contains(t, out, "Duplicates (1)")
	assert.Contains(t, out, "Blue Peak Plumbing LLC")
}

func TestAnalyzeNoDuplicates(t *testing.T) {
	a, b := catalogs()
	// Nothing clears a perfect threshold except identical names.
	out, errOut, err := runCommand(t, testApp("table", a, b), "--cross-threshold", "1", "--same-threshold", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "No duplicates found.")
	assert.NotContains(t, errOut, "Catalog health is")
}

func TestAnalyzeExports(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "duplicates.csv")
	xlsxPath := filepath.Join(dir, "duplicates.xlsx")

	a, b := catalogs()
	_, errOut, err := runCommand(t, testApp("json", a, b), "--csv", csvPath, "--xlsx", xlsxPath)
	require.NoError(t, err)

	assert.Contains(t, errOut, "Wrote "+csvPath)
	assert.Contains(t, errOut, "Wrote "+xlsxPath)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Blue Peak Plumbing Co.")

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), analysis.DuplicatesSheet)
}

func TestAnalyzeExportBadPath(t *testing.T) {
	a, b := catalogs()
	path := filepath.Join(t.TempDir(), "missing", "out.csv")

	_, _, err := runCommand(t, testApp("json", a, b), "--csv", path)
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestAnalyzeFailsWhenCatalogFails(t *testing.T) {
	a, _ := catalogs()
	_, _, err := runCommand(t, testApp("json", a, failingLister{}))
	assert.True(t, errors.IsSourceUnavailable(err))
}

func TestAnalyzeCatalogConfigError(t *testing.T) {
	app := &application.Mock{
		CatalogsFunc: func(context.Context) (application.Lister, application.Lister, error) {
			return nil, nil, errors.NewConfigError("catalog_a", "set catalog_a.dsn or catalog_a.file", nil)
		},
	}
	_, _, err := runCommand(t, app)
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
