package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentstation/servicemap/pkg/logging"
)

const companiesYAML = `rows:
  - company_id: 1
    company_name: Blue Peak Plumbing Co.
    business_type: Plumbing
    rating: 4.6
    service_regions: Midwest, Chicago
    total_reviews: 140
  - company_id: 2
    company_name: Metro Electric
    business_type: Electrical
    rating: 4.4
    service_regions: Downtown
    total_reviews: 60
`

const workersYAML = `rows:
  - employee_id: 7
    name: Blue Peak Plumbing LLC
    specialization: Plumbing
    rating: 4.9
    total_completed_orders: 30
    preferred_regions: Midwest, Chicago
    availability_status: Available
  - employee_id: 8
    name: Dana Whitfield
    specialization: Plumbing, Drains
    rating: 4.2
    total_completed_orders: 55
    preferred_regions: Midwest, Chicago
    availability_status: Available
`

// isolateEnv keeps config loading away from the developer's home directory
// and environment.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "LOG_LEVEL", "NO_COLOR"} {
		t.Setenv(key, "")
	}
	return dir
}

// writeCatalogs writes both YAML catalogs and returns their paths.
func writeCatalogs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	a := filepath.Join(dir, "companies.yaml")
	b := filepath.Join(dir, "workers.yaml")
	require.NoError(t, os.WriteFile(a, []byte(companiesYAML), 0o600))
	require.NoError(t, os.WriteFile(b, []byte(workersYAML), 0o600))
	return a, b
}

// newFileApp returns an App over YAML catalogs with the search fallback off.
func newFileApp(t *testing.T) *App {
	t.Helper()
	isolateEnv(t)
	logging.DisableLoggingForTest(t)

	a, b := writeCatalogs(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.CatalogA.File = a
	cfg.CatalogB.File = b
	cfg.Fallback = false
	cfg.NoColor = true

	app, err := New("1.0.0", "abc123", "2024-01-01", "test", WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(t.Context()) })
	return app
}
