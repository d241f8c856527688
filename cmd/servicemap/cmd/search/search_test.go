package search

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/servicemap"
	"github.com/agentstation/servicemap/cmd/application"
	"github.com/agentstation/servicemap/internal/catalogs/memory"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/logging"
)

func testApp(t *testing.T, format string, calls *[][]servicemap.Option) *application.Mock {
	t.Helper()
	logging.DisableLoggingForTest(t)

	companies := memory.New("companies", memory.Companies, []federation.Row{
		{"company_id": 1, "company_name": "Blue Peak Plumbing Co.", "business_type": "Plumbing", "rating": 4.6, "total_reviews": 140, "service_regions": "Midwest, Chicago"},
		{"company_id": 2, "company_name": "Metro Electric", "business_type": "Electrical", "rating": 4.4, "total_reviews": 60, "service_regions": "Downtown"},
	})
	workers := memory.New("workers", memory.Workers, []federation.Row{
		{"employee_id": 7, "name": "Blue Peak Plumbing LLC", "specialization": "Plumbing", "rating": 4.9, "total_completed_orders": 30, "preferred_regions": "Midwest, Chicago", "availability_status": "Available"},
	})

	return &application.Mock{
		ClientFunc: func(_ context.Context, opts ...servicemap.Option) (servicemap.Client, error) {
			if calls != nil {
				*calls = append(*calls, opts)
			}
			base := []servicemap.Option{servicemap.WithPrimary(companies), servicemap.WithSecondary(workers)}
			return servicemap.New(append(base, opts...)...)
		},
		OutputFormatFunc: func() string { return format },
	}
}

func runCommand(t *testing.T, app application.Application, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestSearchJSON(t *testing.T) {
	app := testApp(t, "json", nil)

	out, err := runCommand(t, app, "leaking pipe in chicago", "--service", "plumbing")
	require.NoError(t, err)

	var res federation.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res.RequestID)
	require.Len(t, res.Merges, 1)
	assert.Equal(t, "Blue Peak Plumbing LLC", res.Merges[0].KeptName)
	assert.Equal(t, 1, res.Summary.DuplicatesRemoved)
}

func TestSearchFreeText(t *testing.T) {
	app := testApp(t, "json", nil)

	out, err := runCommand(t, app, "need", "a", "plumber", "in", "chicago")
	require.NoError(t, err)

	var res federation.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "need a plumber in chicago", res.Intent.Description)
}

func TestSearchTable(t *testing.T) {
	app := testApp(t, "table", nil)

	out, err := runCommand(t, app, "leaking pipe", "--service", "plumbing")
	require.NoError(t, err)

	assert.Contains(t, out, "Blue Peak Plumbing LLC")
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Merged duplicates")
}

func TestSearchClientOptions(t *testing.T) {
	var calls [][]servicemap.Option
	app := testApp(t, "json", &calls)

	_, err := runCommand(t, app, "plumber")
	require.NoError(t, err)
	_, err = runCommand(t, app, "plumber", "--tie-break", "most_volume", "--threshold", "0.9")
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Empty(t, calls[0], "plain search uses the shared client")
	assert.Len(t, calls[1], 2)
}

func TestSearchValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"blank request", []string{"   "}},
		{"negative limit", []string{"plumber", "--limit", "-1"}},
		{"unknown tie-break", []string{"plumber", "--tie-break", "loudest"}},
		{"threshold above one", []string{"plumber", "--threshold", "1.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCommand(t, testApp(t, "json", nil), tt.args...)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}
}

func TestSearchRequiresArgs(t *testing.T) {
	_, err := runCommand(t, testApp(t, "json", nil))
	assert.Error(t, err)
}
