package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/query"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "workers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(Schema)
	require.NoError(t, err)

	workers := []struct {
		id                    int
		name, spec, cert, bio string
		years, rating         float64
		orders                int
		cost                  float64
		regions               string
		emergency             int
		availability          string
	}{
		{1, "John Smith", "Plumbing", "Professional", "Leak repair and pipe fitting", 8.5, 4.5, 67, 45, "Downtown, Suburbs", 1, "Available"},
		{2, "Sarah Johnson", "Electrical", "Master", "Commercial wiring", 12, 4.8, 124, 65, "City Wide", 1, "Available"},
		{3, "Emily Brown", "Cleaning", "Basic", "Home cleaning", 3, 4.2, 89, 25, "Downtown", 0, "Busy"},
		{4, "Tom Wilson", "HVAC", "Professional", "Furnace and plumbing vents", 10, 4.6, 78, 75, "All Areas", 1, "Available"},
	}
	for _, w := range workers {
		_, err := db.Exec(`INSERT INTO employee (employee_id, name, specialization, certification_level, bio,
			experience_years, rating, total_completed_orders, avg_cost_per_hour, preferred_regions,
			emergency_service, availability_status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.id, w.name, w.spec, w.cert, w.bio, w.years, w.rating, w.orders, w.cost, w.regions, w.emergency, w.availability)
		require.NoError(t, err)
	}
	return db
}

func names(rows []federation.Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, federation.MapWorkerRow(r).DisplayName)
	}
	return out
}

func TestQuery(t *testing.T) {
	gw := New(setupTestDB(t))

	tests := []struct {
		name string
		spec query.Spec
		want []string
	}{
		{"keyword over specialization and bio", query.Spec{Keywords: []string{"plumbing"}}, []string{"Tom Wilson", "John Smith"}},
		{"region filter", query.Spec{Keywords: []string{"plumbing"}, RegionHint: "downtown"}, []string{"John Smith"}},
		{"unavailable workers excluded", query.Spec{Keywords: []string{"cleaning"}}, nil},
		{"no terms returns everyone available", query.Spec{}, []string{"Sarah Johnson", "Tom Wilson", "John Smith"}},
		{"no match", query.Spec{Keywords: []string{"automotive"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := gw.Query(context.Background(), tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(rows))
		})
	}
}

func TestQueryMapsColumns(t *testing.T) {
	gw := New(setupTestDB(t), WithRowCap(1))

	rows, err := gw.Query(context.Background(), query.Spec{Keywords: []string{"electrical"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	p := federation.MapWorkerRow(rows[0])
	assert.Equal(t, "2", p.SourceID)
	assert.Equal(t, providers.CertificationMaster, p.CertificationTier)
	assert.True(t, p.SupportsEmergency)
	assert.Equal(t, 124, p.VolumeMetric)
	require.NotNil(t, p.ExperienceYears)
	assert.Equal(t, 12.0, *p.ExperienceYears)
	assert.Nil(t, p.ResponseHours)
	assert.NoError(t, p.Validate())
}

func TestQueryRowCap(t *testing.T) {
	gw := New(setupTestDB(t), WithRowCap(2))
	rows, err := gw.Query(context.Background(), query.Spec{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestAllIncludesUnavailable(t *testing.T) {
	gw := New(setupTestDB(t))
	all, err := gw.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 4)

	var busy int
	for _, p := range all {
		if !p.IsAvailable() {
			busy++
		}
	}
	assert.Equal(t, 1, busy)
}

func TestQueryClosedDB(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Close())

	_, err := New(db).Query(context.Background(), query.Spec{})
	assert.True(t, errors.IsSourceUnavailable(err))
}
