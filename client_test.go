package servicemap

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/servicemap/internal/catalogs/memory"
	"github.com/agentstation/servicemap/internal/fallback"
	"github.com/agentstation/servicemap/internal/intent"
	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/logging"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/query"
	"github.com/agentstation/servicemap/pkg/similarity"
)

func testGateways() (federation.Gateway, federation.Gateway) {
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

func newTestClient(t *testing.T, opts ...Option) Client {
	t.Helper()
	logging.DisableLoggingForTest(t)

	a, b := testGateways()
	sm, err := New(append([]Option{WithPrimary(a), WithSecondary(b)}, opts...)...)
	require.NoError(t, err)
	return sm
}

func TestNewRequiresGateways(t *testing.T) {
	a, b := testGateways()

	tests := []struct {
		name string
		opts []Option
	}{
		{"no gateways", nil},
		{"primary only", []Option{WithPrimary(a)}},
		{"secondary only", []Option{WithSecondary(b)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			var cfgErr *errors.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	a, b := testGateways()

	tests := []struct {
		name string
		opt  Option
	}{
		{"zero threshold", WithThreshold(0)},
		{"threshold above one", WithThreshold(1.5)},
		{"nil tie-break", WithTieBreak(nil)},
		{"negative timeout", WithGatewayTimeout(-time.Second)},
		{"zero limit", WithDefaultLimit(0)},
		{"nil analyzer", WithAnalyzer(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithPrimary(a), WithSecondary(b), tt.opt)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestSearchMergesAcrossCatalogs(t *testing.T) {
	sm := newTestClient(t)

	res, err := sm.Search(context.Background(), "leaking pipe in chicago", query.Intent{ServiceType: "plumbing"}, 10)
	require.NoError(t, err)

	require.Len(t, res.Merges, 1)
	m := res.Merges[0]
	assert.Equal(t, "Blue Peak Plumbing LLC", m.KeptName)
	assert.Equal(t, providers.CatalogB, m.KeptOrigin)
	assert.Equal(t, providers.CatalogA, m.RemovedOrigin)

	assert.Equal(t, "midwest", res.Spec.RegionHint)
	assert.Equal(t, 1, res.Summary.DuplicatesRemoved)
	assert.NotEmpty(t, res.RequestID)
}

func TestHooks(t *testing.T) {
	sm := newTestClient(t)

	var (
		mu       sync.Mutex
		merges   []dedup.MergeRecord
		searches int
	)
	sm.OnMerge(func(m dedup.MergeRecord) {
		mu.Lock()
		defer mu.Unlock()
		merges = append(merges, m)
	})
	sm.OnSearch(func(r *federation.Result) {
		mu.Lock()
		defer mu.Unlock()
		searches++
		assert.NotNil(t, r)
	})

	_, err := sm.Search(context.Background(), "plumbing", query.Intent{}, 0)
	require.NoError(t, err)
	_, err = sm.Search(context.Background(), "electrical panel", query.Intent{}, 0)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, searches)
	require.Len(t, merges, 1)
	assert.Equal(t, "Blue Peak Plumbing Co.", merges[0].RemovedName)
}

func TestSearchTextUsesAnalyzer(t *testing.T) {
	var got string
	analyzer := intent.AnalyzerFunc(func(_ context.Context, text string) (query.Intent, error) {
		got = text
		return query.Intent{RecommendedProviderType: "individual", Urgency: "emergency"}, nil
	})
	sm := newTestClient(t, WithAnalyzer(analyzer))

	res, err := sm.SearchText(context.Background(), "burst pipe", 5)
	require.NoError(t, err)
	assert.Equal(t, "burst pipe", got)
	assert.Equal(t, query.BiasIndividual, res.Spec.ProviderBias)
	assert.Equal(t, query.UrgencyEmergency, res.Spec.Urgency)
}

func TestSearchTextAnalyzerFailureUsesDefaults(t *testing.T) {
	analyzer := intent.AnalyzerFunc(func(context.Context, string) (query.Intent, error) {
		return query.Intent{}, errors.NewAPIError("gemini", 503, "unavailable")
	})
	sm := newTestClient(t, WithAnalyzer(analyzer))

	res, err := sm.SearchText(context.Background(), "drain clog", 5)
	require.NoError(t, err)
	assert.Equal(t, query.BiasBoth, res.Spec.ProviderBias)
	assert.Equal(t, query.UrgencyMedium, res.Spec.Urgency)
	assert.Contains(t, res.Spec.Keywords, "plumbing")
}

func TestSearchFallback(t *testing.T) {
	logging.DisableLoggingForTest(t)
	seed, err := fallback.New()
	require.NoError(t, err)

	a, _ := testGateways()
	empty := memory.New("workers", memory.Workers, nil)
	sm, err := New(WithPrimary(a), WithSecondary(empty), WithFallback(seed))
	require.NoError(t, err)

	res, err := sm.Search(context.Background(), "plumbing", query.Intent{}, 20)
	require.NoError(t, err)
	assert.Equal(t, []providers.Origin{providers.CatalogB}, res.Summary.FallbackUsed)

	var seeded int
	for _, r := range res.Ranked {
		if r.Provider.Seeded {
			seeded++
			assert.Equal(t, providers.CatalogB, r.Provider.Origin)
		}
	}
	assert.Equal(t, federation.FallbackSize, seeded)
}

func TestCompare(t *testing.T) {
	sm := newTestClient(t, WithThreshold(0.9))
	assert.Equal(t, 0.9, sm.Threshold())

	tests := []struct {
		a, b string
		band similarity.Band
	}{
		{"Blue Peak Plumbing Co.", "blue peak plumbing co.", similarity.Confirmed},
		{"Blue Peak Plumbing Co.", "Blue Peak Plumbing LLC", similarity.Confirmed},
		{"Apex Roofing", "Apex Roofers", similarity.Possible},
		{"Apex Roofing", "Zenith Cleaning", similarity.Distinct},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			_, band := sm.Compare(tt.a, tt.b)
			assert.Equal(t, tt.band, band)
		})
	}
}
