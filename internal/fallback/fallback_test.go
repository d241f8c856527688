package fallback

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/query"
)

func TestEmbeddedSeed(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.Profiles(), 5)

	got := s.Sample(providers.CatalogB, query.Spec{}, 5)
	require.Len(t, got, 5)
	for i, p := range got {
		assert.NoError(t, p.Validate())
		assert.True(t, p.Seeded)
		assert.Equal(t, providers.IndividualWorker, p.Kind)
		assert.Equal(t, providers.CatalogB, p.Origin)
		assert.Equal(t, SeedRating, p.Rating)
		assert.Equal(t, providers.CertificationBasic, p.CertificationTier)
		assert.True(t, p.IsAvailable())
		assert.Regexp(t, `^seed-1000\d$`, p.SourceID, "record %d", i)
	}
	assert.Equal(t, "seed-10001", got[0].SourceID)
}

func TestSampleMatchesFirst(t *testing.T) {
	s := FromProfiles([]Profile{
		{Name: "Alpha Cleaning", ServiceCategories: []string{"cleaning"}},
		{Name: "Beta Plumbing", ServiceCategories: []string{"plumbing", "heating"}, PrimaryRegion: "North, East"},
		{Name: "Gamma Roofing", ServiceCategories: []string{"roofing"}},
	})

	got := s.Sample(providers.CatalogB, query.Spec{Keywords: []string{"plumbing"}}, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "Beta Plumbing", got[0].DisplayName)
	assert.Equal(t, "seed-10002", got[0].SourceID)
	assert.Equal(t, []string{"North", "East"}, got[0].RegionTags)
	assert.Equal(t, "plumbing", got[0].Category)
	assert.Equal(t, "Alpha Cleaning", got[1].DisplayName)
}

func TestSampleOrganizations(t *testing.T) {
	s := FromProfiles([]Profile{{ServiceCategories: nil}})

	got := s.Sample(providers.CatalogA, query.Spec{}, 3)
	require.Len(t, got, 1)
	assert.Equal(t, providers.Organization, got[0].Kind)
	assert.Equal(t, "Provider 1", got[0].DisplayName)
	assert.Equal(t, "general", got[0].Category)
	assert.Nil(t, got[0].ExperienceYears)
	assert.NoError(t, got[0].Validate())
}

func TestSampleEmpty(t *testing.T) {
	assert.Nil(t, FromProfiles(nil).Sample(providers.CatalogB, query.Spec{}, 5))
	assert.Nil(t, FromProfiles([]Profile{{Name: "x"}}).Sample(providers.CatalogB, query.Spec{}, 0))
}

func TestLoadErrors(t *testing.T) {
	fsys := fstest.MapFS{"bad.yaml": {Data: []byte("profiles: [")}}

	_, err := Load(fsys, "missing.yaml")
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)

	_, err = Load(fsys, "bad.yaml")
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}
