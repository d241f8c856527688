package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/servicemap/pkg/errors"
)

func TestProviderValidate(t *testing.T) {
	valid := Provider{SourceID: "1", Origin: CatalogA, DisplayName: "Blue Peak Plumbing Co.", Kind: Organization, Rating: 4.8}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *Provider)
	}{
		{"blank name", func(p *Provider) { p.DisplayName = "   " }},
		{"unknown origin", func(p *Provider) { p.Origin = "catalog_c" }},
		{"unknown kind", func(p *Provider) { p.Kind = "robot" }},
		{"rating above five", func(p *Provider) { p.Rating = 5.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvariant(err))
		})
	}
}

func TestParseCertification(t *testing.T) {
	assert.Equal(t, CertificationMaster, ParseCertification("Master"))
	assert.Equal(t, CertificationProfessional, ParseCertification(" professional "))
	assert.Equal(t, CertificationBasic, ParseCertification("standard"))
	assert.Equal(t, CertificationNone, ParseCertification(""))
	assert.Equal(t, CertificationNone, ParseCertification("None"))
}

func TestParseOrigin(t *testing.T) {
	o, err := ParseOrigin("Primary")
	require.NoError(t, err)
	assert.Equal(t, CatalogA, o)

	o, err = ParseOrigin("catalog_b")
	require.NoError(t, err)
	assert.Equal(t, CatalogB, o)

	_, err = ParseOrigin("tertiary")
	assert.True(t, errors.IsValidationError(err))
}

func TestIsAvailable(t *testing.T) {
	worker := Provider{Kind: IndividualWorker, Availability: "Available"}
	assert.True(t, worker.IsAvailable())

	worker.Availability = "On Leave"
	assert.False(t, worker.IsAvailable())

	company := Provider{Kind: Organization, Availability: "closed"}
	assert.True(t, company.IsAvailable())
}

func TestSplitTagsAndServesRegion(t *testing.T) {
	tags := SplitTags("Downtown, Suburbs, downtown,, West End")
	assert.Equal(t, []string{"Downtown", "Suburbs", "West End"}, tags)
	assert.Nil(t, SplitTags("  "))

	p := Provider{RegionTags: tags}
	assert.True(t, p.ServesRegion("suburbs"))
	assert.True(t, p.ServesRegion(""))
	assert.False(t, p.ServesRegion("midwest"))
}
