// Package fallback supplies seed provider profiles when a live catalog
// returns nothing.
package fallback

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/servicemap/internal/embedded"
	"github.com/agentstation/servicemap/internal/utils/ptr"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/query"
)

// Seed profile defaults applied to every generated record.
const (
	SeedRating      = 4.0
	SeedHourlyCost  = 80.0
	SeedExperience  = 5.0
	SeedVolume      = 10
	SeedIDBase      = 10000
	seedCertificate = "standard"
)

// Profile is one research company profile from the seed file.
type Profile struct {
	Name              string   `yaml:"name"`
	ServiceCategories []string `yaml:"service_categories"`
	PrimaryRegion     string   `yaml:"primary_region"`
	Insight           string   `yaml:"insight"`
}

// Seed implements federation.Fallback over a fixed list of profiles.
type Seed struct {
	profiles []Profile
}

var _ federation.Fallback = (*Seed)(nil)

// New returns a Seed over the embedded profile file.
func New() (*Seed, error) {
	return Load(embedded.FS, embedded.SeedProfiles)
}

// Load reads profiles from path in fsys.
func Load(fsys fs.FS, path string) (*Seed, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var doc struct {
		Profiles []Profile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return FromProfiles(doc.Profiles), nil
}

// FromProfiles returns a Seed over profiles.
func FromProfiles(profiles []Profile) *Seed {
	return &Seed{profiles: profiles}
}

// Profiles returns the number of loaded profiles.
func (s *Seed) Profiles() int {
	return len(s.profiles)
}

// Sample implements federation.Fallback. Profiles whose categories match a
// search term come first; the rest follow in file order. Identifiers are
// stable per profile: seed-10001, seed-10002 and so on.
func (s *Seed) Sample(origin providers.Origin, spec query.Spec, n int) []providers.Provider {
	if n <= 0 || len(s.profiles) == 0 {
		return nil
	}

	terms := spec.Terms()
	order := make([]int, len(s.profiles))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return matches(s.profiles[order[i]], terms) && !matches(s.profiles[order[j]], terms)
	})

	if n > len(order) {
		n = len(order)
	}
	out := make([]providers.Provider, 0, n)
	for _, idx := range order[:n] {
		out = append(out, s.profiles[idx].provider(origin, idx+1))
	}
	return out
}

func matches(p Profile, terms []string) bool {
	for _, c := range p.ServiceCategories {
		c = strings.ToLower(c)
		for _, t := range terms {
			if strings.Contains(c, t) || strings.Contains(t, c) {
				return true
			}
		}
	}
	return false
}

func (p Profile) provider(origin providers.Origin, n int) providers.Provider {
	category := "general"
	if len(p.ServiceCategories) > 0 {
		category = p.ServiceCategories[0]
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = fmt.Sprintf("Provider %d", n)
	}

	rec := providers.Provider{
		SourceID:       fmt.Sprintf("%s%d", federation.SeedIDPrefix, SeedIDBase+n),
		Origin:         origin,
		DisplayName:    name,
		Kind:           providers.IndividualWorker,
		Rating:         SeedRating,
		HourlyCost:     ptr.Float64(SeedHourlyCost),
		RegionTags:     providers.SplitTags(p.PrimaryRegion),
		Specialization: strings.Join(p.ServiceCategories, ", "),
		Category:       category,
		VolumeMetric:   SeedVolume,
		Description:    p.Insight,
		Availability:   "Available",
		Seeded:         true,
	}
	if origin == providers.CatalogA {
		rec.Kind = providers.Organization
		rec.CertificationTier = providers.CertificationNone
		rec.Availability = ""
		return rec
	}
	rec.ExperienceYears = ptr.To(SeedExperience)
	rec.CertificationTier = providers.ParseCertification(seedCertificate)
	return rec
}
