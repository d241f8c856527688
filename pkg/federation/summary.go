package federation

import (
	"fmt"
	"slices"

	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/query"
	"github.com/agentstation/servicemap/pkg/ranking"
	"github.com/agentstation/servicemap/pkg/similarity"
)

// Coverage is a qualitative label for how well the catalogs answered a search.
type Coverage string

// String returns the string representation of a coverage label.
func (c Coverage) String() string {
	return string(c)
}

// Coverage labels.
const (
	CoverageExcellent Coverage = "Excellent"
	CoverageGood      Coverage = "Good"
	CoverageFair      Coverage = "Fair"
	CoveragePoor      Coverage = "Poor"
)

// TopPerOrigin is how many names TopByOrigin keeps for each catalog.
const TopPerOrigin = 3

// CrossReferenceFloor is the lowest similarity reported as a cross reference.
const CrossReferenceFloor = 0.75

// ClassifyCoverage labels a search from the number of rows each catalog matched.
func ClassifyCoverage(primary, secondary int) Coverage {
	combined := primary + secondary
	switch {
	case combined == 0:
		return CoveragePoor
	case combined < 5:
		return CoverageFair
	case primary > 0 && secondary > 0:
		return CoverageExcellent
	default:
		return CoverageGood
	}
}

// TopEntry names a highly ranked provider.
type TopEntry struct {
	Name   string  `json:"name" yaml:"name"`
	Rating float64 `json:"rating" yaml:"rating"`
}

// Summary describes how the catalogs contributed to a search.
//
// Matches and Kept count catalog records only. Seed profiles are reported
// through FallbackUsed and never inflate either count.
type Summary struct {
	PrimaryMatches    int                             `json:"primary_matches" yaml:"primary_matches"`
	SecondaryMatches  int                             `json:"secondary_matches" yaml:"secondary_matches"`
	PrimaryKept       int                             `json:"primary_kept" yaml:"primary_kept"`
	SecondaryKept     int                             `json:"secondary_kept" yaml:"secondary_kept"`
	DuplicatesRemoved int                             `json:"duplicates_removed" yaml:"duplicates_removed"`
	FallbackUsed      []providers.Origin              `json:"fallback_used,omitempty" yaml:"fallback_used,omitempty"`
	Unavailable       []providers.Origin              `json:"unavailable,omitempty" yaml:"unavailable,omitempty"`
	Coverage          Coverage                        `json:"coverage" yaml:"coverage"`
	Notes             []string                        `json:"notes" yaml:"notes"`
	TopByOrigin       map[providers.Origin][]TopEntry `json:"top_by_origin" yaml:"top_by_origin"`
}

// Combined returns the number of providers matched before deduplication.
func (s *Summary) Combined() int {
	return s.PrimaryMatches + s.SecondaryMatches
}

// CrossReference links two surviving records from different catalogs whose
// names are close but below the duplicate threshold.
type CrossReference struct {
	Primary        string  `json:"primary" yaml:"primary"`
	Secondary      string  `json:"secondary" yaml:"secondary"`
	Similarity     float64 `json:"similarity" yaml:"similarity"`
	CombinedRating float64 `json:"combined_rating" yaml:"combined_rating"`
}

// outcome is what one catalog contributed to a search.
type outcome struct {
	origin      providers.Origin
	gateway     string
	matched     int
	unavailable bool
	seeded      bool
}

func buildSummary(spec query.Spec, outcomes []outcome, res dedup.Resolution, ranked []ranking.Result) Summary {
	s := Summary{
		DuplicatesRemoved: len(res.Merges),
		TopByOrigin:       make(map[providers.Origin][]TopEntry),
	}

	for _, o := range outcomes {
		switch o.origin {
		case providers.CatalogA:
			s.PrimaryMatches = o.matched
		case providers.CatalogB:
			s.SecondaryMatches = o.matched
		}
		if o.unavailable {
			s.Unavailable = append(s.Unavailable, o.origin)
		}
		if o.seeded {
			s.FallbackUsed = append(s.FallbackUsed, o.origin)
		}
	}

	for i := range res.Kept {
		if res.Kept[i].Seeded {
			continue
		}
		switch res.Kept[i].Origin {
		case providers.CatalogA:
			s.PrimaryKept++
		case providers.CatalogB:
			s.SecondaryKept++
		}
	}

	for _, r := range ranked {
		top := s.TopByOrigin[r.Provider.Origin]
		if len(top) < TopPerOrigin {
			s.TopByOrigin[r.Provider.Origin] = append(top, TopEntry{Name: r.Provider.DisplayName, Rating: r.Provider.Rating})
		}
	}

	s.Coverage = ClassifyCoverage(s.PrimaryMatches, s.SecondaryMatches)
	s.Notes = integrationNotes(spec, &s)
	return s
}

func integrationNotes(spec query.Spec, s *Summary) []string {
	var notes []string
	switch {
	case s.PrimaryMatches > 0 && s.SecondaryMatches > 0:
		notes = append(notes, "Results blended from both databases.")
	case s.PrimaryMatches > 0:
		notes = append(notes, "Primary catalog dominated the answers.")
	case s.SecondaryMatches > 0:
		notes = append(notes, "Secondary catalog dominated the answers.")
	default:
		notes = append(notes, "No live database matches were returned.")
	}

	if spec.RegionHint != "" {
		notes = append(notes, fmt.Sprintf("Region bias applied: %s", spec.RegionHint))
	}
	if spec.ProviderBias != "" && spec.ProviderBias != query.BiasBoth {
		notes = append(notes, fmt.Sprintf("Provider preference leaned toward %s profiles.", spec.ProviderBias))
	}
	for _, o := range s.Unavailable {
		notes = append(notes, fmt.Sprintf("Catalog %s unavailable; results are partial.", o.Label()))
	}
	for _, o := range s.FallbackUsed {
		notes = append(notes, fmt.Sprintf("Seed profiles supplemented catalog %s.", o.Label()))
	}
	return notes
}

// crossReferences lists surviving cross-catalog pairs whose similarity falls
// in [CrossReferenceFloor, threshold).
func crossReferences(kept []providers.Provider, threshold float64) []CrossReference {
	var refs []CrossReference
	for i := range kept {
		for j := i + 1; j < len(kept); j++ {
			a, b := &kept[i], &kept[j]
			if a.Origin == b.Origin {
				continue
			}
			score := similarity.Score(a.DisplayName, b.DisplayName)
			if score < CrossReferenceFloor || score >= threshold {
				continue
			}
			if a.Origin != providers.CatalogA {
				a, b = b, a
			}
			refs = append(refs, CrossReference{
				Primary:        a.DisplayName,
				Secondary:      b.DisplayName,
				Similarity:     score,
				CombinedRating: (a.Rating + b.Rating) / 2,
			})
		}
	}
	slices.SortStableFunc(refs, func(x, y CrossReference) int {
		switch {
		case x.Similarity > y.Similarity:
			return -1
		case x.Similarity < y.Similarity:
			return 1
		}
		return 0
	})
	return refs
}
