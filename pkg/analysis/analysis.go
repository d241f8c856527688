// Package analysis audits full catalog contents for duplicate providers.
//
// Unlike the live search path it reports every pair at or above the
// thresholds, including pairs inside one catalog, and removes nothing.
// Duplicates whose individual worker is no longer available are reported as
// cancelled; the rest are active and need attention.
package analysis

import (
	"time"

	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/similarity"
)

// DuplicateType tells whether a duplicate spans catalogs.
type DuplicateType string

// String returns the string representation of a duplicate type.
func (t DuplicateType) String() string {
	return string(t)
}

// Duplicate types.
const (
	CrossCatalog  DuplicateType = "cross_catalog"
	WithinCatalog DuplicateType = "within_catalog"
)

// Health summarizes how many active duplicates need attention.
type Health string

// Health levels.
const (
	Healthy  Health = "healthy"
	Warning  Health = "warning"
	Critical Health = "critical"
)

// Entry identifies one side of a duplicate.
type Entry struct {
	ID           string           `json:"id" yaml:"id"`
	Name         string           `json:"name" yaml:"name"`
	Origin       providers.Origin `json:"origin" yaml:"origin"`
	Kind         providers.Kind   `json:"kind" yaml:"kind"`
	Rating       float64          `json:"rating" yaml:"rating"`
	Availability string           `json:"availability,omitempty" yaml:"availability,omitempty"`
}

func entryOf(p *providers.Provider) Entry {
	return Entry{
		ID:           p.SourceID,
		Name:         p.DisplayName,
		Origin:       p.Origin,
		Kind:         p.Kind,
		Rating:       p.Rating,
		Availability: p.Availability,
	}
}

// Duplicate is a pair of records judged to describe the same provider.
type Duplicate struct {
	Type       DuplicateType `json:"type" yaml:"type"`
	First      Entry         `json:"first" yaml:"first"`
	Second     Entry         `json:"second" yaml:"second"`
	Similarity float64       `json:"similarity" yaml:"similarity"`
	Cancelled  bool          `json:"cancelled" yaml:"cancelled"`
}

// Stats aggregates a Report.
type Stats struct {
	TotalProviders     int     `json:"total_providers" yaml:"total_providers"`
	PrimaryProviders   int     `json:"primary_providers" yaml:"primary_providers"`
	SecondaryProviders int     `json:"secondary_providers" yaml:"secondary_providers"`
	TotalDuplicates    int     `json:"total_duplicates" yaml:"total_duplicates"`
	CrossCatalog       int     `json:"cross_catalog" yaml:"cross_catalog"`
	WithinCatalog      int     `json:"within_catalog" yaml:"within_catalog"`
	Active             int     `json:"active" yaml:"active"`
	Cancelled          int     `json:"cancelled" yaml:"cancelled"`
	PossibleMatches    int     `json:"possible_matches" yaml:"possible_matches"`
	DuplicateRatio     float64 `json:"duplicate_ratio" yaml:"duplicate_ratio"`
	QualityScore       float64 `json:"quality_score" yaml:"quality_score"`
	Quality            string  `json:"quality" yaml:"quality"`
	Health             Health  `json:"health" yaml:"health"`
}

// Report is the outcome of Analyze.
type Report struct {
	GeneratedAt time.Time   `json:"generated_at" yaml:"generated_at"`
	Duplicates  []Duplicate `json:"duplicates" yaml:"duplicates"`
	Cancelled   []Duplicate `json:"cancelled" yaml:"cancelled"`
	Active      []Duplicate `json:"active" yaml:"active"`
	Stats       Stats       `json:"stats" yaml:"stats"`
}

// options configures Analyze.
type options struct {
	crossThreshold float64
	sameThreshold  float64
	now            func() time.Time
}

// Option is a function that configures Analyze.
type Option func(*options) error

// WithCrossThreshold sets the threshold for pairs spanning catalogs.
func WithCrossThreshold(threshold float64) Option {
	return func(o *options) error {
		if threshold <= 0 || threshold > 1 {
			return errors.NewValidationError("cross_threshold", threshold, "must be within (0, 1]")
		}
		o.crossThreshold = threshold
		return nil
	}
}

// WithSameOriginThreshold sets the threshold for pairs inside one catalog.
func WithSameOriginThreshold(threshold float64) Option {
	return func(o *options) error {
		if threshold <= 0 || threshold > 1 {
			return errors.NewValidationError("same_origin_threshold", threshold, "must be within (0, 1]")
		}
		o.sameThreshold = threshold
		return nil
	}
}

// WithClock sets the time source for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		o.now = now
		return nil
	}
}

// Analyze finds every duplicate pair across and within the two catalogs.
// Records failing Provider validation abort the analysis.
func Analyze(a, b []providers.Provider, opts ...Option) (*Report, error) {
	o := &options{
		crossThreshold: dedup.DefaultThreshold,
		sameThreshold:  dedup.SameOriginThreshold,
		now:            time.Now,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	all := make([]providers.Provider, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	for i := range all {
		if err := all[i].Validate(); err != nil {
			return nil, err
		}
	}

	report := &Report{GeneratedAt: o.now()}

	floor := o.crossThreshold - similarity.PossibleWindow
	if floor <= 0 {
		floor = o.crossThreshold
	}
	for _, c := range dedup.Pairs(all, floor, dedup.ScopeCrossOrigin) {
		if similarity.Classify(c.Similarity, o.crossThreshold) != similarity.Confirmed {
			report.Stats.PossibleMatches++
			continue
		}
		report.add(newDuplicate(CrossCatalog, &all[c.I], &all[c.J], c.Similarity))
	}
	for _, c := range dedup.Pairs(all, o.sameThreshold, dedup.ScopeSameOrigin) {
		report.add(newDuplicate(WithinCatalog, &all[c.I], &all[c.J], c.Similarity))
	}

	report.Stats.PrimaryProviders = len(a)
	report.Stats.SecondaryProviders = len(b)
	report.Stats.TotalProviders = len(all)
	report.Stats.TotalDuplicates = len(report.Duplicates)
	report.Stats.Active = len(report.Active)
	report.Stats.Cancelled = len(report.Cancelled)
	if len(all) > 0 {
		report.Stats.DuplicateRatio = float64(len(report.Duplicates)) / float64(len(all)) * 100
	}
	report.Stats.QualityScore = max(0, 100-report.Stats.DuplicateRatio)
	report.Stats.Quality = QualityLabel(report.Stats.QualityScore)
	report.Stats.Health = HealthOf(report.Stats.Active)

	return report, nil
}

func newDuplicate(typ DuplicateType, a, b *providers.Provider, score float64) Duplicate {
	// Catalog A goes first so cross-catalog rows read primary then secondary.
	if a.Origin != b.Origin && a.Origin != providers.CatalogA {
		a, b = b, a
	}
	return Duplicate{
		Type:       typ,
		First:      entryOf(a),
		Second:     entryOf(b),
		Similarity: score,
		Cancelled:  !a.IsAvailable() || !b.IsAvailable(),
	}
}

func (r *Report) add(d Duplicate) {
	r.Duplicates = append(r.Duplicates, d)
	if d.Cancelled {
		r.Cancelled = append(r.Cancelled, d)
	} else {
		r.Active = append(r.Active, d)
	}
	switch d.Type {
	case CrossCatalog:
		r.Stats.CrossCatalog++
	case WithinCatalog:
		r.Stats.WithinCatalog++
	}
}

// QualityLabel grades a quality score.
func QualityLabel(score float64) string {
	switch {
	case score >= 95:
		return "Excellent"
	case score >= 85:
		return "Good"
	case score >= 75:
		return "Fair"
	default:
		return "Poor"
	}
}

// HealthOf grades the number of active duplicates.
func HealthOf(active int) Health {
	switch {
	case active == 0:
		return Healthy
	case active < 5:
		return Warning
	default:
		return Critical
	}
}
