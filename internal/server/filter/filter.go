// Package filter parses result filters from API requests and applies them to
// ranked search results.
package filter

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/ranking"
)

// ResultFilter narrows a ranked result list. Zero values disable a criterion.
type ResultFilter struct {
	Kind      providers.Kind   `json:"kind,omitempty"`
	Origin    providers.Origin `json:"origin,omitempty"`
	Region    string           `json:"region,omitempty"`
	MinRating float64          `json:"min_rating,omitempty"`
	MaxCost   float64          `json:"max_cost,omitempty"`
	Emergency *bool            `json:"emergency,omitempty"`
	NoSeeded  bool             `json:"exclude_seeded,omitempty"`
}

// Parse extracts filter parameters from the request query string.
func Parse(r *http.Request) (ResultFilter, error) {
	q := r.URL.Query()
	f := ResultFilter{Region: strings.TrimSpace(q.Get("region"))}

	if v := q.Get("kind"); v != "" {
		k, err := parseKind(v)
		if err != nil {
			return f, err
		}
		f.Kind = k
	}
	if v := q.Get("origin"); v != "" {
		o, err := providers.ParseOrigin(v)
		if err != nil {
			return f, err
		}
		f.Origin = o
	}

	var err error
	if f.MinRating, err = parseFloat("min_rating", q.Get("min_rating")); err != nil {
		return f, err
	}
	if f.MaxCost, err = parseFloat("max_cost", q.Get("max_cost")); err != nil {
		return f, err
	}
	if v := q.Get("emergency"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.NewValidationError("emergency", v, "expected a boolean")
		}
		f.Emergency = &b
	}
	if v := q.Get("exclude_seeded"); v != "" {
		f.NoSeeded, _ = strconv.ParseBool(v)
	}
	return f, nil
}

// IsZero reports whether the filter has no criteria.
func (f ResultFilter) IsZero() bool {
	return f.Kind == "" && f.Origin == "" && f.Region == "" &&
		f.MinRating == 0 && f.MaxCost == 0 && f.Emergency == nil && !f.NoSeeded
}

// Apply returns the results that match every criterion, keeping their order.
func (f ResultFilter) Apply(results []ranking.Result) []ranking.Result {
	if f.IsZero() {
		return results
	}
	out := make([]ranking.Result, 0, len(results))
	for _, r := range results {
		if f.matches(&r.Provider) {
			out = append(out, r)
		}
	}
	return out
}

func (f ResultFilter) matches(p *providers.Provider) bool {
	if f.Kind != "" && p.Kind != f.Kind {
		return false
	}
	if f.Origin != "" && p.Origin != f.Origin {
		return false
	}
	if f.Region != "" && !p.ServesRegion(f.Region) {
		return false
	}
	if f.MinRating > 0 && p.Rating < f.MinRating {
		return false
	}
	// Providers without a published rate are kept.
	if f.MaxCost > 0 && p.HourlyCost != nil && *p.HourlyCost > f.MaxCost {
		return false
	}
	if f.Emergency != nil && p.SupportsEmergency != *f.Emergency {
		return false
	}
	if f.NoSeeded && p.Seeded {
		return false
	}
	return true
}

func parseKind(s string) (providers.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "organization", "company":
		return providers.Organization, nil
	case "individual", "worker":
		return providers.IndividualWorker, nil
	}
	return "", errors.NewValidationError("kind", s, "expected organization or individual")
}

func parseFloat(field, s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, errors.NewValidationError(field, s, "expected a non-negative number")
	}
	return v, nil
}
