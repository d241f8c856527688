// Package ranking orders deduplicated providers by a composite score built
// from rating, provider type fit, urgency fit, experience and certification.
//
// The score is an unclamped sum whose components nominally add up to 100.
// Only the relative order matters to callers, and each contribution is
// kept in the result's breakdown so listings can explain a placement.
package ranking

import (
	"sort"

	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/query"
)

// Factor names one contribution to the composite score.
type Factor string

// String returns the string representation of a factor.
func (f Factor) String() string {
	return string(f)
}

// Score factors, in the order they are applied.
const (
	FactorRating        Factor = "rating"
	FactorTypeMatch     Factor = "type_match"
	FactorUrgency       Factor = "urgency"
	FactorExperience    Factor = "experience"
	FactorCertification Factor = "certification"
)

// Factors returns all factors in application order.
func Factors() []Factor {
	return []Factor{FactorRating, FactorTypeMatch, FactorUrgency, FactorExperience, FactorCertification}
}

// Weights of the individual contributions.
const (
	RatingWeight       = 40.0
	TypeMatchBonus     = 20.0
	TypeNeutralBonus   = 10.0
	EmergencyBonus     = 15.0
	OrganizationCredit = 6.0
)

// Breakdown maps each factor to its contribution.
type Breakdown map[Factor]float64

// Total sums the contributions.
func (b Breakdown) Total() float64 {
	var total float64
	for _, f := range Factors() {
		total += b[f]
	}
	return total
}

// Result is a provider with its composite score.
type Result struct {
	Provider  providers.Provider `json:"provider" yaml:"provider"`
	Score     float64            `json:"composite_score" yaml:"composite_score"`
	Breakdown Breakdown          `json:"score_breakdown" yaml:"score_breakdown"`
}

// Rank scores every provider against spec and returns them by descending
// score. Providers with equal scores keep their input order.
func Rank(ps []providers.Provider, spec query.Spec) []Result {
	results := make([]Result, len(ps))
	for i := range ps {
		b := Score(&ps[i], spec)
		results[i] = Result{Provider: ps[i], Score: b.Total(), Breakdown: b}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// Score returns the per-factor contributions for a single provider.
func Score(p *providers.Provider, spec query.Spec) Breakdown {
	return Breakdown{
		FactorRating:        ratingScore(p),
		FactorTypeMatch:     typeMatchScore(p, spec.ProviderBias),
		FactorUrgency:       urgencyScore(p, spec.Urgency),
		FactorExperience:    experienceScore(p),
		FactorCertification: certificationScore(p),
	}
}

func ratingScore(p *providers.Provider) float64 {
	return p.Rating / 5.0 * RatingWeight
}

func typeMatchScore(p *providers.Provider, bias query.ProviderBias) float64 {
	switch {
	case bias == query.BiasCompany && p.Kind == providers.Organization:
		return TypeMatchBonus
	case bias == query.BiasIndividual && p.Kind == providers.IndividualWorker:
		return TypeMatchBonus
	default:
		return TypeNeutralBonus
	}
}

func urgencyScore(p *providers.Provider, urgency query.Urgency) float64 {
	switch {
	case urgency.IsPressing():
		if p.SupportsEmergency {
			return EmergencyBonus
		}
		return responseTier(p.ResponseHours, []tier{{2, 12}, {6, 8}, {12, 4}})
	case urgency == query.UrgencyMedium:
		return responseTier(p.ResponseHours, []tier{{6, 10}, {12, 6}})
	default:
		return 0
	}
}

// tier awards bonus when a response time is at or under hours.
type tier struct {
	hours float64
	bonus float64
}

// responseTier returns the bonus of the first tier the response time fits.
// Providers that do not report a response time earn nothing.
func responseTier(hours *float64, tiers []tier) float64 {
	if hours == nil {
		return 0
	}
	for _, t := range tiers {
		if *hours <= t.hours {
			return t.bonus
		}
	}
	return 0
}

func experienceScore(p *providers.Provider) float64 {
	if p.Kind == providers.Organization {
		switch v := p.VolumeMetric; {
		case v >= 100:
			return 15
		case v >= 50:
			return 10
		case v >= 20:
			return 5
		}
		return 0
	}

	var years float64
	if p.ExperienceYears != nil {
		years = *p.ExperienceYears
	}
	switch v := p.VolumeMetric; {
	case years >= 10 && v >= 100:
		return 15
	case years >= 5 && v >= 50:
		return 10
	case years >= 2 && v >= 20:
		return 5
	}
	return 0
}

func certificationScore(p *providers.Provider) float64 {
	if p.Kind == providers.Organization {
		return OrganizationCredit
	}
	switch p.CertificationTier {
	case providers.CertificationMaster:
		return 10
	case providers.CertificationProfessional:
		return 8
	case providers.CertificationBasic:
		return 5
	default:
		return 0
	}
}
