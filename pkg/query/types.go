package query

import (
	"strings"
)

// ProviderBias is the provider type a request leans toward.
type ProviderBias string

// String returns the string representation of a bias.
func (b ProviderBias) String() string {
	return string(b)
}

// Provider biases.
const (
	BiasCompany    ProviderBias = "company"
	BiasIndividual ProviderBias = "individual"
	BiasBoth       ProviderBias = "both"
)

// ParseProviderBias maps free-form values onto a bias. Unknown or empty
// input yields BiasBoth.
func ParseProviderBias(s string) ProviderBias {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "company", "companies", "organization", "organisation", "business":
		return BiasCompany
	case "individual", "individuals", "individual worker", "worker", "freelancer":
		return BiasIndividual
	default:
		return BiasBoth
	}
}

// Urgency is how soon the requester needs help.
type Urgency string

// String returns the string representation of an urgency.
func (u Urgency) String() string {
	return string(u)
}

// Urgency levels, least urgent first.
const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// ParseUrgency maps free-form values onto an urgency. Unknown or empty
// input yields UrgencyMedium.
func ParseUrgency(s string) Urgency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "no rush", "flexible":
		return UrgencyLow
	case "high", "urgent", "asap":
		return UrgencyHigh
	case "emergency", "critical", "immediate":
		return UrgencyEmergency
	default:
		return UrgencyMedium
	}
}

// IsPressing reports whether the urgency calls for emergency handling.
func (u Urgency) IsPressing() bool {
	return u == UrgencyHigh || u == UrgencyEmergency
}

// Complexity is the estimated size of the job.
type Complexity string

// String returns the string representation of a complexity.
func (c Complexity) String() string {
	return string(c)
}

// Complexity levels.
const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// ParseComplexity maps free-form values onto a complexity. Unknown or empty
// input yields ComplexityModerate.
func ParseComplexity(s string) Complexity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple", "easy", "low":
		return ComplexitySimple
	case "complex", "hard", "high":
		return ComplexityComplex
	default:
		return ComplexityModerate
	}
}

// InferComplexity estimates complexity from the number of words in a request.
func InferComplexity(text string) Complexity {
	words := len(strings.Fields(text))
	switch {
	case words <= 4:
		return ComplexitySimple
	case words <= 12:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

// Intent is the structured output of a natural-language request analysis.
// Every field is optional; Normalize substitutes defaults for missing or
// unrecognised values.
type Intent struct {
	ServiceType             string   `json:"service_type,omitempty" yaml:"service_type,omitempty"`
	Urgency                 string   `json:"urgency,omitempty" yaml:"urgency,omitempty"`
	Description             string   `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords                []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	EstimatedComplexity     string   `json:"estimated_complexity,omitempty" yaml:"estimated_complexity,omitempty"`
	LocationPreference      string   `json:"location_preference,omitempty" yaml:"location_preference,omitempty"`
	RecommendedProviderType string   `json:"recommended_provider_type,omitempty" yaml:"recommended_provider_type,omitempty"`
	ConfidenceScore         float64  `json:"confidence_score,omitempty" yaml:"confidence_score,omitempty"`
}

// Spec is the canonical search request shared by both catalogs.
// It is built once per search and treated as read-only afterwards.
type Spec struct {
	CanonicalText string       `json:"canonical_text" yaml:"canonical_text"`
	Keywords      []string     `json:"keywords" yaml:"keywords"`
	ServiceFocus  string       `json:"service_focus,omitempty" yaml:"service_focus,omitempty"`
	RegionHint    string       `json:"region_hint,omitempty" yaml:"region_hint,omitempty"`
	ProviderBias  ProviderBias `json:"provider_bias" yaml:"provider_bias"`
	Urgency       Urgency      `json:"urgency" yaml:"urgency"`
	Complexity    Complexity   `json:"complexity" yaml:"complexity"`
}

// Terms returns the lowercase filter terms a gateway should match against
// category and specialization fields: the keywords, then the service focus
// when it names a concrete service.
func (s Spec) Terms() []string {
	terms := make([]string, 0, len(s.Keywords)+1)
	seen := make(map[string]struct{}, len(s.Keywords)+1)
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	for _, k := range s.Keywords {
		add(k)
	}
	if s.ServiceFocus != "" && !strings.EqualFold(s.ServiceFocus, "general") {
		add(s.ServiceFocus)
	}
	return terms
}
