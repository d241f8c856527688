// Package providers defines the normalized provider record that both
// catalogs are translated into before deduplication and ranking.
//
// Catalog A supplies organizations (companies) and catalog B supplies
// individual workers. The origin and kind of a record decide which optional
// fields carry data: experience and certification exist only for
// individuals, review counts only for organizations.
package providers

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agentstation/servicemap/pkg/errors"
)

// Origin identifies the catalog a provider record came from.
type Origin string

// String returns the string representation of an origin.
func (o Origin) String() string {
	return string(o)
}

// Catalog origins.
const (
	CatalogA Origin = "catalog_a"
	CatalogB Origin = "catalog_b"
)

// Origins returns all known origins in merge order.
func Origins() []Origin {
	return []Origin{CatalogA, CatalogB}
}

// IsValid returns true if the origin is one of the defined constants.
func (o Origin) IsValid() bool {
	return slices.Contains(Origins(), o)
}

// Label returns the human-facing catalog name.
func (o Origin) Label() string {
	switch o {
	case CatalogA:
		return "Primary"
	case CatalogB:
		return "Secondary"
	default:
		return string(o)
	}
}

// ParseOrigin parses an origin from its identifier or its label.
func ParseOrigin(s string) (Origin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "catalog_a", "a", "primary":
		return CatalogA, nil
	case "catalog_b", "b", "secondary":
		return CatalogB, nil
	}
	return "", errors.NewValidationError("origin", s, "expected catalog_a or catalog_b")
}

// Kind is the provider category.
type Kind string

// String returns the string representation of a kind.
func (k Kind) String() string {
	return string(k)
}

// Provider kinds.
const (
	Organization     Kind = "organization"
	IndividualWorker Kind = "individual"
)

// IsValid returns true if the kind is one of the defined constants.
func (k Kind) IsValid() bool {
	return k == Organization || k == IndividualWorker
}

// Label returns the display name used in listings.
func (k Kind) Label() string {
	switch k {
	case Organization:
		return "Company"
	case IndividualWorker:
		return "Individual Worker"
	default:
		return string(k)
	}
}

// CertificationTier is an individual worker's certification level.
type CertificationTier string

// String returns the string representation of a tier.
func (c CertificationTier) String() string {
	return string(c)
}

// Certification tiers, lowest first.
const (
	CertificationNone         CertificationTier = "none"
	CertificationBasic        CertificationTier = "basic"
	CertificationProfessional CertificationTier = "professional"
	CertificationMaster       CertificationTier = "master"
)

// ParseCertification maps a catalog certification level onto a tier.
// Unknown and empty levels map to CertificationNone.
func ParseCertification(s string) CertificationTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "master", "expert":
		return CertificationMaster
	case "professional", "pro", "licensed":
		return CertificationProfessional
	case "basic", "standard", "apprentice":
		return CertificationBasic
	default:
		return CertificationNone
	}
}

// Provider is a normalized service-provider record from either catalog.
type Provider struct {
	SourceID          string            `json:"source_id" yaml:"source_id"`
	Origin            Origin            `json:"origin" yaml:"origin"`
	DisplayName       string            `json:"display_name" yaml:"display_name"`
	Kind              Kind              `json:"kind" yaml:"kind"`
	Rating            float64           `json:"rating" yaml:"rating"`
	HourlyCost        *float64          `json:"hourly_cost,omitempty" yaml:"hourly_cost,omitempty"`
	RegionTags        []string          `json:"region_tags,omitempty" yaml:"region_tags,omitempty"`
	Specialization    string            `json:"specialization,omitempty" yaml:"specialization,omitempty"`
	Category          string            `json:"category,omitempty" yaml:"category,omitempty"`
	VolumeMetric      int               `json:"volume_metric" yaml:"volume_metric"`
	ExperienceYears   *float64          `json:"experience_years,omitempty" yaml:"experience_years,omitempty"`
	CertificationTier CertificationTier `json:"certification_tier,omitempty" yaml:"certification_tier,omitempty"`
	SupportsEmergency bool              `json:"supports_emergency" yaml:"supports_emergency"`
	ResponseHours     *float64          `json:"response_hours,omitempty" yaml:"response_hours,omitempty"`
	Availability      string            `json:"availability,omitempty" yaml:"availability,omitempty"`
	Description       string            `json:"description,omitempty" yaml:"description,omitempty"`
	Phone             string            `json:"phone,omitempty" yaml:"phone,omitempty"`
	Email             string            `json:"email,omitempty" yaml:"email,omitempty"`

	// Seeded marks records supplied by the fallback seed rather than a live catalog.
	Seeded bool `json:"seeded,omitempty" yaml:"seeded,omitempty"`
}

// Key returns the origin-qualified identifier, unique across both catalogs.
func (p *Provider) Key() string {
	return fmt.Sprintf("%s/%s", p.Origin, p.SourceID)
}

// Validate checks the record invariants every downstream stage relies on.
func (p *Provider) Validate() error {
	if strings.TrimSpace(p.DisplayName) == "" {
		return errors.NewInvariantError("provider", p.Key(), "display name is empty")
	}
	if !p.Origin.IsValid() {
		return errors.NewInvariantError("provider", p.Key(), fmt.Sprintf("unknown origin %q", p.Origin))
	}
	if !p.Kind.IsValid() {
		return errors.NewInvariantError("provider", p.Key(), fmt.Sprintf("unknown kind %q", p.Kind))
	}
	if p.Rating < 0 || p.Rating > 5 {
		return errors.NewInvariantError("provider", p.Key(), fmt.Sprintf("rating %.2f outside 0-5", p.Rating))
	}
	return nil
}

// IsAvailable reports whether an individual worker can take work.
// Organizations and records without a status are treated as available.
func (p *Provider) IsAvailable() bool {
	if p.Kind != IndividualWorker || p.Availability == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(p.Availability), "available")
}

// ServesRegion reports whether any region tag contains the region name.
func (p *Provider) ServesRegion(region string) bool {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		return true
	}
	for _, tag := range p.RegionTags {
		if strings.Contains(strings.ToLower(tag), region) {
			return true
		}
	}
	return false
}

// SplitTags splits a comma separated catalog column into trimmed,
// de-duplicated tags, keeping first-seen order.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var tags []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
