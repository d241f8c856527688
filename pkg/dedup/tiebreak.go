package dedup

import (
	"fmt"
	"strings"

	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/providers"
)

// TieBreakType names a tie-break policy.
type TieBreakType string

// String returns the string representation of a tie-break type.
func (t TieBreakType) String() string {
	return string(t)
}

const (
	// TieBreakHighestRated keeps the better rated record.
	TieBreakHighestRated TieBreakType = "highest_rated"
	// TieBreakOriginFirst keeps the record from a preferred catalog.
	TieBreakOriginFirst TieBreakType = "origin_first"
	// TieBreakMostVolume keeps the record with more reviews or completed jobs.
	TieBreakMostVolume TieBreakType = "most_volume"
)

// MaterialMargin is how much higher a rating must be to override an origin preference.
const MaterialMargin = 0.25

// TieBreak decides which of two duplicate records survives.
type TieBreak interface {
	// Type returns the policy type
	Type() TieBreakType

	// Description returns a human-readable description
	Description() string

	// Keep reports whether a survives over b. a always precedes b in merge order.
	Keep(a, b *providers.Provider) bool
}

// baseTieBreak provides common policy functionality.
type baseTieBreak struct {
	typ         TieBreakType
	description string
}

// Type returns the policy type.
func (t *baseTieBreak) Type() TieBreakType {
	return t.typ
}

// Description returns a human-readable description.
func (t *baseTieBreak) Description() string {
	return t.description
}

// highestRated keeps the record with the greater rating.
type highestRated struct {
	baseTieBreak
}

// HighestRated keeps the record with the greater rating. Equal ratings keep
// the lexicographically first origin, then the earlier record.
func HighestRated() TieBreak {
	return &highestRated{baseTieBreak{
		typ:         TieBreakHighestRated,
		description: "Keeps the higher rated record; ties keep the first origin",
	}}
}

// Keep implements TieBreak.
func (t *highestRated) Keep(a, b *providers.Provider) bool {
	return keepHigherRated(a, b)
}

func keepHigherRated(a, b *providers.Provider) bool {
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	if a.Origin != b.Origin {
		return a.Origin < b.Origin
	}
	return true
}

// originFirst prefers one catalog unless the other is materially better rated.
type originFirst struct {
	baseTieBreak
	preferred providers.Origin
}

// OriginFirst keeps the record from the preferred origin unless the other
// record's rating is higher by more than MaterialMargin. Equal ratings, or a
// pair where neither side comes from the preferred origin, fall back to
// HighestRated.
func OriginFirst(preferred providers.Origin) TieBreak {
	return &originFirst{
		baseTieBreak: baseTieBreak{
			typ:         TieBreakOriginFirst,
			description: fmt.Sprintf("Keeps the %s record unless the other is materially better rated", preferred),
		},
		preferred: preferred,
	}
}

// Keep implements TieBreak.
func (t *originFirst) Keep(a, b *providers.Provider) bool {
	if a.Rating == b.Rating || a.Origin == b.Origin {
		return keepHigherRated(a, b)
	}
	switch t.preferred {
	case a.Origin:
		return b.Rating-a.Rating <= MaterialMargin
	case b.Origin:
		return a.Rating-b.Rating > MaterialMargin
	default:
		return keepHigherRated(a, b)
	}
}

// Preferred returns the origin this policy favours.
func (t *originFirst) Preferred() providers.Origin {
	return t.preferred
}

// mostVolume keeps the record with the larger volume metric.
type mostVolume struct {
	baseTieBreak
}

// MostVolume keeps the record with the greater volume metric. Equal volumes
// fall back to HighestRated.
func MostVolume() TieBreak {
	return &mostVolume{baseTieBreak{
		typ:         TieBreakMostVolume,
		description: "Keeps the record with more reviews or completed jobs",
	}}
}

// Keep implements TieBreak.
func (t *mostVolume) Keep(a, b *providers.Provider) bool {
	if a.VolumeMetric != b.VolumeMetric {
		return a.VolumeMetric > b.VolumeMetric
	}
	return keepHigherRated(a, b)
}

// ParseTieBreak builds a policy from its name. The origin-first policy takes
// its origin after a colon, as in "origin_first:catalog_b".
func ParseTieBreak(name string) (TieBreak, error) {
	kind, arg, _ := strings.Cut(strings.ToLower(strings.TrimSpace(name)), ":")
	switch TieBreakType(strings.ReplaceAll(kind, "-", "_")) {
	case "", TieBreakHighestRated:
		return HighestRated(), nil
	case TieBreakMostVolume:
		return MostVolume(), nil
	case TieBreakOriginFirst:
		origin, err := providers.ParseOrigin(arg)
		if err != nil {
			return nil, errors.NewValidationError("tie_break", name, "origin_first needs an origin, e.g. origin_first:catalog_a")
		}
		return OriginFirst(origin), nil
	default:
		return nil, errors.NewValidationError("tie_break", name, "expected highest_rated, most_volume or origin_first:<origin>")
	}
}
