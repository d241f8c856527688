// Package query turns a free-text service request and its intent analysis
// into the canonical search request both catalogs are queried with.
package query

import (
	"strings"
)

// signature pairs a canonical name with the substrings that reveal it.
type signature struct {
	name  string
	words []string
}

// lexicon maps service categories to their signature words. Order matters:
// categories are reported in table order.
var lexicon = []signature{
	{"plumbing", []string{"plumb", "pipe", "leak", "faucet", "drain"}},
	{"electrical", []string{"electric", "wire", "wiring", "breaker", "outlet"}},
	{"painting", []string{"paint", "coating", "spray"}},
	{"hvac", []string{"hvac", "cooling", "heating", "ac", "air condition", "vent", "furnace"}},
	{"landscaping", []string{"lawn", "yard", "landscape", "garden"}},
	{"cleaning", []string{"clean", "janitor", "maid"}},
	{"automotive", []string{"car", "auto", "vehicle", "engine"}},
	{"carpentry", []string{"wood", "carpent", "cabinet"}},
}

// regions maps region names to city and state aliases. The first region
// with a matching alias wins.
var regions = []signature{
	{"northeast", []string{"boston", "new york", "philly", "philadelphia", "maine"}},
	{"southeast", []string{"atlanta", "miami", "orlando", "charlotte"}},
	{"midwest", []string{"chicago", "ohio", "detroit", "michigan"}},
	{"southwest", []string{"texas", "houston", "dallas", "austin"}},
	{"west", []string{"california", "seattle", "san francisco", "portland"}},
}

// Normalize builds a Spec from the raw request text and its intent analysis.
// It performs no I/O and does not modify intent.
func Normalize(raw string, intent Intent) Spec {
	canonical := strings.TrimSpace(raw)
	if canonical == "" {
		canonical = strings.TrimSpace(intent.Description)
	}

	lowered := strings.ToLower(raw)

	keywords := newOrderedSet(len(intent.Keywords) + 2)
	for _, k := range intent.Keywords {
		keywords.add(k)
	}
	for _, category := range InferCategories(lowered) {
		keywords.add(category)
	}

	region := DetectRegion(lowered)
	if region == "" {
		region = strings.TrimSpace(intent.LocationPreference)
	}

	focus := strings.ToLower(strings.TrimSpace(intent.ServiceType))
	if focus == "" {
		focus = "general"
	}

	return Spec{
		CanonicalText: canonical,
		Keywords:      keywords.items,
		ServiceFocus:  focus,
		RegionHint:    region,
		ProviderBias:  ParseProviderBias(intent.RecommendedProviderType),
		Urgency:       ParseUrgency(intent.Urgency),
		Complexity:    ParseComplexity(intent.EstimatedComplexity),
	}
}

// InferCategories returns every lexicon category with a signature word
// contained in text, each at most once, in lexicon order.
func InferCategories(text string) []string {
	text = strings.ToLower(text)
	var found []string
	for _, entry := range lexicon {
		if containsAny(text, entry.words) {
			found = append(found, entry.name)
		}
	}
	return found
}

// DetectRegion returns the first region whose alias appears in text, or "".
func DetectRegion(text string) string {
	text = strings.ToLower(text)
	for _, entry := range regions {
		if containsAny(text, entry.words) {
			return entry.name
		}
	}
	return ""
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// orderedSet keeps lowercase, trimmed strings in first-insertion order.
type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func newOrderedSet(capacity int) *orderedSet {
	return &orderedSet{
		items: make([]string, 0, capacity),
		seen:  make(map[string]struct{}, capacity),
	}
}

func (s *orderedSet) add(v string) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
