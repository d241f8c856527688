// Package intent turns a free-text service request into the structured
// intent analysis the search core consumes.
package intent

import (
	"context"
	"strings"

	"github.com/agentstation/servicemap/pkg/query"
)

// HeuristicConfidence is the confidence reported by rule-based analysis.
const HeuristicConfidence = 0.75

// Analyzer produces an intent analysis for a request.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (query.Intent, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, text string) (query.Intent, error)

// Analyze implements Analyzer.
func (f AnalyzerFunc) Analyze(ctx context.Context, text string) (query.Intent, error) {
	return f(ctx, text)
}

type rule struct {
	value string
	words []string
}

// serviceRules are checked in order; the first match names the service type.
var serviceRules = []rule{
	{"plumbing", []string{"plumb", "pipe", "leak", "faucet", "drain"}},
	{"electrical", []string{"electric", "wire", "outlet", "switch", "circuit"}},
	{"carpentry", []string{"carpent", "wood", "furniture", "cabinet"}},
	{"painting", []string{"paint", "wall", "color"}},
	{"automotive", []string{"car", "auto", "vehicle", "engine"}},
	{"hvac", []string{"ac", "air condition", "cooling"}},
	{"cleaning", []string{"clean", "maid", "janitor"}},
	{"landscaping", []string{"garden", "lawn", "landscape"}},
}

var urgencyRules = []rule{
	{"emergency", []string{"emergency"}},
	{"high", []string{"urgent", "asap", "immediate"}},
	{"medium", []string{"when possible", "soon", "next week"}},
	{"low", []string{"no rush", "when convenient"}},
}

var providerRules = []rule{
	{"company", []string{"large", "major", "commercial", "business", "office"}},
	{"individual", []string{"small", "minor", "quick", "simple"}},
	{"individual", []string{"emergency", "urgent", "asap"}},
	{"company", []string{"warranty", "insurance", "certified", "licensed"}},
}

// Heuristic analyzes requests with fixed word lists. It never fails.
type Heuristic struct{}

// Analyze implements Analyzer.
func (Heuristic) Analyze(_ context.Context, text string) (query.Intent, error) {
	lowered := strings.ToLower(text)

	service := firstMatch(serviceRules, lowered, "other")
	var keywords []string
	if service != "other" {
		keywords = []string{service}
	}

	return query.Intent{
		ServiceType:             service,
		Urgency:                 firstMatch(urgencyRules, lowered, "medium"),
		Description:             strings.TrimSpace(text),
		Keywords:                keywords,
		EstimatedComplexity:     string(query.InferComplexity(text)),
		RecommendedProviderType: firstMatch(providerRules, lowered, "both"),
		ConfidenceScore:         HeuristicConfidence,
	}, nil
}

func firstMatch(rules []rule, text, fallback string) string {
	for _, r := range rules {
		for _, w := range r.words {
			if strings.Contains(text, w) {
				return r.value
			}
		}
	}
	return fallback
}
