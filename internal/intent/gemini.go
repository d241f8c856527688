package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/logging"
	"github.com/agentstation/servicemap/pkg/query"
)

// Gemini defaults.
const (
	DefaultModel       = "gemini-2.0-flash-001"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 1024
)

const systemPrompt = "You are a distributed service request analyzer. " +
	"Determine the best provider type and search strategy. " +
	"Respond in valid JSON format only."

const promptTemplate = `Analyze this service request and determine the best search strategy across distributed databases:

User Query: %q

The system has two types of providers:
1. Companies (primary catalog) - professional service companies with multiple workers
2. Individual workers (secondary catalog) - self-employed professionals and freelancers

Provide analysis in JSON format:
{
  "service_type": "plumbing/electrical/carpentry/painting/automotive/hvac/cleaning/landscaping/security/other",
  "urgency": "low/medium/high/emergency",
  "description": "brief description of the issue",
  "keywords": ["keyword1", "keyword2"],
  "estimated_complexity": "simple/moderate/complex",
  "location_preference": "if mentioned",
  "recommended_provider_type": "company/individual/both",
  "confidence_score": 0.85
}`

// generator is the part of the GenAI client Gemini calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini analyzes requests with a Gemini model and falls back to Heuristic
// when the model is unreachable or answers with something unparseable.
type Gemini struct {
	models   generator
	model    string
	fallback Analyzer
}

// GeminiOption configures a Gemini analyzer.
type GeminiOption func(*Gemini)

// WithModel overrides the model name.
func WithModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithFallback overrides the analyzer used when the model fails.
func WithFallback(a Analyzer) GeminiOption {
	return func(g *Gemini) {
		if a != nil {
			g.fallback = a
		}
	}
}

// NewGemini creates a Gemini analyzer using the Gemini API with apiKey.
func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, &errors.AuthenticationError{
			Provider: "gemini",
			Method:   "api-key",
			Message:  "API key required for Gemini intent analysis",
		}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, errors.NewConfigError("intent", "create genai client", err)
	}
	return newGemini(client.Models, opts...), nil
}

func newGemini(models generator, opts ...GeminiOption) *Gemini {
	g := &Gemini{models: models, model: DefaultModel, fallback: Heuristic{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Analyze implements Analyzer. It only returns an error when the fallback
// analyzer does.
func (g *Gemini) Analyze(ctx context.Context, text string) (query.Intent, error) {
	intent, err := g.generate(ctx, text)
	if err == nil {
		return intent, nil
	}

	logging.FromContext(ctx).Warn().
		Err(err).
		Str("model", g.model).
		Msg("Intent analysis failed, using heuristic fallback")
	return g.fallback.Analyze(ctx, text)
}

func (g *Gemini) generate(ctx context.Context, text string) (query.Intent, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](DefaultTemperature),
		MaxOutputTokens:   DefaultMaxTokens,
		ResponseMIMEType:  "application/json",
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(fmt.Sprintf(promptTemplate, text)), config)
	if err != nil {
		return query.Intent{}, errors.WrapAPI("gemini", 0, err)
	}
	if resp == nil {
		return query.Intent{}, errors.NewAPIError("gemini", 0, "empty response")
	}
	return ParseIntent(resp.Text())
}

// ParseIntent decodes a model answer into an Intent. Markdown code fences and
// text around the outermost JSON object are ignored.
func ParseIntent(answer string) (query.Intent, error) {
	body := stripFences(answer)
	start, end := strings.Index(body, "{"), strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return query.Intent{}, errors.NewParseError("json", "intent", "no JSON object in answer", nil)
	}

	var intent query.Intent
	if err := json.Unmarshal([]byte(body[start:end+1]), &intent); err != nil {
		return query.Intent{}, errors.WrapParse("json", "intent", err)
	}
	return intent, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
