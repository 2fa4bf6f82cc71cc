package retrieval

import (
	"context"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// IntentType represents the classified purpose of a user message.
type IntentType string

const (
	IntentGreeting IntentType = "greeting"
	IntentMeta     IntentType = "meta"
	IntentFactual  IntentType = "factual"
	IntentTask     IntentType = "task"
)

// ComplexityLevel estimates how much reasoning/tooling a request needs.
type ComplexityLevel string

const (
	ComplexitySimple  ComplexityLevel = "simple"
	ComplexityMedium  ComplexityLevel = "medium"
	ComplexityComplex ComplexityLevel = "complex"
)

// ClassificationMethod records which strategy produced a result.
type ClassificationMethod string

const (
	MethodPattern  ClassificationMethod = "pattern"
	MethodSemantic ClassificationMethod = "semantic"
	MethodCombined ClassificationMethod = "combined"
)

// ClassificationResult is the full output of message classification.
// A nil SuggestedTools slice means no tool restriction (the all-tools
// sentinel for complex requests); an empty slice means no tools.
type ClassificationResult struct {
	Intent               IntentType           `json:"intent"`
	Confidence           float64              `json:"confidence"`
	Method               ClassificationMethod `json:"method"`
	Complexity           ComplexityLevel      `json:"complexity"`
	ComplexityConfidence float64              `json:"complexity_confidence"`
	SuggestedTools       []string             `json:"suggested_tools,omitempty"`
	SuggestedModel       string               `json:"suggested_model"`
}

type intentPattern struct {
	regex  *regexp.Regexp
	weight float64
}

type intentFamily struct {
	intent   IntentType
	patterns []intentPattern
}

// Intent families are checked in order; the first matching family wins.
// Greeting and meta are the skip categories. No match falls through to
// factual, the safe default: it triggers retrieval instead of silently
// skipping it.
var intentFamilies = []intentFamily{
	{
		intent: IntentGreeting,
		patterns: []intentPattern{
			{regex: regexp.MustCompile(`(?i)^(hi|hey|hello|howdy|yo)\b`), weight: 0.95},
			{regex: regexp.MustCompile(`(?i)^good\s+(morning|afternoon|evening)\b`), weight: 0.95},
			{regex: regexp.MustCompile(`(?i)^(thanks|thank\s+you|thx)\b`), weight: 0.85},
			{regex: regexp.MustCompile(`(?i)^(bye|goodbye|see\s+you|take\s+care)\b`), weight: 0.85},
			{regex: regexp.MustCompile(`(?i)^how\s+are\s+you\b`), weight: 0.9},
		},
	},
	{
		intent: IntentMeta,
		patterns: []intentPattern{
			{regex: regexp.MustCompile(`(?i)\b(who|what)\s+are\s+you\b`), weight: 0.9},
			{regex: regexp.MustCompile(`(?i)\bwhat\s+can\s+you\s+(do|help)\b`), weight: 0.9},
			{regex: regexp.MustCompile(`(?i)\bhow\s+do\s+you\s+work\b`), weight: 0.85},
			{regex: regexp.MustCompile(`(?i)\byour\s+(capabilit|limitation|instruction)`), weight: 0.8},
			{regex: regexp.MustCompile(`(?i)\b(recap|summar\w+)\s+(our|this)\s+(conversation|chat|discussion)\b`), weight: 0.85},
			{regex: regexp.MustCompile(`(?i)\bwhat\s+(did|have)\s+(i|we)\s+(say|said|discuss|discussed|talked?\s+about)\b`), weight: 0.8},
		},
	},
	{
		intent: IntentTask,
		patterns: []intentPattern{
			{regex: regexp.MustCompile(`(?i)^(please\s+)?(draft|write|create|generate|prepare|build|calculate|compute|extract|schedule)\b`), weight: 0.8},
			{regex: regexp.MustCompile(`(?i)\b(put|pull)\s+together\b`), weight: 0.75},
			{regex: regexp.MustCompile(`(?i)^(please\s+)?(run|perform|do)\s+(a|an|the)\b`), weight: 0.75},
		},
	},
}

// Complexity families are checked complex-first; pattern precedence beats the
// word-count fallback, so a one-word "Analyze" is complex.
var complexComplexityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\banaly[sz]e\w*\b|\banalysis\b|\banalyses\b`),
	regexp.MustCompile(`(?i)\bcorrelat\w*\b|\bregression\b`),
	regexp.MustCompile(`(?i)\btrends?\b|\btrending\b`),
	regexp.MustCompile(`(?i)\bforecast\w*\b|\bprojections?\b`),
	regexp.MustCompile(`(?i)\bvaluation\b|\bsensitivit(y|ies)\b|\bscenario\w*\b`),
	regexp.MustCompile(`(?i)\bdeep\s*[- ]?dive\b|\bcomprehensive\b|\bend[- ]to[- ]end\b`),
	regexp.MustCompile(`(?i)\bacross\s+(all|every)\b`),
	regexp.MustCompile(`(?i)\breconcil\w+\b`),
}

var mediumComplexityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcompar\w*\b`),
	regexp.MustCompile(`(?i)\bsummar\w*\b`),
	regexp.MustCompile(`(?i)\blist\b|\benumerate\b`),
	regexp.MustCompile(`(?i)\bdifferences?\b|\bversus\b|\bvs\.?(\s|$)`),
	regexp.MustCompile(`(?i)\boverview\b|\bbreakdown\b|\boutline\b`),
	regexp.MustCompile(`(?i)\bwalk\s+me\s+through\b`),
	regexp.MustCompile(`(?i)\btop\s+\d+\b`),
}

const (
	complexPatternConfidence = 0.85
	mediumPatternConfidence  = 0.75
	wordCountConfidence      = 0.6
	defaultIntentConfidence  = 0.5
)

// Suggested tool sets keyed by complexity. Complex is intentionally absent:
// a nil slice is the "no restriction" sentinel.
var complexityTools = map[ComplexityLevel][]string{
	ComplexitySimple: {},
	ComplexityMedium: {"hybrid_search", "document_lookup"},
}

var complexityModels = map[ComplexityLevel]string{
	ComplexitySimple:  "gpt-4o-mini",
	ComplexityMedium:  "gpt-4o",
	ComplexityComplex: "o1",
}

// ClassifyIntent maps message text to an intent category. It never panics;
// empty or unrecognized input resolves to factual.
func ClassifyIntent(text string) IntentType {
	intent, _ := classifyIntentScored(text)
	return intent
}

func classifyIntentScored(text string) (IntentType, float64) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return IntentFactual, defaultIntentConfidence
	}
	for _, family := range intentFamilies {
		for _, p := range family.patterns {
			if p.regex.MatchString(text) {
				return family.intent, p.weight
			}
		}
	}
	return IntentFactual, defaultIntentConfidence
}

// ClassifyComplexity estimates the reasoning depth of a request. Complex
// patterns are checked before medium patterns; only when neither family
// matches does the word-count fallback apply (<=10 words simple, 11-30
// medium, >30 complex).
func ClassifyComplexity(text string) (ComplexityLevel, float64) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ComplexitySimple, wordCountConfidence
	}
	for _, re := range complexComplexityPatterns {
		if re.MatchString(trimmed) {
			return ComplexityComplex, complexPatternConfidence
		}
	}
	for _, re := range mediumComplexityPatterns {
		if re.MatchString(trimmed) {
			return ComplexityMedium, mediumPatternConfidence
		}
	}
	words := len(strings.Fields(trimmed))
	switch {
	case words <= 10:
		return ComplexitySimple, wordCountConfidence
	case words <= 30:
		return ComplexityMedium, wordCountConfidence
	default:
		return ComplexityComplex, wordCountConfidence
	}
}

// ClassifyIntentWithComplexity composes intent and complexity classification
// and attaches the suggested tool set and model for the complexity tier.
func ClassifyIntentWithComplexity(text string) ClassificationResult {
	intent, confidence := classifyIntentScored(text)
	complexity, complexityConfidence := ClassifyComplexity(text)
	return ClassificationResult{
		Intent:               intent,
		Confidence:           confidence,
		Method:               MethodPattern,
		Complexity:           complexity,
		ComplexityConfidence: complexityConfidence,
		SuggestedTools:       suggestedTools(complexity),
		SuggestedModel:       complexityModels[complexity],
	}
}

func suggestedTools(complexity ComplexityLevel) []string {
	tools, ok := complexityTools[complexity]
	if !ok {
		return nil
	}
	// Copy so callers cannot mutate the shared table.
	out := make([]string, len(tools))
	copy(out, tools)
	return out
}

// ShouldRetrieve decides whether a message warrants knowledge-graph context.
// Base rule: factual and task retrieve, greeting and meta skip. A known
// complexity of medium or complex forces retrieval regardless of intent (a
// greeting followed by an analytical request must still retrieve); complexity
// never forces a skip.
func ShouldRetrieve(intent IntentType, complexity ...ComplexityLevel) bool {
	if len(complexity) > 0 {
		switch complexity[0] {
		case ComplexityMedium, ComplexityComplex:
			return true
		}
	}
	switch intent {
	case IntentFactual, IntentTask:
		return true
	default:
		return false
	}
}

// Classifier is the strategy interface for message classification. The
// pattern implementation never returns an error; the semantic implementation
// surfaces provider failures so a chain can fall back.
type Classifier interface {
	Classify(ctx context.Context, text string) (ClassificationResult, error)
}

// PatternClassifier classifies purely from the regex pattern families.
type PatternClassifier struct{}

func (PatternClassifier) Classify(_ context.Context, text string) (ClassificationResult, error) {
	return ClassifyIntentWithComplexity(text), nil
}

// ChainClassifier tries primary and transparently falls back on error.
type ChainClassifier struct {
	Primary  Classifier
	Fallback Classifier
}

func (c ChainClassifier) Classify(ctx context.Context, text string) (ClassificationResult, error) {
	if c.Primary != nil {
		if result, err := c.Primary.Classify(ctx, text); err == nil {
			return result, nil
		}
	}
	if c.Fallback != nil {
		return c.Fallback.Classify(ctx, text)
	}
	return ClassifyIntentWithComplexity(text), nil
}

// TraceAttributes projects a ClassificationResult into flat span attributes.
// Missing optional fields become zero/false values; it never panics.
func TraceAttributes(result ClassificationResult) []attribute.KeyValue {
	intent := string(result.Intent)
	if intent == "" {
		intent = string(IntentFactual)
	}
	complexity := string(result.Complexity)
	if complexity == "" {
		complexity = string(ComplexitySimple)
	}
	method := string(result.Method)
	if method == "" {
		method = string(MethodPattern)
	}
	allTools := result.SuggestedTools == nil && result.Complexity == ComplexityComplex
	return []attribute.KeyValue{
		attribute.String("classification.intent", intent),
		attribute.Float64("classification.confidence", result.Confidence),
		attribute.String("classification.method", method),
		attribute.String("classification.complexity", complexity),
		attribute.Float64("classification.complexity_confidence", result.ComplexityConfidence),
		attribute.Int("classification.tool_count", len(result.SuggestedTools)),
		attribute.Bool("classification.all_tools", allTools),
		attribute.String("classification.suggested_model", result.SuggestedModel),
	}
}
