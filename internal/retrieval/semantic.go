package retrieval

import (
	"context"
	"errors"
	"math"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dealscope/diligence-ai-platform/pkg/logging"
)

type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, request openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Prototype phrases per intent. Embedded once, lazily, on first use; each
// intent's centroid is the mean of its prototype vectors.
var intentPrototypes = []struct {
	intent  IntentType
	phrases []string
}{
	{IntentGreeting, []string{
		"hi there",
		"hello, good morning",
		"thanks so much, talk later",
	}},
	{IntentMeta, []string{
		"what can you help me with",
		"who are you and how do you work",
		"recap what we have discussed so far",
	}},
	{IntentFactual, []string{
		"what was the target's revenue last quarter",
		"who are the company's top five customers",
		"when does the exclusivity period end",
	}},
	{IntentTask, []string{
		"draft a summary memo of the diligence findings",
		"analyze the margin trend across the last eight quarters",
		"prepare a comparison of the two earn-out structures",
	}},
}

// semanticMatchThreshold is the minimum cosine similarity against the best
// centroid for the semantic answer to stand on its own. Below it the pattern
// intent wins and the result is recorded as combined.
const semanticMatchThreshold = 0.5

// SemanticClassifier upgrades intent classification with embeddings when a
// provider is configured. Complexity always comes from the pattern families.
type SemanticClassifier struct {
	client embeddingClient
	model  string
	logger *logging.Logger

	mu        sync.Mutex
	centroids map[IntentType][]float32
}

// NewSemanticClassifier creates an embedding-backed classifier.
func NewSemanticClassifier(client embeddingClient, model string, logger *logging.Logger) *SemanticClassifier {
	if client == nil {
		panic("retrieval: embedding client cannot be nil")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SemanticClassifier{
		client: client,
		model:  model,
		logger: logger,
	}
}

// Classify embeds the message and picks the nearest intent centroid. Provider
// failures are returned as errors so a ChainClassifier can fall back to the
// pattern path.
func (c *SemanticClassifier) Classify(ctx context.Context, text string) (ClassificationResult, error) {
	result := ClassifyIntentWithComplexity(text)

	if err := c.ensureCentroids(ctx); err != nil {
		return ClassificationResult{}, err
	}

	resp, err := c.client.CreateEmbeddings(ctx, &openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: []string{text},
	})
	if err != nil {
		return ClassificationResult{}, err
	}
	if len(resp.Data) == 0 {
		return ClassificationResult{}, errors.New("retrieval: empty embedding response")
	}
	vec := resp.Data[0].Embedding

	bestIntent := result.Intent
	bestScore := -1.0
	c.mu.Lock()
	for intent, centroid := range c.centroids {
		if score := cosineSimilarity(vec, centroid); score > bestScore {
			bestScore = score
			bestIntent = intent
		}
	}
	c.mu.Unlock()

	if bestScore >= semanticMatchThreshold {
		result.Intent = bestIntent
		result.Confidence = clamp01(bestScore)
		result.Method = MethodSemantic
	} else {
		// Both strategies consulted; the pattern intent stands.
		result.Method = MethodCombined
	}
	return result, nil
}

func (c *SemanticClassifier) ensureCentroids(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.centroids != nil {
		return nil
	}

	var inputs []string
	for _, proto := range intentPrototypes {
		inputs = append(inputs, proto.phrases...)
	}

	resp, err := c.client.CreateEmbeddings(ctx, &openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: inputs,
	})
	if err != nil {
		return err
	}
	if len(resp.Data) != len(inputs) {
		return errors.New("retrieval: embedding response size mismatch")
	}

	centroids := make(map[IntentType][]float32, len(intentPrototypes))
	i := 0
	for _, proto := range intentPrototypes {
		vectors := make([][]float32, 0, len(proto.phrases))
		for range proto.phrases {
			vectors = append(vectors, resp.Data[i].Embedding)
			i++
		}
		centroids[proto.intent] = meanVector(vectors)
	}
	c.centroids = centroids
	return nil
}

func meanVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float32, len(vectors[0]))
	for _, vec := range vectors {
		for i := range vec {
			if i < len(out) {
				out[i] += vec[i]
			}
		}
	}
	n := float32(len(vectors))
	for i := range out {
		out[i] /= n
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	var normA float64
	var normB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
