package usecase

import (
	"context"
	"errors"
	"math"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopconcierge/backend/internal/domain"
	"go.uber.org/zap"
)

// DefaultIntentSimilarityThreshold is the minimum cosine similarity for the embedding fallback
const DefaultIntentSimilarityThreshold = 0.3

// phraseRetryBackoff is how long a failed phrase-set embedding is remembered before retrying
const phraseRetryBackoff = 30 * time.Second

// intentRule maps one intent to its trigger phrases
type intentRule struct {
	intent  domain.Intent
	phrases []string
}

// intentRules is evaluated top to bottom and the first rule with a matching phrase wins.
// The order is part of the classifier's behavior on ambiguous input; do not reorder.
var intentRules = []intentRule{
	// Clearing goes first: "clear my cart, i want new shoes" must not read as a search or a cart view.
	{domain.IntentClearCart, []string{
		"empty my cart", "empty cart", "empty the cart", "clear my cart", "clear cart",
		"clear the cart", "remove everything from",
	}},
	{domain.IntentSearch, []string{
		"find", "search", "look for", "show me", "get me", "i need", "i want",
		"looking for", "searching for", "where can i find", "do you have",
	}},
	{domain.IntentViewCart, []string{
		"cart", "basket", "my items", "what do i have", "show cart",
		"view cart", "check cart", "my bag",
	}},
	{domain.IntentAddToCart, []string{
		"add to cart", "buy", "purchase", "get this", "i'll take",
		"put in cart", "add this", "buy this",
	}},
	{domain.IntentRecommend, []string{
		"recommend", "suggest", "what should i buy", "surprise me",
		"what's good", "what's popular", "best sellers", "top rated",
	}},
	{domain.IntentHelp, []string{
		"help", "what can you do", "how does this work", "instructions",
		"commands", "options", "what are my choices",
	}},
}

// Classifier maps raw text to an intent
type Classifier interface {
	Classify(ctx context.Context, text string) domain.Intent
}

// RuleClassifier classifies with the keyword rule table only
type RuleClassifier struct{}

// NewRuleClassifier creates a keyword-only classifier
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify returns the first intent whose phrases occur in text, or IntentSearch
func (c *RuleClassifier) Classify(_ context.Context, text string) domain.Intent {
	if intent, ok := matchIntentRules(text); ok {
		return intent
	}
	return domain.IntentSearch
}

func matchIntentRules(text string) (domain.Intent, bool) {
	textLower := strings.ToLower(text)
	for _, rule := range intentRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(textLower, phrase) {
				return rule.intent, true
			}
		}
	}
	return "", false
}

// SemanticClassifier runs the rule table first and falls back to embedding similarity
// against each intent's phrase set. Phrase embeddings are computed once and reused.
type SemanticClassifier struct {
	embedder  domain.Embedder
	threshold float64
	logger    *zap.Logger

	mu            sync.Mutex
	phraseVectors map[domain.Intent][][]float32
	phraseErr     error
	retryAt       time.Time
	now           func() time.Time
}

// NewSemanticClassifier creates an embedding-backed classifier
func NewSemanticClassifier(embedder domain.Embedder, threshold float64, logger *zap.Logger) *SemanticClassifier {
	if threshold <= 0 {
		threshold = DefaultIntentSimilarityThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemanticClassifier{
		embedder:  embedder,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

// Classify never fails; embedding errors are logged and treated as "no match"
func (c *SemanticClassifier) Classify(ctx context.Context, text string) domain.Intent {
	if intent, ok := matchIntentRules(text); ok {
		return intent
	}

	intent, err := c.classifyByEmbedding(ctx, text)
	if err != nil {
		c.logger.Warn("semantic intent classification failed", zap.Error(err))
		return domain.IntentSearch
	}
	return intent
}

func (c *SemanticClassifier) classifyByEmbedding(ctx context.Context, text string) (domain.Intent, error) {
	phraseVectors, err := c.loadPhraseVectors(ctx)
	if err != nil {
		return "", err
	}

	queryVectors, err := c.embedder.Embed(ctx, []string{text})
	if err != nil {
		return "", err
	}
	if len(queryVectors) == 0 {
		return "", errors.New("no query embedding returned")
	}
	query := queryVectors[0]

	bestIntent := domain.IntentSearch
	bestScore := 0.0

	// iterate in rule order so ties resolve the same way as the keyword table
	for _, rule := range intentRules {
		for _, vector := range phraseVectors[rule.intent] {
			score := cosineSimilarity(query, vector)
			if score > bestScore {
				bestScore = score
				bestIntent = rule.intent
			}
		}
	}

	if bestScore > c.threshold {
		return bestIntent, nil
	}
	return domain.IntentSearch, nil
}

// loadPhraseVectors embeds every phrase set once. After a failure it returns the
// same error without calling the embedder until phraseRetryBackoff has passed.
func (c *SemanticClassifier) loadPhraseVectors(ctx context.Context) (map[domain.Intent][][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phraseVectors != nil {
		return c.phraseVectors, nil
	}
	if c.phraseErr != nil && c.now().Before(c.retryAt) {
		return nil, c.phraseErr
	}

	vectors := make(map[domain.Intent][][]float32, len(intentRules))
	for _, rule := range intentRules {
		embedded, err := c.embedder.Embed(ctx, rule.phrases)
		if err != nil {
			c.phraseErr = fmt.Errorf("embed %s phrases: %w", rule.intent, err)
			c.retryAt = c.now().Add(phraseRetryBackoff)
			return nil, c.phraseErr
		}
		vectors[rule.intent] = embedded
	}

	c.phraseVectors = vectors
	c.phraseErr = nil
	return vectors, nil
}

// cosineSimilarity returns 0 for mismatched or zero-magnitude vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, aMag, bMag float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}

	if aMag == 0 || bMag == 0 {
		return 0
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag))
}
