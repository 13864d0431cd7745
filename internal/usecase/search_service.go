package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopconcierge/backend/internal/domain"
	"go.uber.org/zap"
)

// Search tuning
const (
	minBackendResults          = 3
	maxSearchResults           = 15
	recommendationThreshold    = 0.3
	recommendationFallbackSize = 5
	maxRecommendations         = 8
	enhancementCandidates      = 50
	enhancementTopProducts     = 3
	enhancementMinSimilarity   = 0.2
	enhancementNameWords       = 2
)

// QueryEnhancer rewrites a query before it reaches the catalog and reorders the results after
type QueryEnhancer interface {
	// Semantic reports whether the enhancer uses embeddings
	Semantic() bool
	Enhance(ctx context.Context, query string, products []domain.Product) string
	Rerank(ctx context.Context, query string, products []domain.Product) []domain.Product
}

// RuleQueryEnhancer only normalizes the query
type RuleQueryEnhancer struct{}

func (RuleQueryEnhancer) Semantic() bool { return false }

func (RuleQueryEnhancer) Enhance(_ context.Context, query string, _ []domain.Product) string {
	return Normalize(query)
}

func (RuleQueryEnhancer) Rerank(_ context.Context, _ string, products []domain.Product) []domain.Product {
	return products
}

// SemanticQueryEnhancer widens a query with name words of the most similar products
// and re-ranks results by embedding similarity. Failures leave the input unchanged.
type SemanticQueryEnhancer struct {
	embedder domain.Embedder
	logger   *zap.Logger
}

// NewSemanticQueryEnhancer creates an embedding-backed enhancer
func NewSemanticQueryEnhancer(embedder domain.Embedder, logger *zap.Logger) *SemanticQueryEnhancer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemanticQueryEnhancer{embedder: embedder, logger: logger}
}

func (e *SemanticQueryEnhancer) Semantic() bool { return true }

// Enhance returns the original query followed by the leading name words of up to three similar products
func (e *SemanticQueryEnhancer) Enhance(ctx context.Context, query string, products []domain.Product) string {
	processed := Normalize(query)
	if len(products) == 0 {
		return processed
	}

	candidates := firstProducts(products, enhancementCandidates)
	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, query)
	for _, p := range candidates {
		texts = append(texts, strings.TrimSpace(p.Name+" "+p.Description+" "+strings.Join(p.Categories, " ")))
	}

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		e.logger.Warn("query enhancement failed", zap.String("query", query), zap.Error(err))
		return processed
	}

	scored := make([]scoredProduct, len(candidates))
	for i, p := range candidates {
		scored[i] = scoredProduct{product: p, score: cosineSimilarity(vectors[0], vectors[i+1])}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	terms := []string{query}
	for _, sp := range scored[:min(enhancementTopProducts, len(scored))] {
		if sp.score <= enhancementMinSimilarity {
			continue
		}
		words := strings.Fields(strings.ToLower(sp.product.Name))
		terms = append(terms, words[:min(enhancementNameWords, len(words))]...)
	}

	return strings.Join(dedupe(terms), " ")
}

// Rerank orders products by embedding similarity to the query, keeping order on ties
func (e *SemanticQueryEnhancer) Rerank(ctx context.Context, query string, products []domain.Product) []domain.Product {
	if len(products) == 0 {
		return products
	}

	texts := make([]string, 0, len(products)+1)
	texts = append(texts, query)
	for _, p := range products {
		text := strings.TrimSpace(p.Name + " " + p.Description)
		if text == "" {
			text = p.Name
		}
		texts = append(texts, text)
	}

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		e.logger.Warn("semantic scoring failed", zap.String("query", query), zap.Error(err))
		return products
	}

	scored := make([]scoredProduct, len(products))
	for i, p := range products {
		scored[i] = scoredProduct{product: p, score: cosineSimilarity(vectors[0], vectors[i+1])}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	reranked := make([]domain.Product, len(scored))
	for i, sp := range scored {
		reranked[i] = sp.product
	}
	return reranked
}

// SearchService combines the catalog's own search with fuzzy matching over a catalog snapshot.
// Live search and recommendations always rank with StrategyEnhanced; the configured
// strategy only ranks snapshots on behalf of a conversation.
type SearchService struct {
	catalog        domain.CatalogService
	live           *Matcher
	conversational *Matcher
	enhancer       QueryEnhancer
	logger         *zap.Logger
}

// NewSearchService creates a search service. enhancer may be nil for rule-only behavior.
func NewSearchService(catalog domain.CatalogService, match MatchConfig, enhancer QueryEnhancer, logger *zap.Logger) *SearchService {
	if enhancer == nil {
		enhancer = RuleQueryEnhancer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	live := NewMatcher(MatchConfig{
		Strategy:           StrategyEnhanced,
		EnableDebugLogging: match.EnableDebugLogging,
	}, logger)
	return &SearchService{
		catalog:        catalog,
		live:           live,
		conversational: NewMatcher(match, logger),
		enhancer:       enhancer,
		logger:         logger,
	}
}

// Semantic reports whether searches are embedding-enhanced
func (s *SearchService) Semantic() bool {
	return s.enhancer.Semantic()
}

// Search returns up to 15 products for query. When the backend finds fewer than three,
// the result is topped up by fuzzy matching one catalog snapshot.
func (s *SearchService) Search(ctx context.Context, query string, enhanced bool) ([]domain.Product, error) {
	enhanced = enhanced && s.enhancer.Semantic()

	var snapshot []domain.Product
	snapshotLoaded := false
	loadSnapshot := func() []domain.Product {
		if snapshotLoaded {
			return snapshot
		}
		snapshotLoaded = true
		products, err := s.catalog.ListProducts(ctx)
		if err != nil {
			s.logger.Warn("catalog snapshot unavailable", zap.Error(err))
			return nil
		}
		snapshot = products
		return snapshot
	}

	searchQuery := query
	if enhanced {
		searchQuery = s.enhancer.Enhance(ctx, query, loadSnapshot())
		s.logger.Info("enhanced query", zap.String("query", query), zap.String("enhanced", searchQuery))
	}

	results, err := s.catalog.SearchProducts(ctx, searchQuery)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	if len(results) < minBackendResults {
		s.logger.Info("backend search returned few results, adding fuzzy matches",
			zap.String("query", query), zap.Int("count", len(results)))

		if products := loadSnapshot(); len(products) > 0 {
			fuzzy := s.live.Match(CleanSearchQuery(query), products, -1)
			results = mergeProducts(results, fuzzy)
		}
	}

	results = firstProducts(results, maxSearchResults)

	if enhanced {
		results = s.enhancer.Rerank(ctx, query, results)
	}

	return results, nil
}

// RecommendByQuery ranks the catalog against query with a relaxed threshold.
// Without any match the first few products are offered instead.
func (s *SearchService) RecommendByQuery(ctx context.Context, query string) ([]domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	matched := s.live.Match(query, products, recommendationThreshold)
	if len(matched) == 0 {
		matched = firstProducts(products, recommendationFallbackSize)
	}

	return firstProducts(matched, maxRecommendations), nil
}

// MatchSnapshot ranks an already fetched catalog snapshot with the configured strategy
func (s *SearchService) MatchSnapshot(query string, products []domain.Product) []domain.Product {
	if strings.TrimSpace(query) == "" || len(products) == 0 {
		return nil
	}
	return s.conversational.Match(query, products, -1)
}

// mergeProducts appends extra to base, skipping ids already present
func mergeProducts(base, extra []domain.Product) []domain.Product {
	seen := make(map[string]bool, len(base)+len(extra))
	merged := make([]domain.Product, 0, len(base)+len(extra))
	for _, list := range [][]domain.Product{base, extra} {
		for _, p := range list {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			merged = append(merged, p)
		}
	}
	return merged
}
