package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopconcierge/backend/internal/domain"
	"go.uber.org/zap"
)

const (
	suggestionCacheKeyPrefix = "suggest:"
	maxSuggestions           = 5
	suggestionTermsPerGroup  = 3
	maxAlternativeTerms      = 3
	defaultSuggestionTTL     = 24 * time.Hour
)

// suggestionCategories is checked in order; the first category mentioned in the query wins
var suggestionCategories = []struct {
	name  string
	terms []string
}{
	{"electronics", []string{"phone", "laptop", "computer", "tablet", "headphones", "speaker"}},
	{"clothing", []string{"shirt", "pants", "dress", "shoes", "jacket", "hat"}},
	{"home", []string{"furniture", "decor", "kitchen", "bedroom", "living room"}},
	{"books", []string{"novel", "textbook", "fiction", "non-fiction", "manual"}},
	{"sports", []string{"equipment", "gear", "fitness", "outdoor", "exercise"}},
}

// alternativeTerms maps a product keyword to broader search terms
var alternativeTerms = map[string][]string{
	"shoes":  {"footwear", "sneakers", "boots"},
	"shirt":  {"tops", "clothing", "apparel"},
	"pants":  {"bottoms", "trousers", "clothing"},
	"laptop": {"computer", "electronics", "technology"},
}

// SuggestionService proposes related searches. Results are memoized in the cache repository.
type SuggestionService struct {
	cache  domain.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewSuggestionService creates a suggestion service. cache may be nil to disable memoization.
func NewSuggestionService(cache domain.CacheRepository, ttl time.Duration, logger *zap.Logger) *SuggestionService {
	if ttl <= 0 {
		ttl = defaultSuggestionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionService{cache: cache, ttl: ttl, logger: logger}
}

// Suggest returns up to five "<category> <term>" suggestions for query
func (s *SuggestionService) Suggest(ctx context.Context, query string) []string {
	key := suggestionCacheKeyPrefix + strings.ToLower(strings.TrimSpace(query))

	if cached, ok := s.cached(ctx, key); ok {
		return cached
	}

	suggestions := categorySuggestions(query)

	if s.cache != nil {
		encoded, err := json.Marshal(suggestions)
		if err == nil {
			err = s.cache.Set(ctx, key, string(encoded), s.ttl)
		}
		if err != nil {
			s.logger.Warn("failed to cache suggestions", zap.String("key", key), zap.Error(err))
		}
	}

	return suggestions
}

func (s *SuggestionService) cached(ctx context.Context, key string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("suggestion cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var suggestions []string
	if err := decodeCached(value, &suggestions); err != nil {
		s.logger.Warn("discarding malformed cached suggestions", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return suggestions, true
}

// decodeCached accepts the JSON text written by Suggest
func decodeCached(value interface{}, out interface{}) error {
	text, ok := value.(string)
	if !ok {
		return fmt.Errorf("unexpected cached type %T", value)
	}
	return json.Unmarshal([]byte(text), out)
}

func categorySuggestions(query string) []string {
	queryLower := strings.ToLower(query)
	suggestions := []string{}

	for _, category := range suggestionCategories {
		if !containsAny(queryLower, category.terms) {
			continue
		}
		for _, term := range category.terms[:suggestionTermsPerGroup] {
			suggestions = append(suggestions, category.name+" "+term)
		}
		break
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

// AlternativeSearchTerms proposes broader searches for terms that found nothing
func AlternativeSearchTerms(terms string, entities domain.ExtractedEntities) []string {
	var alternatives []string
	for _, keyword := range entities.ProductTypes {
		alternatives = append(alternatives, alternativeTerms[keyword]...)
	}

	// a long query may be too specific; offer its first word
	if words := strings.Fields(terms); len(words) > 2 {
		alternatives = append(alternatives, words[0])
	}

	if len(alternatives) > maxAlternativeTerms {
		alternatives = alternatives[:maxAlternativeTerms]
	}
	return alternatives
}
