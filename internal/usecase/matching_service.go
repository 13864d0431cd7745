package usecase

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/shopconcierge/backend/internal/domain"
	"go.uber.org/zap"
)

// Word-overlap credit per query word
const (
	wordExactCredit    = 1.0 // word appears anywhere in the product text
	wordPartialCredit  = 0.7 // word is inside a longer product token
	wordContainsCredit = 0.5 // a product token is inside the word
	wordOverlapDamping = 0.9 // overlap never outranks an equally strong lexical match
	minWordLength      = 3
)

// nameSubstringFloor is the minimum score of a product whose name contains the query
const nameSubstringFloor = 0.8

// MatchStrategy names one weighting of the fuzzy matcher
type MatchStrategy struct {
	Name             string
	DefaultThreshold float64
	CategoryBoost    float64 // 0 disables the category signal
}

var (
	// StrategyBasic is the conversational matcher: stricter threshold, no category signal
	StrategyBasic = MatchStrategy{Name: "basic", DefaultThreshold: 0.6}

	// StrategyEnhanced is the catalog-facing matcher used by live search
	StrategyEnhanced = MatchStrategy{Name: "enhanced", DefaultThreshold: 0.4, CategoryBoost: 0.8}
)

// ParseMatchStrategy returns the strategy with the given name, defaulting to StrategyEnhanced
func ParseMatchStrategy(name string) MatchStrategy {
	if strings.EqualFold(name, StrategyBasic.Name) {
		return StrategyBasic
	}
	return StrategyEnhanced
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	Strategy           MatchStrategy
	EnableDebugLogging bool
}

// Matcher ranks a catalog snapshot against a free-text query
type Matcher struct {
	strategy           MatchStrategy
	enableDebugLogging bool
	logger             *zap.Logger
}

// NewMatcher creates a matcher. A zero Strategy means StrategyEnhanced.
func NewMatcher(config MatchConfig, logger *zap.Logger) *Matcher {
	strategy := config.Strategy
	if strategy.Name == "" {
		strategy = StrategyEnhanced
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		strategy:           strategy,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger,
	}
}

// Strategy returns the weighting this matcher applies
func (m *Matcher) Strategy() MatchStrategy {
	return m.strategy
}

// scoredProduct never leaves the matcher
type scoredProduct struct {
	product domain.Product
	score   float64
}

// Match returns the products scoring at least threshold, best first.
// Ties keep catalog order. A negative threshold selects the strategy default.
func (m *Matcher) Match(query string, products []domain.Product, threshold float64) []domain.Product {
	if threshold < 0 {
		threshold = m.strategy.DefaultThreshold
	}

	variants := LexicalVariants(strings.ToLower(strings.TrimSpace(query)))
	queryWords := tokenizeVariants(variants)

	scored := make([]scoredProduct, 0, len(products))
	for _, product := range products {
		score := m.score(variants, queryWords, product)

		if m.enableDebugLogging {
			m.logger.Debug("match score",
				zap.String("query", query),
				zap.String("product", product.Name),
				zap.Float64("score", score))
		}

		if score >= threshold {
			scored = append(scored, scoredProduct{product: product, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	matched := make([]domain.Product, len(scored))
	for i, sp := range scored {
		matched[i] = sp.product
	}
	return matched
}

// score is the maximum of every signal for one product
func (m *Matcher) score(variants, queryWords []string, product domain.Product) float64 {
	nameLower := strings.ToLower(product.Name)
	descLower := strings.ToLower(product.Description)
	categoriesLower := strings.ToLower(strings.Join(product.Categories, " "))

	final := 0.0
	for _, variant := range variants {
		final = max(final,
			sequenceRatio(variant, nameLower),
			sequenceRatio(variant, descLower),
			sequenceRatio(variant, categoriesLower))
	}

	searchable := nameLower + " " + descLower + " " + categoriesLower
	final = max(final, wordOverlap(queryWords, searchable)*wordOverlapDamping)

	if m.strategy.CategoryBoost > 0 && categoryOverlaps(variants, product.Categories) {
		final = max(final, m.strategy.CategoryBoost)
	}

	for _, variant := range variants {
		if variant != "" && strings.Contains(nameLower, variant) {
			final = max(final, nameSubstringFloor)
			break
		}
	}

	return final
}

// sequenceRatio is the Ratcliff/Obershelp similarity of two strings in [0,1]
func sequenceRatio(a, b string) float64 {
	matcher := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return matcher.Ratio()
}

// wordOverlap credits each query word by how closely it appears in the searchable text.
// Partial credit only applies to words the text does not already contain.
func wordOverlap(queryWords []string, searchable string) float64 {
	if len(queryWords) == 0 {
		return 0
	}

	var longTokens []string
	for _, token := range strings.Fields(searchable) {
		if len(token) >= minWordLength {
			longTokens = append(longTokens, token)
		}
	}

	total := 0.0
	for _, word := range queryWords {
		switch {
		case strings.Contains(searchable, word):
			total += wordExactCredit
		case anyToken(longTokens, func(token string) bool { return strings.Contains(token, word) }):
			total += wordPartialCredit
		case anyToken(longTokens, func(token string) bool { return strings.Contains(word, token) }):
			total += wordContainsCredit
		}
	}

	return total / float64(len(queryWords))
}

func anyToken(tokens []string, pred func(string) bool) bool {
	for _, token := range tokens {
		if pred(token) {
			return true
		}
	}
	return false
}

func categoryOverlaps(variants, categories []string) bool {
	for _, category := range categories {
		categoryLower := strings.ToLower(category)
		if categoryLower == "" {
			continue
		}
		for _, variant := range variants {
			if variant == "" {
				continue
			}
			if strings.Contains(categoryLower, variant) || strings.Contains(variant, categoryLower) {
				return true
			}
		}
	}
	return false
}

// nameMatchShare is the fraction of a product name's words that must appear in a message
const nameMatchShare = 0.7

// BestProductMatch picks the product a message refers to among ranked results.
// A product whose name is mentioned (or most of whose name words are) wins; otherwise the first result.
func BestProductMatch(message string, products []domain.Product) (domain.Product, bool) {
	if len(products) == 0 {
		return domain.Product{}, false
	}

	messageLower := strings.ToLower(message)
	for _, product := range products {
		nameLower := strings.ToLower(product.Name)
		if len(nameLower) <= 3 {
			continue
		}
		if strings.Contains(messageLower, nameLower) {
			return product, true
		}

		var nameWords []string
		for _, word := range strings.Fields(nameLower) {
			if len(word) > 2 {
				nameWords = append(nameWords, word)
			}
		}
		if len(nameWords) == 0 {
			continue
		}

		matches := 0
		for _, word := range nameWords {
			if strings.Contains(messageLower, word) {
				matches++
			}
		}
		if float64(matches) >= float64(len(nameWords))*nameMatchShare {
			return product, true
		}
	}

	return products[0], true
}

var cartCommandWords = map[string]bool{
	"add": true, "to": true, "cart": true, "buy": true, "purchase": true, "get": true, "take": true,
}

const (
	nameSubstringScore = 0.9
	minNameMatchScore  = 0.3
)

// MatchProductByName finds the product whose name best matches a cart command such as "add sunglasses to cart"
func MatchProductByName(message string, products []domain.Product) (domain.Product, bool) {
	var words []string
	for _, word := range strings.Fields(strings.ToLower(message)) {
		if !cartCommandWords[word] && len(word) > 2 {
			words = append(words, word)
		}
	}
	if len(words) == 0 {
		return domain.Product{}, false
	}
	searchText := strings.Join(words, " ")

	wordSet := make(map[string]bool, len(words))
	for _, word := range words {
		wordSet[word] = true
	}

	var best domain.Product
	bestScore := 0.0
	found := false

	for _, product := range products {
		nameLower := strings.ToLower(product.Name)

		score := 0.0
		if nameLower != "" && (strings.Contains(nameLower, searchText) || strings.Contains(searchText, nameLower)) {
			score = nameSubstringScore
		} else {
			nameWords := strings.Fields(nameLower)
			common := 0
			seen := make(map[string]bool, len(nameWords))
			for _, word := range nameWords {
				if wordSet[word] && !seen[word] {
					common++
					seen[word] = true
				}
			}
			if common > 0 {
				score = float64(common) / float64(max(len(wordSet), len(nameWords)))
			}
		}

		if score > bestScore && score > minNameMatchScore {
			best = product
			bestScore = score
			found = true
		}
	}

	return best, found
}
