package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopconcierge/backend/internal/domain"
)

// Each extractor below is an ordered list of independent matchers; the first one that
// produces a value wins. Keep the declared order, it decides ambiguous input.

// productIDPatterns: labelled id, backtick-delimited token, bare token
var productIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:id|product)\s*:?\s*([A-Z0-9_-]{8,15})`),
	regexp.MustCompile("(?i)`([A-Z0-9_-]{8,15})`"),
	regexp.MustCompile(`(?i)\b([A-Z0-9_-]{8,15})\b`),
}

// productIDDenylist holds category words that fit the id pattern but are never ids
var productIDDenylist = map[string]bool{
	"mug": true, "shirt": true, "shoes": true, "watch": true, "bag": true,
	"pants": true, "dress": true, "tank": true, "tops": true,
}

const minProductIDLength = 8

// ExtractProductID returns a catalog id mentioned in text
func ExtractProductID(text string) (string, bool) {
	for _, pattern := range productIDPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			if isPlausibleProductID(match[1]) {
				return match[1], true
			}
		}
	}
	return "", false
}

func isPlausibleProductID(candidate string) bool {
	if len(candidate) < minProductIDLength {
		return false
	}
	if productIDDenylist[strings.ToLower(candidate)] {
		return false
	}
	for _, r := range candidate {
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

var quantityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:buy|add|get|purchase)\s+(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s+(?:of|items?|pieces?)`),
	regexp.MustCompile(`(?i)quantity\s*:?\s*(\d+)`),
}

// ExtractQuantity returns the requested quantity, at least 1, defaulting to 1
func ExtractQuantity(text string) int32 {
	for _, pattern := range quantityPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		quantity, err := strconv.ParseInt(match[1], 10, 32)
		if err != nil {
			continue
		}
		return int32(max(1, quantity))
	}
	return 1
}

var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)under\s*\$?(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)below\s*\$?(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)less than\s*\$?(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)budget\s*:?\s*\$?(\d+(?:\.\d{2})?)`),
}

// ExtractBudget returns the spending ceiling mentioned in text
func ExtractBudget(text string) (float64, bool) {
	for _, pattern := range budgetPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		budget, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		return budget, true
	}
	return 0, false
}

var cartAddPhrases = []string{
	"add to cart", "add this to cart", "add it to cart", "add that to cart",
	"buy this", "buy that", "buy it", "purchase this", "purchase that",
	"get this", "get that", "i want this", "i want that", "i'll take it",
	"i'll take this", "i'll take that", "put in cart", "add to my cart",
	"i need", "i want", "looking for", "need some", "want some",
	"find me", "get me", "i'd like", "i require", "shopping for",
	"for work", "for meeting", "for office", "for business", "for running",
	"for gym", "for exercise", "for jogging", "for walking", "for casual",
	"for weekend", "for formal", "for interview", "for presentation",
}

var cartAddPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\badd\s+\w+.*?to\s+cart\b`),
	regexp.MustCompile(`\badd\s+.*?to\s+my\s+cart\b`),
}

// cartProductTypes are the product words that turn a short message into a purchase request
var cartProductTypes = []string{"shoes", "shirt", "pants", "dress", "jacket", "watch", "bag", "headphones"}

const shortRequestWords = 8

// DetectCartAddIntent is a more permissive purchase signal than the intent classifier.
// It is only consulted by the generative flow before it asks the model for an answer.
func DetectCartAddIntent(text string) bool {
	textLower := strings.ToLower(text)

	if containsAny(textLower, cartAddPhrases) {
		return true
	}

	for _, pattern := range cartAddPatterns {
		if pattern.MatchString(textLower) {
			return true
		}
	}

	return containsAny(textLower, cartProductTypes) && len(strings.Fields(text)) <= shortRequestWords
}

var addAllPhrases = []string{
	"add all", "add all products", "add all items", "add everything",
	"add all to cart", "add all products to cart", "add all items to cart",
	"buy all", "purchase all", "get all", "take all",
}

// IsAddAllCommand reports whether the user asks to add every listed product
func IsAddAllCommand(text string) bool {
	return containsAny(strings.ToLower(text), addAllPhrases)
}

var searchBoilerplate = []string{
	"search for", "find", "look for", "show me", "get me",
	"i need", "i want", "looking for", "searching for",
	"where can i find", "do you have", "can you find",
}

var cartBoilerplate = []string{
	"add to cart", "add to my cart", "add this to cart", "add that to cart",
	"buy this", "buy that", "purchase this", "purchase that",
	"put in cart", "add", "to cart", "to my cart", "buy", "purchase",
	"i'll take", "get this", "get that",
}

var (
	searchBoilerplatePatterns = compileWordPatterns(searchBoilerplate)
	cartBoilerplatePatterns   = compileWordPatterns(cartBoilerplate)
)

func compileWordPatterns(phrases []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(phrases))
	for i, phrase := range phrases {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
	}
	return patterns
}

// ExtractSearchTerms strips request boilerplate and returns what the user is looking for
func ExtractSearchTerms(text string, intent domain.Intent) string {
	msg := strings.ToLower(strings.TrimSpace(text))

	patterns := searchBoilerplatePatterns
	if intent == domain.IntentAddToCart {
		patterns = append(append([]*regexp.Regexp{}, searchBoilerplatePatterns...), cartBoilerplatePatterns...)
	}

	for _, pattern := range patterns {
		msg = pattern.ReplaceAllString(msg, " ")
	}

	msg = strings.TrimSpace(multiSpacePattern.ReplaceAllString(msg, " "))

	// drop very short words unless the whole query is short
	words := strings.Fields(msg)
	if len(words) > 2 {
		kept := words[:0]
		for _, word := range words {
			if len(word) > 2 {
				kept = append(kept, word)
			}
		}
		msg = strings.Join(kept, " ")
	}

	return msg
}

var citedIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\(ID:\s*([A-Z0-9_-]+)\)`),
	regexp.MustCompile(`(?i)ID:\s*([A-Z0-9_-]+)`),
	regexp.MustCompile(`(?i)Product ID:\s*([A-Z0-9_-]+)`),
	regexp.MustCompile("(?i)`([A-Z0-9_-]+)`"),
}

// ExtractCitedProductIDs returns the product ids a reply refers to, in order of first mention
func ExtractCitedProductIDs(text string) []string {
	var found []string
	for _, pattern := range citedIDPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			found = append(found, match[1])
		}
	}
	return dedupe(found)
}

var recommendationIndicators = []string{
	"recommend", "suggest", "perfect for", "great choice", "ideal for",
	"(id:", "product id", "here are some", "i found", "try these",
}

// IsProductRecommendation reports whether a reply presents products to the user
func IsProductRecommendation(text string) bool {
	return containsAny(strings.ToLower(text), recommendationIndicators)
}

// searchQueryCategories drive CleanSearchQuery; order is significant
var searchQueryCategories = []struct {
	name  string
	terms []string
}{
	{"cooking", []string{"cook", "cooking", "kitchen", "chef", "culinary"}},
	{"clothing", []string{"shirt", "pants", "dress", "jacket", "shoes", "clothing"}},
	{"accessories", []string{"watch", "jewelry", "bag", "wallet", "accessories"}},
	{"electronics", []string{"phone", "laptop", "computer", "electronics"}},
	{"home", []string{"home", "house", "decor", "furniture"}},
	{"gifts", []string{"gift", "present"}},
}

var kitchenTerms = []string{"kitchen", "cook", "cooking", "chef", "culinary", "utensils", "cookware"}

var queryStopWords = map[string]bool{
	"the": true, "for": true, "and": true, "with": true, "someone": true, "who": true,
	"loves": true, "that": true, "this": true, "has": true, "are": true, "was": true,
	"will": true, "can": true, "could": true, "would": true, "should": true,
}

var meaningfulWordPattern = regexp.MustCompile(`\b\w{3,}\b`)

// CleanSearchQuery reduces a conversational query to at most three key catalog terms
func CleanSearchQuery(query string) string {
	query = strings.ToLower(strings.TrimSpace(query))

	var keyTerms []string
	var foundCategories []string
	for _, category := range searchQueryCategories {
		matched := false
		for _, term := range category.terms {
			if strings.Contains(query, term) {
				keyTerms = append(keyTerms, term)
				matched = true
			}
		}
		if matched {
			foundCategories = append(foundCategories, category.name)
		}
	}

	var meaningful []string
	for _, word := range meaningfulWordPattern.FindAllString(query, -1) {
		if !queryStopWords[word] {
			meaningful = append(meaningful, word)
		}
	}

	var resultTerms []string
	switch {
	case containsAny(strings.Join(foundCategories, " "), []string{"cooking", "gifts"}):
		for _, term := range kitchenTerms {
			if strings.Contains(query, term) {
				resultTerms = append(resultTerms, term)
			}
		}
		if len(resultTerms) == 0 {
			resultTerms = []string{"kitchen"}
		}
	case len(foundCategories) > 0:
		resultTerms = firstN(dedupe(keyTerms), 3)
	default:
		resultTerms = firstN(meaningful, 3)
	}

	cleaned := query
	if len(resultTerms) > 0 {
		cleaned = strings.Join(resultTerms, " ")
	}

	if strings.TrimSpace(cleaned) == "" {
		if len(meaningful) > 0 {
			return meaningful[0]
		}
		return query
	}
	return cleaned
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
