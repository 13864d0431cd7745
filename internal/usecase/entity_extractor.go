package usecase

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopconcierge/backend/internal/domain"
	"go.uber.org/zap"
)

// pricePattern matches "$45" and "$45.50"
var pricePattern = regexp.MustCompile(`\$(\d+(?:\.\d{2})?)`)

var entityColors = []string{
	"red", "blue", "green", "black", "white", "yellow",
	"orange", "purple", "pink", "brown", "gray", "grey",
}

// entitySizes must be whitespace-bounded; "s", "m" and "l" would otherwise match inside any word
var entitySizes = []string{"small", "medium", "large", "xs", "xl", "xxl", "s", "m", "l"}

// productKeywordGroup is one category of the product keyword vocabulary
type productKeywordGroup struct {
	category string
	keywords []string
}

var productKeywords = []productKeywordGroup{
	{"shoes", []string{"shoes", "sneakers", "boots", "sandals", "loafers", "heels", "flats", "dress shoes", "running shoes"}},
	{"clothing", []string{"shirt", "pants", "dress", "jacket", "coat", "sweater", "jeans", "blouse", "skirt", "shorts"}},
	{"accessories", []string{"watch", "jewelry", "necklace", "bracelet", "earrings", "ring", "bag", "purse", "wallet"}},
	{"electronics", []string{"phone", "laptop", "computer", "tablet", "headphones", "speaker", "camera", "tv"}},
	{"home", []string{"furniture", "chair", "table", "lamp", "pillow", "blanket", "curtains"}},
	{"kitchen", []string{"cookware", "dishes", "utensils", "appliances", "coffee maker", "blender"}},
	{"sports", []string{"equipment", "gear", "fitness", "exercise", "weights", "yoga mat"}},
	{"books", []string{"book", "novel", "textbook", "magazine", "journal"}},
}

// EntityExtractor pulls colors, sizes, prices and product types out of raw text.
// When a recognizer is configured its organization/product entities are appended to Brands.
type EntityExtractor struct {
	recognizer domain.EntityRecognizer
	logger     *zap.Logger
}

// NewEntityExtractor creates an extractor. recognizer may be nil.
func NewEntityExtractor(recognizer domain.EntityRecognizer, logger *zap.Logger) *EntityExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityExtractor{recognizer: recognizer, logger: logger}
}

// Advanced reports whether a named-entity backend is configured
func (e *EntityExtractor) Advanced() bool {
	return e.recognizer != nil
}

// Extract returns the entities found in text. A failing recognizer never changes the other fields.
func (e *EntityExtractor) Extract(ctx context.Context, text string) domain.ExtractedEntities {
	entities := domain.ExtractedEntities{
		Colors:       []string{},
		Sizes:        []string{},
		ProductTypes: ExtractProductKeywords(text),
		Brands:       []string{},
	}

	textLower := strings.ToLower(text)

	for _, color := range entityColors {
		if strings.Contains(textLower, color) {
			entities.Colors = append(entities.Colors, color)
		}
	}

	padded := " " + textLower + " "
	for _, size := range entitySizes {
		if strings.Contains(padded, " "+size+" ") || strings.Contains(padded, " "+size+"s ") {
			entities.Sizes = append(entities.Sizes, size)
		}
	}

	for _, match := range pricePattern.FindAllStringSubmatch(text, -1) {
		price, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		entities.PriceRange = append(entities.PriceRange, price)
	}

	if e.recognizer != nil {
		names, err := e.recognizer.Recognize(ctx, text)
		if err != nil {
			e.logger.Warn("entity recognition failed", zap.Error(err))
		}
		for _, name := range names {
			entities.Brands = append(entities.Brands, strings.ToLower(name))
		}
	}

	return entities
}

// ExtractProductKeywords returns every known product keyword contained in text, in vocabulary order
func ExtractProductKeywords(text string) []string {
	textLower := strings.ToLower(text)
	found := []string{}
	for _, group := range productKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(textLower, keyword) {
				found = append(found, keyword)
			}
		}
	}
	return found
}

// contextModifiers maps an occasion word to descriptors that refine a search
var contextModifiers = []struct {
	trigger   string
	modifiers []string
}{
	{"meeting", []string{"formal", "business", "professional"}},
	{"work", []string{"business", "professional", "office"}},
	{"office", []string{"business", "professional", "formal"}},
	{"business", []string{"formal", "professional"}},
	{"interview", []string{"formal", "professional", "business"}},
	{"presentation", []string{"formal", "professional", "business"}},
	{"casual", []string{"casual", "everyday", "comfortable"}},
	{"weekend", []string{"casual", "relaxed"}},
	{"home", []string{"casual", "comfortable"}},
	{"running", []string{"athletic", "sports", "fitness"}},
	{"gym", []string{"athletic", "sports", "fitness"}},
	{"exercise", []string{"athletic", "sports", "fitness"}},
	{"workout", []string{"athletic", "sports", "fitness"}},
	{"summer", []string{"light", "breathable", "cool"}},
	{"winter", []string{"warm", "insulated", "heavy"}},
	{"rain", []string{"waterproof", "rain"}},
	{"cold", []string{"warm", "insulated"}},
}

// ExtractContextModifiers returns the descriptors implied by occasion words in text
func ExtractContextModifiers(text string) []string {
	textLower := strings.ToLower(text)
	var modifiers []string
	for _, entry := range contextModifiers {
		if strings.Contains(textLower, entry.trigger) {
			modifiers = append(modifiers, entry.modifiers...)
		}
	}
	return dedupe(modifiers)
}
