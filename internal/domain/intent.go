package domain

// Intent is what the user wants to do with one message
type Intent string

const (
	IntentSearch    Intent = "search"
	IntentViewCart  Intent = "cart_view"
	IntentAddToCart Intent = "cart_add"
	IntentClearCart Intent = "cart_clear"
	IntentRecommend Intent = "recommendations"
	IntentHelp      Intent = "help"
	IntentUnknown   Intent = "unknown"
)

// ExtractedEntities holds the structured hints pulled out of one message
type ExtractedEntities struct {
	Colors       []string  `json:"colors"`
	Sizes        []string  `json:"sizes"`
	PriceRange   []float64 `json:"priceRange,omitempty"`
	ProductTypes []string  `json:"productTypes"`
	Brands       []string  `json:"brands"`
}
