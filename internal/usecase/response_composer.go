package usecase

import (
	"fmt"
	"strings"

	"github.com/shopconcierge/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Reply limits
const (
	MaxPromptProducts        = 15
	searchReplyLimit         = 5
	fallbackReplyLimit       = 3
	recommendationReplyLimit = 6
	availableListLimit       = 5
	descriptionPreviewLength = 80
	promptDescriptionLength  = 100
	minGeneratedAnswerLength = 50
)

// ProcessingMode describes which backends answered a turn
type ProcessingMode string

const (
	ModeGenerative ProcessingMode = "gemini"
	ModeSemantic   ProcessingMode = "semantic_fallback"
	ModeBasic      ProcessingMode = "basic"
)

func (m ProcessingMode) describe() string {
	switch m {
	case ModeGenerative:
		return "with Gemini AI"
	case ModeSemantic:
		return "with semantic search"
	}
	return "with basic matching"
}

// CartEntry pairs a cart line with its catalog product; Product is nil when the lookup failed
type CartEntry struct {
	Line    domain.CartLine
	Product *domain.Product
}

// BuildPrompt renders the generative prompt for one message with the catalog snapshot and cart size
func BuildPrompt(message string, products []domain.Product, cartSize int) string {
	var catalog strings.Builder
	for i, p := range products {
		if i == MaxPromptProducts {
			break
		}
		fmt.Fprintf(&catalog, "- %s (ID: %s) - %s", p.Name, p.ID, p.Price)
		if p.Description != "" {
			fmt.Fprintf(&catalog, ": %s", truncateRunes(p.Description, promptDescriptionLength))
		}
		if len(p.Categories) > 0 {
			fmt.Fprintf(&catalog, " [Categories: %s]", strings.Join(p.Categories, ", "))
		}
		catalog.WriteString("\n")
	}

	cartContext := ""
	if cartSize > 0 {
		cartContext = fmt.Sprintf("User has %d items in cart currently. ", cartSize)
	}

	return fmt.Sprintf(`You are a shopping assistant for an Online Boutique. A customer said: %q

%s

AVAILABLE PRODUCTS IN OUR STORE:
%s
Based on what the customer wants and our available inventory:

1. If we have products that match their request:
   - Recommend specific products by name and ID in this format: "**Product Name** (ID: PRODUCTID)"
   - Explain why each product works for them
   - Include prices and key features

2. If we don't have what they're looking for:
   - Politely explain we don't carry that specific item
   - Suggest the closest alternatives from our inventory

3. For shopping requests (like "I need shoes" or "looking for a shirt"):
   - Show 2-3 best matching products with clear IDs

4. When recommending products, always use this exact format:
   "**Product Name** (ID: PRODUCTID) - $X.XX"

5. After showing products, remind users of their options:
   "To add products to your cart, you can:
   • Say 'add [PRODUCT_ID] to cart' (using the ID above)
   • Say 'add [Product Name] to cart' (using the product name)
   • Say 'add all to cart' to add all recommended products"

Be conversational and helpful, and only mention products we actually have in stock.`,
		message, cartContext, catalog.String())
}

// AcceptGenerated reports whether a generated answer is good enough to return as is
func AcceptGenerated(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if len(trimmed) < minGeneratedAnswerLength {
		return false
	}
	return !strings.Contains(answer, "trouble")
}

// ComposeGenerated wraps an accepted generated answer.
// Only answers that present products cite product ids.
func ComposeGenerated(answer string) domain.Reply {
	cited := []string{}
	if IsProductRecommendation(answer) {
		cited = ExtractCitedProductIDs(answer)
	}
	return domain.Reply{
		Status:          domain.StatusSuccess,
		Response:        answer,
		CitedProductIDs: cited,
		Count:           len(cited),
	}
}

// ComposeSearchResults lists the top matches with price, id, categories and a short description
func ComposeSearchResults(terms string, products []domain.Product, modifiers []string) domain.Reply {
	shown := firstProducts(products, searchReplyLimit)

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d products in our boutique matching '%s':\n\n", len(shown), terms)
	for i, p := range shown {
		fmt.Fprintf(&b, "%d. **%s** - %s\n", i+1, p.Name, p.Price)
		fmt.Fprintf(&b, "   ID: `%s` | Categories: %s\n", p.ID, strings.Join(p.Categories, ", "))
		if p.Description != "" {
			desc := RelevantDescription(p.Description, terms, modifiers)
			fmt.Fprintf(&b, "   %s\n", previewDescription(desc))
		}
		fmt.Fprintf(&b, "   Say 'add %s to cart' to purchase!\n\n", p.ID)
	}

	return productReply(b.String(), shown)
}

// ComposeNoResults offers what the store does carry when a search found nothing
func ComposeNoResults(terms string, available []domain.Product, suggestions []string) domain.Reply {
	if len(available) == 0 {
		return domain.Reply{
			Status:          domain.StatusSuccess,
			Response:        "Sorry, I couldn't find any products matching your search.",
			CitedProductIDs: []string{},
		}
	}

	shown := firstProducts(available, availableListLimit)

	var b strings.Builder
	fmt.Fprintf(&b, "I couldn't find products matching '%s' in our boutique.\n\n", terms)
	if len(suggestions) > 0 {
		fmt.Fprintf(&b, "You could also try: %s\n\n", strings.Join(suggestions, ", "))
	}
	b.WriteString("Here's what we have available:\n")
	for i, p := range shown {
		fmt.Fprintf(&b, "%d. %s - %s (ID: %s)\n", i+1, p.Name, p.Price, p.ID)
	}

	return productReply(b.String(), shown)
}

// ComposeSearchPrompt asks the shopper what to search for
func ComposeSearchPrompt() domain.Reply {
	return textReply("What would you like me to search for? Try something like 'show me watches' or 'find kitchen items'.")
}

// ComposeFallbackResults is used when a generated answer was rejected and a search found products
func ComposeFallbackResults(terms string, products []domain.Product) domain.Reply {
	shown := firstProducts(products, fallbackReplyLimit)

	var b strings.Builder
	fmt.Fprintf(&b, "I found these products matching '%s':\n\n", terms)
	for _, p := range shown {
		fmt.Fprintf(&b, "• **%s** - %s\n", p.Name, p.Price)
		fmt.Fprintf(&b, "  ID: %s | %s...\n\n", p.ID, truncateRunes(p.Description, descriptionPreviewLength))
	}
	b.WriteString("To add any item to your cart, just say 'add [PRODUCT_ID] to cart'!")

	return productReply(b.String(), shown)
}

// ComposeFallbackNoResults names a few available products after a rejected answer and an empty search
func ComposeFallbackNoResults(terms string, available []domain.Product) domain.Reply {
	shown := firstProducts(available, availableListLimit)
	names := make([]string, len(shown))
	for i, p := range shown {
		names[i] = p.Name
	}
	msg := fmt.Sprintf("I couldn't find products matching '%s' in our current inventory. Here's what we have available: %s",
		terms, strings.Join(names, ", "))
	return productReply(msg, shown)
}

// ComposeAskForDetails is returned when a rejected answer leaves nothing to search for
func ComposeAskForDetails() domain.Reply {
	return textReply("I'd be happy to help you find something! Could you tell me more specifically what you're looking for?")
}

// ComposeCart renders cart lines with per-line and aggregate totals.
// Totals are exact decimals formatted with truncation to cents, like single prices.
func ComposeCart(entries []CartEntry) domain.Reply {
	if len(entries) == 0 {
		return textReply("Your cart is empty. Search for products to add!\n\nTry: 'show me watches' or 'find kitchen items'")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your shopping cart (%d unique items):\n\n", len(entries))

	totalValue := decimal.Zero
	var totalItems int64
	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		qty := entry.Line.Quantity
		totalItems += int64(qty)
		ids = append(ids, entry.Line.ProductID)

		if entry.Product == nil {
			fmt.Fprintf(&b, "• Product %s x%d (details unavailable)\n\n", entry.Line.ProductID, qty)
			continue
		}

		each := entry.Product.Price.Decimal()
		lineTotal := each.Mul(decimal.NewFromInt32(qty))
		totalValue = totalValue.Add(lineTotal)

		fmt.Fprintf(&b, "• **%s** x%d\n", entry.Product.Name, qty)
		fmt.Fprintf(&b, "  %s each = %s\n", formatDollars(each), formatDollars(lineTotal))
		fmt.Fprintf(&b, "  ID: %s\n\n", entry.Line.ProductID)
	}

	fmt.Fprintf(&b, "**Total: %d items, %s**\n\n", totalItems, formatDollars(totalValue))
	b.WriteString("Say 'remove [PRODUCT_ID] from cart' to remove items!")

	return domain.Reply{
		Status:          domain.StatusSuccess,
		Response:        b.String(),
		CitedProductIDs: ids,
		Count:           len(entries),
	}
}

// ComposeCartCleared confirms an emptied cart
func ComposeCartCleared() domain.Reply {
	return textReply("Your cart has been cleared.")
}

// ComposeItemRemoved confirms a removed cart line
func ComposeItemRemoved(productID string) domain.Reply {
	reply := textReply(fmt.Sprintf("Removed %s from your cart.", productID))
	reply.CitedProductIDs = []string{productID}
	return reply
}

// FilterByBudget keeps the products priced at or below budget, in order
func FilterByBudget(products []domain.Product, budget float64) []domain.Product {
	ceiling := decimal.NewFromFloat(budget)
	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Price.Decimal().LessThanOrEqual(ceiling) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// ComposeRecommendations lists the first products of the catalog, filtered by budget when one is given
func ComposeRecommendations(products []domain.Product, budget *float64) domain.Reply {
	budgetText := ""
	if budget != nil {
		products = FilterByBudget(products, *budget)
		budgetText = " under $" + decimal.NewFromFloat(*budget).String()
	}
	shown := firstProducts(products, recommendationReplyLimit)

	var b strings.Builder
	fmt.Fprintf(&b, "Here are my top recommendations%s:\n\n", budgetText)
	for i, p := range shown {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, p.Name, p.Price)
		if p.Description != "" {
			fmt.Fprintf(&b, "   %s\n", previewDescription(p.Description))
		}
		fmt.Fprintf(&b, "   ID: %s\n\n", p.ID)
	}

	reply := productReply(b.String(), shown)
	reply.Budget = budget
	return reply
}

// ComposeHelp describes what the concierge can do in the given mode
func ComposeHelp(mode ProcessingMode) domain.Reply {
	return textReply(fmt.Sprintf(`I'm your shopping assistant %s! Here's what I can do:

Search Products:
• "business shoes for meetings"
• "casual shirts for weekend"
• "blue dress under $50"

Cart Management:
• "show my cart" or "view basket"
• "add PRODUCT_ID to cart"
• "buy 2 of PRODUCT_ID"
• "clear my cart"

Get Recommendations:
• "recommend something"
• "suggest items under $100"
• "what's popular?"

Just tell me what you need naturally!`, mode.describe()))
}

// ComposeAdded confirms a cart addition. bestMatchFor is the search phrase when the product was picked by search.
func ComposeAdded(product domain.Product, quantity int32, bestMatchFor string) domain.Reply {
	msg := fmt.Sprintf("Added %dx **%s** (%s each) to your cart!", quantity, product.Name, product.Price)
	if bestMatchFor != "" {
		msg += fmt.Sprintf("\n\nThis was the best match for '%s'.", bestMatchFor)
	}
	return productReply(msg, []domain.Product{product})
}

// ComposeAddAll summarizes an add-all command
func ComposeAddAll(added []domain.Product, failed []string) domain.Reply {
	if len(added) == 0 && len(failed) == 0 {
		return textReply("No products are currently available to add to cart.")
	}

	var b strings.Builder
	if len(added) > 0 {
		fmt.Fprintf(&b, "Added %d products to your cart:\n\n", len(added))
		lines := make([]string, len(added))
		for i, p := range added {
			lines[i] = fmt.Sprintf("• **%s** - %s", p.Name, p.Price)
		}
		b.WriteString(strings.Join(lines, "\n"))
	}
	if len(failed) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Couldn't add these products: %s", strings.Join(failed, ", "))
	}

	return productReply(b.String(), added)
}

// ComposeProductNotFound is returned for an id the catalog does not know
func ComposeProductNotFound(productID string) domain.Reply {
	return textReply(fmt.Sprintf("Product ID '%s' not found. Please search for products to get valid IDs.", productID))
}

// ComposeAddNeedsProductID explains how to add an item when no id was given
func ComposeAddNeedsProductID() domain.Reply {
	return textReply("To add items to cart, please specify the product ID. Example: 'add OLJCESPC7Z to cart'\n\nSearch for products first to get their IDs!")
}

// ComposeSearchFailed is returned when a cart-add search found nothing
func ComposeSearchFailed(terms string) domain.Reply {
	return textReply(fmt.Sprintf("Couldn't find products matching '%s'. Try different keywords.", terms))
}

// ComposeUnknown is the generic reply for anything the concierge cannot act on
func ComposeUnknown() domain.Reply {
	return textReply("I can help you find products, manage your cart, or get recommendations. What are you looking for?")
}

// ComposeEmptyMessage is returned for blank input
func ComposeEmptyMessage() domain.Reply {
	return textReply("I didn't catch that. Could you try again?")
}

// ComposeError renders a collaborator failure without exposing its text
func ComposeError(err error, op Operation) domain.Reply {
	return domain.Reply{
		Status:          domain.StatusError,
		Response:        FriendlyError(err, op),
		CitedProductIDs: []string{},
	}
}

// RelevantDescription shortens a long description to the sentences mentioning the search terms or modifiers
func RelevantDescription(description, searchTerms string, modifiers []string) string {
	if len(description) <= promptDescriptionLength {
		return description
	}

	terms := strings.Fields(strings.ToLower(searchTerms))
	for _, modifier := range modifiers {
		terms = append(terms, strings.ToLower(modifier))
	}

	var relevant []string
	for _, sentence := range strings.Split(description, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence != "" && containsAny(strings.ToLower(sentence), terms) {
			relevant = append(relevant, sentence)
		}
	}

	if len(relevant) == 0 {
		return truncateWithEllipsis(description, promptDescriptionLength)
	}
	if len(relevant) > 2 {
		relevant = relevant[:2]
	}
	return truncateWithEllipsis(strings.Join(relevant, ". "), promptDescriptionLength)
}

func textReply(msg string) domain.Reply {
	return domain.Reply{
		Status:          domain.StatusSuccess,
		Response:        msg,
		CitedProductIDs: []string{},
	}
}

func productReply(msg string, products []domain.Product) domain.Reply {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return domain.Reply{
		Status:          domain.StatusSuccess,
		Response:        msg,
		CitedProductIDs: ids,
		Count:           len(products),
		Products:        products,
	}
}

func firstProducts(products []domain.Product, n int) []domain.Product {
	if len(products) > n {
		return products[:n]
	}
	return products
}

// formatDollars renders an exact amount through Money so totals truncate like single prices
func formatDollars(d decimal.Decimal) string {
	return domain.MoneyFromDecimal(d, "").String()
}

func previewDescription(desc string) string {
	return truncateWithEllipsis(desc, descriptionPreviewLength)
}

func truncateWithEllipsis(s string, n int) string {
	if len([]rune(s)) > n {
		return truncateRunes(s, n) + "..."
	}
	return s
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
