package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopconcierge/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	addAllLimit       = 5
	cartLookupWorkers = 4
)

// Capabilities reports which optional backends are active
type Capabilities struct {
	GenerativeEnabled bool           `json:"geminiEnabled"`
	SemanticSearch    bool           `json:"semanticSearch"`
	AdvancedNLP       bool           `json:"advancedNlp"`
	Mode              ProcessingMode `json:"processingMode"`
}

// ConciergeDeps holds the collaborators of a ConciergeService
type ConciergeDeps struct {
	Catalog     domain.CatalogService
	Cart        domain.CartService
	Generator   domain.TextGenerator // optional
	Classifier  Classifier
	Entities    *EntityExtractor
	Search      *SearchService
	Suggestions *SuggestionService
	Temperature float32 // passed to the generator as is
	Logger      *zap.Logger
}

// ConciergeService turns one shopper message into catalog lookups, cart mutations and a reply.
// It keeps no state between turns.
type ConciergeService struct {
	catalog     domain.CatalogService
	cart        domain.CartService
	generator   domain.TextGenerator
	classifier  Classifier
	entities    *EntityExtractor
	search      *SearchService
	suggestions *SuggestionService
	temperature float32
	logger      *zap.Logger
}

// NewConciergeService creates a concierge from its collaborators
func NewConciergeService(deps ConciergeDeps) *ConciergeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	classifier := deps.Classifier
	if classifier == nil {
		classifier = NewRuleClassifier()
	}
	entities := deps.Entities
	if entities == nil {
		entities = NewEntityExtractor(nil, logger)
	}
	search := deps.Search
	if search == nil {
		search = NewSearchService(deps.Catalog, MatchConfig{}, nil, logger)
	}
	suggestions := deps.Suggestions
	if suggestions == nil {
		suggestions = NewSuggestionService(nil, 0, logger)
	}
	return &ConciergeService{
		catalog:     deps.Catalog,
		cart:        deps.Cart,
		generator:   deps.Generator,
		classifier:  classifier,
		entities:    entities,
		search:      search,
		suggestions: suggestions,
		temperature: deps.Temperature,
		logger:      logger,
	}
}

// Capabilities reports the active processing mode for health reporting
func (s *ConciergeService) Capabilities() Capabilities {
	caps := Capabilities{
		GenerativeEnabled: s.generativeEnabled(),
		SemanticSearch:    s.search.Semantic(),
		AdvancedNLP:       s.entities.Advanced(),
	}
	switch {
	case caps.GenerativeEnabled:
		caps.Mode = ModeGenerative
	case caps.SemanticSearch:
		caps.Mode = ModeSemantic
	default:
		caps.Mode = ModeBasic
	}
	return caps
}

func (s *ConciergeService) generativeEnabled() bool {
	return s.generator != nil && s.generator.Enabled()
}

// Chat answers one message. The only error is ErrInvalidRequest for a missing user id;
// collaborator failures are turned into a reply.
func (s *ConciergeService) Chat(ctx context.Context, userID, message string) (*domain.Reply, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}

	if strings.TrimSpace(message) == "" {
		reply := ComposeEmptyMessage()
		return &reply, nil
	}

	if s.generativeEnabled() {
		reply := s.chatGenerative(ctx, userID, message)
		return &reply, nil
	}

	reply := s.chatRules(ctx, userID, message)
	return &reply, nil
}

// chatGenerative asks the text generator first and falls back to search results
// when the answer is missing or low quality
func (s *ConciergeService) chatGenerative(ctx context.Context, userID, message string) domain.Reply {
	var products []domain.Product
	var cartSize int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		listed, err := s.catalog.ListProducts(gctx)
		if err != nil {
			s.logger.Warn("catalog unavailable for prompt", zap.Error(err))
			return nil
		}
		products = listed
		return nil
	})
	g.Go(func() error {
		lines, err := s.cart.GetCart(gctx, userID)
		if err != nil {
			s.logger.Warn("cart unavailable for prompt", zap.String("user_id", userID), zap.Error(err))
			return nil
		}
		cartSize = len(lines)
		return nil
	})
	_ = g.Wait()

	if DetectCartAddIntent(message) {
		if reply, ok := s.handleCartAddition(ctx, userID, message, products); ok {
			return reply
		}
	}

	answer, err := s.generator.Generate(ctx, BuildPrompt(message, products, cartSize), s.temperature)
	if err != nil {
		s.logger.Warn("generation failed, using search fallback",
			zap.Error(fmt.Errorf("%w: %v", domain.ErrDegraded, err)))
		answer = ""
	}

	if AcceptGenerated(answer) {
		return ComposeGenerated(answer)
	}

	terms := ExtractSearchTerms(message, domain.IntentSearch)
	if terms == "" {
		return ComposeAskForDetails()
	}

	results, err := s.search.Search(ctx, terms, true)
	if err != nil {
		s.logger.Warn("fallback search failed", zap.String("terms", terms), zap.Error(err))
	}
	if len(results) > 0 {
		return ComposeFallbackResults(terms, results)
	}
	return ComposeFallbackNoResults(terms, products)
}

// handleCartAddition tries, in order: add-all, explicit id, product name, snapshot match, best search match.
// ok is false when the message names nothing that could be added.
func (s *ConciergeService) handleCartAddition(ctx context.Context, userID, message string, products []domain.Product) (domain.Reply, bool) {
	if IsAddAllCommand(message) {
		return s.addAll(ctx, userID, products), true
	}

	if productID, ok := ExtractProductID(message); ok {
		return s.addByID(ctx, userID, productID, ExtractQuantity(message)), true
	}

	if product, ok := MatchProductByName(message, products); ok {
		return s.addProduct(ctx, userID, product, ExtractQuantity(message), ""), true
	}

	terms := ExtractSearchTerms(message, domain.IntentAddToCart)
	if len(strings.TrimSpace(terms)) <= 2 {
		return domain.Reply{}, false
	}

	if matched := s.search.MatchSnapshot(terms, products); len(matched) > 0 {
		best, _ := BestProductMatch(message, matched)
		return s.addProduct(ctx, userID, best, ExtractQuantity(message), terms), true
	}

	results, err := s.search.Search(ctx, terms, true)
	if err != nil {
		s.logger.Warn("cart-add search failed", zap.String("terms", terms), zap.Error(err))
	}
	best, ok := BestProductMatch(message, results)
	if !ok {
		return ComposeSearchFailed(terms), true
	}
	return s.addProduct(ctx, userID, best, ExtractQuantity(message), terms), true
}

func (s *ConciergeService) addAll(ctx context.Context, userID string, products []domain.Product) domain.Reply {
	var added []domain.Product
	var failed []string
	for _, product := range firstProducts(products, addAllLimit) {
		if product.ID == "" {
			continue
		}
		if err := s.cart.AddItem(ctx, userID, product.ID, 1); err != nil {
			s.logger.Warn("add-all item failed", zap.String("product_id", product.ID), zap.Error(err))
			failed = append(failed, product.Name)
			continue
		}
		added = append(added, product)
	}
	return ComposeAddAll(added, failed)
}

func (s *ConciergeService) addByID(ctx context.Context, userID, productID string, quantity int32) domain.Reply {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ComposeProductNotFound(productID)
		}
		s.logger.Error("product lookup failed", zap.String("product_id", productID), zap.Error(err))
		return ComposeError(err, OpProductDetails)
	}
	return s.addProduct(ctx, userID, *product, quantity, "")
}

func (s *ConciergeService) addProduct(ctx context.Context, userID string, product domain.Product, quantity int32, bestMatchFor string) domain.Reply {
	if err := s.cart.AddItem(ctx, userID, product.ID, quantity); err != nil {
		s.logger.Error("add to cart failed",
			zap.String("user_id", userID), zap.String("product_id", product.ID), zap.Error(err))
		return ComposeError(err, OpCartAdd)
	}
	return ComposeAdded(product, quantity, bestMatchFor)
}

// chatRules classifies the message with the rule or semantic classifier and dispatches on the intent
func (s *ConciergeService) chatRules(ctx context.Context, userID, message string) domain.Reply {
	var normalized string
	var entities domain.ExtractedEntities

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		normalized = Normalize(message)
		return nil
	})
	g.Go(func() error {
		entities = s.entities.Extract(gctx, message)
		return nil
	})
	_ = g.Wait()

	intent := s.classifier.Classify(ctx, message)

	// "add X to cart" hits the cart rule first; an explicit id means the shopper is adding
	if intent == domain.IntentViewCart {
		if _, ok := ExtractProductID(message); ok {
			intent = domain.IntentAddToCart
		}
	}

	s.logger.Debug("classified message",
		zap.String("normalized", normalized), zap.String("intent", string(intent)))

	var reply domain.Reply
	switch intent {
	case domain.IntentSearch:
		reply = s.searchReply(ctx, message, intent, entities)
	case domain.IntentAddToCart:
		if productID, ok := ExtractProductID(message); ok {
			reply = s.addByID(ctx, userID, productID, ExtractQuantity(message))
		} else {
			reply = ComposeAddNeedsProductID()
		}
	case domain.IntentViewCart:
		reply = s.viewCart(ctx, userID)
	case domain.IntentClearCart:
		reply = s.clearCart(ctx, userID)
	case domain.IntentRecommend:
		reply = s.recommendationReply(ctx, message)
	case domain.IntentHelp:
		reply = ComposeHelp(s.Capabilities().Mode)
	default:
		reply = ComposeUnknown()
	}

	reply.Intent = intent
	reply.Entities = &entities
	if budget, ok := ExtractBudget(message); ok {
		reply.Budget = &budget
	}
	return reply
}

func (s *ConciergeService) searchReply(ctx context.Context, message string, intent domain.Intent, entities domain.ExtractedEntities) domain.Reply {
	terms := ExtractSearchTerms(message, intent)
	if terms == "" {
		return ComposeSearchPrompt()
	}

	results, err := s.search.Search(ctx, terms, s.search.Semantic())
	if err != nil {
		s.logger.Error("search failed", zap.String("terms", terms), zap.Error(err))
		return ComposeError(err, OpSearch)
	}
	if len(results) > 0 {
		return ComposeSearchResults(terms, results, ExtractContextModifiers(message))
	}

	available, err := s.catalog.ListProducts(ctx)
	if err != nil {
		s.logger.Warn("catalog unavailable for suggestions", zap.Error(err))
	}
	suggestions := dedupe(append(AlternativeSearchTerms(terms, entities), s.suggestions.Suggest(ctx, terms)...))
	return ComposeNoResults(terms, available, suggestions)
}

func (s *ConciergeService) recommendationReply(ctx context.Context, message string) domain.Reply {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		s.logger.Error("recommendations unavailable", zap.Error(err))
		return ComposeError(err, OpSearch)
	}

	var budget *float64
	if b, ok := ExtractBudget(message); ok {
		budget = &b
	}
	return ComposeRecommendations(products, budget)
}

// Search runs a catalog search outside of a conversation
func (s *ConciergeService) Search(ctx context.Context, query string) ([]domain.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	return s.search.Search(ctx, query, s.search.Semantic())
}

// AddToCart validates its input before touching any collaborator
func (s *ConciergeService) AddToCart(ctx context.Context, userID, productID string, quantity int32) (*domain.Reply, error) {
	switch {
	case strings.TrimSpace(userID) == "":
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	case strings.TrimSpace(productID) == "":
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	case quantity <= 0:
		return nil, fmt.Errorf("%w: quantity must be greater than 0", domain.ErrInvalidInput)
	}

	reply := s.addByID(ctx, userID, productID, quantity)
	return &reply, nil
}

// ViewCart renders the user's cart with totals
func (s *ConciergeService) ViewCart(ctx context.Context, userID string) (*domain.Reply, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	reply := s.viewCart(ctx, userID)
	return &reply, nil
}

func (s *ConciergeService) viewCart(ctx context.Context, userID string) domain.Reply {
	lines, err := s.cart.GetCart(ctx, userID)
	if err != nil {
		s.logger.Error("get cart failed", zap.String("user_id", userID), zap.Error(err))
		return ComposeError(err, OpCartView)
	}

	entries := make([]CartEntry, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cartLookupWorkers)
	for i, line := range lines {
		entries[i].Line = line
		g.Go(func() error {
			product, err := s.catalog.GetProduct(gctx, line.ProductID)
			if err != nil {
				s.logger.Warn("cart product lookup failed", zap.String("product_id", line.ProductID), zap.Error(err))
				return nil
			}
			entries[i].Product = product
			return nil
		})
	}
	_ = g.Wait()

	return ComposeCart(entries)
}

// ClearCart empties the user's cart
func (s *ConciergeService) ClearCart(ctx context.Context, userID string) (*domain.Reply, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	reply := s.clearCart(ctx, userID)
	return &reply, nil
}

func (s *ConciergeService) clearCart(ctx context.Context, userID string) domain.Reply {
	if err := s.cart.EmptyCart(ctx, userID); err != nil {
		s.logger.Error("empty cart failed", zap.String("user_id", userID), zap.Error(err))
		return ComposeError(err, OpCartView)
	}
	return ComposeCartCleared()
}

// RemoveItem drops one product from the cart. The cart service has no removal call,
// so the cart is emptied and the remaining lines are added back.
func (s *ConciergeService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Reply, error) {
	switch {
	case strings.TrimSpace(userID) == "":
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	case strings.TrimSpace(productID) == "":
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	}

	lines, err := s.cart.GetCart(ctx, userID)
	if err != nil {
		reply := ComposeError(err, OpCartView)
		return &reply, nil
	}

	var remaining []domain.CartLine
	found := false
	for _, line := range lines {
		if line.ProductID == productID {
			found = true
			continue
		}
		remaining = append(remaining, line)
	}
	if !found {
		reply := ComposeError(fmt.Errorf("%w: %s not in cart", domain.ErrNotFound, productID), OpCartView)
		return &reply, nil
	}

	if err := s.cart.EmptyCart(ctx, userID); err != nil {
		reply := ComposeError(err, OpCartView)
		return &reply, nil
	}

	for _, line := range remaining {
		if err := s.cart.AddItem(ctx, userID, line.ProductID, line.Quantity); err != nil {
			s.logger.Error("restoring cart line failed",
				zap.String("user_id", userID), zap.String("product_id", line.ProductID), zap.Error(err))
			reply := ComposeError(err, OpCartAdd)
			return &reply, nil
		}
	}

	reply := ComposeItemRemoved(productID)
	return &reply, nil
}

// Recommendations suggests products, ranked against query when one is given and filtered by budget
func (s *ConciergeService) Recommendations(ctx context.Context, userID, query string, budget *float64) (*domain.Reply, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	var products []domain.Product
	var err error
	if strings.TrimSpace(query) != "" {
		products, err = s.search.RecommendByQuery(ctx, query)
	} else {
		products, err = s.catalog.ListProducts(ctx)
	}
	if err != nil {
		s.logger.Error("recommendations failed", zap.Error(err))
		reply := ComposeError(err, OpSearch)
		return &reply, nil
	}

	reply := ComposeRecommendations(products, budget)
	reply.Intent = domain.IntentRecommend
	return &reply, nil
}
