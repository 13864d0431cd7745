package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopconcierge/backend/internal/domain"
	"github.com/shopconcierge/backend/internal/usecase"
	"go.uber.org/zap"
)

const (
	serviceName          = "shopping-concierge"
	defaultHealthTimeout = 5 * time.Second
)

// Concierge is the conversation and shopping usecase served over HTTP
type Concierge interface {
	Chat(ctx context.Context, userID, message string) (*domain.Reply, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
	AddToCart(ctx context.Context, userID, productID string, quantity int32) (*domain.Reply, error)
	ViewCart(ctx context.Context, userID string) (*domain.Reply, error)
	ClearCart(ctx context.Context, userID string) (*domain.Reply, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Reply, error)
	Recommendations(ctx context.Context, userID, query string, budget *float64) (*domain.Reply, error)
	Capabilities() usecase.Capabilities
}

// Pinger reports whether a backend service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandlerConfig describes the backends reported by the health endpoint
type HandlerConfig struct {
	Version       string
	CatalogAddr   string
	CartAddr      string
	Catalog       Pinger
	Cart          Pinger
	HealthTimeout time.Duration
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	concierge Concierge
	config    HandlerConfig
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(concierge Concierge, config HandlerConfig, logger *zap.Logger) *Handler {
	if config.HealthTimeout <= 0 {
		config.HealthTimeout = defaultHealthTimeout
	}
	if config.Version == "" {
		config.Version = "dev"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{concierge: concierge, config: config, logger: logger}
}

type chatResponse struct {
	domain.Reply
	UserID           string                 `json:"user_id"`
	GeminiEnabled    bool                   `json:"gemini_enabled"`
	SemanticEnhanced bool                   `json:"semantic_enhanced"`
	ProcessingMode   usecase.ProcessingMode `json:"processing_mode"`
}

// HealthCheck returns the health status of the service and its backends
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.HealthTimeout)
	defer cancel()

	caps := h.concierge.Capabilities()
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"service":         serviceName,
		"version":         h.config.Version,
		"catalog_service": gin.H{"addr": h.config.CatalogAddr, "status": h.backendStatus(ctx, h.config.Catalog)},
		"cart_service":    gin.H{"addr": h.config.CartAddr, "status": h.backendStatus(ctx, h.config.Cart)},
		"gemini_api":      enabledText(caps.GenerativeEnabled, "enabled", "disabled"),
		"semantic_search": enabledText(caps.SemanticSearch, "enabled", "disabled"),
		"nlp_processor":   enabledText(caps.AdvancedNLP, "advanced", "basic"),
		"processing_mode": caps.Mode,
	})
}

func (h *Handler) backendStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "unknown"
	}
	if err := p.Ping(ctx); err != nil {
		h.logger.Warn("backend health check failed", zap.Error(err))
		return "down"
	}
	return "ok"
}

func enabledText(on bool, yes, no string) string {
	if on {
		return yes
	}
	return no
}

// Root describes the service and its features
func (h *Handler) Root(c *gin.Context) {
	caps := h.concierge.Capabilities()

	var features []string
	if caps.GenerativeEnabled {
		features = append(features, "Gemini AI")
	}
	if caps.SemanticSearch {
		features = append(features, "Semantic search")
	}
	if caps.AdvancedNLP {
		features = append(features, "Advanced NLP")
	}
	if len(features) == 0 {
		features = append(features, "Basic keyword matching")
	}

	c.JSON(http.StatusOK, gin.H{
		"service":     "Shopping Concierge",
		"version":     h.config.Version,
		"status":      "running",
		"description": "AI shopping assistant with " + strings.Join(features, ", "),
		"features": append(features,
			"Natural language understanding",
			"Intent classification",
			"Product search and recommendations",
			"Cart management"),
		"endpoints": []string{
			"/api/v1/chat", "/api/v1/search", "/api/v1/cart/action", "/api/v1/recommendations", "/health",
		},
	})
}

// Chat answers the last user message of a conversation
func (h *Handler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: user_id and messages are required"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No messages provided"})
		return
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Last message must be from user"})
		return
	}

	reply, err := h.concierge.Chat(c.Request.Context(), req.UserID, last.Content)
	if err != nil {
		h.writeError(c, err, usecase.OpSearch)
		return
	}

	caps := h.concierge.Capabilities()
	c.JSON(http.StatusOK, chatResponse{
		Reply:            *reply,
		UserID:           req.UserID,
		GeminiEnabled:    caps.GenerativeEnabled,
		SemanticEnhanced: caps.SemanticSearch,
		ProcessingMode:   caps.Mode,
	})
}

// Search runs a product search
func (h *Handler) Search(c *gin.Context) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: query is required"})
		return
	}

	products, err := h.concierge.Search(c.Request.Context(), req.Query)
	if err != nil {
		h.writeError(c, err, usecase.OpSearch)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":            domain.StatusSuccess,
		"query":             req.Query,
		"results":           products,
		"count":             len(products),
		"semantic_enhanced": h.concierge.Capabilities().SemanticSearch,
	})
}

// CartAction adds, views, clears or removes cart items
func (h *Handler) CartAction(c *gin.Context) {
	var req domain.CartActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: user_id and action are required"})
		return
	}

	ctx := c.Request.Context()
	var (
		reply *domain.Reply
		err   error
		op    = usecase.OpCartView
	)
	switch strings.ToLower(req.Action) {
	case "add":
		op = usecase.OpCartAdd
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		reply, err = h.concierge.AddToCart(ctx, req.UserID, req.ProductID, quantity)
	case "view":
		reply, err = h.concierge.ViewCart(ctx, req.UserID)
	case "clear":
		reply, err = h.concierge.ClearCart(ctx, req.UserID)
	case "remove":
		reply, err = h.concierge.RemoveItem(ctx, req.UserID, req.ProductID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
		return
	}

	if err != nil {
		h.writeError(c, err, op)
		return
	}
	h.writeReply(c, reply)
}

// Recommendations suggests products within an optional budget
func (h *Handler) Recommendations(c *gin.Context) {
	var req domain.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: user_id is required"})
		return
	}
	if req.BudgetMax != nil && *req.BudgetMax <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "budget_max must be greater than 0"})
		return
	}

	reply, err := h.concierge.Recommendations(c.Request.Context(), req.UserID, req.Query, req.BudgetMax)
	if err != nil {
		h.writeError(c, err, usecase.OpSearch)
		return
	}
	if reply.Status == domain.StatusError {
		c.JSON(http.StatusInternalServerError, gin.H{"error": reply.Response})
		return
	}

	products := reply.Products
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            domain.StatusSuccess,
		"response":          reply.Response,
		"recommendations":   products,
		"count":             len(products),
		"user_id":           req.UserID,
		"semantic_enhanced": h.concierge.Capabilities().SemanticSearch,
	})
}

func (h *Handler) writeReply(c *gin.Context, reply *domain.Reply) {
	if reply.Status == domain.StatusError {
		c.JSON(http.StatusInternalServerError, gin.H{"error": reply.Response})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// writeError renders err as a user-facing message with a matching status code
func (h *Handler) writeError(c *gin.Context, err error, op usecase.Operation) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	h.logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err))

	if status == http.StatusBadRequest {
		c.JSON(status, gin.H{"error": validationMessage(err)})
		return
	}
	c.JSON(status, gin.H{"error": usecase.FriendlyError(err, op)})
}

// validationMessage keeps the reason after the sentinel prefix, e.g. "quantity must be greater than 0"
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
