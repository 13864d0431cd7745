package domain

// Reply status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Reply is what the concierge returns for one conversation turn
type Reply struct {
	Status          string             `json:"status"`
	Response        string             `json:"response"`
	CitedProductIDs []string           `json:"citedProductIds"`
	Count           int                `json:"count"`
	Intent          Intent             `json:"intent,omitempty"`
	Budget          *float64           `json:"budget,omitempty"`
	Entities        *ExtractedEntities `json:"entities,omitempty"`
	Products        []Product          `json:"products,omitempty"`
}

// ChatMessage is a single message of a conversation sent by a client
type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

// ChatRequest represents a chat request
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required"`
	UserID   string        `json:"user_id" binding:"required"`
}

// SearchRequest represents a product search request
type SearchRequest struct {
	Query  string `json:"query" binding:"required"`
	UserID string `json:"user_id"`
}

// CartActionRequest represents a cart mutation or view request
type CartActionRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	Action    string `json:"action" binding:"required"`
	ProductID string `json:"product_id,omitempty"`
	Quantity  int32  `json:"quantity,omitempty"`
}

// RecommendationRequest represents a recommendation request
type RecommendationRequest struct {
	UserID    string   `json:"user_id" binding:"required"`
	Query     string   `json:"query,omitempty"`
	BudgetMax *float64 `json:"budget_max,omitempty"`
}
