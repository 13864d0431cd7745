package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogService defines the product catalog collaborator
type CatalogService interface {
	ListProducts(ctx context.Context) ([]Product, error)
	// GetProduct fails with ErrNotFound when the id is unknown
	GetProduct(ctx context.Context, id string) (*Product, error)
	// SearchProducts is a plain backend search and may return zero results
	SearchProducts(ctx context.Context, query string) ([]Product, error)
}

// CartService defines the cart collaborator
type CartService interface {
	AddItem(ctx context.Context, userID, productID string, quantity int32) error
	GetCart(ctx context.Context, userID string) ([]CartLine, error)
	EmptyCart(ctx context.Context, userID string) error
}

// TextGenerator is the optional generative text collaborator.
// Callers must check Enabled before calling Generate.
type TextGenerator interface {
	Enabled() bool
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Embedder produces one embedding vector per input text
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EntityRecognizer returns organization and product entity strings found in text
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]string, error)
}
