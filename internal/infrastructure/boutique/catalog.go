package boutique

import (
	"context"
	"time"

	"github.com/shopconcierge/backend/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// CatalogClient implements domain.CatalogService against hipstershop.ProductCatalogService
type CatalogClient struct {
	invoker
}

// NewCatalogClient creates a catalog client on conn
func NewCatalogClient(conn grpc.ClientConnInterface, timeout time.Duration, logger *zap.Logger) (*CatalogClient, error) {
	inv, err := newInvoker(conn, timeout, logger)
	if err != nil {
		return nil, err
	}
	return &CatalogClient{invoker: inv}, nil
}

// ListProducts returns the whole catalog
func (c *CatalogClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	req := dynamicpb.NewMessage(c.msgs.Empty)
	resp := dynamicpb.NewMessage(c.msgs.ListProductsResponse)

	if err := c.invoke(ctx, ListProductsMethod, req, resp); err != nil {
		return nil, err
	}

	return MapToProducts(resp.Get(c.msgs.ListProductsResponse.Fields().ByName("products")).List()), nil
}

// GetProduct returns one product, or ErrNotFound
func (c *CatalogClient) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	req := dynamicpb.NewMessage(c.msgs.GetProductRequest)
	req.Set(c.msgs.GetProductRequest.Fields().ByName("id"), protoreflect.ValueOfString(id))
	resp := dynamicpb.NewMessage(c.msgs.Product)

	if err := c.invoke(ctx, GetProductMethod, req, resp); err != nil {
		return nil, err
	}

	product := MapToProduct(resp)
	return &product, nil
}

// SearchProducts runs the catalog's own substring search
func (c *CatalogClient) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	req := dynamicpb.NewMessage(c.msgs.SearchProductsRequest)
	req.Set(c.msgs.SearchProductsRequest.Fields().ByName("query"), protoreflect.ValueOfString(query))
	resp := dynamicpb.NewMessage(c.msgs.SearchProductsResponse)

	if err := c.invoke(ctx, SearchProductsMethod, req, resp); err != nil {
		return nil, err
	}

	return MapToProducts(resp.Get(c.msgs.SearchProductsResponse.Fields().ByName("results")).List()), nil
}

// Ping checks the catalog is reachable, for health reporting
func (c *CatalogClient) Ping(ctx context.Context) error {
	_, err := c.ListProducts(ctx)
	return err
}
