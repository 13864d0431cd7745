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

// CartClient implements domain.CartService against hipstershop.CartService
type CartClient struct {
	invoker
}

// NewCartClient creates a cart client on conn
func NewCartClient(conn grpc.ClientConnInterface, timeout time.Duration, logger *zap.Logger) (*CartClient, error) {
	inv, err := newInvoker(conn, timeout, logger)
	if err != nil {
		return nil, err
	}
	return &CartClient{invoker: inv}, nil
}

// AddItem adds quantity of productID to the user's cart
func (c *CartClient) AddItem(ctx context.Context, userID, productID string, quantity int32) error {
	item := dynamicpb.NewMessage(c.msgs.CartItem)
	itemFields := c.msgs.CartItem.Fields()
	item.Set(itemFields.ByName("product_id"), protoreflect.ValueOfString(productID))
	item.Set(itemFields.ByName("quantity"), protoreflect.ValueOfInt32(quantity))

	req := dynamicpb.NewMessage(c.msgs.AddItemRequest)
	reqFields := c.msgs.AddItemRequest.Fields()
	req.Set(reqFields.ByName("user_id"), protoreflect.ValueOfString(userID))
	req.Set(reqFields.ByName("item"), protoreflect.ValueOfMessage(item))

	return c.invoke(ctx, AddItemMethod, req, dynamicpb.NewMessage(c.msgs.Empty))
}

// GetCart returns the user's cart lines
func (c *CartClient) GetCart(ctx context.Context, userID string) ([]domain.CartLine, error) {
	req := dynamicpb.NewMessage(c.msgs.GetCartRequest)
	req.Set(c.msgs.GetCartRequest.Fields().ByName("user_id"), protoreflect.ValueOfString(userID))
	resp := dynamicpb.NewMessage(c.msgs.Cart)

	if err := c.invoke(ctx, GetCartMethod, req, resp); err != nil {
		return nil, err
	}

	return MapToCartLines(resp), nil
}

// EmptyCart removes every line from the user's cart
func (c *CartClient) EmptyCart(ctx context.Context, userID string) error {
	req := dynamicpb.NewMessage(c.msgs.EmptyCartRequest)
	req.Set(c.msgs.EmptyCartRequest.Fields().ByName("user_id"), protoreflect.ValueOfString(userID))

	return c.invoke(ctx, EmptyCartMethod, req, dynamicpb.NewMessage(c.msgs.Empty))
}

// Ping checks the cart service is reachable with a read of an unused cart
func (c *CartClient) Ping(ctx context.Context) error {
	_, err := c.GetCart(ctx, "health-check")
	return err
}
