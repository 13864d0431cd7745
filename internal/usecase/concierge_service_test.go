package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopconcierge/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "user-1"

func newTestConcierge(catalog *fakeCatalog, cart *fakeCart, generator domain.TextGenerator) *ConciergeService {
	return NewConciergeService(ConciergeDeps{
		Catalog:   catalog,
		Cart:      cart,
		Generator: generator,
	})
}

func TestConciergeService_Chat_Rules(t *testing.T) {
	ctx := context.Background()

	t.Run("search with budget and color", func(t *testing.T) {
		catalog := &fakeCatalog{products: []domain.Product{
			product("BLUEJACKET", "Blue Jacket", "A warm blue jacket for cold days.", 80, 0, "clothing"),
			product("RUNSHOES01", "Running Shoes", "Lightweight shoes built for daily runs.", 55, 0, "footwear", "sports"),
		}}
		svc := newTestConcierge(catalog, newFakeCart(), nil)

		reply, err := svc.Chat(ctx, testUser, "I need blue running shoes under $60")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusSuccess, reply.Status)
		assert.Equal(t, domain.IntentSearch, reply.Intent)
		require.NotNil(t, reply.Budget)
		assert.InDelta(t, 60.0, *reply.Budget, 1e-9)
		require.NotNil(t, reply.Entities)
		assert.Equal(t, []string{"blue"}, reply.Entities.Colors)
		require.NotEmpty(t, reply.CitedProductIDs)
		assert.Equal(t, "RUNSHOES01", reply.CitedProductIDs[0])
		assert.Contains(t, reply.Response, "1. **Running Shoes** - $55.00")
	})

	t.Run("search with nothing found offers the catalog", func(t *testing.T) {
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, newFakeCart(), nil)

		reply, err := svc.Chat(ctx, testUser, "find me a kazoo")
		require.NoError(t, err)

		assert.Equal(t, domain.IntentSearch, reply.Intent)
		assert.Contains(t, reply.Response, "I couldn't find products matching")
		assert.Contains(t, reply.Response, "Sunglasses")
	})

	t.Run("search failure is friendly", func(t *testing.T) {
		catalog := &fakeCatalog{products: testCatalog(), searchErr: errors.New("rpc error: connection refused")}
		svc := newTestConcierge(catalog, newFakeCart(), nil)

		reply, err := svc.Chat(ctx, testUser, "find sunglasses")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusError, reply.Status)
		assert.NotContains(t, reply.Response, "rpc error")
	})

	t.Run("view cart", func(t *testing.T) {
		cart := newFakeCart()
		cart.lines[testUser] = []domain.CartLine{{ProductID: "OLJCESPC7Z", Quantity: 2}}
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, nil)

		reply, err := svc.Chat(ctx, testUser, "what's in my cart")
		require.NoError(t, err)

		assert.Equal(t, domain.IntentViewCart, reply.Intent)
		assert.Contains(t, reply.Response, "• **Sunglasses** x2")
		assert.Contains(t, reply.Response, "**Total: 2 items, $39.98**")
	})

	t.Run("add by id", func(t *testing.T) {
		cart := newFakeCart()
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, nil)

		reply, err := svc.Chat(ctx, testUser, "add OLJCESPC7Z to cart")
		require.NoError(t, err)

		assert.Equal(t, domain.IntentAddToCart, reply.Intent)
		assert.Equal(t, "Added 1x **Sunglasses** ($19.99 each) to your cart!", reply.Response)
		assert.Equal(t, []domain.CartLine{{ProductID: "OLJCESPC7Z", Quantity: 1}}, cart.lines[testUser])
	})

	t.Run("add unknown id", func(t *testing.T) {
		cart := newFakeCart()
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, nil)

		reply, err := svc.Chat(ctx, testUser, "add ZZZZZZZZ99 to cart")
		require.NoError(t, err)

		assert.Equal(t, "Product ID 'ZZZZZZZZ99' not found. Please search for products to get valid IDs.", reply.Response)
		assert.Equal(t, 0, cart.adds)
	})

	t.Run("add without id", func(t *testing.T) {
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, newFakeCart(), nil)

		reply, err := svc.Chat(ctx, testUser, "I'll take it")
		require.NoError(t, err)

		assert.Equal(t, domain.IntentAddToCart, reply.Intent)
		assert.True(t, strings.HasPrefix(reply.Response, "To add items to cart, please specify the product ID."))
	})

	t.Run("clear cart", func(t *testing.T) {
		cart := newFakeCart()
		cart.lines[testUser] = []domain.CartLine{{ProductID: "6E92ZMYYFZ", Quantity: 1}}
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, nil)

		reply, err := svc.Chat(ctx, testUser, "clear my cart")
		require.NoError(t, err)

		assert.Equal(t, domain.IntentClearCart, reply.Intent)
		assert.Equal(t, "Your cart has been cleared.", reply.Response)
		assert.Empty(t, cart.lines[testUser])
	})

	t.Run("recommendations under budget", func(t *testing.T) {
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, newFakeCart(), nil)

		reply, err := svc.Chat(ctx, testUser, "recommend something under $20")
		require.NoError(t, err)

		assert.Equal(t, domain.IntentRecommend, reply.Intent)
		assert.Equal(t, 6, reply.Count)
		assert.NotContains(t, reply.CitedProductIDs, "2ZYFJ3GM2N")
	})

	t.Run("help reports the basic mode", func(t *testing.T) {
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, newFakeCart(), nil)

		reply, err := svc.Chat(ctx, testUser, "help")
		require.NoError(t, err)

		assert.Equal(t, domain.IntentHelp, reply.Intent)
		assert.Contains(t, reply.Response, "with basic matching")
	})

	t.Run("blank message", func(t *testing.T) {
		svc := newTestConcierge(&fakeCatalog{}, newFakeCart(), nil)

		reply, err := svc.Chat(ctx, testUser, "   ")
		require.NoError(t, err)
		assert.Equal(t, "I didn't catch that. Could you try again?", reply.Response)
	})

	t.Run("missing user id", func(t *testing.T) {
		svc := newTestConcierge(&fakeCatalog{}, newFakeCart(), nil)

		_, err := svc.Chat(ctx, " ", "hello")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestConciergeService_Chat_Generative(t *testing.T) {
	ctx := context.Background()
	answer := "I recommend the **Watch** (ID: 1YMWWN1N4O) - $109.99. It pairs with most outfits and suits a meeting."

	t.Run("accepted answer", func(t *testing.T) {
		cart := newFakeCart()
		cart.lines[testUser] = []domain.CartLine{{ProductID: "6E92ZMYYFZ", Quantity: 1}}
		generator := &fakeGenerator{enabled: true, answer: answer}
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, generator)

		reply, err := svc.Chat(ctx, testUser, "what goes well with a summer outfit")
		require.NoError(t, err)

		assert.Equal(t, answer, reply.Response)
		assert.Equal(t, []string{"1YMWWN1N4O"}, reply.CitedProductIDs)
		require.Len(t, generator.prompts, 1)
		assert.Contains(t, generator.prompts[0], "User has 1 items in cart currently.")
		assert.Contains(t, generator.prompts[0], "Sunglasses (ID: OLJCESPC7Z)")
	})

	t.Run("rejected answer falls back to search", func(t *testing.T) {
		generator := &fakeGenerator{enabled: true, answer: "Sorry, having trouble."}
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, newFakeCart(), generator)

		reply, err := svc.Chat(ctx, testUser, "show me sunglasses")
		require.NoError(t, err)

		assert.Contains(t, reply.Response, "I found these products matching 'sunglasses'")
		require.NotEmpty(t, reply.CitedProductIDs)
		assert.Equal(t, "OLJCESPC7Z", reply.CitedProductIDs[0])
	})

	t.Run("generator error falls back to search", func(t *testing.T) {
		generator := &fakeGenerator{enabled: true, err: errors.New("quota exceeded")}
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, newFakeCart(), generator)

		reply, err := svc.Chat(ctx, testUser, "show me sunglasses")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusSuccess, reply.Status)
		assert.Contains(t, reply.CitedProductIDs, "OLJCESPC7Z")
		assert.NotContains(t, reply.Response, "quota")
	})

	t.Run("nothing to search asks for details", func(t *testing.T) {
		generator := &fakeGenerator{enabled: true}
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, newFakeCart(), generator)

		reply, err := svc.Chat(ctx, testUser, "show me")
		require.NoError(t, err)

		assert.Contains(t, reply.Response, "Could you tell me more specifically")
	})

	t.Run("configured temperature reaches the generator unchanged", func(t *testing.T) {
		for _, temperature := range []float32{0, 1.3} {
			generator := &fakeGenerator{enabled: true, answer: answer}
			svc := NewConciergeService(ConciergeDeps{
				Catalog:     &fakeCatalog{products: testCatalog()},
				Cart:        newFakeCart(),
				Generator:   generator,
				Temperature: temperature,
			})

			_, err := svc.Chat(ctx, testUser, "what goes well with a summer outfit")
			require.NoError(t, err)
			assert.Equal(t, []float32{temperature}, generator.temperatures)
		}
	})

	t.Run("add all skips generation", func(t *testing.T) {
		cart := newFakeCart()
		generator := &fakeGenerator{enabled: true, answer: answer}
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, generator)

		reply, err := svc.Chat(ctx, testUser, "add all to cart")
		require.NoError(t, err)

		assert.Equal(t, addAllLimit, cart.adds)
		assert.Len(t, cart.lines[testUser], addAllLimit)
		assert.Empty(t, generator.prompts)
		assert.Contains(t, reply.Response, "Added 5 products to your cart:")
	})

	t.Run("add by name", func(t *testing.T) {
		cart := newFakeCart()
		generator := &fakeGenerator{enabled: true, answer: answer}
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, generator)

		reply, err := svc.Chat(ctx, testUser, "add sunglasses to cart")
		require.NoError(t, err)

		assert.Equal(t, "Added 1x **Sunglasses** ($19.99 each) to your cart!", reply.Response)
		assert.Empty(t, generator.prompts)
	})

	t.Run("add by snapshot match when search is down", func(t *testing.T) {
		cart := newFakeCart()
		generator := &fakeGenerator{enabled: true, answer: answer}
		catalog := &fakeCatalog{products: testCatalog(), searchErr: errors.New("search unavailable")}
		svc := newTestConcierge(catalog, cart, generator)

		reply, err := svc.Chat(ctx, testUser, "add some sunglass to my cart")
		require.NoError(t, err)

		assert.Equal(t, "Added 1x **Sunglasses** ($19.99 each) to your cart!\n\nThis was the best match for 'some sunglass'.", reply.Response)
		assert.Equal(t, []domain.CartLine{{ProductID: "OLJCESPC7Z", Quantity: 1}}, cart.lines[testUser])
		assert.Empty(t, generator.prompts)
	})

	t.Run("cart failure during add", func(t *testing.T) {
		cart := newFakeCart()
		cart.addErr = errors.New("dial tcp: connection refused")
		generator := &fakeGenerator{enabled: true, answer: answer}
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, generator)

		reply, err := svc.Chat(ctx, testUser, "add OLJCESPC7Z to cart")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusError, reply.Status)
		assert.Equal(t, "I'm having trouble connecting to the shopping cart right now. Please try again in a moment.", reply.Response)
	})
}

func TestConciergeService_Capabilities(t *testing.T) {
	basic := newTestConcierge(&fakeCatalog{}, newFakeCart(), nil)
	assert.Equal(t, ModeBasic, basic.Capabilities().Mode)

	disabled := newTestConcierge(&fakeCatalog{}, newFakeCart(), &fakeGenerator{})
	assert.False(t, disabled.Capabilities().GenerativeEnabled)

	generative := newTestConcierge(&fakeCatalog{}, newFakeCart(), &fakeGenerator{enabled: true})
	caps := generative.Capabilities()
	assert.True(t, caps.GenerativeEnabled)
	assert.Equal(t, ModeGenerative, caps.Mode)

	catalog := &fakeCatalog{}
	semantic := NewConciergeService(ConciergeDeps{
		Catalog: catalog,
		Cart:    newFakeCart(),
		Search: NewSearchService(catalog, MatchConfig{},
			NewSemanticQueryEnhancer(&fakeEmbedder{}, nil), nil),
	})
	assert.Equal(t, ModeSemantic, semantic.Capabilities().Mode)
}

func TestConciergeService_AddToCart(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name      string
		userID    string
		productID string
		quantity  int32
	}{
		{name: "missing user", productID: "OLJCESPC7Z", quantity: 1},
		{name: "missing product", userID: testUser, quantity: 1},
		{name: "zero quantity", userID: testUser, productID: "OLJCESPC7Z", quantity: 0},
		{name: "negative quantity", userID: testUser, productID: "OLJCESPC7Z", quantity: -2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cart := newFakeCart()
			svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, nil)

			_, err := svc.AddToCart(ctx, tc.userID, tc.productID, tc.quantity)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, 0, cart.adds)
		})
	}

	t.Run("adds the requested quantity", func(t *testing.T) {
		cart := newFakeCart()
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, nil)

		reply, err := svc.AddToCart(ctx, testUser, "6E92ZMYYFZ", 3)
		require.NoError(t, err)

		assert.Equal(t, "Added 3x **Mug** ($8.99 each) to your cart!", reply.Response)
		assert.Equal(t, []domain.CartLine{{ProductID: "6E92ZMYYFZ", Quantity: 3}}, cart.lines[testUser])
	})
}

func TestConciergeService_RemoveItem(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps the other lines", func(t *testing.T) {
		cart := newFakeCart()
		cart.lines[testUser] = []domain.CartLine{
			{ProductID: "OLJCESPC7Z", Quantity: 2},
			{ProductID: "6E92ZMYYFZ", Quantity: 1},
		}
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, nil)

		reply, err := svc.RemoveItem(ctx, testUser, "OLJCESPC7Z")
		require.NoError(t, err)

		assert.Equal(t, "Removed OLJCESPC7Z from your cart.", reply.Response)
		assert.Equal(t, []domain.CartLine{{ProductID: "6E92ZMYYFZ", Quantity: 1}}, cart.lines[testUser])
	})

	t.Run("item not in cart", func(t *testing.T) {
		cart := newFakeCart()
		cart.lines[testUser] = []domain.CartLine{{ProductID: "6E92ZMYYFZ", Quantity: 1}}
		svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, nil)

		reply, err := svc.RemoveItem(ctx, testUser, "OLJCESPC7Z")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusError, reply.Status)
		assert.Len(t, cart.lines[testUser], 1)
	})

	t.Run("missing product id", func(t *testing.T) {
		svc := newTestConcierge(&fakeCatalog{}, newFakeCart(), nil)

		_, err := svc.RemoveItem(ctx, testUser, "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestConciergeService_Search(t *testing.T) {
	svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, newFakeCart(), nil)

	_, err := svc.Search(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := svc.Search(context.Background(), "mug")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "6E92ZMYYFZ", got[0].ID)
}

func TestConciergeService_Recommendations(t *testing.T) {
	ctx := context.Background()
	svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, newFakeCart(), nil)

	budget := 10.0
	reply, err := svc.Recommendations(ctx, testUser, "", &budget)
	require.NoError(t, err)
	assert.Equal(t, []string{"9SIQT8TOJO", "6E92ZMYYFZ"}, reply.CitedProductIDs)
	assert.Equal(t, domain.IntentRecommend, reply.Intent)

	ranked, err := svc.Recommendations(ctx, testUser, "watch", nil)
	require.NoError(t, err)
	require.NotEmpty(t, ranked.CitedProductIDs)
	assert.Equal(t, "1YMWWN1N4O", ranked.CitedProductIDs[0])

	_, err = svc.Recommendations(ctx, "", "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConciergeService_ViewAndClearCart(t *testing.T) {
	ctx := context.Background()
	cart := newFakeCart()
	cart.lines[testUser] = []domain.CartLine{{ProductID: "GONE000001", Quantity: 1}}
	svc := newTestConcierge(&fakeCatalog{products: testCatalog()}, cart, nil)

	reply, err := svc.ViewCart(ctx, testUser)
	require.NoError(t, err)
	assert.Contains(t, reply.Response, "Product GONE000001 x1 (details unavailable)")

	cleared, err := svc.ClearCart(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "Your cart has been cleared.", cleared.Response)

	cart.getErr = errors.New("connection refused")
	failed, err := svc.ViewCart(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "I can't access your cart right now. Please try again in a moment.", failed.Response)
}
