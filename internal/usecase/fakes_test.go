package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopconcierge/backend/internal/domain"
)

func product(id, name, description string, units int64, nanos int32, categories ...string) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       domain.Money{CurrencyCode: "USD", Units: units, Nanos: nanos},
		Categories:  categories,
	}
}

func testCatalog() []domain.Product {
	return []domain.Product{
		product("OLJCESPC7Z", "Sunglasses", "Add a modern touch to your outfits with these sleek aviator sunglasses.", 19, 990000000, "accessories"),
		product("66VCHSJNUP", "Tank Top", "Perfectly cropped cotton tank, with a scooped neckline.", 18, 990000000, "clothing", "tops"),
		product("1YMWWN1N4O", "Watch", "This gold-tone stainless steel watch will work with most of your outfits.", 109, 990000000, "accessories"),
		product("L9ECAV7KIM", "Loafers", "A neat addition to your summer wardrobe.", 89, 990000000, "footwear"),
		product("2ZYFJ3GM2N", "Hairdryer", "This lightweight hairdryer has 3 heat and speed settings. It's perfect for travel.", 24, 990000000, "hair", "beauty"),
		product("0PUK6V6EV0", "Candle Holder", "This small but intricate candle holder is an excellent gift.", 18, 990000000, "decor", "home"),
		product("LS4PSXUNUM", "Salt & Pepper Shakers", "Add some flavor to your kitchen.", 18, 490000000, "kitchen"),
		product("9SIQT8TOJO", "Bamboo Glass Jar", "This bamboo glass jar can hold 57 oz (1.7 l) and is perfect for any kitchen.", 5, 490000000, "kitchen"),
		product("6E92ZMYYFZ", "Mug", "A simple mug with a mustard interior.", 8, 990000000, "kitchen"),
	}
}

type fakeCatalog struct {
	mu        sync.Mutex
	products  []domain.Product
	searchHit map[string][]domain.Product
	listErr   error
	searchErr error
	getErr    error
	listCalls int
}

func (f *fakeCatalog) ListProducts(_ context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Product(nil), f.products...), nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, p := range f.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCatalog) SearchProducts(_ context.Context, query string) ([]domain.Product, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchHit[strings.ToLower(query)], nil
}

type fakeCart struct {
	mu       sync.Mutex
	lines    map[string][]domain.CartLine
	addErr   error
	getErr   error
	emptyErr error
	adds     int
}

func newFakeCart() *fakeCart {
	return &fakeCart{lines: make(map[string][]domain.CartLine)}
}

func (f *fakeCart) AddItem(_ context.Context, userID, productID string, quantity int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	if f.addErr != nil {
		return f.addErr
	}
	for i, line := range f.lines[userID] {
		if line.ProductID == productID {
			f.lines[userID][i].Quantity += quantity
			return nil
		}
	}
	f.lines[userID] = append(f.lines[userID], domain.CartLine{ProductID: productID, Quantity: quantity})
	return nil
}

func (f *fakeCart) GetCart(_ context.Context, userID string) ([]domain.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return append([]domain.CartLine(nil), f.lines[userID]...), nil
}

func (f *fakeCart) EmptyCart(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emptyErr != nil {
		return f.emptyErr
	}
	delete(f.lines, userID)
	return nil
}

type fakeGenerator struct {
	enabled      bool
	answer       string
	err          error
	prompts      []string
	temperatures []float32
}

func (f *fakeGenerator) Enabled() bool { return f.enabled }

func (f *fakeGenerator) Generate(_ context.Context, prompt string, temperature float32) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.temperatures = append(f.temperatures, temperature)
	return f.answer, f.err
}

// fakeEmbedder maps each text to a fixed vector, keyed by substring
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{0, 0, 1}
		for key, vector := range f.vectors {
			if strings.Contains(strings.ToLower(text), key) {
				out[i] = vector
				break
			}
		}
	}
	return out, nil
}

type fakeRecognizer struct {
	names []string
	err   error
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ string) ([]string, error) {
	return f.names, f.err
}

// memoryCache is a minimal CacheRepository for tests
type memoryCache struct {
	mu   sync.Mutex
	data map[string]interface{}
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]interface{})}
}

func (c *memoryCache) Get(_ context.Context, key string) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}
