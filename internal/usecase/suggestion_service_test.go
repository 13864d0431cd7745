package usecase

import (
	"context"
	"testing"

	"github.com/shopconcierge/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestionService_Suggest(t *testing.T) {
	ctx := context.Background()

	t.Run("first matching category with cache hit", func(t *testing.T) {
		cache := newMemoryCache()
		svc := NewSuggestionService(cache, 0, nil)

		want := []string{"electronics phone", "electronics laptop", "electronics computer"}
		assert.Equal(t, want, svc.Suggest(ctx, "I need a laptop"))
		assert.Equal(t, want, svc.Suggest(ctx, "I need a laptop"))
		assert.Equal(t, 1, cache.sets)

		cached, err := cache.Get(ctx, "suggest:i need a laptop")
		require.NoError(t, err)
		assert.IsType(t, "", cached)
	})

	t.Run("no category", func(t *testing.T) {
		svc := NewSuggestionService(newMemoryCache(), 0, nil)
		assert.Empty(t, svc.Suggest(ctx, "random"))
		assert.Empty(t, svc.Suggest(ctx, "random"))
	})

	t.Run("malformed cache entry is recomputed", func(t *testing.T) {
		cache := newMemoryCache()
		require.NoError(t, cache.Set(ctx, "suggest:shirt", 42, 0))
		svc := NewSuggestionService(cache, 0, nil)

		assert.Equal(t, []string{"clothing shirt", "clothing pants", "clothing dress"}, svc.Suggest(ctx, "shirt"))
	})

	t.Run("works without a cache", func(t *testing.T) {
		svc := NewSuggestionService(nil, 0, nil)
		assert.Len(t, svc.Suggest(ctx, "new kitchen decor"), 3)
	})
}

func TestAlternativeSearchTerms(t *testing.T) {
	testCases := []struct {
		name     string
		terms    string
		entities domain.ExtractedEntities
		want     []string
	}{
		{
			name:     "product type alternatives",
			terms:    "running shoes",
			entities: domain.ExtractedEntities{ProductTypes: []string{"shoes"}},
			want:     []string{"footwear", "sneakers", "boots"},
		},
		{
			name:  "long query offers its first word",
			terms: "blue running shoes",
			want:  []string{"blue"},
		},
		{
			name:     "capped at three",
			terms:    "cheap laptop bag",
			entities: domain.ExtractedEntities{ProductTypes: []string{"laptop"}},
			want:     []string{"computer", "electronics", "technology"},
		},
		{
			name:  "nothing to offer",
			terms: "mug",
			want:  nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AlternativeSearchTerms(tc.terms, tc.entities))
		})
	}
}
