package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopconcierge/backend/config"
	httpDelivery "github.com/shopconcierge/backend/internal/delivery/http"
	"github.com/shopconcierge/backend/internal/domain"
	"github.com/shopconcierge/backend/internal/infrastructure/boutique"
	"github.com/shopconcierge/backend/internal/infrastructure/cache"
	"github.com/shopconcierge/backend/internal/infrastructure/gemini"
	"github.com/shopconcierge/backend/internal/usecase"
	"go.uber.org/zap"
)

// app holds the wired service graph and everything that must be closed on exit
type app struct {
	concierge *usecase.ConciergeService
	catalog   *boutique.CatalogClient
	cart      *boutique.CartClient
	closers   []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// handlerConfig describes the backends for the health endpoint
func (a *app) handlerConfig(cfg *config.Config) httpDelivery.HandlerConfig {
	return httpDelivery.HandlerConfig{
		Version:       version,
		CatalogAddr:   cfg.Catalog.Addr,
		CartAddr:      cfg.Cart.Addr,
		Catalog:       a.catalog,
		Cart:          a.cart,
		HealthTimeout: cfg.Server.HealthTimeout,
	}
}

// buildApp wires config into clients and usecases. gRPC connections are lazy,
// so an unreachable catalog does not fail startup.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		_ = a.Close()
		return nil, err
	}

	catalogConn, err := boutique.Dial(cfg.Catalog.Addr)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, catalogConn.Close)

	cartConn, err := boutique.Dial(cfg.Cart.Addr)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, cartConn.Close)

	if a.catalog, err = boutique.NewCatalogClient(catalogConn, cfg.Catalog.Timeout, logger.Named("catalog")); err != nil {
		return fail(err)
	}
	if a.cart, err = boutique.NewCartClient(cartConn, cfg.Cart.Timeout, logger.Named("cart")); err != nil {
		return fail(err)
	}

	geminiClient, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:            cfg.Gemini.APIKey,
		BaseURL:           cfg.Gemini.BaseURL,
		Model:             cfg.Gemini.Model,
		EmbeddingModel:    cfg.Gemini.EmbeddingModel,
		Timeout:           cfg.Gemini.Timeout,
		MaxOutputTokens:   cfg.Gemini.MaxOutputTokens,
		RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
		Burst:             cfg.Gemini.Burst,
	}, logger.Named("gemini"))
	if err != nil {
		return fail(err)
	}

	suggestionCache, err := newCache(ctx, cfg.Cache, logger)
	if err != nil {
		return fail(err)
	}
	if closer, ok := suggestionCache.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	match := usecase.MatchConfig{
		Strategy:           usecase.ParseMatchStrategy(cfg.Matching.Strategy),
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	}

	deps := usecase.ConciergeDeps{
		Catalog:     a.catalog,
		Cart:        a.cart,
		Suggestions: usecase.NewSuggestionService(suggestionCache, cfg.Cache.TTL, logger),
		Temperature: cfg.Gemini.Temperature,
		Logger:      logger.Named("concierge"),
	}

	if geminiClient.Enabled() {
		deps.Generator = geminiClient
		deps.Classifier = usecase.NewSemanticClassifier(geminiClient, cfg.Gemini.IntentThreshold, logger)
		deps.Entities = usecase.NewEntityExtractor(geminiClient, logger)
		deps.Search = usecase.NewSearchService(a.catalog, match,
			usecase.NewSemanticQueryEnhancer(geminiClient, logger), logger.Named("search"))
	} else {
		deps.Classifier = usecase.NewRuleClassifier()
		deps.Entities = usecase.NewEntityExtractor(nil, logger)
		deps.Search = usecase.NewSearchService(a.catalog, match, nil, logger.Named("search"))
	}

	a.concierge = usecase.NewConciergeService(deps)

	caps := a.concierge.Capabilities()
	logger.Info("concierge ready",
		zap.String("processing_mode", string(caps.Mode)),
		zap.String("catalog", cfg.Catalog.Addr),
		zap.String("cart", cfg.Cart.Addr),
		zap.String("cache", cfg.Cache.Type),
		zap.String("matching_strategy", cfg.Matching.Strategy))

	return a, nil
}

// newCache builds the suggestion cache backend named by cfg.Type
func newCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (domain.CacheRepository, error) {
	switch cfg.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			MaxEntries: cfg.MaxEntries,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr), zap.Int("max_entries", cfg.MaxEntries))
		return redisCache, nil
	case "memory", "":
		logger.Info("using memory cache", zap.Int("max_entries", cfg.MaxEntries))
		return cache.NewMemoryCache(cfg.MaxEntries), nil
	}
	return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
}
