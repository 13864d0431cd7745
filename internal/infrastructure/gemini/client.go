package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopconcierge/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Defaults applied by NewClient
const (
	DefaultModel          = "gemini-2.0-flash"
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultTimeout        = 30 * time.Second
	defaultMaxTokens      = 1000
	defaultRatePerSecond  = 1.0
	defaultBurst          = 5
	recognizeTemperature  = 0
)

// Config configures the Gemini client. An empty APIKey yields a disabled client.
type Config struct {
	APIKey            string
	Model             string
	EmbeddingModel    string
	BaseURL           string
	Timeout           time.Duration
	MaxOutputTokens   int32
	RequestsPerSecond float64
	Burst             int
}

// Client implements the text generator, embedder and entity recognizer on the Gemini API
type Client struct {
	models      *genai.Models
	config      Config
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a Gemini client. Without an API key the client is disabled
// and every call fails with ErrUnavailable.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultMaxTokens
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}

	client := &Client{
		config:      cfg,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:      logger,
	}

	if cfg.APIKey == "" {
		logger.Info("gemini API key not configured, generative features disabled")
		return client, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	genaiClient, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	client.models = genaiClient.Models

	logger.Info("gemini client initialized", zap.String("model", cfg.Model))
	return client, nil
}

// Enabled reports whether an API key was configured
func (c *Client) Enabled() bool {
	return c.models != nil
}

// Model returns the generation model name
func (c *Client) Model() string {
	return c.config.Model
}

// wait applies the rate limit and the per-call timeout
func (c *Client) wait(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if !c.Enabled() {
		return nil, nil, fmt.Errorf("%w: gemini is not configured", domain.ErrUnavailable)
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limiter error: %w", err)
	}
	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	return callCtx, cancel, nil
}

// Generate returns the model's answer to prompt
func (c *Client) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	callCtx, cancel, err := c.wait(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	resp, err := c.models.GenerateContent(callCtx, c.config.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: c.config.MaxOutputTokens,
	})
	if err != nil {
		c.logger.Warn("gemini generation failed", zap.Error(err))
		return "", mapError(err)
	}

	return strings.TrimSpace(resp.Text()), nil
}

// Embed returns one vector per text, in order
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	callCtx, cancel, err := c.wait(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := c.models.EmbedContent(callCtx, c.config.EmbeddingModel, contents, &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		c.logger.Warn("gemini embedding failed", zap.Int("texts", len(texts)), zap.Error(err))
		return nil, mapError(err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", domain.ErrDegraded, len(result.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, embedding := range result.Embeddings {
		vectors[i] = embedding.Values
	}
	return vectors, nil
}

const recognizePrompt = `List the brand, organization and product names mentioned in the shopper message below.
Answer with a JSON array of strings only, for example ["Nike", "AirPods"]. Answer [] if there are none.

Message: %q`

// Recognize returns organization and product names found in text
func (c *Client) Recognize(ctx context.Context, text string) ([]string, error) {
	callCtx, cancel, err := c.wait(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := c.models.GenerateContent(callCtx, c.config.Model, genai.Text(fmt.Sprintf(recognizePrompt, text)), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](recognizeTemperature),
		MaxOutputTokens:  c.config.MaxOutputTokens,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		c.logger.Warn("gemini entity recognition failed", zap.Error(err))
		return nil, mapError(err)
	}

	return parseEntityList(resp.Text())
}

// parseEntityList decodes a JSON string array, tolerating a markdown code fence around it
func parseEntityList(raw string) ([]string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var names []string
	if err := json.Unmarshal([]byte(cleaned), &names); err != nil {
		return nil, fmt.Errorf("%w: unparseable entity list: %v", domain.ErrDegraded, err)
	}

	out := names[:0]
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

// mapError translates API failures into domain sentinels
func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gemini request: %w", err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: gemini: %s", domain.ErrNotFound, apiErr.Message)
		case apiErr.Code == http.StatusBadRequest:
			return fmt.Errorf("%w: gemini: %s", domain.ErrInvalidInput, apiErr.Message)
		case apiErr.Code == http.StatusTooManyRequests, apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: gemini: %s", domain.ErrUnavailable, apiErr.Message)
		}
	}

	return fmt.Errorf("%w: gemini: %v", domain.ErrDegraded, err)
}
