// internal/llmclient/gemini_client.go
package llmclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/xkilldash9x/freddy/api/schemas"
	"github.com/xkilldash9x/freddy/internal/config"
)

// GoogleClient implements schemas.LLMClient on the Gemini API through the
// genai SDK.
type GoogleClient struct {
	client  *genai.Client
	logger  *zap.Logger
	config  config.LLMModelConfig
	limiter *rate.Limiter
}

// NewGoogleClient initializes the SDK client. cfg.Endpoint, when set,
// overrides the API base URL.
func NewGoogleClient(ctx context.Context, cfg config.LLMModelConfig, logger *zap.Logger) (*GoogleClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Google/Gemini API Key is required")
	}

	httpOpts := genai.HTTPOptions{BaseURL: cfg.Endpoint}
	if cfg.APITimeout > 0 {
		timeout := cfg.APITimeout
		httpOpts.Timeout = &timeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GoogleClient{
		client:  client,
		logger:  logger.Named("llm_client.gemini"),
		config:  cfg,
		limiter: newLimiter(cfg.RequestsPerSecond),
	}, nil
}

// Generate sends the prompts to Gemini and returns the first candidate's text.
func (c *GoogleClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if err := wait(ctx, c.limiter); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	startTime := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, genai.Text(req.UserPrompt), c.buildConfig(req))
	duration := time.Since(startTime)
	if err != nil {
		c.logger.Warn("Gemini request failed", zap.Error(err), zap.Duration("duration", duration))
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini API returned empty content")
	}

	fields := []zap.Field{zap.Duration("duration", duration), zap.String("model", c.config.Model)}
	if u := resp.UsageMetadata; u != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", u.PromptTokenCount),
			zap.Int32("completion_tokens", u.CandidatesTokenCount),
			zap.Int32("total_tokens", u.TotalTokenCount),
		)
	}
	c.logger.Debug("LLM generation complete (Gemini)", fields...)
	return text, nil
}

func (c *GoogleClient) buildConfig(req schemas.GenerationRequest) *genai.GenerateContentConfig {
	temperature := float32(req.Options.Temperature)
	if temperature == 0 {
		temperature = c.config.Temperature
	}
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if topP := c.topP(req); topP > 0 {
		gc.TopP = genai.Ptr(topP)
	}
	if topK := c.topK(req); topK > 0 {
		gc.TopK = genai.Ptr(float32(topK))
	}
	if c.config.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(c.config.MaxTokens)
	}
	if req.Options.ForceJSONFormat {
		gc.ResponseMIMEType = "application/json"
	}
	return gc
}

func (c *GoogleClient) topP(req schemas.GenerationRequest) float32 {
	if req.Options.TopP > 0 {
		return float32(req.Options.TopP)
	}
	return c.config.TopP
}

func (c *GoogleClient) topK(req schemas.GenerationRequest) int {
	if req.Options.TopK > 0 {
		return req.Options.TopK
	}
	return c.config.TopK
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (c *GoogleClient) Close() error { return nil }
