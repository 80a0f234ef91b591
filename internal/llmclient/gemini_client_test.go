package llmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/freddy/api/schemas"
)

// setupGoogleClient points a GoogleClient at a mock HTTP server.
func setupGoogleClient(t *testing.T, handler http.HandlerFunc) *GoogleClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := getValidGeminiConfig()
	cfg.Endpoint = server.URL
	client, err := NewGoogleClient(context.Background(), cfg, setupTestLogger(t))
	require.NoError(t, err)
	return client
}

func TestNewGoogleClient_Failure_MissingAPIKey(t *testing.T) {
	cfg := getValidGeminiConfig()
	cfg.APIKey = ""

	client, err := NewGoogleClient(context.Background(), cfg, setupTestLogger(t))
	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Google/Gemini API Key is required")
}

func TestBuildConfig(t *testing.T) {
	client := setupGoogleClient(t, nil)
	client.config.MaxTokens = 256

	gc := client.buildConfig(schemas.GenerationRequest{
		SystemPrompt: "You are Freddy.",
		Options:      schemas.GenerationOptions{Temperature: 0.2, ForceJSONFormat: true},
	})

	require.NotNil(t, gc.Temperature)
	assert.InDelta(t, 0.2, *gc.Temperature, 1e-6)
	require.NotNil(t, gc.TopP)
	assert.InDelta(t, 0.9, *gc.TopP, 1e-6)
	require.NotNil(t, gc.TopK)
	assert.Equal(t, float32(50), *gc.TopK)
	assert.Equal(t, int32(256), gc.MaxOutputTokens)
	assert.Equal(t, "application/json", gc.ResponseMIMEType)
	require.NotNil(t, gc.SystemInstruction)
	require.Len(t, gc.SystemInstruction.Parts, 1)
	assert.Equal(t, "You are Freddy.", gc.SystemInstruction.Parts[0].Text)
}

func TestBuildConfig_Defaults(t *testing.T) {
	client := setupGoogleClient(t, nil)
	gc := client.buildConfig(schemas.GenerationRequest{UserPrompt: "x"})

	require.NotNil(t, gc.Temperature)
	assert.InDelta(t, 0.7, *gc.Temperature, 1e-6)
	assert.Nil(t, gc.SystemInstruction)
	assert.Empty(t, gc.ResponseMIMEType)
}

func TestGoogleGenerate_Success(t *testing.T) {
	client := setupGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/test-model:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "WALK TO 10 20\n"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 4, "totalTokenCount": 16}
		}`))
	})

	got, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "What now?"})
	require.NoError(t, err)
	assert.Equal(t, "WALK TO 10 20", got)
}

func TestGoogleGenerate_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		client := setupGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`))
		})
		_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "x"})
		assert.ErrorContains(t, err, "gemini generate content failed")
	})

	t.Run("no candidates", func(t *testing.T) {
		client := setupGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"candidates": []}`))
		})
		_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "x"})
		assert.ErrorContains(t, err, "empty content")
	})
}
