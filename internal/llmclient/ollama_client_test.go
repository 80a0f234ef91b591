package llmclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/freddy/api/schemas"
)

// setupOllamaClient points an OllamaClient at a mock HTTP server with
// immediate, bounded retries.
func setupOllamaClient(t *testing.T, handler http.HandlerFunc) *OllamaClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewOllamaClient(getValidOllamaConfig(server.URL), setupTestLogger(t))
	require.NoError(t, err)
	client.backoffFactory = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	return client
}

func TestNewOllamaClient_Validation(t *testing.T) {
	_, err := NewOllamaClient(getValidOllamaConfig(""), setupTestLogger(t))
	assert.ErrorContains(t, err, "endpoint is required")

	cfg := getValidOllamaConfig("http://localhost:11434")
	cfg.Model = ""
	_, err = NewOllamaClient(cfg, setupTestLogger(t))
	assert.ErrorContains(t, err, "model name is required")
}

func TestOllamaGenerate_Success(t *testing.T) {
	var captured ollamaRequest
	client := setupOllamaClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.2","response":"  FOLLOW Ann \n","done":true,"eval_count":4}`))
	})

	got, err := client.Generate(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "You are Freddy.",
		UserPrompt:   "What now?",
		Options:      schemas.GenerationOptions{Temperature: 0.3, ForceJSONFormat: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "FOLLOW Ann", got)

	assert.Equal(t, "llama3.2", captured.Model)
	assert.Equal(t, "What now?", captured.Prompt)
	assert.Equal(t, "You are Freddy.", captured.System)
	assert.False(t, captured.Stream)
	assert.Equal(t, "json", captured.Format)
	assert.InDelta(t, 0.3, captured.Options.Temperature, 1e-9)
}

func TestOllamaGenerate_DefaultTemperature(t *testing.T) {
	client := setupOllamaClient(t, nil)
	payload := client.buildRequestPayload(schemas.GenerationRequest{UserPrompt: "x"})
	assert.InDelta(t, 0.7, payload.Options.Temperature, 1e-6)
	assert.Empty(t, payload.Format)
}

func TestOllamaGenerate_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	client := setupOllamaClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"response":"WANDER","done":true}`))
	})

	got, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "WANDER", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOllamaGenerate_PermanentErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"bad request", http.StatusBadRequest, `{"error":"bad"}`, "status 400"},
		{"model missing", http.StatusNotFound, `{"error":"model not found"}`, "status 404"},
		{"malformed body", http.StatusOK, `not json`, "failed to decode response payload"},
		{"error field", http.StatusOK, `{"error":"out of memory"}`, "ollama returned error: out of memory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client := setupOllamaClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "x"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, int32(1), calls.Load(), "permanent errors are not retried")
		})
	}
}

func TestOllamaGenerate_ContextCancelled(t *testing.T) {
	client := setupOllamaClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"IDLE"}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, schemas.GenerationRequest{UserPrompt: "x"})
	assert.Error(t, err)
}

func TestOllamaClose(t *testing.T) {
	client := setupOllamaClient(t, nil)
	assert.NoError(t, client.Close())
}
