// File: api/schemas/llm.go
package schemas

import (
	"context"
	"strings"
)

// -- LLM Client Schemas & Interface --

// ModelTier allows for selecting a large language model based on a preference
// for speed versus advanced capabilities.
type ModelTier string

const (
	TierFast     ModelTier = "fast"     // Per-decision action selection.
	TierPowerful ModelTier = "powerful" // Goal planning.
)

// UnavailableReply is the canned text a backend may hand back instead of an
// error when it gives up. Callers treat it as "no usable decision".
const UnavailableReply = "⚠️ Freddy is thinking too hard..."

// GenerationOptions controls the text generation process.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`
	ForceJSONFormat bool    `json:"force_json_format"`
	TopP            float64 `json:"top_p"`
	TopK            int     `json:"top_k"`
}

// GenerationRequest encapsulates a complete request to the LLM, including the
// system and user prompts, the desired model tier, and generation options.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Tier         ModelTier         `json:"tier"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient defines a standard interface for interacting with a Large Language
// Model, abstracting the specifics of the underlying provider.
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// IsUsableReply reports whether an LLM reply carries content worth parsing.
func IsUsableReply(reply string) bool {
	trimmed := strings.TrimSpace(reply)
	return trimmed != "" && trimmed != UnavailableReply
}
