package llm

import (
	"context"

	"github.com/agentgate-org/agentgate/pkg/types"
)

// Provider defines the interface for an LLM provider (e.g., OpenAI, Gemini).
// One implementation per provider family; selected once per request.
type Provider interface {
	// ID returns the unique identifier of the provider
	ID() types.ProviderID

	// Call executes a synchronous chat request
	Call(ctx context.Context, req *ProviderRequest) (*ProviderResponse, error)

	// CallStream executes a streaming chat request returning text chunks.
	// The channel delivers zero or more delta chunks followed by exactly one
	// terminal chunk (Done or Err set), then closes. Not restartable.
	CallStream(ctx context.Context, req *ProviderRequest) (<-chan StreamChunk, error)
}

// StreamChunk is one event of a streaming completion.
type StreamChunk struct {
	Content string
	Done    bool
	Usage   types.TokenUsage // populated on the Done chunk
	Err     error            // terminal mid-stream failure
}

type ProviderRequest struct {
	Model       string
	Messages    []types.Message
	MaxTokens   int
	Temperature float64
}

type ProviderResponse struct {
	ID      string
	Model   string
	Content string
	Usage   types.TokenUsage
}
