// Package factory builds real provider clients for resolved credentials.
package factory

import (
	"context"
	"fmt"

	"github.com/agentgate-org/agentgate/pkg/credential"
	"github.com/agentgate-org/agentgate/pkg/llm"
	"github.com/agentgate-org/agentgate/pkg/llm/gemini"
	"github.com/agentgate-org/agentgate/pkg/llm/openai"
	"github.com/agentgate-org/agentgate/pkg/types"
)

// New returns the provider factory used in production. A fresh client per
// request keeps per-request credentials out of shared state.
func New() llm.ProviderFactory {
	return func(ctx context.Context, res credential.Resolution) (llm.Provider, error) {
		switch res.Provider {
		case types.ProviderOpenAI:
			return openai.New(openai.Config{APIKey: res.APIKey, BaseURL: res.BaseURL}), nil
		case types.ProviderGemini:
			return gemini.New(ctx, gemini.Config{APIKey: res.APIKey})
		default:
			return nil, fmt.Errorf("unsupported provider: %s", res.Provider)
		}
	}
}
