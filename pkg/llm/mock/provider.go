// Package mock provides a scripted provider for tests.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/agentgate-org/agentgate/pkg/llm"
	"github.com/agentgate-org/agentgate/pkg/types"
)

type Provider struct {
	ResponseContent string
	Usage           types.TokenUsage
	// StreamDeltas, when set, overrides the scripted response for CallStream.
	StreamDeltas []string
	// Err makes every call fail.
	Err error
}

func New(response string) *Provider {
	return &Provider{
		ResponseContent: response,
		Usage:           types.TokenUsage{InputTokens: 3, OutputTokens: 5, TotalTokens: 8},
	}
}

func (p *Provider) ID() types.ProviderID {
	return "mock"
}

func (p *Provider) Call(ctx context.Context, req *llm.ProviderRequest) (*llm.ProviderResponse, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	content := p.ResponseContent
	if content == "" {
		lastMsg := req.Messages[len(req.Messages)-1]
		content = fmt.Sprintf("Mock response to: %s", lastMsg.Content)
	}

	return &llm.ProviderResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Model:   req.Model,
		Content: content,
		Usage:   p.Usage,
	}, nil
}

func (p *Provider) CallStream(ctx context.Context, req *llm.ProviderRequest) (<-chan llm.StreamChunk, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	deltas := p.StreamDeltas
	if len(deltas) == 0 {
		deltas = []string{p.ResponseContent}
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)
		for _, d := range deltas {
			select {
			case ch <- llm.StreamChunk{Content: d}:
			case <-ctx.Done():
				ch <- llm.StreamChunk{Done: true, Usage: p.Usage}
				return
			}
		}
		ch <- llm.StreamChunk{Done: true, Usage: p.Usage}
	}()
	return ch, nil
}
