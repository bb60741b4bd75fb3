package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentgate-org/agentgate/pkg/llm"
	"github.com/agentgate-org/agentgate/pkg/types"
	"google.golang.org/genai"
)

// Config contains Gemini-specific configuration.
type Config struct {
	APIKey string
}

type Provider struct {
	client *genai.Client
	config Config
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Provider{
		client: client,
		config: cfg,
	}, nil
}

func (p *Provider) ID() types.ProviderID {
	return types.ProviderGemini
}

func (p *Provider) Call(ctx context.Context, req *llm.ProviderRequest) (*llm.ProviderResponse, error) {
	modelName, contents, conf := p.prepareCall(req)

	resp, err := p.client.Models.GenerateContent(ctx, modelName, contents, conf)
	if err != nil {
		return nil, wrapError(err)
	}

	return &llm.ProviderResponse{
		Model:   modelName,
		Content: resp.Text(),
		Usage:   convertUsage(resp.UsageMetadata),
	}, nil
}

func (p *Provider) CallStream(ctx context.Context, req *llm.ProviderRequest) (<-chan llm.StreamChunk, error) {
	modelName, contents, conf := p.prepareCall(req)

	stream := p.client.Models.GenerateContentStream(ctx, modelName, contents, conf)

	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)

		var usage types.TokenUsage
		for chunk, err := range stream {
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				ch <- llm.StreamChunk{Err: wrapError(err)}
				return
			}
			// Usage metadata rides along on every chunk; the last value is
			// the aggregate.
			if chunk.UsageMetadata != nil {
				usage = convertUsage(chunk.UsageMetadata)
			}
			if text := chunk.Text(); text != "" {
				select {
				case ch <- llm.StreamChunk{Content: text}:
				case <-ctx.Done():
					ch <- llm.StreamChunk{Done: true, Usage: usage}
					return
				}
			}
		}
		ch <- llm.StreamChunk{Done: true, Usage: usage}
	}()

	return ch, nil
}

func (p *Provider) prepareCall(req *llm.ProviderRequest) (string, []*genai.Content, *genai.GenerateContentConfig) {
	// Separate system prompt from conversation turns.
	var systemInstruction *genai.Content
	var contents []*genai.Content

	for _, m := range req.Messages {
		if m.Role == "system" {
			systemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: m.Content}},
			}
			continue
		}
		contents = append(contents, convertMessage(m))
	}

	conf := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens:   int32(req.MaxTokens),
		SystemInstruction: systemInstruction,
	}

	modelName := req.Model
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	return modelName, contents, conf
}

// Helpers

func convertMessage(m types.Message) *genai.Content {
	role := "user"
	if m.Role == "assistant" {
		role = "model"
	}
	return &genai.Content{
		Role:  role,
		Parts: []*genai.Part{{Text: m.Content}},
	}
}

func convertUsage(meta *genai.GenerateContentResponseUsageMetadata) types.TokenUsage {
	if meta == nil {
		return types.TokenUsage{}
	}
	return types.TokenUsage{
		InputTokens:  int(meta.PromptTokenCount),
		OutputTokens: int(meta.CandidatesTokenCount),
		TotalTokens:  int(meta.TotalTokenCount),
	}
}

func wrapError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "api key") || strings.Contains(msg, "unauthenticated") || strings.Contains(msg, "permission") {
		return fmt.Errorf("%w: %v", types.ErrAuth, err)
	}
	return fmt.Errorf("%w: %v", types.ErrProvider, err)
}
