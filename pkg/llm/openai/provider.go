package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/agentgate-org/agentgate/pkg/llm"
	"github.com/agentgate-org/agentgate/pkg/types"
	"github.com/sashabaranov/go-openai"
)

type Provider struct {
	client *openai.Client
	config Config
}

type Config struct {
	APIKey  string
	BaseURL string
}

func New(cfg Config) *Provider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

func (p *Provider) ID() types.ProviderID {
	return types.ProviderOpenAI
}

func (p *Provider) Call(ctx context.Context, req *llm.ProviderRequest) (*llm.ProviderResponse, error) {
	openAIReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}

	resp, err := p.client.CreateChatCompletion(ctx, openAIReq)
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion response", types.ErrProvider)
	}

	return &llm.ProviderResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Content: resp.Choices[0].Message.Content,
		Usage:   convertUsage(resp.Usage),
	}, nil
}

func (p *Provider) CallStream(ctx context.Context, req *llm.ProviderRequest) (<-chan llm.StreamChunk, error) {
	openAIReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		Stream:      true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, openAIReq)
	if err != nil {
		return nil, wrapError(err)
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)
		defer stream.Close()

		var usage types.TokenUsage
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				ch <- llm.StreamChunk{Done: true, Usage: usage}
				return
			}
			if err != nil {
				// Context cancellation is a normal terminal event for an
				// abandoned stream; usage gathered so far still goes out.
				if ctx.Err() != nil {
					ch <- llm.StreamChunk{Done: true, Usage: usage}
					return
				}
				ch <- llm.StreamChunk{Err: wrapError(err)}
				return
			}

			// The usage frame arrives with empty choices when
			// include_usage is set.
			if resp.Usage != nil {
				usage = convertUsage(*resp.Usage)
			}
			if len(resp.Choices) == 0 {
				continue
			}

			if delta := resp.Choices[0].Delta.Content; delta != "" {
				select {
				case ch <- llm.StreamChunk{Content: delta}:
				case <-ctx.Done():
					ch <- llm.StreamChunk{Done: true, Usage: usage}
					return
				}
			}
		}
	}()

	return ch, nil
}

// Helpers

func convertMessages(msgs []types.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		// go-openai uses omitempty on Content; keep a space so the field is
		// always serialized for strict OpenAI-compatible backends.
		content := m.Content
		if content == "" {
			content = " "
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: content,
		})
	}
	return result
}

func convertUsage(u openai.Usage) types.TokenUsage {
	return types.TokenUsage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  u.TotalTokens,
	}
}

func wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %v", types.ErrAuth, err)
		}
	}
	return fmt.Errorf("%w: %v", types.ErrProvider, err)
}
