package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agentgate-org/agentgate/pkg/config"
	"github.com/agentgate-org/agentgate/pkg/credential"
	"github.com/agentgate-org/agentgate/pkg/types"
)

// ProviderFactory builds a provider client for one resolved credential.
// Injected so tests can substitute a scripted provider.
type ProviderFactory func(ctx context.Context, res credential.Resolution) (Provider, error)

// Completion is the outcome of a single-shot model call.
type Completion struct {
	Content  string
	Model    string
	Provider types.ProviderID
	Usage    types.TokenUsage
}

// Router picks a concrete model for each request and executes it against the
// resolved provider, single-shot or streaming.
type Router struct {
	catalog *ModelCatalog
	factory ProviderFactory
	opts    config.ModelConfig
	log     *slog.Logger
}

func NewRouter(catalog *ModelCatalog, factory ProviderFactory, opts config.ModelConfig, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	if catalog == nil {
		catalog = NewModelCatalog(nil)
	}
	return &Router{
		catalog: catalog,
		factory: factory,
		opts:    opts,
		log:     log,
	}
}

// Catalog exposes the model metadata set.
func (r *Router) Catalog() *ModelCatalog {
	return r.catalog
}

// Select resolves the concrete model for a request. Platform-funded requests
// are pinned to the free-tier allow-list; "auto" or an unusable hint falls
// through to the message heuristic. An id missing from the catalog entirely
// selects the default free model instead of failing the request.
func (r *Router) Select(res credential.Resolution, message, hint string) ModelInfo {
	hint = strings.TrimSpace(hint)
	if hint != "" && hint != "auto" {
		if m, ok := r.catalog.Get(hint); ok && m.Provider == res.Provider {
			if res.OwnKey || m.FreeTier {
				return m
			}
			// Paid hint without own key: fall through to the heuristic.
		} else if !ok {
			return r.defaultFree(res.Provider)
		}
	}
	return r.heuristic(res, message)
}

// heuristic picks the best available model from message shape: long or
// code/analysis-heavy messages get the largest-context candidate, short chat
// gets the first (cheapest) one.
func (r *Router) heuristic(res credential.Resolution, message string) ModelInfo {
	candidates := r.catalog.ForProvider(res.Provider, !res.OwnKey)
	if len(candidates) == 0 {
		return r.defaultFree(res.Provider)
	}

	if wantsLargeModel(message) {
		best := candidates[0]
		for _, m := range candidates[1:] {
			if m.ContextTokens > best.ContextTokens {
				best = m
			}
		}
		return best
	}
	return candidates[0]
}

var heavyKeywords = []string{"code", "debug", "refactor", "analyze", "analyse", "summarize", "summarise", "translate", "review"}

func wantsLargeModel(message string) bool {
	if len(message) > 2000 {
		return true
	}
	lower := strings.ToLower(message)
	for _, kw := range heavyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (r *Router) defaultFree(provider types.ProviderID) ModelInfo {
	id := r.opts.DefaultFree
	if m, ok := r.catalog.Get(id); ok && m.Provider == provider {
		return m
	}
	if m, ok := r.catalog.Get(DefaultFreeModels[provider]); ok {
		return m
	}
	// Catalog was built without this provider; synthesize a minimal entry so
	// the call can still be attempted.
	return ModelInfo{ID: id, Provider: provider, FreeTier: true}
}

// Complete blocks until the full text and token usage are returned.
func (r *Router) Complete(ctx context.Context, res credential.Resolution, model ModelInfo, msgs []types.Message) (*Completion, error) {
	provider, err := r.factory(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("build provider: %w", err)
	}

	resp, err := provider.Call(ctx, r.providerRequest(model, msgs))
	if err != nil {
		return nil, err
	}
	return &Completion{
		Content:  resp.Content,
		Model:    model.ID,
		Provider: res.Provider,
		Usage:    resp.Usage,
	}, nil
}

// Stream produces an ordered sequence of text deltas terminated by one Done
// chunk carrying aggregate usage. The sequence is not restartable.
func (r *Router) Stream(ctx context.Context, res credential.Resolution, model ModelInfo, msgs []types.Message) (<-chan StreamChunk, error) {
	provider, err := r.factory(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("build provider: %w", err)
	}
	return provider.CallStream(ctx, r.providerRequest(model, msgs))
}

func (r *Router) providerRequest(model ModelInfo, msgs []types.Message) *ProviderRequest {
	return &ProviderRequest{
		Model:       model.ID,
		Messages:    msgs,
		MaxTokens:   r.opts.MaxTokens,
		Temperature: r.opts.Temperature,
	}
}
