package llm

import "github.com/agentgate-org/agentgate/pkg/types"

// ModelInfo is the metadata for one cataloged model.
type ModelInfo struct {
	ID            string           `json:"id"`
	Provider      types.ProviderID `json:"provider"`
	DisplayName   string           `json:"display_name"`
	FreeTier      bool             `json:"free_tier"`
	ContextTokens int              `json:"context_tokens"`
}

// DefaultFreeModels maps each provider family to its fallback free model.
var DefaultFreeModels = map[types.ProviderID]string{
	types.ProviderOpenAI: "gpt-4o-mini",
	types.ProviderGemini: "gemini-2.0-flash",
}

// ModelCatalog is the immutable model metadata set.
type ModelCatalog struct {
	byID    map[string]ModelInfo
	ordered []ModelInfo
}

// NewModelCatalog builds a catalog; empty input selects the built-in set.
func NewModelCatalog(models []ModelInfo) *ModelCatalog {
	if len(models) == 0 {
		models = builtinModels
	}
	c := &ModelCatalog{byID: make(map[string]ModelInfo, len(models))}
	for _, m := range models {
		if _, seen := c.byID[m.ID]; !seen {
			c.ordered = append(c.ordered, m)
		}
		c.byID[m.ID] = m
	}
	return c
}

// Get looks up one model by id.
func (c *ModelCatalog) Get(id string) (ModelInfo, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// List returns all models in declaration order.
func (c *ModelCatalog) List() []ModelInfo {
	out := make([]ModelInfo, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// ForProvider returns the models of one provider family, optionally
// restricted to the free tier.
func (c *ModelCatalog) ForProvider(provider types.ProviderID, freeOnly bool) []ModelInfo {
	var out []ModelInfo
	for _, m := range c.ordered {
		if m.Provider != provider {
			continue
		}
		if freeOnly && !m.FreeTier {
			continue
		}
		out = append(out, m)
	}
	return out
}

var builtinModels = []ModelInfo{
	{ID: "gpt-4o", Provider: types.ProviderOpenAI, DisplayName: "GPT-4o", ContextTokens: 128_000},
	{ID: "gpt-4.1", Provider: types.ProviderOpenAI, DisplayName: "GPT-4.1", ContextTokens: 1_000_000},
	{ID: "gpt-4o-mini", Provider: types.ProviderOpenAI, DisplayName: "GPT-4o mini", FreeTier: true, ContextTokens: 128_000},
	{ID: "gpt-4.1-mini", Provider: types.ProviderOpenAI, DisplayName: "GPT-4.1 mini", FreeTier: true, ContextTokens: 1_000_000},
	{ID: "gemini-2.5-pro", Provider: types.ProviderGemini, DisplayName: "Gemini 2.5 Pro", ContextTokens: 1_000_000},
	{ID: "gemini-2.0-flash", Provider: types.ProviderGemini, DisplayName: "Gemini 2.0 Flash", FreeTier: true, ContextTokens: 1_000_000},
	{ID: "gemini-2.0-flash-lite", Provider: types.ProviderGemini, DisplayName: "Gemini 2.0 Flash-Lite", FreeTier: true, ContextTokens: 1_000_000},
}
