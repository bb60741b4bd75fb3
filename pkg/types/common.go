package types

import (
	"github.com/oklog/ulid/v2"
)

// ProviderID identifies a model provider family.
type ProviderID string

const (
	ProviderOpenAI ProviderID = "openai"
	ProviderGemini ProviderID = "gemini"
)

// Tier classifies who pays for a model call.
type Tier string

const (
	TierFree Tier = "free" // platform-funded
	TierBYOK Tier = "byok" // user-supplied key
)

// TokenUsage is the aggregate token accounting for one model call.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add accumulates another usage sample into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// Message is a single chat turn sent to a provider.
type Message struct {
	Role    string `json:"role"` // system / user / assistant
	Content string `json:"content"`
}

// Params is a free-form parameter object attached to a proposed action.
type Params map[string]any

// ID Generation Helpers

func GenerateID(prefix string) string {
	return prefix + "_" + ulid.Make().String()
}

func GenerateExecutionID() string  { return GenerateID("exec") }
func GenerateGrantID() string      { return GenerateID("grant") }
func GenerateMessageID() string    { return GenerateID("msg") }
func GenerateCredentialID() string { return GenerateID("cred") }
func GenerateEntityID() string     { return GenerateID("ent") }
