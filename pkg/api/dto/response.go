package dto

import (
	"time"

	"github.com/agentgate-org/agentgate/pkg/catalog"
	"github.com/agentgate-org/agentgate/pkg/llm"
	"github.com/agentgate-org/agentgate/pkg/permission"
	"github.com/agentgate-org/agentgate/pkg/store"
)

// UsageBlock reports token accounting for one chat call.
type UsageBlock struct {
	InputTokens  int  `json:"input_tokens"`
	OutputTokens int  `json:"output_tokens"`
	TotalTokens  int  `json:"total_tokens"`
	UsedOwnKey   bool `json:"used_own_key"`
}

// UserStatus reports the caller's credential and quota standing.
type UserStatus struct {
	HasOwnKey          bool `json:"has_own_key"`
	FreeQuotaRemaining int  `json:"free_quota_remaining"`
}

// ActionResult is the outcome of one action extracted from a reply or
// executed directly.
type ActionResult struct {
	ExecutionID string `json:"execution_id"`
	ActionID    string `json:"action_id"`
	Status      string `json:"status"`
	Summary     string `json:"summary,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ChatResponse is the non-streaming chat completion response.
type ChatResponse struct {
	Message    string         `json:"message"`
	Actions    []ActionResult `json:"actions,omitempty"`
	ModelUsed  string         `json:"model_used"`
	Provider   string         `json:"provider"`
	Usage      UsageBlock     `json:"usage"`
	UserStatus UserStatus     `json:"user_status"`
}

// StreamDone is the terminal frame of a streaming chat response.
type StreamDone struct {
	Done       bool           `json:"done"`
	Actions    []ActionResult `json:"actions,omitempty"`
	Model      string         `json:"model"`
	Provider   string         `json:"provider"`
	Usage      UsageBlock     `json:"usage"`
	UserStatus UserStatus     `json:"user_status"`
}

// PermissionsResponse lists the caller's grants and the action catalog.
type PermissionsResponse struct {
	Summary permission.Summary   `json:"summary"`
	Catalog []catalog.Definition `json:"catalog"`
}

// CatalogResponse lists the action definitions and model metadata.
type CatalogResponse struct {
	Actions []catalog.Definition `json:"actions"`
	Models  []llm.ModelInfo      `json:"models"`
}

// ExecutionResponse is one history entry.
type ExecutionResponse struct {
	ID         string         `json:"id"`
	ActionID   string         `json:"action_id"`
	ActorID    string         `json:"actor_id"`
	Status     string         `json:"status"`
	Params     map[string]any `json:"params,omitempty"`
	Summary    string         `json:"summary,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
}

// NewExecutionResponse converts a store record.
func NewExecutionResponse(rec store.ExecutionRecord) ExecutionResponse {
	return ExecutionResponse{
		ID:         rec.ID,
		ActionID:   rec.ActionID,
		ActorID:    rec.ActorID,
		Status:     string(rec.Status),
		Params:     rec.Params,
		Summary:    rec.ResultSummary,
		Error:      rec.ErrorMessage,
		CreatedAt:  rec.CreatedAt,
		ResolvedAt: rec.ResolvedAt,
	}
}

// ExecutionListResponse lists history entries.
type ExecutionListResponse struct {
	Executions []ExecutionResponse `json:"executions"`
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OKResponse acknowledges a write with no body to return.
type OKResponse struct {
	OK bool `json:"ok"`
}
