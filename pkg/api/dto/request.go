package dto

// ChatRequest is the request body for the chat completion endpoint.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
	Model   string `json:"model,omitempty"` // model hint; empty or "auto" selects heuristically
	Stream  bool   `json:"stream,omitempty"`
}

// GrantRequest is the request body for granting an action or category.
type GrantRequest struct {
	ActionID             string `json:"action_id"` // "*" grants the whole category
	Category             string `json:"category,omitempty"`
	RequiresConfirmation bool   `json:"requires_confirmation,omitempty"`
	DailyLimit           *int   `json:"daily_limit,omitempty"`
	MaxValuePerAction    *int   `json:"max_value_per_action,omitempty"`
}

// RevokeRequest is the request body for revoking an action or category.
// ActionID "*" plus Category revokes the wildcard only; an empty ActionID
// with Category revokes everything in the category.
type RevokeRequest struct {
	ActionID string `json:"action_id,omitempty"`
	Category string `json:"category,omitempty"`
}

// ExecuteRequest is the request body for directly executing an action.
type ExecuteRequest struct {
	ActionID  string         `json:"action_id" binding:"required"`
	Params    map[string]any `json:"params"`
	Confirmed bool           `json:"confirmed,omitempty"`
}

// CredentialRequest is the request body for storing a provider key.
type CredentialRequest struct {
	Key string `json:"key" binding:"required"`
}
