package store

import (
	"context"
	"errors"
	"time"

	"github.com/agentgate-org/agentgate/pkg/types"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrTerminal is returned when a mutation targets an execution record
	// that already reached a terminal status.
	ErrTerminal = errors.New("execution already resolved")
)

// ExecutionStatus is the lifecycle state of one action execution record.
type ExecutionStatus string

const (
	StatusPendingConfirmation ExecutionStatus = "pending_confirmation"
	StatusDenied              ExecutionStatus = "denied"
	StatusExecuting           ExecutionStatus = "executing"
	StatusSucceeded           ExecutionStatus = "succeeded"
	StatusFailed              ExecutionStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case StatusDenied, StatusSucceeded, StatusFailed:
		return true
	}
	return false
}

// GrantRecord is one stored permission grant. ActionID "*" makes it a
// category-wide wildcard. A row with RevokedAt set is an explicit revocation
// marker, kept so specific revocations can override wildcard grants.
type GrantRecord struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	ActionID             string     `json:"action_id"`
	Category             string     `json:"category"`
	RequiresConfirmation bool       `json:"requires_confirmation"`
	DailyLimit           *int       `json:"daily_limit,omitempty"`
	MaxValuePerAction    *int       `json:"max_value_per_action,omitempty"`
	GrantedAt            time.Time  `json:"granted_at"`
	RevokedAt            *time.Time `json:"revoked_at,omitempty"`
}

// Revoked reports whether the grant is currently a revocation marker.
func (g *GrantRecord) Revoked() bool {
	return g.RevokedAt != nil
}

// ExecutionRecord is the durable audit entry for one proposed action.
// Never deleted; terminal statuses are immutable.
type ExecutionRecord struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	ActorID       string          `json:"actor_id"`
	ActionID      string          `json:"action_id"`
	Params        types.Params    `json:"params"`
	MessageRef    string          `json:"message_ref,omitempty"`
	Status        ExecutionStatus `json:"status"`
	ResultSummary string          `json:"result_summary,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
}

// ExecutionFilter narrows history listings.
type ExecutionFilter struct {
	ActionID string
	Status   ExecutionStatus
	Limit    int
}

// UsageRow is one (user, day, tier) usage counter.
type UsageRow struct {
	UserID       string
	Day          string // YYYY-MM-DD, UTC
	Tier         types.Tier
	RequestCount int
	TokenCount   int
}

// CredentialRecord is one stored, sealed provider credential.
type CredentialRecord struct {
	ID            string
	UserID        string
	Provider      types.ProviderID
	KeyCiphertext string // pre-sealed by the service layer
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EntityRecord is one abstract business entity owned by a user. The engine
// treats its attributes as opaque; the owning product defines their meaning.
type EntityRecord struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	EntityType string       `json:"entity_type"`
	Name       string       `json:"name"`
	Attributes types.Params `json:"attributes,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	DeletedAt  *time.Time   `json:"deleted_at,omitempty"`
}

// Store defines the persistence layer contract.
type Store interface {
	Close() error

	// Grant Operations
	UpsertGrant(ctx context.Context, grant GrantRecord) error
	FindGrant(ctx context.Context, userID, actionID string) (*GrantRecord, error)
	FindWildcard(ctx context.Context, userID, category string) (*GrantRecord, error)
	ListGrants(ctx context.Context, userID string) ([]GrantRecord, error)
	RevokeGrant(ctx context.Context, userID, actionID, category string, at time.Time) error
	RevokeCategory(ctx context.Context, userID, category string, at time.Time) error

	// Execution Operations
	InsertExecution(ctx context.Context, rec ExecutionRecord) error
	GetExecution(ctx context.Context, userID, id string) (*ExecutionRecord, error)
	ResolveExecution(ctx context.Context, id string, status ExecutionStatus, summary, errMsg string, at time.Time) error
	ListExecutions(ctx context.Context, userID string, filter ExecutionFilter) ([]ExecutionRecord, error)
	CountExecutions(ctx context.Context, userID, actionID, day string, statuses []ExecutionStatus) (int, error)

	// Usage Operations
	IncrementUsage(ctx context.Context, userID, day string, tier types.Tier, tokens int) error
	GetUsage(ctx context.Context, userID, day string, tier types.Tier) (UsageRow, error)

	// Credential Operations
	UpsertCredential(ctx context.Context, rec CredentialRecord) error
	GetCredential(ctx context.Context, userID string, provider types.ProviderID) (*CredentialRecord, error)
	DeleteCredential(ctx context.Context, userID string, provider types.ProviderID) error

	// Entity Operations
	UpsertEntity(ctx context.Context, rec EntityRecord) error
	GetEntity(ctx context.Context, userID, id string) (*EntityRecord, error)
	MarkEntityDeleted(ctx context.Context, userID, id string, at time.Time) error
}
