package action

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentgate-org/agentgate/pkg/catalog"
	"github.com/agentgate-org/agentgate/pkg/entity"
	"github.com/agentgate-org/agentgate/pkg/permission"
	"github.com/agentgate-org/agentgate/pkg/store"
	"github.com/agentgate-org/agentgate/pkg/types"
)

// ReasonExceedsLimit marks a denial caused by the per-grant value ceiling.
const ReasonExceedsLimit = "exceeds_limit"

// ExecuteInput describes one requested action.
type ExecuteInput struct {
	UserID     string
	ActorID    string
	ActionID   string
	Params     types.Params
	MessageRef string
	// Confirmed marks that the user already approved this exact request,
	// letting a confirmation-required action run on the first call.
	Confirmed bool
}

// Executor is the orchestrator: it validates a requested action against the
// permission service, performs the side effect through the category's entity
// collaborator, and records a durable history entry for every outcome,
// denials included.
//
// State machine per execution:
//
//	requested → denied (terminal)
//	          → pending_confirmation → executing → succeeded|failed (terminal)
//	          → executing → succeeded|failed (terminal)
type Executor struct {
	store    store.Store
	perms    *permission.Service
	catalog  *catalog.Catalog
	registry *entity.Registry
	now      func() time.Time
	log      *slog.Logger
}

func NewExecutor(st store.Store, perms *permission.Service, cat *catalog.Catalog, registry *entity.Registry, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		store:    st,
		perms:    perms,
		catalog:  cat,
		registry: registry,
		now:      time.Now,
		log:      log,
	}
}

// SetNow overrides the clock. Tests only.
func (e *Executor) SetNow(now func() time.Time) {
	e.now = now
}

// Execute runs the full state machine for one requested action. The returned
// record carries the outcome; err is reserved for infrastructure failures
// (store unavailable), not for denials.
func (e *Executor) Execute(ctx context.Context, in ExecuteInput) (*store.ExecutionRecord, error) {
	now := e.now().UTC()
	rec := store.ExecutionRecord{
		ID:         types.GenerateExecutionID(),
		UserID:     in.UserID,
		ActorID:    in.ActorID,
		ActionID:   in.ActionID,
		Params:     in.Params,
		MessageRef: in.MessageRef,
		CreatedAt:  now,
	}

	def, ok := e.catalog.Get(in.ActionID)
	if !ok {
		return e.recordDenied(ctx, rec, permission.ReasonUnknownAction)
	}

	decision, err := e.perms.Check(ctx, in.UserID, in.ActionID)
	if err != nil {
		return nil, fmt.Errorf("permission check: %w", err)
	}

	switch decision.Kind {
	case permission.Denied:
		return e.recordDenied(ctx, rec, decision.Reason)
	case permission.AllowedWithConfirmation:
		if !in.Confirmed {
			rec.Status = store.StatusPendingConfirmation
			if err := e.store.InsertExecution(ctx, rec); err != nil {
				return nil, fmt.Errorf("record pending execution: %w", err)
			}
			e.log.Info("action pending confirmation",
				"user", in.UserID,
				"action", in.ActionID,
				"execution", rec.ID,
			)
			return &rec, nil
		}
	}

	if reason, ok := exceedsCeiling(decision, in.Params); !ok {
		return e.recordDenied(ctx, rec, reason)
	}

	rec.Status = store.StatusExecuting
	if err := e.store.InsertExecution(ctx, rec); err != nil {
		return nil, fmt.Errorf("record execution: %w", err)
	}
	return e.run(ctx, rec, def)
}

// Confirm performs the deferred mutation for a pending execution. Permission
// is re-checked so a revoke issued while the action sat pending still denies
// it. Confirming anything but a pending record fails.
func (e *Executor) Confirm(ctx context.Context, userID, executionID string) (*store.ExecutionRecord, error) {
	rec, err := e.store.GetExecution(ctx, userID, executionID)
	if err != nil {
		return nil, err
	}
	if rec.Status != store.StatusPendingConfirmation {
		return nil, fmt.Errorf("%w: execution %s is %s", store.ErrTerminal, executionID, rec.Status)
	}

	def, ok := e.catalog.Get(rec.ActionID)
	if !ok {
		return e.resolve(ctx, *rec, store.StatusDenied, "", permission.ReasonUnknownAction)
	}

	decision, err := e.perms.Check(ctx, userID, rec.ActionID)
	if err != nil {
		return nil, fmt.Errorf("permission check: %w", err)
	}
	if decision.Kind == permission.Denied {
		return e.resolve(ctx, *rec, store.StatusDenied, "", decision.Reason)
	}
	if reason, ok := exceedsCeiling(decision, rec.Params); !ok {
		return e.resolve(ctx, *rec, store.StatusDenied, "", reason)
	}

	return e.run(ctx, *rec, def)
}

// run invokes the entity collaborator and settles the record. rec must
// already be persisted in a non-terminal status.
func (e *Executor) run(ctx context.Context, rec store.ExecutionRecord, def catalog.Definition) (*store.ExecutionRecord, error) {
	mut, ok := e.registry.For(def.Category)
	if !ok {
		return e.resolve(ctx, rec, store.StatusFailed, "",
			fmt.Sprintf("no collaborator registered for category %s", def.Category))
	}

	summary, err := mut.Mutate(ctx, entity.Operation{
		UserID:   rec.UserID,
		ActorID:  rec.ActorID,
		ActionID: rec.ActionID,
		Params:   rec.Params,
	})
	if err != nil {
		e.log.Warn("action execution failed",
			"user", rec.UserID,
			"action", rec.ActionID,
			"execution", rec.ID,
			"error", err,
		)
		return e.resolve(ctx, rec, store.StatusFailed, "", err.Error())
	}

	e.log.Info("action executed",
		"user", rec.UserID,
		"action", rec.ActionID,
		"execution", rec.ID,
	)
	return e.resolve(ctx, rec, store.StatusSucceeded, summary, "")
}

func (e *Executor) recordDenied(ctx context.Context, rec store.ExecutionRecord, reason string) (*store.ExecutionRecord, error) {
	now := e.now().UTC()
	rec.Status = store.StatusDenied
	rec.ErrorMessage = reason
	rec.ResolvedAt = &now
	if err := e.store.InsertExecution(ctx, rec); err != nil {
		return nil, fmt.Errorf("record denied execution: %w", err)
	}
	e.log.Info("action denied",
		"user", rec.UserID,
		"action", rec.ActionID,
		"reason", reason,
	)
	return &rec, nil
}

func (e *Executor) resolve(ctx context.Context, rec store.ExecutionRecord, status store.ExecutionStatus, summary, errMsg string) (*store.ExecutionRecord, error) {
	now := e.now().UTC()
	if rec.Status == store.StatusPendingConfirmation && status != store.StatusDenied {
		// Pending → executing is an intermediate hop; the final resolve
		// below lands the terminal status.
		if err := e.store.ResolveExecution(ctx, rec.ID, store.StatusExecuting, "", "", now); err != nil {
			return nil, fmt.Errorf("mark executing: %w", err)
		}
	}
	if err := e.store.ResolveExecution(ctx, rec.ID, status, summary, errMsg, now); err != nil {
		return nil, fmt.Errorf("resolve execution: %w", err)
	}
	rec.Status = status
	rec.ResultSummary = summary
	rec.ErrorMessage = errMsg
	rec.ResolvedAt = &now
	return &rec, nil
}

// exceedsCeiling applies the matched grant's value ceiling. ok=false means
// denial with the returned reason.
func exceedsCeiling(decision permission.Decision, params types.Params) (string, bool) {
	if decision.Grant == nil || decision.Grant.MaxValuePerAction == nil {
		return "", true
	}
	if amount, found := entity.AmountParam(params); found && amount > *decision.Grant.MaxValuePerAction {
		return ReasonExceedsLimit, false
	}
	return "", true
}

// ListPending returns the user's executions awaiting confirmation.
func (e *Executor) ListPending(ctx context.Context, userID string) ([]store.ExecutionRecord, error) {
	return e.store.ListExecutions(ctx, userID, store.ExecutionFilter{Status: store.StatusPendingConfirmation})
}

// History returns the user's execution history, newest first.
func (e *Executor) History(ctx context.Context, userID string, filter store.ExecutionFilter) ([]store.ExecutionRecord, error) {
	return e.store.ListExecutions(ctx, userID, filter)
}
