// Package usage tracks per-user, per-day consumption of model calls. The
// counters back both the platform free-tier quota and per-action daily limits.
package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentgate-org/agentgate/pkg/store"
	"github.com/agentgate-org/agentgate/pkg/types"
)

// DayKey derives the ledger day for a timestamp. The day is always computed,
// never stored as mutable state, so there is no reset job.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Ledger is the counting service for model-call usage.
type Ledger struct {
	store             store.Store
	freeDailyRequests int
	now               func() time.Time
	log               *slog.Logger
}

// NewLedger constructs a ledger. freeDailyRequests caps platform-funded calls
// per user per day.
func NewLedger(st store.Store, freeDailyRequests int, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		store:             st,
		freeDailyRequests: freeDailyRequests,
		now:               time.Now,
		log:               log,
	}
}

// SetNow overrides the clock. Tests only.
func (l *Ledger) SetNow(now func() time.Time) {
	l.now = now
}

// Record counts one completed model call. It runs after every call, streaming
// included, whether or not any action followed.
func (l *Ledger) Record(ctx context.Context, userID string, tier types.Tier, usage types.TokenUsage) error {
	day := DayKey(l.now())
	if err := l.store.IncrementUsage(ctx, userID, day, tier, usage.TotalTokens); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	l.log.Debug("usage recorded",
		"user", userID,
		"tier", tier,
		"tokens", usage.TotalTokens,
	)
	return nil
}

// Remaining returns how many platform-funded requests the user has left today.
func (l *Ledger) Remaining(ctx context.Context, userID string) (int, error) {
	row, err := l.store.GetUsage(ctx, userID, DayKey(l.now()), types.TierFree)
	if err != nil {
		return 0, fmt.Errorf("read usage: %w", err)
	}
	remaining := l.freeDailyRequests - row.RequestCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// CheckQuota returns ErrDailyQuotaExceeded when a platform-funded call may not
// proceed. BYOK calls are never quota-limited.
func (l *Ledger) CheckQuota(ctx context.Context, userID string, tier types.Tier) error {
	if tier != types.TierFree {
		return nil
	}
	remaining, err := l.Remaining(ctx, userID)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return types.ErrDailyQuotaExceeded
	}
	return nil
}

// ActionCount reports how many times an action ran for the user today.
// Only executions that reached the mutating step count against daily limits.
func (l *Ledger) ActionCount(ctx context.Context, userID, actionID string) (int, error) {
	day := DayKey(l.now())
	count, err := l.store.CountExecutions(ctx, userID, actionID, day,
		[]store.ExecutionStatus{store.StatusExecuting, store.StatusSucceeded})
	if err != nil {
		return 0, fmt.Errorf("count actions: %w", err)
	}
	return count, nil
}
