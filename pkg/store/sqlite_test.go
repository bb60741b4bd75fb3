package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentgate-org/agentgate/pkg/types"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestGrantUpsertAndFind(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	limit := 3
	grant := GrantRecord{
		ID:         types.GenerateGrantID(),
		UserID:     "u1",
		ActionID:   "create_project",
		Category:   "entity_management",
		DailyLimit: &limit,
		GrantedAt:  time.Now().UTC(),
	}
	if err := st.UpsertGrant(ctx, grant); err != nil {
		t.Fatalf("upsert grant: %v", err)
	}

	got, err := st.FindGrant(ctx, "u1", "create_project")
	if err != nil {
		t.Fatalf("find grant: %v", err)
	}
	if got.DailyLimit == nil || *got.DailyLimit != 3 {
		t.Fatalf("daily limit lost: %+v", got)
	}
	if got.Revoked() {
		t.Fatalf("fresh grant should not be revoked")
	}

	// Upsert clears the revocation marker on re-grant.
	now := time.Now().UTC()
	grant.RevokedAt = &now
	if err := st.UpsertGrant(ctx, grant); err != nil {
		t.Fatalf("upsert revoked: %v", err)
	}
	grant.RevokedAt = nil
	if err := st.UpsertGrant(ctx, grant); err != nil {
		t.Fatalf("re-grant: %v", err)
	}
	got, err = st.FindGrant(ctx, "u1", "create_project")
	if err != nil {
		t.Fatalf("find grant: %v", err)
	}
	if got.Revoked() {
		t.Fatalf("re-grant should clear revocation")
	}

	if _, err := st.FindGrant(ctx, "u1", "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWildcardGrantSeparateFromSpecific(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	wildcard := GrantRecord{
		ID:        types.GenerateGrantID(),
		UserID:    "u1",
		ActionID:  "*",
		Category:  "entity_management",
		GrantedAt: time.Now().UTC(),
	}
	if err := st.UpsertGrant(ctx, wildcard); err != nil {
		t.Fatalf("upsert wildcard: %v", err)
	}

	if _, err := st.FindGrant(ctx, "u1", "*"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindGrant must never return the wildcard row, got %v", err)
	}

	got, err := st.FindWildcard(ctx, "u1", "entity_management")
	if err != nil {
		t.Fatalf("find wildcard: %v", err)
	}
	if got.ActionID != "*" {
		t.Fatalf("unexpected wildcard row: %+v", got)
	}

	if _, err := st.FindWildcard(ctx, "u1", "payments"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other category, got %v", err)
	}
}

func TestRevokeGrantCreatesMarkerWhenAbsent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	at := time.Now().UTC()
	if err := st.RevokeGrant(ctx, "u1", "delete_project", "entity_management", at); err != nil {
		t.Fatalf("revoke absent grant: %v", err)
	}

	got, err := st.FindGrant(ctx, "u1", "delete_project")
	if err != nil {
		t.Fatalf("find marker: %v", err)
	}
	if !got.Revoked() {
		t.Fatalf("expected revocation marker, got %+v", got)
	}
}

func TestRevokeCategory(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, actionID := range []string{"*", "create_project", "delete_project"} {
		if err := st.UpsertGrant(ctx, GrantRecord{
			ID:        types.GenerateGrantID(),
			UserID:    "u1",
			ActionID:  actionID,
			Category:  "entity_management",
			GrantedAt: now,
		}); err != nil {
			t.Fatalf("upsert %s: %v", actionID, err)
		}
	}
	if err := st.UpsertGrant(ctx, GrantRecord{
		ID:        types.GenerateGrantID(),
		UserID:    "u1",
		ActionID:  "send_payment",
		Category:  "payments",
		GrantedAt: now,
	}); err != nil {
		t.Fatalf("upsert payment grant: %v", err)
	}

	if err := st.RevokeCategory(ctx, "u1", "entity_management", now); err != nil {
		t.Fatalf("revoke category: %v", err)
	}

	grants, err := st.ListGrants(ctx, "u1")
	if err != nil {
		t.Fatalf("list grants: %v", err)
	}
	for _, g := range grants {
		switch g.Category {
		case "entity_management":
			if !g.Revoked() {
				t.Fatalf("entity_management grant %s not revoked", g.ActionID)
			}
		case "payments":
			if g.Revoked() {
				t.Fatalf("payments grant should be untouched")
			}
		}
	}
}

func TestExecutionLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := ExecutionRecord{
		ID:        types.GenerateExecutionID(),
		UserID:    "u1",
		ActorID:   "assistant",
		ActionID:  "create_project",
		Params:    types.Params{"name": "Apollo"},
		Status:    StatusExecuting,
		CreatedAt: now,
	}
	if err := st.InsertExecution(ctx, rec); err != nil {
		t.Fatalf("insert execution: %v", err)
	}

	if err := st.ResolveExecution(ctx, rec.ID, StatusSucceeded, "created", "", now); err != nil {
		t.Fatalf("resolve execution: %v", err)
	}

	got, err := st.GetExecution(ctx, "u1", rec.ID)
	if err != nil {
		t.Fatalf("get execution: %v", err)
	}
	if got.Status != StatusSucceeded || got.ResultSummary != "created" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Params["name"] != "Apollo" {
		t.Fatalf("params lost: %+v", got.Params)
	}
	if got.ResolvedAt == nil {
		t.Fatalf("resolved_at missing")
	}

	// Terminal records are immutable.
	err = st.ResolveExecution(ctx, rec.ID, StatusFailed, "", "late", now)
	if !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}
	got, _ = st.GetExecution(ctx, "u1", rec.ID)
	if got.Status != StatusSucceeded {
		t.Fatalf("terminal status mutated to %s", got.Status)
	}
}

func TestGetExecutionScopedToUser(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	rec := ExecutionRecord{
		ID:        types.GenerateExecutionID(),
		UserID:    "u1",
		ActorID:   "user",
		ActionID:  "create_project",
		Status:    StatusExecuting,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.InsertExecution(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := st.GetExecution(ctx, "u2", rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestListExecutionsFilter(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	statuses := []ExecutionStatus{StatusSucceeded, StatusDenied, StatusPendingConfirmation}
	for i, status := range statuses {
		if err := st.InsertExecution(ctx, ExecutionRecord{
			ID:        types.GenerateExecutionID(),
			UserID:    "u1",
			ActorID:   "assistant",
			ActionID:  "create_project",
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("insert %s: %v", status, err)
		}
	}

	all, err := st.ListExecutions(ctx, "u1", ExecutionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].CreatedAt.Before(all[1].CreatedAt) {
		t.Fatalf("expected newest first ordering")
	}

	pending, err := st.ListExecutions(ctx, "u1", ExecutionFilter{Status: StatusPendingConfirmation})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Status != StatusPendingConfirmation {
		t.Fatalf("status filter broken: %+v", pending)
	}

	limited, err := st.ListExecutions(ctx, "u1", ExecutionFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit filter broken: %d records", len(limited))
	}
}

func TestCountExecutionsByDayAndStatus(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	yesterday := today.Add(-24 * time.Hour)

	insert := func(status ExecutionStatus, at time.Time) {
		t.Helper()
		if err := st.InsertExecution(ctx, ExecutionRecord{
			ID:        types.GenerateExecutionID(),
			UserID:    "u1",
			ActorID:   "assistant",
			ActionID:  "create_product",
			Status:    status,
			CreatedAt: at,
		}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	insert(StatusSucceeded, today)
	insert(StatusExecuting, today)
	insert(StatusDenied, today)
	insert(StatusSucceeded, yesterday)

	count, err := st.CountExecutions(ctx, "u1", "create_product", "2026-03-10", nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	// Denied records and yesterday's run must not count.
	if count != 2 {
		t.Fatalf("expected 2, got %d", count)
	}

	count, err = st.CountExecutions(ctx, "u1", "create_product", "2026-03-09", nil)
	if err != nil {
		t.Fatalf("count yesterday: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 for yesterday, got %d", count)
	}
}

func TestUsageCounters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	row, err := st.GetUsage(ctx, "u1", "2026-03-10", types.TierFree)
	if err != nil {
		t.Fatalf("get empty usage: %v", err)
	}
	if row.RequestCount != 0 {
		t.Fatalf("expected zero counters, got %+v", row)
	}

	for i := 0; i < 3; i++ {
		if err := st.IncrementUsage(ctx, "u1", "2026-03-10", types.TierFree, 10); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if err := st.IncrementUsage(ctx, "u1", "2026-03-10", types.TierBYOK, 5); err != nil {
		t.Fatalf("increment byok: %v", err)
	}

	row, err = st.GetUsage(ctx, "u1", "2026-03-10", types.TierFree)
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if row.RequestCount != 3 || row.TokenCount != 30 {
		t.Fatalf("unexpected counters: %+v", row)
	}

	byok, _ := st.GetUsage(ctx, "u1", "2026-03-10", types.TierBYOK)
	if byok.RequestCount != 1 || byok.TokenCount != 5 {
		t.Fatalf("tiers not isolated: %+v", byok)
	}
}

func TestCredentialRoundtrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := CredentialRecord{
		ID:            types.GenerateCredentialID(),
		UserID:        "u1",
		Provider:      types.ProviderOpenAI,
		KeyCiphertext: "sealed-payload",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := st.UpsertCredential(ctx, rec); err != nil {
		t.Fatalf("upsert credential: %v", err)
	}

	got, err := st.GetCredential(ctx, "u1", types.ProviderOpenAI)
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if got.KeyCiphertext != "sealed-payload" {
		t.Fatalf("ciphertext mismatch: %+v", got)
	}

	rec.KeyCiphertext = "rotated"
	if err := st.UpsertCredential(ctx, rec); err != nil {
		t.Fatalf("rotate credential: %v", err)
	}
	got, _ = st.GetCredential(ctx, "u1", types.ProviderOpenAI)
	if got.KeyCiphertext != "rotated" {
		t.Fatalf("rotation lost: %+v", got)
	}

	if err := st.DeleteCredential(ctx, "u1", types.ProviderOpenAI); err != nil {
		t.Fatalf("delete credential: %v", err)
	}
	if _, err := st.GetCredential(ctx, "u1", types.ProviderOpenAI); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is a no-op.
	if err := st.DeleteCredential(ctx, "u1", types.ProviderOpenAI); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestEntityLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := EntityRecord{
		ID:         types.GenerateEntityID(),
		UserID:     "u1",
		EntityType: "project",
		Name:       "Apollo",
		Attributes: types.Params{"color": "blue"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := st.UpsertEntity(ctx, rec); err != nil {
		t.Fatalf("upsert entity: %v", err)
	}

	got, err := st.GetEntity(ctx, "u1", rec.ID)
	if err != nil {
		t.Fatalf("get entity: %v", err)
	}
	if got.Name != "Apollo" || got.Attributes["color"] != "blue" {
		t.Fatalf("entity mismatch: %+v", got)
	}

	if err := st.MarkEntityDeleted(ctx, "u1", rec.ID, now); err != nil {
		t.Fatalf("mark deleted: %v", err)
	}
	got, _ = st.GetEntity(ctx, "u1", rec.ID)
	if got.DeletedAt == nil {
		t.Fatalf("deleted_at not set")
	}

	// Deleting twice or deleting an absent entity fails.
	if err := st.MarkEntityDeleted(ctx, "u1", rec.ID, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
	if err := st.MarkEntityDeleted(ctx, "u1", "nope", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent entity, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
