//go:build e2e
// +build e2e

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentgate-org/agentgate/pkg/action"
	"github.com/agentgate-org/agentgate/pkg/api/service"
	"github.com/agentgate-org/agentgate/pkg/catalog"
	"github.com/agentgate-org/agentgate/pkg/config"
	"github.com/agentgate-org/agentgate/pkg/credential"
	"github.com/agentgate-org/agentgate/pkg/entity"
	"github.com/agentgate-org/agentgate/pkg/llm"
	"github.com/agentgate-org/agentgate/pkg/llm/mock"
	"github.com/agentgate-org/agentgate/pkg/permission"
	"github.com/agentgate-org/agentgate/pkg/store"
	"github.com/agentgate-org/agentgate/pkg/usage"
)

// TestEndToEndChatActionFlow drives the whole engine with a scripted model:
// the reply proposes an action, the permission layer authorizes it, the
// executor mutates through the entity registry and the outcome lands on the
// durable history.
func TestEndToEndChatActionFlow(t *testing.T) {
	ctx := context.Background()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	cat := catalog.Default()
	ledger := usage.NewLedger(st, 10, quiet)
	perms := permission.NewService(st, cat, ledger, quiet)
	registry := entity.NewRegistry(entity.NewRecordMutator(st, quiet))
	executor := action.NewExecutor(st, perms, cat, registry, quiet)
	resolver := credential.NewResolver(st, nil, config.PlatformKeys{GeminiKey: "pk"}, quiet)

	provider := mock.New("Setting that up.\n<<<action\n{\"action\": \"create_project\", \"params\": {\"name\": \"Apollo\"}}\n>>>\nAll done.")
	factory := func(ctx context.Context, res credential.Resolution) (llm.Provider, error) {
		return provider, nil
	}
	router := llm.NewRouter(llm.NewModelCatalog(nil), factory, config.ModelConfig{DefaultFree: "gemini-2.0-flash"}, quiet)
	chat := service.NewChatService(resolver, router, ledger, executor, cat, quiet)

	if err := perms.Grant(ctx, "u1", permission.Wildcard, "entity_management", permission.GrantOptions{}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	result, err := chat.Chat(ctx, service.ChatInput{UserID: "u1", Message: "create the Apollo project"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if strings.Contains(result.Message, "<<<") {
		t.Fatalf("action block leaked into display text: %q", result.Message)
	}
	if len(result.Actions) != 1 {
		t.Fatalf("expected 1 action outcome, got %d", len(result.Actions))
	}
	rec := result.Actions[0].Record
	if rec.Status != store.StatusSucceeded {
		t.Fatalf("expected succeeded, got %+v", rec)
	}
	if !strings.Contains(rec.ResultSummary, `created project "Apollo"`) {
		t.Fatalf("mutation summary missing: %q", rec.ResultSummary)
	}
	if result.FreeQuotaRemaining != 9 {
		t.Fatalf("expected 9 free calls remaining, got %d", result.FreeQuotaRemaining)
	}

	// The entity record is durable and readable back.
	entityID := rec.ResultSummary[strings.LastIndex(rec.ResultSummary, "(")+1 : len(rec.ResultSummary)-1]
	ent, err := st.GetEntity(ctx, "u1", entityID)
	if err != nil {
		t.Fatalf("get entity: %v", err)
	}
	if ent.Name != "Apollo" || ent.EntityType != "project" {
		t.Fatalf("unexpected entity: %+v", ent)
	}

	// And the execution is on the audit trail.
	history, err := executor.History(ctx, "u1", store.ExecutionFilter{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ActionID != "create_project" {
		t.Fatalf("unexpected history: %+v", history)
	}

	// Revoking the category stops the same proposal cold.
	if err := perms.Revoke(ctx, "u1", "", "entity_management"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	result, err = chat.Chat(ctx, service.ChatInput{UserID: "u1", Message: "create another"})
	if err != nil {
		t.Fatalf("chat after revoke: %v", err)
	}
	if result.Actions[0].Record.Status != store.StatusDenied {
		t.Fatalf("revoked proposal should be denied, got %+v", result.Actions[0].Record)
	}
}
