package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentgate-org/agentgate/pkg/action"
	"github.com/agentgate-org/agentgate/pkg/catalog"
	"github.com/agentgate-org/agentgate/pkg/config"
	"github.com/agentgate-org/agentgate/pkg/credential"
	"github.com/agentgate-org/agentgate/pkg/entity"
	"github.com/agentgate-org/agentgate/pkg/llm"
	"github.com/agentgate-org/agentgate/pkg/llm/mock"
	"github.com/agentgate-org/agentgate/pkg/permission"
	"github.com/agentgate-org/agentgate/pkg/store"
	"github.com/agentgate-org/agentgate/pkg/types"
	"github.com/agentgate-org/agentgate/pkg/usage"
)

type chatEnv struct {
	store    store.Store
	ledger   *usage.Ledger
	provider *mock.Provider
	svc      *ChatService
}

func newChatEnv(t *testing.T, quota int) *chatEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cat := catalog.Default()
	ledger := usage.NewLedger(st, quota, nil)
	perms := permission.NewService(st, cat, ledger, nil)
	executor := action.NewExecutor(st, perms, cat, entity.NewRegistry(), nil)
	resolver := credential.NewResolver(st, nil, config.PlatformKeys{GeminiKey: "pk"}, nil)

	provider := mock.New("scripted")
	factory := func(ctx context.Context, res credential.Resolution) (llm.Provider, error) {
		return provider, nil
	}
	router := llm.NewRouter(llm.NewModelCatalog(nil), factory, config.ModelConfig{DefaultFree: "gemini-2.0-flash"}, nil)

	return &chatEnv{
		store:    st,
		ledger:   ledger,
		provider: provider,
		svc:      NewChatService(resolver, router, ledger, executor, cat, nil),
	}
}

func TestChatStreamDisconnectStillRecordsUsage(t *testing.T) {
	env := newChatEnv(t, 5)
	env.provider.StreamDeltas = []string{"one ", "two ", "three ", "four ", "five"}

	// The consumer walks away after the second delta; gin cancels the
	// request context at that moment.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var forwarded int
	result, err := env.svc.ChatStream(ctx, ChatInput{UserID: "u1", Message: "hi"}, func(delta string) error {
		forwarded++
		if forwarded == 2 {
			cancel()
			return context.Canceled
		}
		return nil
	})
	if err != nil {
		t.Fatalf("disconnect must not fail the stream: %v", err)
	}
	if forwarded != 2 {
		t.Fatalf("expected forwarding to stop after the disconnect, got %d deltas", forwarded)
	}

	// Tokens generated before the disconnect are on the ledger.
	row, err := env.store.GetUsage(context.Background(), "u1", usage.DayKey(time.Now()), types.TierFree)
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if row.RequestCount != 1 {
		t.Fatalf("expected 1 recorded request, got %d", row.RequestCount)
	}
	if row.TokenCount == 0 {
		t.Fatalf("token usage not recorded")
	}
	if result.FreeQuotaRemaining != 4 {
		t.Fatalf("expected 4 free calls remaining, got %d", result.FreeQuotaRemaining)
	}
}

func TestChatStreamHappyPath(t *testing.T) {
	env := newChatEnv(t, 5)
	env.provider.StreamDeltas = []string{"Hel", "lo"}

	var full string
	result, err := env.svc.ChatStream(context.Background(), ChatInput{UserID: "u1", Message: "hi"}, func(delta string) error {
		full += delta
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if full != "Hello" || result.Message != "Hello" {
		t.Fatalf("deltas and final message disagree: %q vs %q", full, result.Message)
	}
	if result.FreeQuotaRemaining != 4 {
		t.Fatalf("expected 4 remaining, got %d", result.FreeQuotaRemaining)
	}
}
