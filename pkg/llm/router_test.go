package llm_test

import (
	"context"
	"strings"
	"testing"

	"github.com/agentgate-org/agentgate/pkg/config"
	"github.com/agentgate-org/agentgate/pkg/credential"
	"github.com/agentgate-org/agentgate/pkg/llm"
	"github.com/agentgate-org/agentgate/pkg/llm/mock"
	"github.com/agentgate-org/agentgate/pkg/types"
)

func newTestRouter(p llm.Provider) *llm.Router {
	factory := func(ctx context.Context, res credential.Resolution) (llm.Provider, error) {
		return p, nil
	}
	return llm.NewRouter(llm.NewModelCatalog(nil), factory, config.ModelConfig{DefaultFree: "gemini-2.0-flash"}, nil)
}

func TestSelectHonorsOwnKeyHint(t *testing.T) {
	r := newTestRouter(nil)
	res := credential.Resolution{Provider: types.ProviderOpenAI, OwnKey: true}

	m := r.Select(res, "hi", "gpt-4o")
	if m.ID != "gpt-4o" {
		t.Fatalf("own-key caller should get the hinted model, got %s", m.ID)
	}
}

func TestSelectFreeHintOnPlatformKey(t *testing.T) {
	r := newTestRouter(nil)
	res := credential.Resolution{Provider: types.ProviderOpenAI}

	m := r.Select(res, "hi", "gpt-4o-mini")
	if m.ID != "gpt-4o-mini" {
		t.Fatalf("free-tier hint should be honored on platform funding, got %s", m.ID)
	}
}

func TestSelectPaidHintWithoutOwnKeyFallsBack(t *testing.T) {
	r := newTestRouter(nil)
	res := credential.Resolution{Provider: types.ProviderOpenAI}

	m := r.Select(res, "hi", "gpt-4o")
	if !m.FreeTier {
		t.Fatalf("platform-funded request must land on a free model, got %s", m.ID)
	}
	if m.Provider != types.ProviderOpenAI {
		t.Fatalf("fallback crossed provider: %+v", m)
	}
}

func TestSelectUnknownHintUsesDefaultFree(t *testing.T) {
	r := newTestRouter(nil)
	res := credential.Resolution{Provider: types.ProviderGemini}

	m := r.Select(res, "hi", "gpt-99-ultra")
	if m.ID != "gemini-2.0-flash" {
		t.Fatalf("unknown hint should select the default free model, got %s", m.ID)
	}
}

func TestSelectAutoHeuristic(t *testing.T) {
	r := newTestRouter(nil)

	// Short chit-chat takes the first candidate.
	res := credential.Resolution{Provider: types.ProviderGemini}
	m := r.Select(res, "hello there", "auto")
	if m.ID != "gemini-2.0-flash" {
		t.Fatalf("short message should take the first free candidate, got %s", m.ID)
	}

	// A code-heavy prompt with an own key takes the largest context window.
	res = credential.Resolution{Provider: types.ProviderOpenAI, OwnKey: true}
	m = r.Select(res, "please debug this function for me", "auto")
	if m.ID != "gpt-4.1" {
		t.Fatalf("heavy prompt should take the largest-context model, got %s", m.ID)
	}

	// Sheer length triggers the same escalation.
	long := strings.Repeat("words ", 500)
	m = r.Select(res, long, "")
	if m.ID != "gpt-4.1" {
		t.Fatalf("long message should take the largest-context model, got %s", m.ID)
	}
}

func TestSelectEmptyCatalogSynthesizes(t *testing.T) {
	factory := func(ctx context.Context, res credential.Resolution) (llm.Provider, error) {
		return mock.New("x"), nil
	}
	r := llm.NewRouter(llm.NewModelCatalog([]llm.ModelInfo{
		{ID: "other", Provider: "other-provider", FreeTier: true},
	}), factory, config.ModelConfig{DefaultFree: "missing-model"}, nil)

	m := r.Select(credential.Resolution{Provider: types.ProviderOpenAI}, "hi", "")
	if m.ID != "missing-model" || m.Provider != types.ProviderOpenAI || !m.FreeTier {
		t.Fatalf("expected synthesized entry, got %+v", m)
	}
}

func TestCompleteThroughFactory(t *testing.T) {
	p := mock.New("scripted answer")
	r := newTestRouter(p)

	res := credential.Resolution{Provider: types.ProviderGemini}
	model, _ := r.Catalog().Get("gemini-2.0-flash")

	out, err := r.Complete(context.Background(), res, model, []types.Message{
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out.Content != "scripted answer" {
		t.Fatalf("unexpected content: %q", out.Content)
	}
	if out.Model != "gemini-2.0-flash" || out.Provider != types.ProviderGemini {
		t.Fatalf("model attribution wrong: %+v", out)
	}
	if out.Usage.TotalTokens != 8 {
		t.Fatalf("usage not forwarded: %+v", out.Usage)
	}
}

func TestStreamDeltasAndDone(t *testing.T) {
	p := mock.New("")
	p.StreamDeltas = []string{"Hel", "lo ", "world"}
	r := newTestRouter(p)

	res := credential.Resolution{Provider: types.ProviderGemini}
	model, _ := r.Catalog().Get("gemini-2.0-flash")

	ch, err := r.Stream(context.Background(), res, model, []types.Message{
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	var full strings.Builder
	var done bool
	var usage types.TokenUsage
	for chunk := range ch {
		if chunk.Err != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Err)
		}
		if chunk.Done {
			done = true
			usage = chunk.Usage
			continue
		}
		full.WriteString(chunk.Content)
	}
	if !done {
		t.Fatalf("stream ended without a done chunk")
	}
	if full.String() != "Hello world" {
		t.Fatalf("deltas out of order: %q", full.String())
	}
	if usage.TotalTokens != 8 {
		t.Fatalf("done chunk missing usage: %+v", usage)
	}
}
