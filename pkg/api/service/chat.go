// Package service orchestrates the chat flow: credential resolution, model
// routing, usage metering, action extraction and execution.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agentgate-org/agentgate/pkg/action"
	"github.com/agentgate-org/agentgate/pkg/catalog"
	"github.com/agentgate-org/agentgate/pkg/credential"
	"github.com/agentgate-org/agentgate/pkg/llm"
	"github.com/agentgate-org/agentgate/pkg/store"
	"github.com/agentgate-org/agentgate/pkg/types"
	"github.com/agentgate-org/agentgate/pkg/usage"
)

// ActorAssistant marks chat-originated executions in the audit trail.
const ActorAssistant = "assistant"

// ChatInput is one chat request after identity and header extraction.
type ChatInput struct {
	UserID    string
	Message   string
	ModelHint string
	Keys      credential.RequestKeys
}

// ActionOutcome pairs a parsed proposal with its execution record.
type ActionOutcome struct {
	Proposal action.Proposal
	Record   *store.ExecutionRecord
}

// ChatResult is the outcome of one chat call, streamed or not.
type ChatResult struct {
	Message            string
	Actions            []ActionOutcome
	Model              string
	Provider           types.ProviderID
	Usage              types.TokenUsage
	UsedOwnKey         bool
	HasOwnKey          bool
	FreeQuotaRemaining int
}

// ChatService wires the engine components behind the chat endpoint.
type ChatService struct {
	resolver *credential.Resolver
	router   *llm.Router
	ledger   *usage.Ledger
	executor *action.Executor
	catalog  *catalog.Catalog
	log      *slog.Logger
}

func NewChatService(resolver *credential.Resolver, router *llm.Router, ledger *usage.Ledger, executor *action.Executor, cat *catalog.Catalog, log *slog.Logger) *ChatService {
	if log == nil {
		log = slog.Default()
	}
	return &ChatService{
		resolver: resolver,
		router:   router,
		ledger:   ledger,
		executor: executor,
		catalog:  cat,
		log:      log,
	}
}

type callContext struct {
	res   credential.Resolution
	model llm.ModelInfo
	msgs  []types.Message
}

// prepare runs the shared pre-call pipeline: resolve credentials, enforce the
// free-tier quota, pick the model, build the prompt.
func (s *ChatService) prepare(ctx context.Context, in ChatInput) (*callContext, error) {
	res, err := s.resolver.Resolve(ctx, in.UserID, in.Keys)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.CheckQuota(ctx, in.UserID, res.Tier()); err != nil {
		return nil, err
	}

	model := s.router.Select(res, in.Message, in.ModelHint)
	msgs := []types.Message{
		{Role: "system", Content: s.systemPrompt()},
		{Role: "user", Content: in.Message},
	}
	return &callContext{res: res, model: model, msgs: msgs}, nil
}

// Chat executes a single-shot completion and every authorized action the
// reply proposed. Action failures never fail the chat itself.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (*ChatResult, error) {
	call, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	comp, err := s.router.Complete(ctx, call.res, call.model, call.msgs)
	if err != nil {
		return nil, err
	}

	s.recordUsage(ctx, in.UserID, call.res, comp.Usage)

	display, proposals := action.Parse(comp.Content)
	outcomes := s.runProposals(ctx, in.UserID, proposals)

	return s.result(ctx, in.UserID, call, display, outcomes, comp.Usage)
}

// ChatStream executes a streaming completion, forwarding each text delta to
// emit in order. A failed emit (client gone) stops forwarding; the stream is
// still drained so the usage consumed so far lands in the ledger.
func (s *ChatService) ChatStream(ctx context.Context, in ChatInput, emit func(delta string) error) (*ChatResult, error) {
	call, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	ch, err := s.router.Stream(ctx, call.res, call.model, call.msgs)
	if err != nil {
		return nil, err
	}

	var (
		full       strings.Builder
		tokens     types.TokenUsage
		forwarding = true
	)
	for chunk := range ch {
		if chunk.Err != nil {
			s.recordUsage(context.WithoutCancel(ctx), in.UserID, call.res, tokens)
			return nil, chunk.Err
		}
		if chunk.Done {
			tokens = chunk.Usage
			break
		}
		full.WriteString(chunk.Content)
		if forwarding {
			if err := emit(chunk.Content); err != nil {
				s.log.Debug("stream consumer gone", "user", in.UserID, "error", err)
				forwarding = false
			}
		}
	}

	// A disconnect has canceled the request context by now; the remaining
	// bookkeeping for tokens already generated runs detached from it.
	ctx = context.WithoutCancel(ctx)

	s.recordUsage(ctx, in.UserID, call.res, tokens)

	display, proposals := action.Parse(full.String())
	outcomes := s.runProposals(ctx, in.UserID, proposals)

	return s.result(ctx, in.UserID, call, display, outcomes, tokens)
}

func (s *ChatService) recordUsage(ctx context.Context, userID string, res credential.Resolution, tokens types.TokenUsage) {
	// Usage is recorded for every completed call, abandoned streams
	// included. A ledger failure must not fail the chat.
	if err := s.ledger.Record(ctx, userID, res.Tier(), tokens); err != nil {
		s.log.Error("usage record failed", "user", userID, "error", err)
	}
}

func (s *ChatService) runProposals(ctx context.Context, userID string, proposals []action.Proposal) []ActionOutcome {
	var outcomes []ActionOutcome
	for _, p := range proposals {
		rec, err := s.executor.Execute(ctx, action.ExecuteInput{
			UserID:   userID,
			ActorID:  ActorAssistant,
			ActionID: p.ActionID,
			Params:   p.Params,
		})
		if err != nil {
			s.log.Error("action execution errored", "user", userID, "action", p.ActionID, "error", err)
			continue
		}
		outcomes = append(outcomes, ActionOutcome{Proposal: p, Record: rec})
	}
	return outcomes
}

func (s *ChatService) result(ctx context.Context, userID string, call *callContext, display string, outcomes []ActionOutcome, tokens types.TokenUsage) (*ChatResult, error) {
	remaining, err := s.ledger.Remaining(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("quota lookup: %w", err)
	}
	return &ChatResult{
		Message:            display,
		Actions:            outcomes,
		Model:              call.model.ID,
		Provider:           call.res.Provider,
		Usage:              tokens,
		UsedOwnKey:         call.res.OwnKey,
		HasOwnKey:          call.res.OwnKey || s.resolver.HasStoredKey(ctx, userID),
		FreeQuotaRemaining: remaining,
	}, nil
}

// systemPrompt teaches the model the action block grammar and the catalog.
func (s *ChatService) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an assistant that can perform actions on the user's behalf.\n")
	b.WriteString("To propose an action, emit a block of this exact shape inside your reply:\n")
	b.WriteString("<<<action\n{\"action\": \"<action_id>\", \"params\": {...}}\n>>>\n")
	b.WriteString("Available actions:\n")
	for _, def := range s.catalog.List() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", def.ID, def.Category, def.Description)
	}
	b.WriteString("Only propose actions the user asked for. Keep the rest of the reply plain text.")
	return b.String()
}
