// Package permission stores and evaluates user-granted action permissions.
package permission

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/agentgate-org/agentgate/pkg/catalog"
	"github.com/agentgate-org/agentgate/pkg/store"
	"github.com/agentgate-org/agentgate/pkg/types"
	"github.com/agentgate-org/agentgate/pkg/usage"
)

// Wildcard is the action id that makes a grant cover its whole category.
const Wildcard = "*"

// DecisionKind classifies a permission check outcome.
type DecisionKind string

const (
	Allowed                 DecisionKind = "allowed"
	AllowedWithConfirmation DecisionKind = "allowed_with_confirmation"
	Denied                  DecisionKind = "denied"
)

// Denial reasons.
const (
	ReasonNoGrant           = "no_grant"
	ReasonRevoked           = "revoked"
	ReasonDailyLimitReached = "daily_limit_reached"
	ReasonUnknownAction     = "unknown_action"
)

// Decision is the outcome of one permission check. Grant is the matched grant
// for allowed outcomes so the executor can enforce its value ceiling.
type Decision struct {
	Kind   DecisionKind
	Reason string
	Grant  *store.GrantRecord
}

// GrantOptions are the caller-tunable attributes of a grant.
type GrantOptions struct {
	RequiresConfirmation bool
	DailyLimit           *int
	MaxValuePerAction    *int
}

// CategoryState summarizes one category for UI display.
type CategoryState struct {
	Category        string `json:"category"`
	WildcardGranted bool   `json:"wildcard_granted"`
}

// Summary is the per-user permission overview.
type Summary struct {
	Grants     []store.GrantRecord `json:"grants"`
	Categories []CategoryState     `json:"categories"`
}

const lockStripes = 64

// Service evaluates and mutates grants. Check/Grant/Revoke for one user are
// serialized through a striped lock so a revoke cannot race a check
// mid-evaluation; different users proceed in parallel.
type Service struct {
	store   store.Store
	catalog *catalog.Catalog
	ledger  *usage.Ledger
	locks   [lockStripes]sync.Mutex
	now     func() time.Time
	log     *slog.Logger
}

func NewService(st store.Store, cat *catalog.Catalog, ledger *usage.Ledger, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:   st,
		catalog: cat,
		ledger:  ledger,
		now:     time.Now,
		log:     log,
	}
}

// SetNow overrides the clock. Tests only.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

func (s *Service) userLock(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &s.locks[h.Sum32()%lockStripes]
}

// Check evaluates whether userID may run actionID right now.
//
// Resolution is two-tier and explicit: the exact action id first, the
// category wildcard second. A revoked specific row is an explicit decision on
// the most specific key and beats a live wildcard, whichever was written last.
func (s *Service) Check(ctx context.Context, userID, actionID string) (Decision, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()
	return s.checkLocked(ctx, userID, actionID)
}

func (s *Service) checkLocked(ctx context.Context, userID, actionID string) (Decision, error) {
	def, ok := s.catalog.Get(actionID)
	if !ok {
		return Decision{Kind: Denied, Reason: ReasonUnknownAction}, nil
	}

	matched, denial, err := s.resolveGrant(ctx, userID, actionID, def.Category)
	if err != nil {
		return Decision{}, err
	}
	if matched == nil {
		return Decision{Kind: Denied, Reason: denial}, nil
	}

	if matched.DailyLimit != nil {
		count, err := s.ledger.ActionCount(ctx, userID, actionID)
		if err != nil {
			return Decision{}, fmt.Errorf("daily limit lookup: %w", err)
		}
		if count >= *matched.DailyLimit {
			return Decision{Kind: Denied, Reason: ReasonDailyLimitReached, Grant: matched}, nil
		}
	}

	if def.ConfirmationRequired || matched.RequiresConfirmation {
		return Decision{Kind: AllowedWithConfirmation, Grant: matched}, nil
	}
	return Decision{Kind: Allowed, Grant: matched}, nil
}

func (s *Service) resolveGrant(ctx context.Context, userID, actionID, category string) (*store.GrantRecord, string, error) {
	specific, err := s.store.FindGrant(ctx, userID, actionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, "", fmt.Errorf("find grant: %w", err)
	}
	if specific != nil {
		if specific.Revoked() {
			return nil, ReasonRevoked, nil
		}
		return specific, "", nil
	}

	wildcard, err := s.store.FindWildcard(ctx, userID, category)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, "", fmt.Errorf("find wildcard grant: %w", err)
	}
	if wildcard == nil {
		return nil, ReasonNoGrant, nil
	}
	if wildcard.Revoked() {
		return nil, ReasonRevoked, nil
	}
	return wildcard, "", nil
}

// Grant upserts a grant for one action or a category wildcard. Granting a
// wildcard leaves pre-existing specific rows alone, revocation markers
// included.
func (s *Service) Grant(ctx context.Context, userID, actionID, category string, opts GrantOptions) error {
	if actionID == Wildcard {
		if !s.knownCategory(category) {
			return fmt.Errorf("%w: category %q", types.ErrUnknownAction, category)
		}
	} else {
		def, ok := s.catalog.Get(actionID)
		if !ok {
			return fmt.Errorf("%w: %s", types.ErrUnknownAction, actionID)
		}
		category = def.Category
	}

	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	err := s.store.UpsertGrant(ctx, store.GrantRecord{
		ID:                   types.GenerateGrantID(),
		UserID:               userID,
		ActionID:             actionID,
		Category:             category,
		RequiresConfirmation: opts.RequiresConfirmation,
		DailyLimit:           opts.DailyLimit,
		MaxValuePerAction:    opts.MaxValuePerAction,
		GrantedAt:            s.now().UTC(),
	})
	if err != nil {
		return err
	}
	s.log.Info("permission granted",
		"user", userID,
		"action", actionID,
		"category", category,
	)
	return nil
}

// Revoke soft-deletes grants. Three forms:
//   - actionID set: revokes (or marks revoked) that one action, which also
//     overrides a live wildcard for it;
//   - actionID == "*" with category: revokes just the wildcard row, leaving
//     independently created specific grants alone;
//   - actionID empty with category: clears every grant in the category.
//
// Idempotent: revoking something already absent or revoked is a no-op.
func (s *Service) Revoke(ctx context.Context, userID, actionID, category string) error {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	at := s.now().UTC()

	switch {
	case actionID == Wildcard:
		if !s.knownCategory(category) {
			return fmt.Errorf("%w: category %q", types.ErrUnknownAction, category)
		}
		return s.store.RevokeGrant(ctx, userID, Wildcard, category, at)
	case actionID != "":
		def, ok := s.catalog.Get(actionID)
		if !ok {
			return fmt.Errorf("%w: %s", types.ErrUnknownAction, actionID)
		}
		return s.store.RevokeGrant(ctx, userID, actionID, def.Category, at)
	case category != "":
		if !s.knownCategory(category) {
			return fmt.Errorf("%w: category %q", types.ErrUnknownAction, category)
		}
		return s.store.RevokeCategory(ctx, userID, category, at)
	default:
		return fmt.Errorf("action id or category is required")
	}
}

// Summary returns the user's grants and per-category wildcard state.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	grants, err := s.store.ListGrants(ctx, userID)
	if err != nil {
		return Summary{}, err
	}

	var categories []CategoryState
	for _, cat := range s.catalog.Categories() {
		state := CategoryState{Category: cat}
		for _, g := range grants {
			if g.ActionID == Wildcard && g.Category == cat && !g.Revoked() {
				state.WildcardGranted = true
				break
			}
		}
		categories = append(categories, state)
	}

	return Summary{Grants: grants, Categories: categories}, nil
}

func (s *Service) knownCategory(category string) bool {
	for _, c := range s.catalog.Categories() {
		if c == category {
			return true
		}
	}
	return false
}
