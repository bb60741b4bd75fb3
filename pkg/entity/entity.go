// Package entity defines the mutating collaborators the action executor
// drives. The engine treats business entities abstractly; each collaborator
// owns the side effects for one action category.
package entity

import (
	"context"
	"fmt"

	"github.com/agentgate-org/agentgate/pkg/types"
)

// Operation is one validated mutation request handed to a collaborator.
type Operation struct {
	UserID   string
	ActorID  string
	ActionID string
	Params   types.Params
}

// Mutator performs the side effect for one action category.
type Mutator interface {
	// Category names the action category this collaborator serves.
	Category() string

	// Mutate performs the operation and returns a short human-readable
	// result summary. Errors are recorded verbatim; never retried.
	Mutate(ctx context.Context, op Operation) (string, error)
}

// Registry maps action categories to their collaborators.
type Registry struct {
	byCategory map[string]Mutator
}

func NewRegistry(mutators ...Mutator) *Registry {
	r := &Registry{byCategory: make(map[string]Mutator, len(mutators))}
	for _, m := range mutators {
		r.byCategory[m.Category()] = m
	}
	return r
}

// Register adds or replaces the collaborator for a category.
func (r *Registry) Register(m Mutator) {
	r.byCategory[m.Category()] = m
}

// For returns the collaborator serving a category.
func (r *Registry) For(category string) (Mutator, bool) {
	m, ok := r.byCategory[category]
	return m, ok
}

// AmountParam extracts the numeric value field of an operation, checked
// against per-grant value ceilings. Accepts "amount" then "value".
func AmountParam(params types.Params) (int, bool) {
	for _, key := range []string{"amount", "value"} {
		switch v := params[key].(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		}
	}
	return 0, false
}

// StringParam extracts a required string parameter.
func StringParam(params types.Params, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing parameter %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}
