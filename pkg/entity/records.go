package entity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agentgate-org/agentgate/pkg/store"
	"github.com/agentgate-org/agentgate/pkg/types"
)

// RecordMutator is the entity_management collaborator. It persists abstract
// entity records (projects, products, ...) in the engine's store; the owning
// product gives their attributes meaning.
type RecordMutator struct {
	store store.Store
	now   func() time.Time
	log   *slog.Logger
}

func NewRecordMutator(st store.Store, log *slog.Logger) *RecordMutator {
	if log == nil {
		log = slog.Default()
	}
	return &RecordMutator{
		store: st,
		now:   time.Now,
		log:   log,
	}
}

func (m *RecordMutator) Category() string {
	return "entity_management"
}

// Mutate dispatches on the action id's verb prefix: create_X, update_X,
// delete_X where X is the entity type.
func (m *RecordMutator) Mutate(ctx context.Context, op Operation) (string, error) {
	verb, entityType, ok := splitActionID(op.ActionID)
	if !ok {
		return "", fmt.Errorf("unrecognized entity action: %s", op.ActionID)
	}

	switch verb {
	case "create":
		return m.create(ctx, op, entityType)
	case "update":
		return m.update(ctx, op)
	case "delete":
		return m.delete(ctx, op)
	default:
		return "", fmt.Errorf("unrecognized entity verb: %s", verb)
	}
}

func (m *RecordMutator) create(ctx context.Context, op Operation, entityType string) (string, error) {
	name, err := StringParam(op.Params, "name")
	if err != nil {
		return "", err
	}
	now := m.now().UTC()
	rec := store.EntityRecord{
		ID:         types.GenerateEntityID(),
		UserID:     op.UserID,
		EntityType: entityType,
		Name:       name,
		Attributes: attributesFrom(op.Params),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.store.UpsertEntity(ctx, rec); err != nil {
		return "", err
	}
	return fmt.Sprintf("created %s %q (%s)", entityType, name, rec.ID), nil
}

func (m *RecordMutator) update(ctx context.Context, op Operation) (string, error) {
	id, err := StringParam(op.Params, "id")
	if err != nil {
		return "", err
	}
	rec, err := m.store.GetEntity(ctx, op.UserID, id)
	if err != nil {
		return "", fmt.Errorf("load entity %s: %w", id, err)
	}
	if rec.DeletedAt != nil {
		return "", fmt.Errorf("entity %s is deleted", id)
	}

	if name, ok := op.Params["name"].(string); ok && name != "" {
		rec.Name = name
	}
	if attrs := attributesFrom(op.Params); len(attrs) > 0 {
		if rec.Attributes == nil {
			rec.Attributes = types.Params{}
		}
		for k, v := range attrs {
			rec.Attributes[k] = v
		}
	}
	rec.UpdatedAt = m.now().UTC()

	if err := m.store.UpsertEntity(ctx, *rec); err != nil {
		return "", err
	}
	return fmt.Sprintf("updated %s %q (%s)", rec.EntityType, rec.Name, rec.ID), nil
}

func (m *RecordMutator) delete(ctx context.Context, op Operation) (string, error) {
	id, err := StringParam(op.Params, "id")
	if err != nil {
		return "", err
	}
	if err := m.store.MarkEntityDeleted(ctx, op.UserID, id, m.now().UTC()); err != nil {
		return "", fmt.Errorf("delete entity %s: %w", id, err)
	}
	return fmt.Sprintf("deleted entity %s", id), nil
}

func splitActionID(actionID string) (verb, entityType string, ok bool) {
	verb, entityType, found := strings.Cut(actionID, "_")
	if !found || verb == "" || entityType == "" {
		return "", "", false
	}
	return verb, entityType, true
}

// attributesFrom keeps the free-form attributes, dropping the keys the
// mutator itself consumes.
func attributesFrom(params types.Params) types.Params {
	attrs := types.Params{}
	for k, v := range params {
		switch k {
		case "name", "id":
			continue
		}
		attrs[k] = v
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
