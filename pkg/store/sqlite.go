package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentgate-org/agentgate/pkg/types"
	_ "modernc.org/sqlite"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func encodeParams(p types.Params) (string, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	encoded, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(encoded), nil
}

func decodeParams(value string) (types.Params, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "{}" {
		return nil, nil
	}
	var p types.Params
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return p, nil
}

// SQLiteStore provides SQLite-backed persistence for the engine's records.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at the provided path, creating the schema on
// first use.
func Open(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{sqlDB: sqlDB}
	if err := store.ensureSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return store, nil
}

// Close closes the underlying SQLite database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.sqlDB.Exec(`
CREATE TABLE IF NOT EXISTS permission_grants (
	id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	action_id TEXT NOT NULL,
	category TEXT NOT NULL,
	requires_confirmation INTEGER NOT NULL DEFAULT 0,
	daily_limit INTEGER,
	max_value_per_action INTEGER,
	granted_at INTEGER NOT NULL,
	revoked_at INTEGER,
	PRIMARY KEY (user_id, action_id, category)
);

CREATE TABLE IF NOT EXISTS action_executions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	actor_id TEXT NOT NULL,
	action_id TEXT NOT NULL,
	params TEXT NOT NULL DEFAULT '{}',
	message_ref TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	result_summary TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	resolved_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_action_executions_user ON action_executions (user_id, created_at);

CREATE TABLE IF NOT EXISTS usage_counters (
	user_id TEXT NOT NULL,
	day TEXT NOT NULL,
	tier TEXT NOT NULL,
	request_count INTEGER NOT NULL DEFAULT 0,
	token_count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, day, tier)
);

CREATE TABLE IF NOT EXISTS provider_credentials (
	id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	provider TEXT NOT NULL,
	key_ciphertext TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, provider)
);

CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	attributes TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	deleted_at INTEGER
);
`)
	return err
}

// --- Grant Operations ---

func (s *SQLiteStore) UpsertGrant(ctx context.Context, grant GrantRecord) error {
	if strings.TrimSpace(grant.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(grant.ActionID) == "" {
		return fmt.Errorf("action id is required")
	}
	if strings.TrimSpace(grant.Category) == "" {
		return fmt.Errorf("category is required")
	}

	var dailyLimit, maxValue sql.NullInt64
	if grant.DailyLimit != nil {
		dailyLimit = sql.NullInt64{Int64: int64(*grant.DailyLimit), Valid: true}
	}
	if grant.MaxValuePerAction != nil {
		maxValue = sql.NullInt64{Int64: int64(*grant.MaxValuePerAction), Valid: true}
	}
	var revokedAt sql.NullInt64
	if grant.RevokedAt != nil {
		revokedAt = sql.NullInt64{Int64: toMillis(*grant.RevokedAt), Valid: true}
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO permission_grants (
	id, user_id, action_id, category, requires_confirmation, daily_limit, max_value_per_action, granted_at, revoked_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, action_id, category) DO UPDATE SET
	requires_confirmation = excluded.requires_confirmation,
	daily_limit = excluded.daily_limit,
	max_value_per_action = excluded.max_value_per_action,
	granted_at = excluded.granted_at,
	revoked_at = excluded.revoked_at
`,
		grant.ID,
		grant.UserID,
		grant.ActionID,
		grant.Category,
		grant.RequiresConfirmation,
		dailyLimit,
		maxValue,
		toMillis(grant.GrantedAt),
		revokedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}
	return nil
}

func scanGrant(scanner interface{ Scan(...any) error }) (GrantRecord, error) {
	var (
		rec        GrantRecord
		dailyLimit sql.NullInt64
		maxValue   sql.NullInt64
		grantedAt  int64
		revokedAt  sql.NullInt64
	)
	err := scanner.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.ActionID,
		&rec.Category,
		&rec.RequiresConfirmation,
		&dailyLimit,
		&maxValue,
		&grantedAt,
		&revokedAt,
	)
	if err != nil {
		return GrantRecord{}, err
	}
	if dailyLimit.Valid {
		v := int(dailyLimit.Int64)
		rec.DailyLimit = &v
	}
	if maxValue.Valid {
		v := int(maxValue.Int64)
		rec.MaxValuePerAction = &v
	}
	rec.GrantedAt = fromMillis(grantedAt)
	if revokedAt.Valid {
		t := fromMillis(revokedAt.Int64)
		rec.RevokedAt = &t
	}
	return rec, nil
}

const grantColumns = `id, user_id, action_id, category, requires_confirmation, daily_limit, max_value_per_action, granted_at, revoked_at`

// FindGrant returns the grant row keyed to the exact action id, revoked or
// not. Revocation markers matter to the caller; they are not filtered here.
func (s *SQLiteStore) FindGrant(ctx context.Context, userID, actionID string) (*GrantRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+grantColumns+`
FROM permission_grants
WHERE user_id = ? AND action_id = ? AND action_id != '*'
`, userID, actionID)

	rec, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find grant: %w", err)
	}
	return &rec, nil
}

// FindWildcard returns the category-wide wildcard row, revoked or not.
func (s *SQLiteStore) FindWildcard(ctx context.Context, userID, category string) (*GrantRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+grantColumns+`
FROM permission_grants
WHERE user_id = ? AND action_id = '*' AND category = ?
`, userID, category)

	rec, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find wildcard grant: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) ListGrants(ctx context.Context, userID string) ([]GrantRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+grantColumns+`
FROM permission_grants
WHERE user_id = ?
ORDER BY category, action_id
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var grants []GrantRecord
	for rows.Next() {
		rec, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, rec)
	}
	return grants, rows.Err()
}

// RevokeGrant soft-deletes the matching row, or inserts a revocation marker
// when no row exists yet so a specific revoke can override a wildcard grant.
func (s *SQLiteStore) RevokeGrant(ctx context.Context, userID, actionID, category string, at time.Time) error {
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO permission_grants (id, user_id, action_id, category, requires_confirmation, granted_at, revoked_at)
VALUES (?, ?, ?, ?, 0, ?, ?)
ON CONFLICT(user_id, action_id, category) DO UPDATE SET
	revoked_at = excluded.revoked_at
`, types.GenerateGrantID(), userID, actionID, category, toMillis(at), toMillis(at))
	if err != nil {
		return fmt.Errorf("revoke grant: %w", err)
	}
	return nil
}

// RevokeCategory soft-deletes every grant in one category, the wildcard
// included. Specific rows keep their own revoked_at timestamps.
func (s *SQLiteStore) RevokeCategory(ctx context.Context, userID, category string, at time.Time) error {
	_, err := s.sqlDB.ExecContext(ctx, `
UPDATE permission_grants
SET revoked_at = ?
WHERE user_id = ? AND category = ? AND revoked_at IS NULL
`, toMillis(at), userID, category)
	if err != nil {
		return fmt.Errorf("revoke category: %w", err)
	}
	return nil
}

// --- Execution Operations ---

func (s *SQLiteStore) InsertExecution(ctx context.Context, rec ExecutionRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("execution id is required")
	}
	if strings.TrimSpace(rec.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	params, err := encodeParams(rec.Params)
	if err != nil {
		return err
	}
	var resolvedAt sql.NullInt64
	if rec.ResolvedAt != nil {
		resolvedAt = sql.NullInt64{Int64: toMillis(*rec.ResolvedAt), Valid: true}
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO action_executions (
	id, user_id, actor_id, action_id, params, message_ref, status, result_summary, error_message, created_at, resolved_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		rec.ID,
		rec.UserID,
		rec.ActorID,
		rec.ActionID,
		params,
		rec.MessageRef,
		string(rec.Status),
		rec.ResultSummary,
		rec.ErrorMessage,
		toMillis(rec.CreatedAt),
		resolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

func scanExecution(scanner interface{ Scan(...any) error }) (ExecutionRecord, error) {
	var (
		rec        ExecutionRecord
		params     string
		status     string
		createdAt  int64
		resolvedAt sql.NullInt64
	)
	err := scanner.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.ActorID,
		&rec.ActionID,
		&params,
		&rec.MessageRef,
		&status,
		&rec.ResultSummary,
		&rec.ErrorMessage,
		&createdAt,
		&resolvedAt,
	)
	if err != nil {
		return ExecutionRecord{}, err
	}
	decoded, err := decodeParams(params)
	if err != nil {
		return ExecutionRecord{}, err
	}
	rec.Params = decoded
	rec.Status = ExecutionStatus(status)
	rec.CreatedAt = fromMillis(createdAt)
	if resolvedAt.Valid {
		t := fromMillis(resolvedAt.Int64)
		rec.ResolvedAt = &t
	}
	return rec, nil
}

const executionColumns = `id, user_id, actor_id, action_id, params, message_ref, status, result_summary, error_message, created_at, resolved_at`

func (s *SQLiteStore) GetExecution(ctx context.Context, userID, id string) (*ExecutionRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+executionColumns+`
FROM action_executions
WHERE user_id = ? AND id = ?
`, userID, id)

	rec, err := scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get execution: %w", err)
	}
	return &rec, nil
}

// ResolveExecution transitions a non-terminal record. The status guard in the
// WHERE clause is what makes terminal records immutable.
func (s *SQLiteStore) ResolveExecution(ctx context.Context, id string, status ExecutionStatus, summary, errMsg string, at time.Time) error {
	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE action_executions
SET status = ?, result_summary = ?, error_message = ?, resolved_at = ?
WHERE id = ? AND status IN ('pending_confirmation', 'executing')
`, string(status), summary, errMsg, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("resolve execution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve execution rows: %w", err)
	}
	if affected == 0 {
		return ErrTerminal
	}
	return nil
}

func (s *SQLiteStore) ListExecutions(ctx context.Context, userID string, filter ExecutionFilter) ([]ExecutionRecord, error) {
	whereParts := []string{"user_id = ?"}
	args := []any{userID}
	if filter.ActionID != "" {
		whereParts = append(whereParts, "action_id = ?")
		args = append(args, filter.ActionID)
	}
	if filter.Status != "" {
		whereParts = append(whereParts, "status = ?")
		args = append(args, string(filter.Status))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+executionColumns+`
FROM action_executions
WHERE `+strings.Join(whereParts, " AND ")+`
ORDER BY created_at DESC
LIMIT ?
`, args...)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var recs []ExecutionRecord
	for rows.Next() {
		rec, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// CountExecutions counts one user's records for an action created on the
// given UTC day, restricted to the provided statuses.
func (s *SQLiteStore) CountExecutions(ctx context.Context, userID, actionID, day string, statuses []ExecutionStatus) (int, error) {
	dayStart, err := time.Parse("2006-01-02", day)
	if err != nil {
		return 0, fmt.Errorf("parse day: %w", err)
	}
	dayEnd := dayStart.Add(24 * time.Hour)

	if len(statuses) == 0 {
		statuses = []ExecutionStatus{StatusExecuting, StatusSucceeded}
	}
	placeholders := make([]string, len(statuses))
	args := []any{userID, actionID, toMillis(dayStart), toMillis(dayEnd)}
	for i, st := range statuses {
		placeholders[i] = "?"
		args = append(args, string(st))
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM action_executions
WHERE user_id = ? AND action_id = ? AND created_at >= ? AND created_at < ?
  AND status IN (`+strings.Join(placeholders, ", ")+`)
`, args...)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count executions: %w", err)
	}
	return count, nil
}

// --- Usage Operations ---

// IncrementUsage bumps the (user, day, tier) counter in a single UPSERT so
// concurrent requests cannot lose updates.
func (s *SQLiteStore) IncrementUsage(ctx context.Context, userID, day string, tier types.Tier, tokens int) error {
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO usage_counters (user_id, day, tier, request_count, token_count)
VALUES (?, ?, ?, 1, ?)
ON CONFLICT(user_id, day, tier) DO UPDATE SET
	request_count = request_count + 1,
	token_count = token_count + excluded.token_count
`, userID, day, string(tier), tokens)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUsage(ctx context.Context, userID, day string, tier types.Tier) (UsageRow, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT request_count, token_count
FROM usage_counters
WHERE user_id = ? AND day = ? AND tier = ?
`, userID, day, string(tier))

	usage := UsageRow{UserID: userID, Day: day, Tier: tier}
	err := row.Scan(&usage.RequestCount, &usage.TokenCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return usage, nil // zero counters, not an error
		}
		return UsageRow{}, fmt.Errorf("get usage: %w", err)
	}
	return usage, nil
}

// --- Credential Operations ---

func (s *SQLiteStore) UpsertCredential(ctx context.Context, rec CredentialRecord) error {
	if strings.TrimSpace(rec.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(rec.KeyCiphertext) == "" {
		return fmt.Errorf("key ciphertext is required")
	}
	// KeyCiphertext must be pre-sealed by the service layer.
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO provider_credentials (id, user_id, provider, key_ciphertext, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, provider) DO UPDATE SET
	key_ciphertext = excluded.key_ciphertext,
	updated_at = excluded.updated_at
`,
		rec.ID,
		rec.UserID,
		string(rec.Provider),
		rec.KeyCiphertext,
		toMillis(rec.CreatedAt),
		toMillis(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCredential(ctx context.Context, userID string, provider types.ProviderID) (*CredentialRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, provider, key_ciphertext, created_at, updated_at
FROM provider_credentials
WHERE user_id = ? AND provider = ?
`, userID, string(provider))

	var (
		rec       CredentialRecord
		prov      string
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&rec.ID, &rec.UserID, &prov, &rec.KeyCiphertext, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	rec.Provider = types.ProviderID(prov)
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return &rec, nil
}

func (s *SQLiteStore) DeleteCredential(ctx context.Context, userID string, provider types.ProviderID) error {
	_, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM provider_credentials
WHERE user_id = ? AND provider = ?
`, userID, string(provider))
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// --- Entity Operations ---

func (s *SQLiteStore) UpsertEntity(ctx context.Context, rec EntityRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("entity id is required")
	}
	attrs, err := encodeParams(rec.Attributes)
	if err != nil {
		return err
	}
	var deletedAt sql.NullInt64
	if rec.DeletedAt != nil {
		deletedAt = sql.NullInt64{Int64: toMillis(*rec.DeletedAt), Valid: true}
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO entities (id, user_id, entity_type, name, attributes, created_at, updated_at, deleted_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	attributes = excluded.attributes,
	updated_at = excluded.updated_at,
	deleted_at = excluded.deleted_at
`,
		rec.ID,
		rec.UserID,
		rec.EntityType,
		rec.Name,
		attrs,
		toMillis(rec.CreatedAt),
		toMillis(rec.UpdatedAt),
		deletedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert entity: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetEntity(ctx context.Context, userID, id string) (*EntityRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, entity_type, name, attributes, created_at, updated_at, deleted_at
FROM entities
WHERE user_id = ? AND id = ?
`, userID, id)

	var (
		rec       EntityRecord
		attrs     string
		createdAt int64
		updatedAt int64
		deletedAt sql.NullInt64
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.EntityType, &rec.Name, &attrs, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get entity: %w", err)
	}
	decoded, err := decodeParams(attrs)
	if err != nil {
		return nil, err
	}
	rec.Attributes = decoded
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	if deletedAt.Valid {
		t := fromMillis(deletedAt.Int64)
		rec.DeletedAt = &t
	}
	return &rec, nil
}

func (s *SQLiteStore) MarkEntityDeleted(ctx context.Context, userID, id string, at time.Time) error {
	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE entities
SET deleted_at = ?, updated_at = ?
WHERE user_id = ? AND id = ? AND deleted_at IS NULL
`, toMillis(at), toMillis(at), userID, id)
	if err != nil {
		return fmt.Errorf("mark entity deleted: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark entity deleted rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
