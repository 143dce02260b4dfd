package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const auditColumns = `seq, id, at, subject_type, subject_id, action, actor_id, actor_role,
	ip, user_agent, details, COALESCE(prev_hash, ''), COALESCE(hash, '')`

func scanAuditEntry(row interface{ Scan(...any) error }) (*AuditEntry, error) {
	e := &AuditEntry{}
	err := row.Scan(&e.Seq, &e.ID, &e.At, &e.SubjectType, &e.SubjectID, &e.Action, &e.ActorID, &e.ActorRole,
		&e.IP, &e.UserAgent, &e.Details, &e.PrevHash, &e.Hash)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateAuditEntry appends a ledger entry. The timestamp is supplied by the
// caller because it is covered by the chain hash; inserting it verbatim
// keeps the stored chain recomputable. There is no update or delete path
// for audit_entries anywhere in this package.
func (db *DB) CreateAuditEntry(ctx context.Context, at time.Time, subjectType, subjectID, action, actorID, actorRole, ip, userAgent string, details json.RawMessage, prevHash, hash string) (*AuditEntry, error) {
	e, err := scanAuditEntry(db.q.QueryRow(ctx,
		`INSERT INTO audit_entries (at, subject_type, subject_id, action, actor_id, actor_role, ip, user_agent, details, prev_hash, hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+auditColumns,
		at, subjectType, subjectID, action, actorID, actorRole, ip, userAgent, details, prevHash, hash,
	))
	if err != nil {
		return nil, fmt.Errorf("creating audit entry: %w", err)
	}
	return e, nil
}

// AuditQuery defines filters for querying the ledger.
type AuditQuery struct {
	SubjectID string
	ActorID   string
	ActorRole string
	Action    string
	Limit     int
	Offset    int
}

// ListAuditEntries queries ledger entries with optional filters, newest
// first by insertion order.
func (db *DB) ListAuditEntries(ctx context.Context, q AuditQuery) ([]AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entries WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if q.SubjectID != "" {
		query += fmt.Sprintf(" AND subject_id = $%d", argIdx)
		args = append(args, q.SubjectID)
		argIdx++
	}
	if q.ActorID != "" {
		query += fmt.Sprintf(" AND actor_id = $%d", argIdx)
		args = append(args, q.ActorID)
		argIdx++
	}
	if q.ActorRole != "" {
		query += fmt.Sprintf(" AND actor_role = $%d", argIdx)
		args = append(args, q.ActorRole)
		argIdx++
	}
	if q.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, q.Action)
		argIdx++
	}

	query += " ORDER BY seq DESC"

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)
	argIdx++

	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, q.Offset)
	}

	rows, err := db.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ListAuditChain returns the full ledger oldest-first, in the order entries
// were appended, for chain verification.
func (db *DB) ListAuditChain(ctx context.Context) ([]AuditEntry, error) {
	rows, err := db.q.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("listing audit chain: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// GetLastAuditHash retrieves the hash of the most recent entry for chain
// linking. Insertion order (seq) breaks timestamp ties.
func (db *DB) GetLastAuditHash(ctx context.Context) (string, error) {
	var hash *string
	err := db.q.QueryRow(ctx,
		`SELECT hash FROM audit_entries ORDER BY seq DESC LIMIT 1`,
	).Scan(&hash)
	if err != nil {
		// No rows means genesis entry.
		return "", nil
	}
	if hash == nil {
		return "", nil
	}
	return *hash, nil
}
