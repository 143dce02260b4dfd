package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubQuerier records every statement issued through the handle's bound
// querier. Scans fail with errNoBackend so calls return early.
type stubQuerier struct {
	statements []string
}

var errNoBackend = errors.New("no backend")

func (s *stubQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.statements = append(s.statements, sql)
	return pgconn.CommandTag{}, errNoBackend
}

func (s *stubQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	s.statements = append(s.statements, sql)
	return nil, errNoBackend
}

func (s *stubQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	s.statements = append(s.statements, sql)
	return stubRow{}
}

type stubRow struct{}

func (stubRow) Scan(dest ...any) error { return errNoBackend }

// Every statement in the upload path must run on the handle's querier, not
// on the pool, so a transaction-bound handle keeps the whole upload in one
// transaction. Pool is left nil here: any write that reached for it
// directly would panic the test.
func TestUploadPathWritesFollowBoundQuerier(t *testing.T) {
	ctx := context.Background()
	stub := &stubQuerier{}
	handle := &DB{q: stub}

	_, err := handle.NextBatchNumber(ctx, "p1")
	assert.ErrorIs(t, err, errNoBackend)
	_, err = handle.CreateBatch(ctx, &CredentialBatch{ProductID: "p1"})
	assert.ErrorIs(t, err, errNoBackend)
	_, err = handle.CreateProfile(ctx, "b1", "Main", "")
	assert.ErrorIs(t, err, errNoBackend)
	_, err = handle.CreditRequestUnits(ctx, "r1", 3, "u1")
	assert.ErrorIs(t, err, errNoBackend)
	_, err = handle.DebitRequestUnits(ctx, "r1", 1)
	assert.ErrorIs(t, err, errNoBackend)
	_, err = handle.AddStock(ctx, "p1", 3)
	assert.ErrorIs(t, err, errNoBackend)
	_, err = handle.InvalidateBatch(ctx, "b1")
	assert.ErrorIs(t, err, errNoBackend)
	_, err = handle.MarkBatchApproved(ctx, "b1", "a1")
	assert.ErrorIs(t, err, errNoBackend)
	_, _, err = handle.CountBatchUnits(ctx, "p1")
	assert.ErrorIs(t, err, errNoBackend)
	_, err = handle.CreateAuditEntry(ctx, time.Now(), "stock_request", "r1", "requested", "a1", "admin", "", "", nil, "", "h")
	assert.ErrorIs(t, err, errNoBackend)

	require.Len(t, stub.statements, 10)
	assert.Contains(t, stub.statements[0], "UPDATE products SET batch_seq")
	assert.Contains(t, stub.statements[1], "INSERT INTO credential_batches")
	assert.Contains(t, stub.statements[2], "INSERT INTO credential_profiles")
	assert.Contains(t, stub.statements[3], "UPDATE stock_requests")
	assert.Contains(t, stub.statements[5], "UPDATE products SET stock")
	assert.Contains(t, stub.statements[9], "INSERT INTO audit_entries")
}
