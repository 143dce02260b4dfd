package db

import (
	"context"
	"fmt"
)

const batchColumns = `id, product_id, vendor_id, credential_type, payload_ciphertext, masked_label,
	total_count, assigned_count, available_count, batch_number, admin_request_id,
	is_valid, approved_at, COALESCE(approved_by, ''), created_by, created_at`

func scanBatch(row interface{ Scan(...any) error }) (*CredentialBatch, error) {
	b := &CredentialBatch{}
	err := row.Scan(&b.ID, &b.ProductID, &b.VendorID, &b.CredentialType, &b.PayloadCiphertext, &b.MaskedLabel,
		&b.TotalCount, &b.AssignedCount, &b.AvailableCount, &b.BatchNumber, &b.AdminRequestID,
		&b.IsValid, &b.ApprovedAt, &b.ApprovedBy, &b.CreatedBy, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBatch inserts an encrypted credential batch. availableCount starts
// equal to totalCount; the conservation CHECK in the schema rejects anything
// that would break assigned + available == total.
func (db *DB) CreateBatch(ctx context.Context, b *CredentialBatch) (*CredentialBatch, error) {
	out, err := scanBatch(db.q.QueryRow(ctx,
		`INSERT INTO credential_batches
		 (product_id, vendor_id, credential_type, payload_ciphertext, masked_label,
		  total_count, assigned_count, available_count, batch_number,
		  admin_request_id, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, $6, $7, $8, $9)
		 RETURNING `+batchColumns,
		b.ProductID, b.VendorID, b.CredentialType, b.PayloadCiphertext, b.MaskedLabel,
		b.TotalCount, b.BatchNumber, b.AdminRequestID, b.CreatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("creating credential batch: %w", err)
	}
	return out, nil
}

// GetBatch retrieves a batch by ID.
func (db *DB) GetBatch(ctx context.Context, id string) (*CredentialBatch, error) {
	b, err := scanBatch(db.q.QueryRow(ctx,
		`SELECT `+batchColumns+` FROM credential_batches WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("getting credential batch: %w", err)
	}
	return b, nil
}

// ListBatchesByProduct lists a product's batches, newest first.
func (db *DB) ListBatchesByProduct(ctx context.Context, productID string) ([]CredentialBatch, error) {
	return db.listBatches(ctx,
		`SELECT `+batchColumns+` FROM credential_batches
		 WHERE product_id = $1 ORDER BY batch_number DESC`, productID)
}

// ListBatchesByRequest lists batches contributed to a stock request.
func (db *DB) ListBatchesByRequest(ctx context.Context, requestID string) ([]CredentialBatch, error) {
	return db.listBatches(ctx,
		`SELECT `+batchColumns+` FROM credential_batches
		 WHERE admin_request_id = $1 ORDER BY batch_number`, requestID)
}

func (db *DB) listBatches(ctx context.Context, query string, args ...interface{}) ([]CredentialBatch, error) {
	rows, err := db.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing credential batches: %w", err)
	}
	defer rows.Close()

	var batches []CredentialBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning credential batch: %w", err)
		}
		batches = append(batches, *b)
	}
	return batches, rows.Err()
}

// MarkBatchApproved stamps a batch as admin-approved. The predicate makes
// the operation idempotence-safe: an already-approved or invalidated batch
// matches no row and the caller reports a state conflict.
func (db *DB) MarkBatchApproved(ctx context.Context, id, approvedBy string) (*CredentialBatch, error) {
	b, err := scanBatch(db.q.QueryRow(ctx,
		`UPDATE credential_batches
		 SET approved_at = now(), approved_by = $2
		 WHERE id = $1 AND is_valid AND approved_at IS NULL
		 RETURNING `+batchColumns,
		id, approvedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("approving credential batch: %w", err)
	}
	return b, nil
}

// InvalidateBatch tombstones a batch. Rejected batches are never deleted.
func (db *DB) InvalidateBatch(ctx context.Context, id string) (*CredentialBatch, error) {
	b, err := scanBatch(db.q.QueryRow(ctx,
		`UPDATE credential_batches
		 SET is_valid = FALSE
		 WHERE id = $1 AND is_valid
		 RETURNING `+batchColumns,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("invalidating credential batch: %w", err)
	}
	return b, nil
}

// CountBatchUnits sums available and assigned units over a product's valid
// batches, for the vault's per-product summary.
func (db *DB) CountBatchUnits(ctx context.Context, productID string) (available, assigned int, err error) {
	err = db.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(available_count), 0), COALESCE(SUM(assigned_count), 0)
		 FROM credential_batches WHERE product_id = $1 AND is_valid`,
		productID,
	).Scan(&available, &assigned)
	if err != nil {
		return 0, 0, fmt.Errorf("counting batch units: %w", err)
	}
	return available, assigned, nil
}
