package db

import (
	"context"
	"fmt"
	"time"
)

const requestColumns = `id, vendor_id, product_id, quantity_requested, quantity_fulfilled,
	status, notes, deadline, fulfilled_at, COALESCE(fulfilled_by, ''), created_by, created_at, updated_at`

func (db *DB) scanRequestRow(row interface{ Scan(...any) error }) (*StockRequest, error) {
	r := &StockRequest{}
	err := row.Scan(&r.ID, &r.VendorID, &r.ProductID, &r.QuantityRequested, &r.QuantityFulfilled,
		&r.Status, &r.Notes, &r.Deadline, &r.FulfilledAt, &r.FulfilledBy, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateStockRequest creates a request in the initial requested state.
func (db *DB) CreateStockRequest(ctx context.Context, vendorID, productID string, quantity int, notes string, deadline *time.Time, createdBy string) (*StockRequest, error) {
	r, err := db.scanRequestRow(db.q.QueryRow(ctx,
		`INSERT INTO stock_requests (vendor_id, product_id, quantity_requested, notes, deadline, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+requestColumns,
		vendorID, productID, quantity, notes, deadline, createdBy,
	))
	if err != nil {
		return nil, fmt.Errorf("creating stock request: %w", err)
	}
	return r, nil
}

// GetStockRequest retrieves a request by ID.
func (db *DB) GetStockRequest(ctx context.Context, id string) (*StockRequest, error) {
	r, err := db.scanRequestRow(db.q.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM stock_requests WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("getting stock request: %w", err)
	}
	return r, nil
}

// ListStockRequests lists requests, optionally filtered by vendor and status.
func (db *DB) ListStockRequests(ctx context.Context, vendorID, status string) ([]StockRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM stock_requests WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if vendorID != "" {
		query += fmt.Sprintf(" AND vendor_id = $%d", argIdx)
		args = append(args, vendorID)
		argIdx++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stock requests: %w", err)
	}
	defer rows.Close()

	var requests []StockRequest
	for rows.Next() {
		r, err := db.scanRequestRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning stock request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// CreditRequestUnits applies an upload's units to an open request as a
// single atomic read-modify-write: fulfilled is capped at requested, status
// is recomputed inline, and the fulfillment stamp is set the moment the cap
// is reached. Terminal requests match no row, so racing uploads cannot
// overshoot or resurrect a closed request.
func (db *DB) CreditRequestUnits(ctx context.Context, id string, units int, actor string) (*StockRequest, error) {
	r, err := db.scanRequestRow(db.q.QueryRow(ctx,
		`UPDATE stock_requests SET
		   quantity_fulfilled = LEAST(quantity_requested, quantity_fulfilled + $2),
		   status = CASE
		     WHEN quantity_fulfilled + $2 >= quantity_requested THEN 'fulfilled'
		     ELSE 'partially_fulfilled'
		   END,
		   fulfilled_at = CASE
		     WHEN quantity_fulfilled + $2 >= quantity_requested THEN now()
		     ELSE fulfilled_at
		   END,
		   fulfilled_by = CASE
		     WHEN quantity_fulfilled + $2 >= quantity_requested THEN $3
		     ELSE fulfilled_by
		   END,
		   updated_at = now()
		 WHERE id = $1 AND status IN ('requested', 'partially_fulfilled')
		 RETURNING `+requestColumns,
		id, units, actor,
	))
	if err != nil {
		return nil, fmt.Errorf("crediting stock request: %w", err)
	}
	return r, nil
}

// DebitRequestUnits rolls a rejected batch's units back out of a request,
// flooring at zero and recomputing status. A fulfilled request reopens;
// cancelled and rejected requests stay closed.
func (db *DB) DebitRequestUnits(ctx context.Context, id string, units int) (*StockRequest, error) {
	r, err := db.scanRequestRow(db.q.QueryRow(ctx,
		`UPDATE stock_requests SET
		   quantity_fulfilled = GREATEST(0, quantity_fulfilled - $2),
		   status = CASE
		     WHEN GREATEST(0, quantity_fulfilled - $2) = 0 THEN 'requested'
		     WHEN GREATEST(0, quantity_fulfilled - $2) >= quantity_requested THEN 'fulfilled'
		     ELSE 'partially_fulfilled'
		   END,
		   fulfilled_at = CASE
		     WHEN GREATEST(0, quantity_fulfilled - $2) >= quantity_requested THEN fulfilled_at
		     ELSE NULL
		   END,
		   fulfilled_by = CASE
		     WHEN GREATEST(0, quantity_fulfilled - $2) >= quantity_requested THEN fulfilled_by
		     ELSE ''
		   END,
		   updated_at = now()
		 WHERE id = $1 AND status NOT IN ('cancelled', 'rejected')
		 RETURNING `+requestColumns,
		id, units,
	))
	if err != nil {
		return nil, fmt.Errorf("debiting stock request: %w", err)
	}
	return r, nil
}

// CloseStockRequest moves an open request into a terminal state
// (cancelled or rejected). Fulfilled requests match no row.
func (db *DB) CloseStockRequest(ctx context.Context, id, terminalStatus string) (*StockRequest, error) {
	r, err := db.scanRequestRow(db.q.QueryRow(ctx,
		`UPDATE stock_requests SET status = $2, updated_at = now()
		 WHERE id = $1 AND status IN ('requested', 'partially_fulfilled')
		 RETURNING `+requestColumns,
		id, terminalStatus,
	))
	if err != nil {
		return nil, fmt.Errorf("closing stock request: %w", err)
	}
	return r, nil
}
