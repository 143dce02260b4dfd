// Package reconcile converts credential units into product-level sellable
// stock while conserving inventory. Vendor self-stocking credits stock at
// upload; request-linked batches only become sellable through the admin
// approval gate.
package reconcile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/vendorvault/vendorvault/internal/audit"
	"github.com/vendorvault/vendorvault/internal/db"
	"github.com/vendorvault/vendorvault/internal/faults"
)

// Reconciler coordinates batch units with product stock counters.
type Reconciler struct {
	database *db.DB
	ledger   *audit.Ledger
}

// New creates a reconciler.
func New(database *db.DB, ledger *audit.Ledger) *Reconciler {
	return &Reconciler{database: database, ledger: ledger}
}

// SelfStock credits a vendor-initiated upload straight into sellable stock
// through the given store handle, so it commits or rolls back with the
// caller's transaction.
func (r *Reconciler) SelfStock(ctx context.Context, store *db.DB, productID string, units int) (*db.Product, error) {
	return store.AddStock(ctx, productID, units)
}

// Approve moves a request-linked batch's available units into sellable
// stock. The approval stamp and the stock credit commit in one transaction,
// and the store predicate rejects double approval and approval of an
// invalidated batch, so stock can never be double-applied or half-applied.
func (r *Reconciler) Approve(ctx context.Context, batchID string, actor audit.Actor, comment string) (*db.CredentialBatch, error) {
	current, err := r.database.GetBatch(ctx, batchID)
	if err != nil {
		return nil, faults.NotFound("credential batch")
	}
	if !current.IsValid {
		return nil, faults.Conflict("batch has been rejected")
	}
	if current.ApprovedAt != nil {
		return nil, faults.Conflict("batch is already approved")
	}
	if current.AdminRequestID == nil {
		return nil, faults.Conflict("self-stocked batch needs no approval")
	}

	var approved *db.CredentialBatch
	err = r.database.InTx(ctx, func(tx *db.DB) error {
		approved, err = tx.MarkBatchApproved(ctx, batchID, actor.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return faults.Conflict("batch is already approved")
			}
			return err
		}
		_, err = tx.AddStock(ctx, approved.ProductID, approved.AvailableCount)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.ledger.RecordOrLog(ctx, audit.Entry{
		SubjectType: audit.SubjectBatch,
		SubjectID:   approved.ID,
		Action:      audit.ActionApproved,
		Actor:       actor,
		Details: audit.Details(map[string]interface{}{
			"product_id":  approved.ProductID,
			"stock_units": approved.AvailableCount,
			"comment":     comment,
		}),
	})
	return approved, nil
}

// Withdraw removes a rejected batch's units from sellable stock when they
// had already been counted (self-stocked or previously approved batches),
// through the given store handle.
func (r *Reconciler) Withdraw(ctx context.Context, store *db.DB, productID string, units int) (*db.Product, error) {
	return store.AddStock(ctx, productID, -units)
}

// StockSummary compares a product's sellable stock counter against the
// units actually held in its valid batches.
type StockSummary struct {
	Stock          int `json:"stock"`
	AvailableUnits int `json:"available_units"`
	AssignedUnits  int `json:"assigned_units"`
}

// Summarize reports the stock counter next to the vault's unit totals for
// one product.
func (r *Reconciler) Summarize(ctx context.Context, product *db.Product) (*StockSummary, error) {
	available, assigned, err := r.database.CountBatchUnits(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	return &StockSummary{
		Stock:          product.Stock,
		AvailableUnits: available,
		AssignedUnits:  assigned,
	}, nil
}
