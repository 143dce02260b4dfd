package engine

import (
	"context"
	"strings"

	"github.com/vendorvault/vendorvault/internal/audit"
	"github.com/vendorvault/vendorvault/internal/db"
	"github.com/vendorvault/vendorvault/internal/faults"
	"github.com/vendorvault/vendorvault/internal/notify"
	"github.com/vendorvault/vendorvault/internal/vault"
)

// RevealBatch decrypts a batch for admin review. The vault guarantees the
// decrypted ledger entry; there is no reveal without it.
func (e *Engine) RevealBatch(ctx context.Context, batchID string, actor audit.Actor) (*vault.RevealedBatch, error) {
	return e.vault.Reveal(ctx, batchID, actor)
}

// ApproveBatch passes a request-linked batch through the admin approval
// gate, moving its available units into sellable stock. Double approval and
// approval of a rejected batch are state conflicts, never double-applied.
func (e *Engine) ApproveBatch(ctx context.Context, batchID string, actor audit.Actor, comment string) error {
	approved, err := e.reconciler.Approve(ctx, batchID, actor, comment)
	if err != nil {
		return err
	}

	e.notifier.Fire(notify.EventBatchApproved, map[string]interface{}{
		"batch_id":    approved.ID,
		"product_id":  approved.ProductID,
		"stock_units": approved.AvailableCount,
	})
	return nil
}

// RejectBatch tombstones a batch and rolls its units back out of whatever
// counted them: the linked request's fulfilled quantity, or sellable stock
// for self-stocked and already-approved batches. The reason is mandatory.
func (e *Engine) RejectBatch(ctx context.Context, batchID string, actor audit.Actor, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return faults.Invalid("rejection reason is required")
	}

	current, err := e.database.GetBatch(ctx, batchID)
	if err != nil {
		return faults.NotFound("credential batch")
	}
	if !current.IsValid {
		return faults.Conflict("batch is already rejected")
	}

	// The tombstone and the unit rollback commit together, so a rejected
	// batch can never stay counted in a request or in sellable stock.
	var (
		rejected   *db.CredentialBatch
		updatedReq *db.StockRequest
	)
	err = e.database.InTx(ctx, func(tx *db.DB) error {
		var err error
		rejected, err = tx.InvalidateBatch(ctx, batchID)
		if err != nil {
			// Raced with another rejection.
			return faults.Conflict("batch is already rejected")
		}

		if rejected.AdminRequestID != nil {
			updatedReq, err = e.machine.Debit(ctx, tx, *rejected.AdminRequestID, rejected.TotalCount)
			if err != nil {
				return err
			}
		}
		// Units that had already been counted as sellable stock come back out.
		if rejected.AdminRequestID == nil || rejected.ApprovedAt != nil {
			if _, err := e.reconciler.Withdraw(ctx, tx, rejected.ProductID, rejected.AvailableCount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if updatedReq != nil {
		e.machine.Record(ctx, updatedReq, audit.ActionRejected, actor, -rejected.TotalCount)
	}

	e.ledger.RecordOrLog(ctx, audit.Entry{
		SubjectType: audit.SubjectBatch,
		SubjectID:   rejected.ID,
		Action:      audit.ActionRejected,
		Actor:       actor,
		Details: audit.Details(map[string]interface{}{
			"product_id": rejected.ProductID,
			"units":      rejected.TotalCount,
			"reason":     reason,
		}),
	})

	e.notifier.Fire(notify.EventBatchRejected, map[string]interface{}{
		"batch_id":   rejected.ID,
		"product_id": rejected.ProductID,
		"reason":     reason,
	})
	return nil
}
