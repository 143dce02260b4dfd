package engine

import (
	"context"
	"time"

	"github.com/vendorvault/vendorvault/internal/audit"
	"github.com/vendorvault/vendorvault/internal/db"
	"github.com/vendorvault/vendorvault/internal/faults"
	"github.com/vendorvault/vendorvault/internal/notify"
)

// CreateStockRequest issues an admin demand for quantity units of a
// product from its vendor.
func (e *Engine) CreateStockRequest(ctx context.Context, actor audit.Actor, vendorID, productID string, quantity int, notes string, deadline *time.Time) (*db.StockRequest, error) {
	if quantity <= 0 {
		return nil, faults.Invalid("quantity must be positive")
	}

	if _, err := e.database.GetVendor(ctx, vendorID); err != nil {
		return nil, faults.NotFound("vendor")
	}
	product, err := e.database.GetProduct(ctx, productID)
	if err != nil {
		return nil, faults.NotFound("product")
	}
	if product.VendorID != vendorID {
		return nil, faults.Conflict("product does not belong to this vendor")
	}

	request, err := e.database.CreateStockRequest(ctx, vendorID, productID, quantity, notes, deadline, actor.ID)
	if err != nil {
		return nil, err
	}

	e.ledger.RecordOrLog(ctx, audit.Entry{
		SubjectType: audit.SubjectRequest,
		SubjectID:   request.ID,
		Action:      audit.ActionRequested,
		Actor:       actor,
		Details: audit.Details(map[string]interface{}{
			"product_id":         productID,
			"vendor_id":          vendorID,
			"quantity_requested": quantity,
		}),
	})

	e.notifier.Fire(notify.EventRequestCreated, request)
	return request, nil
}

// CancelStockRequest closes an open request. Disallowed once fulfilled.
func (e *Engine) CancelStockRequest(ctx context.Context, requestID string, actor audit.Actor) (*db.StockRequest, error) {
	cancelled, err := e.machine.Cancel(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}
	e.notifier.Fire(notify.EventRequestCancelled, cancelled)
	return cancelled, nil
}

// RejectStockRequest lets the vendor decline an open request.
func (e *Engine) RejectStockRequest(ctx context.Context, requestID string, actor audit.Actor) (*db.StockRequest, error) {
	return e.machine.Reject(ctx, requestID, actor)
}
