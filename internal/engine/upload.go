package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/vendorvault/vendorvault/internal/audit"
	"github.com/vendorvault/vendorvault/internal/batch"
	"github.com/vendorvault/vendorvault/internal/db"
	"github.com/vendorvault/vendorvault/internal/faults"
	"github.com/vendorvault/vendorvault/internal/fulfillment"
	"github.com/vendorvault/vendorvault/internal/notify"
)

// Upload modes.
const (
	ModeManual = "manual"
	ModeCSV    = "csv"
)

// UploadInput describes one vendor upload.
type UploadInput struct {
	ProductID      string
	VendorID       string
	Mode           string
	Manual         []batch.ManualEntry
	CSV            io.Reader
	AdminRequestID *string
	Actor          audit.Actor
}

// UploadResult reports what an upload imported. RowErrors accompany any
// partially successful import; the caller decides whether that is
// acceptable.
type UploadResult struct {
	Imported       int                  `json:"imported"`
	TotalUnits     int                  `json:"total_units"`
	Batches        []db.CredentialBatch `json:"batches"`
	RowErrors      []batch.RowError     `json:"errors,omitempty"`
	UpdatedRequest *db.StockRequest     `json:"updated_request,omitempty"`
}

// UploadBatch validates, encrypts, and stores a vendor upload, then
// reconciles quantities. Self-stock uploads credit product stock
// immediately; request-linked uploads advance the request instead and wait
// for admin approval before becoming sellable.
func (e *Engine) UploadBatch(ctx context.Context, in UploadInput) (*UploadResult, error) {
	product, err := e.database.GetProduct(ctx, in.ProductID)
	if err != nil {
		return nil, faults.NotFound("product")
	}
	if product.VendorID != in.VendorID {
		return nil, faults.NotFound("product")
	}
	if product.ReviewStatus != "approved" {
		return nil, faults.Conflict("product is not approved for credential loading")
	}

	// Fail before persisting anything if the linked request cannot accept
	// units anymore.
	if in.AdminRequestID != nil {
		request, err := e.database.GetStockRequest(ctx, *in.AdminRequestID)
		if err != nil {
			return nil, faults.NotFound("stock request")
		}
		if request.ProductID != product.ID || request.VendorID != in.VendorID {
			return nil, faults.Conflict("stock request does not match this product and vendor")
		}
		if request.Status == fulfillment.StatusFulfilled {
			return nil, faults.Conflict("stock request already fully fulfilled")
		}
		if !fulfillment.Open(request.Status) {
			return nil, faults.Conflict("stock request is %s", request.Status)
		}
	}

	records, rowErrs, err := e.parse(in, product)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &ValidationError{Rows: rowErrs}
	}

	// The stored batches and the quantity they credit commit or roll back
	// as one transaction: a failure partway through an upload persists
	// nothing, so no batch can exist that no counter accounts for.
	var (
		stored     []db.CredentialBatch
		updated    *db.StockRequest
		totalUnits int
	)
	err = e.database.InTx(ctx, func(tx *db.DB) error {
		var err error
		stored, err = e.vault.Store(ctx, tx, product, records, in.AdminRequestID, in.Actor.ID)
		if err != nil {
			return err
		}
		for _, b := range stored {
			totalUnits += b.TotalCount
		}
		if in.AdminRequestID != nil {
			updated, err = e.machine.Credit(ctx, tx, *in.AdminRequestID, totalUnits, in.Actor)
			return err
		}
		if _, err := e.reconciler.SelfStock(ctx, tx, product.ID, totalUnits); err != nil {
			return fmt.Errorf("crediting product stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, b := range stored {
		e.ledger.RecordOrLog(ctx, audit.Entry{
			SubjectType: audit.SubjectBatch,
			SubjectID:   b.ID,
			Action:      audit.ActionUploaded,
			Actor:       in.Actor,
			Details: audit.Details(map[string]interface{}{
				"product_id":   b.ProductID,
				"batch_number": b.BatchNumber,
				"units":        b.TotalCount,
				"request_id":   in.AdminRequestID,
			}),
		})
	}

	result := &UploadResult{
		Imported:   len(stored),
		TotalUnits: totalUnits,
		Batches:    stored,
		RowErrors:  rowErrs,
	}

	if updated != nil {
		action := audit.ActionPartiallyFulfilled
		if updated.Status == fulfillment.StatusFulfilled {
			action = audit.ActionFulfilled
		}
		e.machine.Record(ctx, updated, action, in.Actor, totalUnits)
		result.UpdatedRequest = updated
		if updated.Status == fulfillment.StatusFulfilled {
			e.notifier.Fire(notify.EventRequestFulfilled, updated)
		}
	}

	e.notifier.Fire(notify.EventBatchUploaded, map[string]interface{}{
		"product_id":  product.ID,
		"vendor_id":   in.VendorID,
		"imported":    result.Imported,
		"total_units": result.TotalUnits,
	})
	return result, nil
}

func (e *Engine) parse(in UploadInput, product *db.Product) ([]batch.Record, []batch.RowError, error) {
	serviceType := batch.ServiceType(product.ServiceType)
	switch in.Mode {
	case ModeManual:
		records, rowErrs := batch.ParseManual(in.Manual, serviceType, product.Provider, e.rules)
		return records, rowErrs, nil
	case ModeCSV:
		if in.CSV == nil {
			return nil, nil, faults.Invalid("CSV upload has no file content")
		}
		records, rowErrs, err := batch.ParseCSV(in.CSV, serviceType, product.Provider, e.rules)
		if err != nil {
			return nil, nil, faults.Invalid("%v", err)
		}
		return records, rowErrs, nil
	default:
		return nil, nil, faults.Invalid("unknown upload mode %q", in.Mode)
	}
}
