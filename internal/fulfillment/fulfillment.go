// Package fulfillment tracks administrator stock requests against vendor
// uploads. Quantity updates run as single atomic statements in the store;
// the status lifecycle itself is a pure function mirrored here so it can be
// reasoned about and tested without a database.
package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vendorvault/vendorvault/internal/audit"
	"github.com/vendorvault/vendorvault/internal/db"
	"github.com/vendorvault/vendorvault/internal/faults"
)

// Request states.
const (
	StatusRequested          = "requested"
	StatusPartiallyFulfilled = "partially_fulfilled"
	StatusFulfilled          = "fulfilled"
	StatusCancelled          = "cancelled"
	StatusRejected           = "rejected"
)

// NextStatus is the pure lifecycle function: given fulfilled and requested
// quantities it returns the non-terminal status. Terminal states are
// absorbing and never recomputed from quantities.
func NextStatus(fulfilled, requested int) string {
	switch {
	case fulfilled >= requested:
		return StatusFulfilled
	case fulfilled > 0:
		return StatusPartiallyFulfilled
	default:
		return StatusRequested
	}
}

// Terminal reports whether a status accepts no further transitions.
func Terminal(status string) bool {
	return status == StatusFulfilled || status == StatusCancelled || status == StatusRejected
}

// Open reports whether a request can still receive uploads.
func Open(status string) bool {
	return status == StatusRequested || status == StatusPartiallyFulfilled
}

// Cap limits an upload's credited units so fulfilled never exceeds requested.
func Cap(fulfilled, requested, units int) int {
	if fulfilled+units > requested {
		return requested - fulfilled
	}
	return units
}

// Machine advances stock requests and writes one ledger entry per
// transition.
type Machine struct {
	database *db.DB
	ledger   *audit.Ledger
}

// NewMachine creates a fulfillment machine.
func NewMachine(database *db.DB, ledger *audit.Ledger) *Machine {
	return &Machine{database: database, ledger: ledger}
}

// Credit applies a vendor upload's units to a request through the given
// store handle, so it participates in the caller's transaction and rolls
// back with it. Uploading against a request that is already fulfilled (or
// otherwise closed) is a state conflict, never a silent accept. The caller
// records the transition with Record once its transaction commits.
func (m *Machine) Credit(ctx context.Context, store *db.DB, requestID string, units int, actor audit.Actor) (*db.StockRequest, error) {
	current, err := store.GetStockRequest(ctx, requestID)
	if err != nil {
		return nil, faults.NotFound("stock request")
	}
	if current.Status == StatusFulfilled {
		return nil, faults.Conflict("stock request already fully fulfilled")
	}
	if !Open(current.Status) {
		return nil, faults.Conflict("stock request is %s", current.Status)
	}

	updated, err := store.CreditRequestUnits(ctx, requestID, units, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race against another transition.
			return nil, faults.Conflict("stock request already fully fulfilled")
		}
		return nil, fmt.Errorf("applying upload to request: %w", err)
	}
	return updated, nil
}

// Debit rolls a rejected batch's units back out of a request through the
// given store handle and recomputes its status from the new quantities. The
// caller records the transition once its transaction commits.
func (m *Machine) Debit(ctx context.Context, store *db.DB, requestID string, units int) (*db.StockRequest, error) {
	updated, err := store.DebitRequestUnits(ctx, requestID, units)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, faults.Conflict("stock request is closed")
		}
		return nil, fmt.Errorf("rolling units out of request: %w", err)
	}
	return updated, nil
}

// Cancel closes an open request. Cancellation after fulfillment is refused.
func (m *Machine) Cancel(ctx context.Context, requestID string, actor audit.Actor) (*db.StockRequest, error) {
	return m.close(ctx, requestID, StatusCancelled, audit.ActionCancelled, actor)
}

// Reject lets the vendor decline an open request.
func (m *Machine) Reject(ctx context.Context, requestID string, actor audit.Actor) (*db.StockRequest, error) {
	return m.close(ctx, requestID, StatusRejected, audit.ActionRejected, actor)
}

func (m *Machine) close(ctx context.Context, requestID, terminalStatus, action string, actor audit.Actor) (*db.StockRequest, error) {
	current, err := m.database.GetStockRequest(ctx, requestID)
	if err != nil {
		return nil, faults.NotFound("stock request")
	}
	if Terminal(current.Status) {
		return nil, faults.Conflict("stock request is %s", current.Status)
	}

	updated, err := m.database.CloseStockRequest(ctx, requestID, terminalStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, faults.Conflict("stock request is no longer open")
		}
		return nil, fmt.Errorf("closing stock request: %w", err)
	}

	m.Record(ctx, updated, action, actor, 0)
	return updated, nil
}

// Record writes the single ledger entry for an applied transition. It runs
// after the transition has committed; a failed ledger write is logged and
// never unwinds the transition.
func (m *Machine) Record(ctx context.Context, r *db.StockRequest, action string, actor audit.Actor, delta int) {
	m.ledger.RecordOrLog(ctx, audit.Entry{
		SubjectType: audit.SubjectRequest,
		SubjectID:   r.ID,
		Action:      action,
		Actor:       actor,
		Details: audit.Details(map[string]interface{}{
			"quantity_requested": r.QuantityRequested,
			"quantity_fulfilled": r.QuantityFulfilled,
			"status":             r.Status,
			"delta_units":        delta,
		}),
	})
}
