// Package audit records credential and request transitions in an
// append-only, hash-chained ledger. The ledger is the sole source of
// historical truth for the fulfillment engine.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vendorvault/vendorvault/internal/db"
)

// Ledger actions. Every engine transition maps to exactly one of these.
const (
	ActionUploaded           = "uploaded"
	ActionDecrypted          = "decrypted"
	ActionApproved           = "approved"
	ActionRejected           = "rejected"
	ActionFulfilled          = "fulfilled"
	ActionPartiallyFulfilled = "partially_fulfilled"
	ActionCancelled          = "cancelled"
	ActionRequested          = "requested"
	ActionAssigned           = "assigned"
	ActionUnassigned         = "unassigned"
)

// Actor roles.
const (
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
	RoleSystem = "system"
)

// Subject types.
const (
	SubjectBatch   = "credential_batch"
	SubjectRequest = "stock_request"
	SubjectProfile = "credential_profile"
	SubjectProduct = "product"
)

// Actor identifies who performed an action, with the request context the
// ledger keys on.
type Actor struct {
	ID        string
	Role      string
	IP        string
	UserAgent string
}

// System is the actor for engine-internal transitions.
var System = Actor{ID: "system", Role: RoleSystem}

// Entry is the data for one ledger record.
type Entry struct {
	SubjectType string
	SubjectID   string
	Action      string
	Actor       Actor
	Details     json.RawMessage // Additional context (NEVER contains plaintext credentials)
}

// Store is the persistence surface the ledger writes through.
type Store interface {
	CreateAuditEntry(ctx context.Context, at time.Time, subjectType, subjectID, action, actorID, actorRole, ip, userAgent string, details json.RawMessage, prevHash, hash string) (*db.AuditEntry, error)
	GetLastAuditHash(ctx context.Context) (string, error)
}

// Ledger appends entries with hash chaining.
type Ledger struct {
	store Store
	mu    sync.Mutex // Serializes hash chaining
}

// NewLedger creates a ledger backed by the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Record appends one entry, chained to the previous entry's hash so any
// later tampering breaks the chain. The hashed timestamp is stored with the
// entry, truncated to the microsecond precision Postgres keeps, so the
// chain can be recomputed from the table alone.
func (l *Ledger) Record(ctx context.Context, entry Entry) (*db.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prevHash, err := l.store.GetLastAuditHash(ctx)
	if err != nil {
		prevHash = ""
	}

	at := time.Now().UTC().Truncate(time.Microsecond)
	hash := chainHash(prevHash, at, entry)

	return l.store.CreateAuditEntry(
		ctx,
		at,
		entry.SubjectType,
		entry.SubjectID,
		entry.Action,
		entry.Actor.ID,
		entry.Actor.Role,
		entry.Actor.IP,
		entry.Actor.UserAgent,
		entry.Details,
		prevHash,
		hash,
	)
}

// RecordOrLog appends one entry and logs a failed write instead of
// returning it. For transitions that have already been applied and must not
// unwind; callers that gate an operation on the ledger use Record.
func (l *Ledger) RecordOrLog(ctx context.Context, entry Entry) {
	if _, err := l.Record(ctx, entry); err != nil {
		log.Printf("audit: recording %s on %s %s failed: %v", entry.Action, entry.SubjectType, entry.SubjectID, err)
	}
}

// Verify walks stored entries oldest-first and recomputes every chain link.
// It returns an error naming the first entry whose link or hash does not
// match.
func Verify(entries []db.AuditEntry) error {
	prev := ""
	for i, e := range entries {
		if e.PrevHash != prev {
			return fmt.Errorf("audit chain break at entry %d (%s): stored prev_hash does not match preceding entry", i, e.ID)
		}
		expect := chainHash(prev, e.At.UTC(), Entry{
			SubjectType: e.SubjectType,
			SubjectID:   e.SubjectID,
			Action:      e.Action,
			Actor:       Actor{ID: e.ActorID, Role: e.ActorRole},
			Details:     e.Details,
		})
		if expect != e.Hash {
			return fmt.Errorf("audit chain break at entry %d (%s): recomputed hash does not match", i, e.ID)
		}
		prev = e.Hash
	}
	return nil
}

// chainHash computes the SHA-256 link for an entry.
func chainHash(prevHash string, at time.Time, entry Entry) string {
	data := fmt.Sprintf("%s|%s|%s:%s|%s|%s:%s|%s",
		prevHash,
		at.Format(time.RFC3339Nano),
		entry.SubjectType,
		entry.SubjectID,
		entry.Action,
		entry.Actor.Role,
		entry.Actor.ID,
		string(entry.Details),
	)
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}

// Details marshals a details map, falling back to null on encoding failure
// so a bad detail value never blocks the ledger write.
func Details(kv map[string]interface{}) json.RawMessage {
	raw, err := json.Marshal(kv)
	if err != nil {
		return nil
	}
	return raw
}
