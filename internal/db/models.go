package db

import (
	"encoding/json"
	"time"
)

// User is an admin or vendor account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	VendorID     *string   `json:"vendor_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Vendor is a supplier of digital-account inventory.
type Vendor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a sellable service offering owned by a vendor. Stock is
// mutated only through the reconciler's atomic updates; BatchSeq backs
// the per-product batch numbering counter.
type Product struct {
	ID           string    `json:"id"`
	VendorID     string    `json:"vendor_id"`
	Name         string    `json:"name"`
	ServiceType  string    `json:"service_type"`
	Provider     string    `json:"provider"`
	Stock        int       `json:"stock"`
	ReviewStatus string    `json:"review_status"`
	BatchSeq     int       `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CredentialBatch is one stored credential unit group. Rejection flips
// IsValid instead of deleting the row; the ciphertext stays opaque to
// everything but the keychain.
type CredentialBatch struct {
	ID                string     `json:"id"`
	ProductID         string     `json:"product_id"`
	VendorID          string     `json:"vendor_id"`
	CredentialType    string     `json:"credential_type"`
	PayloadCiphertext string     `json:"-"` // Never expose in JSON
	MaskedLabel       string     `json:"masked_label,omitempty"`
	TotalCount        int        `json:"total_count"`
	AssignedCount     int        `json:"assigned_count"`
	AvailableCount    int        `json:"available_count"`
	BatchNumber       int        `json:"batch_number"`
	AdminRequestID    *string    `json:"admin_request_id,omitempty"`
	IsValid           bool       `json:"is_valid"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	ApprovedBy        string     `json:"approved_by,omitempty"`
	CreatedBy         string     `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
}

// CredentialProfile is one assignable slot on an account-share batch.
type CredentialProfile struct {
	ID            string     `json:"id"`
	BatchID       string     `json:"batch_id"`
	Name          string     `json:"name"`
	PINCiphertext string     `json:"-"` // Never expose in JSON
	Assigned      bool       `json:"assigned"`
	AssignedTo    string     `json:"assigned_to,omitempty"`
	AssignedAt    *time.Time `json:"assigned_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// StockRequest is an administrator-issued demand for units of a product.
type StockRequest struct {
	ID                string     `json:"id"`
	VendorID          string     `json:"vendor_id"`
	ProductID         string     `json:"product_id"`
	QuantityRequested int        `json:"quantity_requested"`
	QuantityFulfilled int        `json:"quantity_fulfilled"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	Deadline          *time.Time `json:"deadline,omitempty"`
	FulfilledAt       *time.Time `json:"fulfilled_at,omitempty"`
	FulfilledBy       string     `json:"fulfilled_by,omitempty"`
	CreatedBy         string     `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// AuditEntry is a single immutable ledger record. Seq is the append order
// the hash chain follows.
type AuditEntry struct {
	Seq         int64           `json:"seq"`
	ID          string          `json:"id"`
	At          time.Time       `json:"at"`
	SubjectType string          `json:"subject_type"`
	SubjectID   string          `json:"subject_id"`
	Action      string          `json:"action"`
	ActorID     string          `json:"actor_id"`
	ActorRole   string          `json:"actor_role"`
	IP          string          `json:"ip,omitempty"`
	UserAgent   string          `json:"user_agent,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	PrevHash    string          `json:"prev_hash,omitempty"`
	Hash        string          `json:"hash"`
}
