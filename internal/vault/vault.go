// Package vault persists encrypted credential batches and controls every
// path that touches their plaintext. Listing is metadata-only; reveal is
// privileged and cannot happen without a ledger entry.
package vault

import (
	"context"
	"fmt"

	"github.com/vendorvault/vendorvault/internal/audit"
	"github.com/vendorvault/vendorvault/internal/batch"
	"github.com/vendorvault/vendorvault/internal/crypto"
	"github.com/vendorvault/vendorvault/internal/db"
	"github.com/vendorvault/vendorvault/internal/faults"
)

// Vault stores and reveals credential batches.
type Vault struct {
	database *db.DB
	keychain *crypto.Keychain
	ledger   *audit.Ledger
}

// New creates a vault.
func New(database *db.DB, keychain *crypto.Keychain, ledger *audit.Ledger) *Vault {
	return &Vault{database: database, keychain: keychain, ledger: ledger}
}

// Store encrypts and persists parsed records for a product through the
// given store handle, so an upload's rows commit or roll back as one unit
// with the caller's transaction. Each record becomes one batch;
// account-share profiles get their own rows with individually encrypted
// PINs. Batch numbers come from the product's atomic counter, so concurrent
// uploads never collide or reuse a number.
func (v *Vault) Store(ctx context.Context, store *db.DB, product *db.Product, records []batch.Record, requestID *string, createdBy string) ([]db.CredentialBatch, error) {
	stored := make([]db.CredentialBatch, 0, len(records))

	for _, rec := range records {
		ciphertext, err := v.keychain.EncryptJSON(rec)
		if err != nil {
			return nil, fmt.Errorf("encrypting credential payload: %w", err)
		}

		number, err := store.NextBatchNumber(ctx, product.ID)
		if err != nil {
			return nil, err
		}

		created, err := store.CreateBatch(ctx, &db.CredentialBatch{
			ProductID:         product.ID,
			VendorID:          product.VendorID,
			CredentialType:    string(rec.Kind),
			PayloadCiphertext: ciphertext,
			MaskedLabel:       maskedLabel(rec),
			TotalCount:        rec.Units(),
			BatchNumber:       number,
			AdminRequestID:    requestID,
			CreatedBy:         createdBy,
		})
		if err != nil {
			return nil, err
		}

		for _, p := range rec.Profiles {
			pinCiphertext := ""
			if p.PIN != "" {
				pinCiphertext, err = v.keychain.Encrypt([]byte(p.PIN))
				if err != nil {
					return nil, fmt.Errorf("encrypting profile PIN: %w", err)
				}
			}
			if _, err := store.CreateProfile(ctx, created.ID, p.Name, pinCiphertext); err != nil {
				return nil, err
			}
		}

		stored = append(stored, *created)
	}
	return stored, nil
}

func maskedLabel(rec batch.Record) string {
	switch rec.Kind {
	case batch.AccountShare:
		return MaskIdentifier(rec.Account)
	case batch.EmailInvite:
		return MaskIdentifier(rec.RecipientEmail)
	case batch.LicenseKey:
		return MaskIdentifier(rec.Key)
	}
	return ""
}

// ProfileSummary is a profile slot as shown in listings. PINs are never
// included; admin views only learn whether one is set.
type ProfileSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Assigned   bool   `json:"assigned"`
	AssignedTo string `json:"assigned_to,omitempty"`
	PINSet     bool   `json:"pin_set,omitempty"`
}

// BatchSummary is the masked listing view of a batch.
type BatchSummary struct {
	ID             string           `json:"id"`
	BatchNumber    int              `json:"batch_number"`
	CredentialType string           `json:"credential_type"`
	MaskedLabel    string           `json:"masked_label"`
	TotalCount     int              `json:"total_count"`
	AssignedCount  int              `json:"assigned_count"`
	AvailableCount int              `json:"available_count"`
	IsValid        bool             `json:"is_valid"`
	Approved       bool             `json:"approved"`
	AdminRequestID *string          `json:"admin_request_id,omitempty"`
	CreatedAt      string           `json:"created_at"`
	Profiles       []ProfileSummary `json:"profiles,omitempty"`
}

// ListMetadata returns masked batch summaries for a product. adminView
// additionally reports profile PIN presence; no view ever contains a
// decrypted secret or PIN.
func (v *Vault) ListMetadata(ctx context.Context, productID string, adminView bool) ([]BatchSummary, error) {
	batches, err := v.database.ListBatchesByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	summaries := make([]BatchSummary, 0, len(batches))
	for _, b := range batches {
		s := BatchSummary{
			ID:             b.ID,
			BatchNumber:    b.BatchNumber,
			CredentialType: b.CredentialType,
			MaskedLabel:    b.MaskedLabel,
			TotalCount:     b.TotalCount,
			AssignedCount:  b.AssignedCount,
			AvailableCount: b.AvailableCount,
			IsValid:        b.IsValid,
			Approved:       b.ApprovedAt != nil,
			AdminRequestID: b.AdminRequestID,
			CreatedAt:      b.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if b.CredentialType == string(batch.AccountShare) {
			profiles, err := v.database.ListProfiles(ctx, b.ID)
			if err != nil {
				return nil, err
			}
			for _, p := range profiles {
				ps := ProfileSummary{
					ID:       p.ID,
					Name:     p.Name,
					Assigned: p.Assigned,
				}
				if adminView {
					ps.AssignedTo = p.AssignedTo
					ps.PINSet = p.PINCiphertext != ""
				}
				s.Profiles = append(s.Profiles, ps)
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// RevealedBatch is a decrypted batch payload for admin review.
type RevealedBatch struct {
	ID          string       `json:"id"`
	BatchNumber int          `json:"batch_number"`
	Record      batch.Record `json:"record"`
}

// Reveal decrypts a batch for a privileged actor. The decrypted ledger
// entry is written before any plaintext leaves this function; if the ledger
// write fails the reveal fails with it. There is no decrypt path that skips
// the audit trail.
func (v *Vault) Reveal(ctx context.Context, batchID string, actor audit.Actor) (*RevealedBatch, error) {
	b, err := v.database.GetBatch(ctx, batchID)
	if err != nil {
		return nil, faults.NotFound("credential batch")
	}

	var rec batch.Record
	if err := v.keychain.DecryptJSON(b.PayloadCiphertext, &rec); err != nil {
		return nil, err
	}

	// Profile PINs are sealed separately; fold them back in from the rows.
	if rec.Kind == batch.AccountShare {
		profiles, err := v.database.ListProfiles(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		rec.Profiles = rec.Profiles[:0]
		for _, p := range profiles {
			pin := ""
			if p.PINCiphertext != "" {
				plain, err := v.keychain.Decrypt(p.PINCiphertext)
				if err != nil {
					return nil, err
				}
				pin = string(plain)
			}
			rec.Profiles = append(rec.Profiles, batch.Profile{Name: p.Name, PIN: pin})
		}
	}

	if _, err := v.ledger.Record(ctx, audit.Entry{
		SubjectType: audit.SubjectBatch,
		SubjectID:   b.ID,
		Action:      audit.ActionDecrypted,
		Actor:       actor,
		Details: audit.Details(map[string]interface{}{
			"product_id":   b.ProductID,
			"batch_number": b.BatchNumber,
		}),
	}); err != nil {
		return nil, fmt.Errorf("recording reveal: %w", err)
	}

	return &RevealedBatch{ID: b.ID, BatchNumber: b.BatchNumber, Record: rec}, nil
}

// AssignProfile hands a profile slot to an owner and records the
// allocation. The conservation invariant moves one unit from available to
// assigned inside the store's transaction.
func (v *Vault) AssignProfile(ctx context.Context, profileID, owner string, actor audit.Actor) (*db.CredentialProfile, error) {
	p, err := v.database.AssignProfile(ctx, profileID, owner)
	if err != nil {
		return nil, faults.Conflict("profile is already assigned or missing")
	}

	v.ledger.RecordOrLog(ctx, audit.Entry{
		SubjectType: audit.SubjectProfile,
		SubjectID:   p.ID,
		Action:      audit.ActionAssigned,
		Actor:       actor,
		Details:     audit.Details(map[string]interface{}{"batch_id": p.BatchID, "owner": owner}),
	})
	return p, nil
}

// UnassignProfile releases a profile slot back to the available pool.
func (v *Vault) UnassignProfile(ctx context.Context, profileID string, actor audit.Actor) (*db.CredentialProfile, error) {
	p, err := v.database.UnassignProfile(ctx, profileID)
	if err != nil {
		return nil, faults.Conflict("profile is not assigned or missing")
	}

	v.ledger.RecordOrLog(ctx, audit.Entry{
		SubjectType: audit.SubjectProfile,
		SubjectID:   p.ID,
		Action:      audit.ActionUnassigned,
		Actor:       actor,
		Details:     audit.Details(map[string]interface{}{"batch_id": p.BatchID}),
	})
	return p, nil
}
