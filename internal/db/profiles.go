package db

import (
	"context"
	"fmt"
)

const profileColumns = `id, batch_id, name, pin_ciphertext, assigned, COALESCE(assigned_to, ''), assigned_at, created_at`

// CreateProfile inserts a profile slot for an account-share batch.
func (db *DB) CreateProfile(ctx context.Context, batchID, name, pinCiphertext string) (*CredentialProfile, error) {
	p := &CredentialProfile{}
	err := db.q.QueryRow(ctx,
		`INSERT INTO credential_profiles (batch_id, name, pin_ciphertext)
		 VALUES ($1, $2, $3)
		 RETURNING `+profileColumns,
		batchID, name, pinCiphertext,
	).Scan(&p.ID, &p.BatchID, &p.Name, &p.PINCiphertext, &p.Assigned, &p.AssignedTo, &p.AssignedAt, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating credential profile: %w", err)
	}
	return p, nil
}

// ListProfiles lists a batch's profile slots.
func (db *DB) ListProfiles(ctx context.Context, batchID string) ([]CredentialProfile, error) {
	rows, err := db.q.Query(ctx,
		`SELECT `+profileColumns+` FROM credential_profiles
		 WHERE batch_id = $1 ORDER BY created_at`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing credential profiles: %w", err)
	}
	defer rows.Close()

	var profiles []CredentialProfile
	for rows.Next() {
		var p CredentialProfile
		if err := rows.Scan(&p.ID, &p.BatchID, &p.Name, &p.PINCiphertext, &p.Assigned, &p.AssignedTo, &p.AssignedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning credential profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// AssignProfile marks a profile as taken and moves one unit from available
// to assigned on its batch, inside one transaction so the conservation
// invariant never observes a half-applied state.
func (db *DB) AssignProfile(ctx context.Context, profileID, owner string) (*CredentialProfile, error) {
	p := &CredentialProfile{}
	err := db.InTx(ctx, func(tx *DB) error {
		err := tx.q.QueryRow(ctx,
			`UPDATE credential_profiles
			 SET assigned = TRUE, assigned_to = $2, assigned_at = now()
			 WHERE id = $1 AND NOT assigned
			 RETURNING `+profileColumns,
			profileID, owner,
		).Scan(&p.ID, &p.BatchID, &p.Name, &p.PINCiphertext, &p.Assigned, &p.AssignedTo, &p.AssignedAt, &p.CreatedAt)
		if err != nil {
			return fmt.Errorf("assigning profile: %w", err)
		}

		_, err = tx.q.Exec(ctx,
			`UPDATE credential_batches
			 SET assigned_count = assigned_count + 1, available_count = available_count - 1
			 WHERE id = $1`,
			p.BatchID,
		)
		if err != nil {
			return fmt.Errorf("updating batch allocation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UnassignProfile releases a profile slot and returns its unit to the
// batch's available pool.
func (db *DB) UnassignProfile(ctx context.Context, profileID string) (*CredentialProfile, error) {
	p := &CredentialProfile{}
	err := db.InTx(ctx, func(tx *DB) error {
		err := tx.q.QueryRow(ctx,
			`UPDATE credential_profiles
			 SET assigned = FALSE, assigned_to = '', assigned_at = NULL
			 WHERE id = $1 AND assigned
			 RETURNING `+profileColumns,
			profileID,
		).Scan(&p.ID, &p.BatchID, &p.Name, &p.PINCiphertext, &p.Assigned, &p.AssignedTo, &p.AssignedAt, &p.CreatedAt)
		if err != nil {
			return fmt.Errorf("unassigning profile: %w", err)
		}

		_, err = tx.q.Exec(ctx,
			`UPDATE credential_batches
			 SET assigned_count = assigned_count - 1, available_count = available_count + 1
			 WHERE id = $1`,
			p.BatchID,
		)
		if err != nil {
			return fmt.Errorf("updating batch allocation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
