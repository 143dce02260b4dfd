package db

import (
	"context"
	"fmt"
)

// CreateUser creates a user account. VendorID is nil for admins.
func (db *DB) CreateUser(ctx context.Context, email, passwordHash, name, role string, vendorID *string) (*User, error) {
	user := &User{}
	err := db.q.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, name, role, vendor_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, email, password_hash, name, role, vendor_id, created_at`,
		email, passwordHash, name, role, vendorID,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &user.VendorID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := db.q.QueryRow(ctx,
		`SELECT id, email, password_hash, name, role, vendor_id, created_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &user.VendorID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*User, error) {
	user := &User{}
	err := db.q.QueryRow(ctx,
		`SELECT id, email, password_hash, name, role, vendor_id, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &user.VendorID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

// CreateVendor creates a vendor.
func (db *DB) CreateVendor(ctx context.Context, name string) (*Vendor, error) {
	vendor := &Vendor{}
	err := db.q.QueryRow(ctx,
		`INSERT INTO vendors (name) VALUES ($1)
		 RETURNING id, name, created_at`,
		name,
	).Scan(&vendor.ID, &vendor.Name, &vendor.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating vendor: %w", err)
	}
	return vendor, nil
}

// GetVendor retrieves a vendor by ID.
func (db *DB) GetVendor(ctx context.Context, id string) (*Vendor, error) {
	vendor := &Vendor{}
	err := db.q.QueryRow(ctx,
		`SELECT id, name, created_at FROM vendors WHERE id = $1`,
		id,
	).Scan(&vendor.ID, &vendor.Name, &vendor.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting vendor: %w", err)
	}
	return vendor, nil
}
