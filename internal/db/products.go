package db

import (
	"context"
	"fmt"
)

const productColumns = `id, vendor_id, name, service_type, provider, stock, review_status, batch_seq, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	p := &Product{}
	err := row.Scan(&p.ID, &p.VendorID, &p.Name, &p.ServiceType, &p.Provider,
		&p.Stock, &p.ReviewStatus, &p.BatchSeq, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProduct creates a product in pending review status.
func (db *DB) CreateProduct(ctx context.Context, vendorID, name, serviceType, provider string) (*Product, error) {
	p, err := scanProduct(db.q.QueryRow(ctx,
		`INSERT INTO products (vendor_id, name, service_type, provider)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+productColumns,
		vendorID, name, serviceType, provider,
	))
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	return p, nil
}

// GetProduct retrieves a product by ID.
func (db *DB) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(db.q.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// ListProducts lists products, optionally restricted to one vendor.
func (db *DB) ListProducts(ctx context.Context, vendorID string) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []interface{}{}
	if vendorID != "" {
		query += ` WHERE vendor_id = $1`
		args = append(args, vendorID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// SetProductReviewStatus moves a product through admin review.
func (db *DB) SetProductReviewStatus(ctx context.Context, id, status string) error {
	result, err := db.q.Exec(ctx,
		`UPDATE products SET review_status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("updating product review status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("product not found")
	}
	return nil
}

// NextBatchNumber advances the product's batch counter and returns the new
// value. The single UPDATE..RETURNING keeps numbering race-safe under
// concurrent uploads for the same product.
func (db *DB) NextBatchNumber(ctx context.Context, productID string) (int, error) {
	var seq int
	err := db.q.QueryRow(ctx,
		`UPDATE products SET batch_seq = batch_seq + 1 WHERE id = $1 RETURNING batch_seq`,
		productID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("advancing batch counter: %w", err)
	}
	return seq, nil
}

// AddStock atomically adjusts a product's sellable stock by delta,
// clamping at zero so a rejection of already-sold inventory cannot drive
// the counter negative.
func (db *DB) AddStock(ctx context.Context, productID string, delta int) (*Product, error) {
	p, err := scanProduct(db.q.QueryRow(ctx,
		`UPDATE products SET stock = GREATEST(0, stock + $2) WHERE id = $1
		 RETURNING `+productColumns,
		productID, delta,
	))
	if err != nil {
		return nil, fmt.Errorf("adjusting product stock: %w", err)
	}
	return p, nil
}
