package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetListingByEtsyID retrieves a listing mapping by its Etsy listing id.
func (r *PostgresRepository) GetListingByEtsyID(ctx context.Context, etsyListingID string) (*Listing, error) {
	const q = `
SELECT id, etsy_listing_id, title, product_code, shop_id, created_at, updated_at
FROM listings
WHERE etsy_listing_id = $1
LIMIT 1;
`
	var l Listing
	err := r.pool.QueryRow(ctx, q, etsyListingID).Scan(&l.ID, &l.EtsyListingID, &l.Title, &l.ProductCode, &l.ShopID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("listing %s: %w", etsyListingID, ErrNotFound)
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &l, nil
}

// CreateListing stores a new listing mapping.
func (r *PostgresRepository) CreateListing(ctx context.Context, listing Listing) (*Listing, error) {
	const q = `
INSERT INTO listings (etsy_listing_id, title, product_code, shop_id)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at;
`
	err := r.pool.QueryRow(ctx, q, listing.EtsyListingID, listing.Title, listing.ProductCode, listing.ShopID).
		Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}
	return &listing, nil
}

// UpdateListingTitle refreshes the listing title after a sync.
func (r *PostgresRepository) UpdateListingTitle(ctx context.Context, id, title string) error {
	const q = `UPDATE listings SET title = $2, updated_at = NOW() WHERE id = $1;`
	ct, err := r.pool.Exec(ctx, q, id, title)
	if err != nil {
		return fmt.Errorf("update listing title: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetListingProductCode assigns the internal product code for a listing.
func (r *PostgresRepository) SetListingProductCode(ctx context.Context, id, productCode string) error {
	const q = `UPDATE listings SET product_code = $2, updated_at = NOW() WHERE id = $1;`
	ct, err := r.pool.Exec(ctx, q, id, productCode)
	if err != nil {
		return fmt.Errorf("set listing product code: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetPromptByCode retrieves a persisted prompt template for a product code.
func (r *PostgresRepository) GetPromptByCode(ctx context.Context, productCode string) (*Prompt, error) {
	const q = `
SELECT id, product_code, template, category, is_custom, created_at, updated_at
FROM prompts
WHERE product_code = $1
LIMIT 1;
`
	var p Prompt
	err := r.pool.QueryRow(ctx, q, productCode).Scan(&p.ID, &p.ProductCode, &p.Template, &p.Category, &p.IsCustom, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("prompt %s: %w", productCode, ErrNotFound)
		}
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	return &p, nil
}

// UpsertPrompt creates or replaces the prompt template for a product code.
func (r *PostgresRepository) UpsertPrompt(ctx context.Context, prompt Prompt) error {
	const q = `
INSERT INTO prompts (product_code, template, category, is_custom, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (product_code) DO UPDATE SET
    template = EXCLUDED.template,
    category = EXCLUDED.category,
    is_custom = EXCLUDED.is_custom,
    updated_at = NOW();
`
	if _, err := r.pool.Exec(ctx, q, prompt.ProductCode, prompt.Template, prompt.Category, prompt.IsCustom); err != nil {
		return fmt.Errorf("upsert prompt %s: %w", prompt.ProductCode, err)
	}
	return nil
}

// CountPrompts returns the number of persisted prompt templates.
func (r *PostgresRepository) CountPrompts(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prompts;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count prompts: %w", err)
	}
	return count, nil
}
