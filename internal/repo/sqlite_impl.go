package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// -- Shops --

func (r *SQLiteRepository) UpsertShopByEtsyID(ctx context.Context, shop ShopUpsert) (*Shop, error) {
	const q = `
INSERT INTO shops (id, name, etsy_shop_id, access_token, refresh_token, updated_at)
VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (etsy_shop_id) DO UPDATE SET
    name = excluded.name,
    access_token = excluded.access_token,
    refresh_token = excluded.refresh_token,
    updated_at = CURRENT_TIMESTAMP
RETURNING id, name, etsy_shop_id, access_token, refresh_token, created_at, updated_at;
`
	row := r.db.QueryRowContext(ctx, q, uuid.NewString(), shop.Name, shop.EtsyShopID, shop.AccessToken, shop.RefreshToken)

	var s Shop
	if err := row.Scan(&s.ID, &s.Name, &s.EtsyShopID, &s.AccessToken, &s.RefreshToken, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert shop: %w", err)
	}
	return &s, nil
}

func (r *SQLiteRepository) GetShop(ctx context.Context, id string) (*Shop, error) {
	const q = `
SELECT id, name, etsy_shop_id, access_token, refresh_token, created_at, updated_at
FROM shops
WHERE id = ?
LIMIT 1;
`
	var s Shop
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.EtsyShopID, &s.AccessToken, &s.RefreshToken, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("shop %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get shop: %w", err)
	}
	return &s, nil
}

func (r *SQLiteRepository) ListShops(ctx context.Context) ([]Shop, error) {
	const q = `
SELECT id, name, etsy_shop_id, access_token, refresh_token, created_at, updated_at
FROM shops
ORDER BY created_at ASC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}
	defer rows.Close()

	var shops []Shop
	for rows.Next() {
		var s Shop
		if err := rows.Scan(&s.ID, &s.Name, &s.EtsyShopID, &s.AccessToken, &s.RefreshToken, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan shop: %w", err)
		}
		shops = append(shops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shops: %w", err)
	}
	return shops, nil
}

// -- Listings --

func (r *SQLiteRepository) GetListingByEtsyID(ctx context.Context, etsyListingID string) (*Listing, error) {
	const q = `
SELECT id, etsy_listing_id, title, product_code, shop_id, created_at, updated_at
FROM listings
WHERE etsy_listing_id = ?
LIMIT 1;
`
	var l Listing
	err := r.db.QueryRowContext(ctx, q, etsyListingID).Scan(&l.ID, &l.EtsyListingID, &l.Title, &l.ProductCode, &l.ShopID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("listing %s: %w", etsyListingID, ErrNotFound)
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &l, nil
}

func (r *SQLiteRepository) CreateListing(ctx context.Context, listing Listing) (*Listing, error) {
	const q = `
INSERT INTO listings (id, etsy_listing_id, title, product_code, shop_id)
VALUES (?, ?, ?, ?, ?)
RETURNING id, created_at, updated_at;
`
	err := r.db.QueryRowContext(ctx, q, uuid.NewString(), listing.EtsyListingID, listing.Title, listing.ProductCode, listing.ShopID).
		Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}
	return &listing, nil
}

func (r *SQLiteRepository) UpdateListingTitle(ctx context.Context, id, title string) error {
	const q = `UPDATE listings SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`
	ct, err := r.db.ExecContext(ctx, q, title, id)
	if err != nil {
		return fmt.Errorf("update listing title: %w", err)
	}
	if n, _ := ct.RowsAffected(); n == 0 {
		return fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) SetListingProductCode(ctx context.Context, id, productCode string) error {
	const q = `UPDATE listings SET product_code = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`
	ct, err := r.db.ExecContext(ctx, q, productCode, id)
	if err != nil {
		return fmt.Errorf("set listing product code: %w", err)
	}
	if n, _ := ct.RowsAffected(); n == 0 {
		return fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	return nil
}

// -- Orders --

func (r *SQLiteRepository) CreateOrder(ctx context.Context, order Order) (*Order, error) {
	const q = `
INSERT INTO orders (
    id, etsy_receipt_id, etsy_transaction_id, buyer_name, buyer_user_id,
    personalization, name, age, question, product_code, shop_id, status
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (etsy_receipt_id) DO NOTHING
RETURNING id, created_at, updated_at;
`
	row := r.db.QueryRowContext(ctx, q,
		uuid.NewString(),
		order.EtsyReceiptID,
		order.EtsyTransactionID,
		order.BuyerName,
		order.BuyerUserID,
		order.Personalization,
		order.Name,
		order.Age,
		order.Question,
		order.ProductCode,
		order.ShopID,
		order.Status,
	)
	if err := row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("order for receipt %s: %w", order.EtsyReceiptID, ErrDuplicateOrder)
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return &order, nil
}

func (r *SQLiteRepository) OrderExistsByReceipt(ctx context.Context, etsyReceiptID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM orders WHERE etsy_receipt_id = ?);`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, etsyReceiptID).Scan(&exists); err != nil {
		return false, fmt.Errorf("order exists: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) GetOrderWithShop(ctx context.Context, id string) (*Order, error) {
	const q = `
SELECT o.id, o.etsy_receipt_id, o.etsy_transaction_id, o.buyer_name, o.buyer_user_id,
       o.personalization, o.name, o.age, o.question, o.product_code, o.shop_id, o.status,
       o.reading_text, o.openai_model, o.openai_input_tokens, o.openai_output_tokens,
       o.openai_total_tokens, o.openai_cost, o.created_at, o.updated_at,
       s.id, s.name, s.etsy_shop_id, s.access_token, s.refresh_token, s.created_at, s.updated_at
FROM orders o
JOIN shops s ON s.id = o.shop_id
WHERE o.id = ?
LIMIT 1;
`
	var (
		order        Order
		shop         Shop
		readingText  sql.NullString
		model        sql.NullString
		inputTokens  sql.NullInt64
		outputTokens sql.NullInt64
		totalTokens  sql.NullInt64
		cost         sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&order.ID, &order.EtsyReceiptID, &order.EtsyTransactionID, &order.BuyerName, &order.BuyerUserID,
		&order.Personalization, &order.Name, &order.Age, &order.Question, &order.ProductCode, &order.ShopID, &order.Status,
		&readingText, &model, &inputTokens, &outputTokens, &totalTokens, &cost,
		&order.CreatedAt, &order.UpdatedAt,
		&shop.ID, &shop.Name, &shop.EtsyShopID, &shop.AccessToken, &shop.RefreshToken, &shop.CreatedAt, &shop.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if readingText.Valid {
		order.ReadingText = &readingText.String
	}
	if model.Valid {
		order.Usage = &Usage{
			Model:        model.String,
			InputTokens:  inputTokens.Int64,
			OutputTokens: outputTokens.Int64,
			TotalTokens:  totalTokens.Int64,
			Cost:         cost.Float64,
		}
	}
	order.Shop = &shop
	return &order, nil
}

func (r *SQLiteRepository) UpdateOrderReading(ctx context.Context, id, readingText string, usage Usage) error {
	const q = `
UPDATE orders
SET reading_text = ?,
    status = ?,
    openai_model = ?,
    openai_input_tokens = ?,
    openai_output_tokens = ?,
    openai_total_tokens = ?,
    openai_cost = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?;
`
	ct, err := r.db.ExecContext(ctx, q, readingText, StatusGenerated,
		usage.Model, usage.InputTokens, usage.OutputTokens, usage.TotalTokens, usage.Cost, id)
	if err != nil {
		return fmt.Errorf("update order reading: %w", err)
	}
	if n, _ := ct.RowsAffected(); n == 0 {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) UpdateOrderStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`
	ct, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n, _ := ct.RowsAffected(); n == 0 {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return nil
}

// -- Prompts --

func (r *SQLiteRepository) GetPromptByCode(ctx context.Context, productCode string) (*Prompt, error) {
	const q = `
SELECT id, product_code, template, category, is_custom, created_at, updated_at
FROM prompts
WHERE product_code = ?
LIMIT 1;
`
	var p Prompt
	err := r.db.QueryRowContext(ctx, q, productCode).Scan(&p.ID, &p.ProductCode, &p.Template, &p.Category, &p.IsCustom, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("prompt %s: %w", productCode, ErrNotFound)
		}
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	return &p, nil
}

func (r *SQLiteRepository) UpsertPrompt(ctx context.Context, prompt Prompt) error {
	const q = `
INSERT INTO prompts (id, product_code, template, category, is_custom, updated_at)
VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (product_code) DO UPDATE SET
    template = excluded.template,
    category = excluded.category,
    is_custom = excluded.is_custom,
    updated_at = CURRENT_TIMESTAMP;
`
	if _, err := r.db.ExecContext(ctx, q, uuid.NewString(), prompt.ProductCode, prompt.Template, prompt.Category, prompt.IsCustom); err != nil {
		return fmt.Errorf("upsert prompt %s: %w", prompt.ProductCode, err)
	}
	return nil
}

func (r *SQLiteRepository) CountPrompts(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prompts;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count prompts: %w", err)
	}
	return count, nil
}

// -- Stats --

func (r *SQLiteRepository) OrderStats(ctx context.Context, since *time.Time) (*Stats, error) {
	stats := &Stats{OrdersByProduct: map[string]int64{}}

	cutoff := time.Time{}
	if since != nil {
		cutoff = *since
	}

	const countsQ = `
SELECT
    COUNT(*),
    COALESCE(SUM(CASE WHEN status = 'PENDING' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN status = 'GENERATED' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN status = 'SENT' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN status = 'ERROR' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(openai_total_tokens), 0),
    COALESCE(SUM(openai_cost), 0)
FROM orders
WHERE created_at >= ?;
`
	err := r.db.QueryRowContext(ctx, countsQ, cutoff).Scan(
		&stats.TotalOrders, &stats.PendingOrders, &stats.GeneratedOrders,
		&stats.SentOrders, &stats.ErrorOrders, &stats.TotalTokens, &stats.TotalCost,
	)
	if err != nil {
		return nil, fmt.Errorf("order stats counts: %w", err)
	}

	const productQ = `
SELECT product_code, COUNT(*)
FROM orders
WHERE created_at >= ?
GROUP BY product_code;
`
	rows, err := r.db.QueryContext(ctx, productQ, cutoff)
	if err != nil {
		return nil, fmt.Errorf("order stats by product: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		var count int64
		if err := rows.Scan(&code, &count); err != nil {
			return nil, fmt.Errorf("scan product count: %w", err)
		}
		stats.OrdersByProduct[code] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product counts: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shops;`).Scan(&stats.TotalShops); err != nil {
		return nil, fmt.Errorf("count shops: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prompts;`).Scan(&stats.TotalPrompts); err != nil {
		return nil, fmt.Errorf("count prompts: %w", err)
	}

	return stats, nil
}
