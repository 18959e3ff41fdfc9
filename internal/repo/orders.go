package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CreateOrder stores a new order record. The unique index on
// etsy_receipt_id is the concurrency-safety mechanism: a conflicting
// insert is ignored and reported as ErrDuplicateOrder.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order Order) (*Order, error) {
	const q = `
INSERT INTO orders (
    etsy_receipt_id, etsy_transaction_id, buyer_name, buyer_user_id,
    personalization, name, age, question, product_code, shop_id, status
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (etsy_receipt_id) DO NOTHING
RETURNING id, created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, q,
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
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("order for receipt %s: %w", order.EtsyReceiptID, ErrDuplicateOrder)
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return &order, nil
}

// OrderExistsByReceipt reports whether an order already exists for a receipt.
func (r *PostgresRepository) OrderExistsByReceipt(ctx context.Context, etsyReceiptID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM orders WHERE etsy_receipt_id = $1);`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, etsyReceiptID).Scan(&exists); err != nil {
		return false, fmt.Errorf("order exists: %w", err)
	}
	return exists, nil
}

// GetOrderWithShop retrieves an order together with its owning shop.
func (r *PostgresRepository) GetOrderWithShop(ctx context.Context, id string) (*Order, error) {
	const q = `
SELECT o.id, o.etsy_receipt_id, o.etsy_transaction_id, o.buyer_name, o.buyer_user_id,
       o.personalization, o.name, o.age, o.question, o.product_code, o.shop_id, o.status,
       o.reading_text, o.openai_model, o.openai_input_tokens, o.openai_output_tokens,
       o.openai_total_tokens, o.openai_cost, o.created_at, o.updated_at,
       s.id, s.name, s.etsy_shop_id, s.access_token, s.refresh_token, s.created_at, s.updated_at
FROM orders o
JOIN shops s ON s.id = o.shop_id
WHERE o.id = $1
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
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&order.ID, &order.EtsyReceiptID, &order.EtsyTransactionID, &order.BuyerName, &order.BuyerUserID,
		&order.Personalization, &order.Name, &order.Age, &order.Question, &order.ProductCode, &order.ShopID, &order.Status,
		&readingText, &model, &inputTokens, &outputTokens, &totalTokens, &cost,
		&order.CreatedAt, &order.UpdatedAt,
		&shop.ID, &shop.Name, &shop.EtsyShopID, &shop.AccessToken, &shop.RefreshToken, &shop.CreatedAt, &shop.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
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

// UpdateOrderReading persists a generated reading with its usage
// metadata and advances the order to GENERATED.
func (r *PostgresRepository) UpdateOrderReading(ctx context.Context, id, readingText string, usage Usage) error {
	const q = `
UPDATE orders
SET reading_text = $2,
    status = $3,
    openai_model = $4,
    openai_input_tokens = $5,
    openai_output_tokens = $6,
    openai_total_tokens = $7,
    openai_cost = $8,
    updated_at = NOW()
WHERE id = $1;
`
	ct, err := r.pool.Exec(ctx, q, id, readingText, StatusGenerated,
		usage.Model, usage.InputTokens, usage.OutputTokens, usage.TotalTokens, usage.Cost)
	if err != nil {
		return fmt.Errorf("update order reading: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateOrderStatus updates only the lifecycle status of an order.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1;`
	ct, err := r.pool.Exec(ctx, q, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return nil
}
