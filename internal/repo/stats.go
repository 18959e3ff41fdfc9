package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// OrderStats aggregates order counters, optionally restricted to rows
// created at or after since. All counters come from one transaction so the
// totals are consistent with each other.
func (r *PostgresRepository) OrderStats(ctx context.Context, since *time.Time) (*Stats, error) {
	stats := &Stats{OrdersByProduct: map[string]int64{}}

	cutoff := time.Time{}
	if since != nil {
		cutoff = *since
	}

	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		return r.collectStats(ctx, tx, cutoff, stats)
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *PostgresRepository) collectStats(ctx context.Context, tx pgx.Tx, cutoff time.Time, stats *Stats) error {
	const countsQ = `
SELECT
    COUNT(*),
    COUNT(*) FILTER (WHERE status = 'PENDING'),
    COUNT(*) FILTER (WHERE status = 'GENERATED'),
    COUNT(*) FILTER (WHERE status = 'SENT'),
    COUNT(*) FILTER (WHERE status = 'ERROR'),
    COALESCE(SUM(openai_total_tokens), 0),
    COALESCE(SUM(openai_cost), 0)
FROM orders
WHERE created_at >= $1;
`
	err := tx.QueryRow(ctx, countsQ, cutoff).Scan(
		&stats.TotalOrders, &stats.PendingOrders, &stats.GeneratedOrders,
		&stats.SentOrders, &stats.ErrorOrders, &stats.TotalTokens, &stats.TotalCost,
	)
	if err != nil {
		return fmt.Errorf("order stats counts: %w", err)
	}

	const productQ = `
SELECT product_code, COUNT(*)
FROM orders
WHERE created_at >= $1
GROUP BY product_code;
`
	rows, err := tx.Query(ctx, productQ, cutoff)
	if err != nil {
		return fmt.Errorf("order stats by product: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		var count int64
		if err := rows.Scan(&code, &count); err != nil {
			return fmt.Errorf("scan product count: %w", err)
		}
		stats.OrdersByProduct[code] = count
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate product counts: %w", err)
	}

	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM shops;`).Scan(&stats.TotalShops); err != nil {
		return fmt.Errorf("count shops: %w", err)
	}
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM prompts;`).Scan(&stats.TotalPrompts); err != nil {
		return fmt.Errorf("count prompts: %w", err)
	}

	return nil
}
