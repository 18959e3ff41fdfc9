package repo

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository provides typed access to Postgres resources.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres opens a new connection pool to the database.
func NewPostgres(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	r := &PostgresRepository{
		pool:   pool,
		logger: logger.With("component", "repo"),
	}

	if err := r.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Ping ensures the database is reachable.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// WithTx executes fn within a database transaction.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

// RunMigrations applies schema migrations on the connected database.
func (r *PostgresRepository) RunMigrations(ctx context.Context, filesystem fs.FS) error {
	sub, err := fs.Sub(filesystem, "postgres")
	if err != nil {
		return fmt.Errorf("open postgres migrations: %w", err)
	}
	return ApplyMigrations(ctx, r.pool, sub)
}

// UpsertShopByEtsyID stores or refreshes a shop connection keyed by the Etsy shop id.
func (r *PostgresRepository) UpsertShopByEtsyID(ctx context.Context, shop ShopUpsert) (*Shop, error) {
	const q = `
INSERT INTO shops (name, etsy_shop_id, access_token, refresh_token, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (etsy_shop_id) DO UPDATE SET
    name = EXCLUDED.name,
    access_token = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    updated_at = NOW()
RETURNING id, name, etsy_shop_id, access_token, refresh_token, created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, q, shop.Name, shop.EtsyShopID, shop.AccessToken, shop.RefreshToken)

	var s Shop
	if err := row.Scan(&s.ID, &s.Name, &s.EtsyShopID, &s.AccessToken, &s.RefreshToken, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert shop: %w", err)
	}
	return &s, nil
}

// GetShop retrieves a shop by internal id.
func (r *PostgresRepository) GetShop(ctx context.Context, id string) (*Shop, error) {
	const q = `
SELECT id, name, etsy_shop_id, access_token, refresh_token, created_at, updated_at
FROM shops
WHERE id = $1
LIMIT 1;
`
	var s Shop
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.Name, &s.EtsyShopID, &s.AccessToken, &s.RefreshToken, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("shop %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get shop: %w", err)
	}
	return &s, nil
}

// ListShops returns every connected shop ordered by creation time.
func (r *PostgresRepository) ListShops(ctx context.Context) ([]Shop, error) {
	const q = `
SELECT id, name, etsy_shop_id, access_token, refresh_token, created_at, updated_at
FROM shops
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, q)
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
