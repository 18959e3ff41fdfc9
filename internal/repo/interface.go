package repo

import (
	"context"
	"errors"
	"io/fs"
	"time"
)

var (
	// ErrNotFound marks lookups for rows that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateOrder is reported when an order already exists for a receipt.
	ErrDuplicateOrder = errors.New("duplicate order")
)

// Repository defines the interface for data persistence.
type Repository interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error

	// Shops
	UpsertShopByEtsyID(ctx context.Context, shop ShopUpsert) (*Shop, error)
	GetShop(ctx context.Context, id string) (*Shop, error)
	ListShops(ctx context.Context) ([]Shop, error)

	// Listings
	GetListingByEtsyID(ctx context.Context, etsyListingID string) (*Listing, error)
	CreateListing(ctx context.Context, listing Listing) (*Listing, error)
	UpdateListingTitle(ctx context.Context, id, title string) error
	SetListingProductCode(ctx context.Context, id, productCode string) error

	// Orders
	CreateOrder(ctx context.Context, order Order) (*Order, error)
	OrderExistsByReceipt(ctx context.Context, etsyReceiptID string) (bool, error)
	GetOrderWithShop(ctx context.Context, id string) (*Order, error)
	UpdateOrderReading(ctx context.Context, id, readingText string, usage Usage) error
	UpdateOrderStatus(ctx context.Context, id, status string) error

	// Prompts
	GetPromptByCode(ctx context.Context, productCode string) (*Prompt, error)
	UpsertPrompt(ctx context.Context, prompt Prompt) error
	CountPrompts(ctx context.Context) (int64, error)

	// Stats
	OrderStats(ctx context.Context, since *time.Time) (*Stats, error)
}
