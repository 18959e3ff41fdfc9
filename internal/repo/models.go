package repo

import "time"

// Order lifecycle statuses.
const (
	StatusPending   = "PENDING"
	StatusGenerated = "GENERATED"
	StatusSent      = "SENT"
	StatusError     = "ERROR"
)

// Shop represents a connected Etsy shop account.
type Shop struct {
	ID           string
	Name         string
	EtsyShopID   string
	AccessToken  string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ShopUpsert carries data used to create or refresh a shop connection.
type ShopUpsert struct {
	Name         string
	EtsyShopID   string
	AccessToken  string
	RefreshToken string
}

// Listing maps an Etsy listing to an internal product code.
type Listing struct {
	ID            string
	EtsyListingID string
	Title         string
	ProductCode   string
	ShopID        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Usage captures generation token accounting for one reading.
type Usage struct {
	Model        string
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	Cost         float64
}

// Order represents one purchased reading keyed by its Etsy receipt.
type Order struct {
	ID                string
	EtsyReceiptID     string
	EtsyTransactionID string
	BuyerName         string
	BuyerUserID       string
	Personalization   string
	Name              string
	Age               string
	Question          string
	ProductCode       string
	ShopID            string
	Status            string
	ReadingText       *string
	Usage             *Usage
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Shop is populated by GetOrderWithShop.
	Shop *Shop
}

// Prompt is a persisted template override for one product code.
type Prompt struct {
	ID          string
	ProductCode string
	Template    string
	Category    string
	IsCustom    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Stats aggregates order counters for the dashboard boundary.
type Stats struct {
	TotalOrders     int64            `json:"total_orders"`
	PendingOrders   int64            `json:"pending_orders"`
	GeneratedOrders int64            `json:"generated_orders"`
	SentOrders      int64            `json:"sent_orders"`
	ErrorOrders     int64            `json:"error_orders"`
	OrdersByProduct map[string]int64 `json:"orders_by_product"`
	TotalShops      int64            `json:"total_shops"`
	TotalPrompts    int64            `json:"total_prompts"`
	TotalTokens     int64            `json:"total_tokens"`
	TotalCost       float64          `json:"total_cost"`
}
