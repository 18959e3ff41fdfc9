package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"esamind/internal/catalog"
	"esamind/internal/etsy"
	"esamind/internal/metrics"
	"esamind/internal/personalize"
	"esamind/internal/prompts"
	"esamind/internal/repo"
)

// Store is the slice of the repository the sync engine needs.
type Store interface {
	ListShops(ctx context.Context) ([]repo.Shop, error)
	GetShop(ctx context.Context, id string) (*repo.Shop, error)
	UpsertShopByEtsyID(ctx context.Context, shop repo.ShopUpsert) (*repo.Shop, error)
	OrderExistsByReceipt(ctx context.Context, etsyReceiptID string) (bool, error)
	CreateOrder(ctx context.Context, order repo.Order) (*repo.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) error
	GetListingByEtsyID(ctx context.Context, etsyListingID string) (*repo.Listing, error)
	CreateListing(ctx context.Context, listing repo.Listing) (*repo.Listing, error)
	UpdateListingTitle(ctx context.Context, id, title string) error
}

// Marketplace is the slice of the Etsy client the sync engine needs.
type Marketplace interface {
	GetShop(ctx context.Context, accessToken, shopID string) (*etsy.ShopInfo, error)
	GetShopReceipts(ctx context.Context, accessToken, shopID string, limit int, minCreated *time.Time) ([]etsy.Receipt, error)
	GetReceiptTransactions(ctx context.Context, accessToken string, receiptID int64) ([]etsy.Transaction, error)
	GetActiveListings(ctx context.Context, accessToken, shopID string) ([]etsy.Listing, error)
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*etsy.TokenPair, error)
	GetUserShops(ctx context.Context, accessToken string) ([]etsy.ShopInfo, error)
}

// ReadingGenerator produces and delivers a reading for a freshly created order.
type ReadingGenerator interface {
	GenerateForOrder(ctx context.Context, orderID string) (string, error)
}

// Result summarizes one order sync run.
type Result struct {
	NewOrders int `json:"newOrders"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// ListingsResult summarizes one listings sync run.
type ListingsResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Engine pulls orders and listings out of Etsy into the local store.
type Engine struct {
	logger       *slog.Logger
	store        Store
	marketplace  Marketplace
	readings     ReadingGenerator
	metrics      *metrics.Metrics
	receiptLimit int
}

func NewEngine(store Store, marketplace Marketplace, readings ReadingGenerator, logger *slog.Logger, m *metrics.Metrics, receiptLimit int) *Engine {
	if receiptLimit <= 0 {
		receiptLimit = 100
	}
	return &Engine{
		logger:       logger.With("component", "sync"),
		store:        store,
		marketplace:  marketplace,
		readings:     readings,
		metrics:      m,
		receiptLimit: receiptLimit,
	}
}

// SyncOrders imports open receipts for one shop (shopID non-empty) or every
// connected shop. Failures are isolated per shop and per receipt: one broken
// receipt increments Errors and the run continues.
func (e *Engine) SyncOrders(ctx context.Context, shopID string) (Result, error) {
	var shops []repo.Shop
	if shopID != "" {
		shop, err := e.store.GetShop(ctx, shopID)
		if err != nil {
			return Result{}, fmt.Errorf("load shop: %w", err)
		}
		shops = []repo.Shop{*shop}
	} else {
		var err error
		shops, err = e.store.ListShops(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("list shops: %w", err)
		}
	}

	e.logger.Info("syncing orders", "shops", len(shops))

	var total Result
	for i := range shops {
		result, err := e.syncShop(ctx, &shops[i])
		if err != nil {
			e.logger.Error("shop sync failed", "shop_id", shops[i].ID, "shop_name", shops[i].Name, "error", err)
			total.Errors++
			e.observeSync("error")
			continue
		}
		total.NewOrders += result.NewOrders
		total.Skipped += result.Skipped
		total.Errors += result.Errors
	}

	e.logger.Info("orders sync completed",
		"new_orders", total.NewOrders, "skipped", total.Skipped, "errors", total.Errors)
	return total, nil
}

func (e *Engine) syncShop(ctx context.Context, shop *repo.Shop) (Result, error) {
	receipts, err := e.marketplace.GetShopReceipts(ctx, shop.AccessToken, shop.EtsyShopID, e.receiptLimit, nil)
	if err != nil {
		return Result{}, fmt.Errorf("fetch receipts: %w", err)
	}
	e.logger.Debug("receipts fetched", "shop_id", shop.ID, "count", len(receipts))

	var result Result
	for _, receipt := range receipts {
		if err := e.syncReceipt(ctx, shop, receipt, &result); err != nil {
			e.logger.Error("receipt sync failed", "receipt_id", receipt.ReceiptID, "error", err)
			result.Errors++
			e.observeSync("error")
		}
	}
	return result, nil
}

func (e *Engine) syncReceipt(ctx context.Context, shop *repo.Shop, receipt etsy.Receipt, result *Result) error {
	transactions, err := e.marketplace.GetReceiptTransactions(ctx, shop.AccessToken, receipt.ReceiptID)
	if err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}

	receiptID := strconv.FormatInt(receipt.ReceiptID, 10)
	for _, tx := range transactions {
		exists, err := e.store.OrderExistsByReceipt(ctx, receiptID)
		if err != nil {
			return fmt.Errorf("check existing order: %w", err)
		}
		if exists {
			result.Skipped++
			e.observeSync("skipped")
			continue
		}

		productCode := catalog.CodeUnknown
		listing, err := e.store.GetListingByEtsyID(ctx, strconv.FormatInt(tx.ListingID, 10))
		switch {
		case err == nil:
			productCode = listing.ProductCode
		case errors.Is(err, repo.ErrNotFound):
			// unmapped listing, order stays unknown
		default:
			return fmt.Errorf("lookup listing: %w", err)
		}

		parsed := personalize.Parse(tx.Personalization)
		order, err := e.store.CreateOrder(ctx, repo.Order{
			EtsyReceiptID:     receiptID,
			EtsyTransactionID: strconv.FormatInt(tx.TransactionID, 10),
			BuyerName:         receipt.BuyerName,
			BuyerUserID:       strconv.FormatInt(receipt.BuyerUserID, 10),
			Personalization:   tx.Personalization,
			Name:              parsed.Name,
			Age:               parsed.Age,
			Question:          parsed.Question,
			ProductCode:       productCode,
			ShopID:            shop.ID,
			Status:            repo.StatusPending,
		})
		if err != nil {
			if errors.Is(err, repo.ErrDuplicateOrder) {
				result.Skipped++
				e.observeSync("skipped")
				continue
			}
			return fmt.Errorf("create order: %w", err)
		}

		e.logger.Info("new order created",
			"order_id", order.ID, "receipt_id", receiptID,
			"product_code", productCode, "buyer_name", receipt.BuyerName)
		result.NewOrders++
		e.observeSync("new")

		e.autoGenerate(ctx, order)
	}
	return nil
}

// autoGenerate kicks off reading generation for a freshly imported order.
// A failure leaves the order PENDING for a manual retry, except when the
// product or order cannot be found at all, which is unrecoverable and flips
// the order to ERROR.
func (e *Engine) autoGenerate(ctx context.Context, order *repo.Order) {
	if order.ProductCode == catalog.CodeUnknown {
		e.logger.Warn("skipping auto-generation, product code unknown", "order_id", order.ID)
		return
	}

	e.logger.Info("auto-generating reading", "order_id", order.ID)
	if _, err := e.readings.GenerateForOrder(ctx, order.ID); err != nil {
		e.logger.Error("auto-generation failed", "order_id", order.ID, "error", err)
		if errors.Is(err, prompts.ErrProductNotFound) {
			if updateErr := e.store.UpdateOrderStatus(ctx, order.ID, repo.StatusError); updateErr != nil {
				e.logger.Error("mark order error failed", "order_id", order.ID, "error", updateErr)
			}
		}
		return
	}
	e.logger.Info("reading auto-generated", "order_id", order.ID)
}

// SyncListings mirrors the active listings of a shop into the store. New
// listings start with an unknown product code; mapping to products is a
// manual step afterwards.
func (e *Engine) SyncListings(ctx context.Context, shopID string) (ListingsResult, error) {
	shop, err := e.store.GetShop(ctx, shopID)
	if err != nil {
		return ListingsResult{}, fmt.Errorf("load shop: %w", err)
	}

	listings, err := e.marketplace.GetActiveListings(ctx, shop.AccessToken, shop.EtsyShopID)
	if err != nil {
		return ListingsResult{}, fmt.Errorf("fetch listings: %w", err)
	}

	var result ListingsResult
	for _, listing := range listings {
		etsyListingID := strconv.FormatInt(listing.ListingID, 10)
		existing, err := e.store.GetListingByEtsyID(ctx, etsyListingID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			_, err := e.store.CreateListing(ctx, repo.Listing{
				EtsyListingID: etsyListingID,
				Title:         listing.Title,
				ProductCode:   catalog.CodeUnknown,
				ShopID:        shop.ID,
			})
			if err != nil {
				return result, fmt.Errorf("create listing %s: %w", etsyListingID, err)
			}
			result.Created++
		case err != nil:
			return result, fmt.Errorf("lookup listing %s: %w", etsyListingID, err)
		case existing.Title != listing.Title:
			if err := e.store.UpdateListingTitle(ctx, existing.ID, listing.Title); err != nil {
				return result, fmt.Errorf("update listing %s: %w", etsyListingID, err)
			}
			result.Updated++
		default:
			result.Skipped++
		}
	}

	e.logger.Info("listings sync completed", "shop_id", shopID,
		"created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

// ConnectShop finishes the OAuth flow for a new shop: it exchanges the
// authorization code, discovers the user's shop and upserts it keyed by the
// Etsy shop id, so reconnecting refreshes tokens instead of duplicating rows.
func (e *Engine) ConnectShop(ctx context.Context, code, codeVerifier string) (*repo.Shop, error) {
	tokens, err := e.marketplace.ExchangeCode(ctx, code, codeVerifier)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	shops, err := e.marketplace.GetUserShops(ctx, tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("discover shops: %w", err)
	}
	if len(shops) == 0 {
		return nil, errors.New("authenticated user owns no shops")
	}
	info := shops[0]

	shop, err := e.store.UpsertShopByEtsyID(ctx, repo.ShopUpsert{
		Name:         info.ShopName,
		EtsyShopID:   strconv.FormatInt(info.ShopID, 10),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert shop: %w", err)
	}

	e.logger.Info("shop connected", "shop_id", shop.ID, "shop_name", shop.Name, "etsy_shop_id", shop.EtsyShopID)
	return shop, nil
}

func (e *Engine) observeSync(result string) {
	if e.metrics == nil {
		return
	}
	e.metrics.OrdersSynced.WithLabelValues(result).Inc()
}
