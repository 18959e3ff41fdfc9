package etsy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"esamind/internal/cache"
	"esamind/internal/metrics"
)

const (
	defaultListingCacheTTL = 5 * time.Minute
	listingPageSize        = 100
)

// APIError carries the marketplace response for a failed call so callers can
// map it to their own error surface.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("etsy error: status=%d body=%s", e.StatusCode, e.Body)
}

// Client provides typed access to the Etsy v3 API. Shop access tokens are
// passed per call because one service instance serves multiple shops.
type Client struct {
	logger       *slog.Logger
	baseURL      string
	clientID     string
	clientSecret string
	redirectURI  string
	http         *http.Client
	metrics      *metrics.Metrics
	cache        *cache.Redis
	listingTTL   time.Duration
}

// Config holds Etsy client configuration.
type Config struct {
	BaseURL         string
	ClientID        string
	ClientSecret    string
	RedirectURI     string
	Timeout         time.Duration
	ListingCacheTTL time.Duration
}

func New(cfg Config, logger *slog.Logger, metrics *metrics.Metrics, redis *cache.Redis) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.etsy.com/v3"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	listingTTL := cfg.ListingCacheTTL
	if listingTTL <= 0 {
		listingTTL = defaultListingCacheTTL
	}
	return &Client{
		logger:       logger.With("component", "etsy"),
		baseURL:      base,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		http:         &http.Client{Timeout: timeout},
		metrics:      metrics,
		cache:        redis,
		listingTTL:   listingTTL,
	}
}

// ShopInfo describes a shop as Etsy reports it.
type ShopInfo struct {
	ShopID   int64  `json:"shop_id"`
	ShopName string `json:"shop_name"`
}

// Receipt is one paid order on Etsy. Transactions arrive via a separate call.
type Receipt struct {
	ReceiptID   int64  `json:"receipt_id"`
	BuyerName   string `json:"buyer_name"`
	BuyerUserID int64  `json:"buyer_user_id"`
}

// Transaction is one purchased item within a receipt.
type Transaction struct {
	TransactionID   int64  `json:"transaction_id"`
	ListingID       int64  `json:"listing_id"`
	Personalization string `json:"personalization"`
}

// Listing is one active shop listing.
type Listing struct {
	ListingID int64  `json:"listing_id"`
	Title     string `json:"title"`
}

// Conversation is a message thread with a buyer.
type Conversation struct {
	ConversationID int64 `json:"conversation_id"`
	OtherUserID    int64 `json:"other_user_id"`
}

// TokenPair is the result of an OAuth code exchange or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type resultsEnvelope[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// GetShop fetches shop details by its Etsy shop id.
func (c *Client) GetShop(ctx context.Context, accessToken, shopID string) (*ShopInfo, error) {
	var info ShopInfo
	endpoint := fmt.Sprintf("/application/shops/%s", shopID)
	if err := c.get(ctx, "get_shop", endpoint, accessToken, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetShopReceipts lists open digital receipts for a shop, newest first.
// minCreated limits results to receipts created at or after that time.
func (c *Client) GetShopReceipts(ctx context.Context, accessToken, shopID string, limit int, minCreated *time.Time) ([]Receipt, error) {
	if limit <= 0 {
		limit = 100
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("was_shipped", "false")
	query.Set("was_digital", "true")
	if minCreated != nil {
		query.Set("min_created", strconv.FormatInt(minCreated.Unix(), 10))
	}

	var env resultsEnvelope[Receipt]
	endpoint := fmt.Sprintf("/application/shops/%s/receipts?%s", shopID, query.Encode())
	if err := c.get(ctx, "get_receipts", endpoint, accessToken, &env); err != nil {
		return nil, err
	}
	return env.Results, nil
}

// GetReceiptTransactions lists the purchased items of one receipt.
func (c *Client) GetReceiptTransactions(ctx context.Context, accessToken string, receiptID int64) ([]Transaction, error) {
	var env resultsEnvelope[Transaction]
	endpoint := fmt.Sprintf("/application/shops/receipts/%d/transactions", receiptID)
	if err := c.get(ctx, "get_transactions", endpoint, accessToken, &env); err != nil {
		return nil, err
	}
	return env.Results, nil
}

// GetActiveListings pages through all active listings of a shop. Results are
// cached per shop when redis is configured.
func (c *Client) GetActiveListings(ctx context.Context, accessToken, shopID string) ([]Listing, error) {
	cacheKey := fmt.Sprintf("etsy:listings:%s", shopID)
	if c.cache != nil {
		var cached []Listing
		ok, err := c.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			c.logger.Warn("read listings cache failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	var all []Listing
	for offset := 0; ; offset += listingPageSize {
		var env resultsEnvelope[Listing]
		endpoint := fmt.Sprintf("/application/shops/%s/listings/active?limit=%d&offset=%d", shopID, listingPageSize, offset)
		if err := c.get(ctx, "get_listings", endpoint, accessToken, &env); err != nil {
			return nil, err
		}
		all = append(all, env.Results...)
		if len(env.Results) < listingPageSize {
			break
		}
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, cacheKey, all, c.listingTTL); err != nil {
			c.logger.Warn("set listings cache failed", "error", err)
		}
	}
	return all, nil
}

// FindConversation looks for an existing thread with the given buyer.
// Returns nil when no thread exists yet.
func (c *Client) FindConversation(ctx context.Context, accessToken, shopID, buyerUserID string) (*Conversation, error) {
	var env resultsEnvelope[Conversation]
	endpoint := fmt.Sprintf("/application/shops/%s/conversations?recipient_user_id=%s", shopID, url.QueryEscape(buyerUserID))
	if err := c.get(ctx, "find_conversation", endpoint, accessToken, &env); err != nil {
		return nil, err
	}
	for i := range env.Results {
		return &env.Results[i], nil
	}
	return nil, nil
}

// CreateConversation starts a new thread with a buyer, delivering message as
// the first entry.
func (c *Client) CreateConversation(ctx context.Context, accessToken, shopID, buyerUserID, message string) (*Conversation, error) {
	form := url.Values{}
	form.Set("recipient_user_id", buyerUserID)
	form.Set("message", message)

	var conv Conversation
	endpoint := fmt.Sprintf("/application/shops/%s/conversations", shopID)
	if err := c.postForm(ctx, "create_conversation", endpoint, accessToken, form, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// SendMessage appends a message to an existing conversation.
func (c *Client) SendMessage(ctx context.Context, accessToken string, conversationID int64, message string) error {
	form := url.Values{}
	form.Set("message", message)
	endpoint := fmt.Sprintf("/application/conversations/%d/messages", conversationID)
	return c.postForm(ctx, "send_message", endpoint, accessToken, form, nil)
}

// SendMessageToBuyer delivers text to a buyer, reusing an existing
// conversation when one exists and creating one otherwise. Creation is never
// retried after a send failure so the buyer cannot receive duplicates.
func (c *Client) SendMessageToBuyer(ctx context.Context, accessToken, shopID, buyerUserID, message string) error {
	conv, err := c.FindConversation(ctx, accessToken, shopID, buyerUserID)
	if err != nil {
		return fmt.Errorf("find conversation: %w", err)
	}
	if conv != nil {
		if err := c.SendMessage(ctx, accessToken, conv.ConversationID, message); err != nil {
			c.observeMessage("error")
			return fmt.Errorf("send message: %w", err)
		}
		c.observeMessage("ok")
		return nil
	}

	if _, err := c.CreateConversation(ctx, accessToken, shopID, buyerUserID, message); err != nil {
		c.observeMessage("error")
		return fmt.Errorf("create conversation: %w", err)
	}
	c.observeMessage("ok")
	return nil
}

// ExchangeCode swaps an OAuth authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.clientID)
	form.Set("redirect_uri", c.redirectURI)
	form.Set("code", code)
	form.Set("code_verifier", codeVerifier)

	var tokens TokenPair
	if err := c.postForm(ctx, "oauth_token", "/public/oauth/token", "", form, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// RefreshToken obtains a fresh access token from a stored refresh token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.clientID)
	form.Set("refresh_token", refreshToken)

	var tokens TokenPair
	if err := c.postForm(ctx, "oauth_refresh", "/public/oauth/token", "", form, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// GetUserShops returns the shops owned by the authenticated user.
func (c *Client) GetUserShops(ctx context.Context, accessToken string) ([]ShopInfo, error) {
	var env resultsEnvelope[ShopInfo]
	if err := c.get(ctx, "get_user_shops", "/application/users/me/shops", accessToken, &env); err != nil {
		return nil, err
	}
	return env.Results, nil
}

func (c *Client) get(ctx context.Context, name, endpoint, accessToken string, dest any) error {
	return c.do(ctx, name, http.MethodGet, endpoint, accessToken, nil, "", dest)
}

func (c *Client) postForm(ctx context.Context, name, endpoint, accessToken string, form url.Values, dest any) error {
	body := strings.NewReader(form.Encode())
	return c.do(ctx, name, http.MethodPost, endpoint, accessToken, body, "application/x-www-form-urlencoded", dest)
}

func (c *Client) do(ctx context.Context, name, method, endpoint, accessToken string, body io.Reader, contentType string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.clientID)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.observe(name, "error", start)
		return fmt.Errorf("etsy request: %w", err)
	}
	defer res.Body.Close()

	statusLabel := strconv.Itoa(res.StatusCode)
	c.observe(name, statusLabel, start)

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode >= 400 {
		return &APIError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) observe(endpoint, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.EtsyRequests.WithLabelValues(endpoint, status).Inc()
	c.metrics.EtsyLatency.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
}

func (c *Client) observeMessage(status string) {
	if c.metrics == nil {
		return
	}
	c.metrics.MessagesSent.WithLabelValues(status).Inc()
}
