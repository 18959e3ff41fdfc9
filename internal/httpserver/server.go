package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"esamind/internal/cache"
	"esamind/internal/catalog"
	"esamind/internal/etsy"
	"esamind/internal/metrics"
	"esamind/internal/openai"
	"esamind/internal/prompts"
	"esamind/internal/readings"
	"esamind/internal/repo"
	syncer "esamind/internal/sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Syncer is the slice of the sync engine the server needs.
type Syncer interface {
	SyncOrders(ctx context.Context, shopID string) (syncer.Result, error)
	SyncListings(ctx context.Context, shopID string) (syncer.ListingsResult, error)
	ConnectShop(ctx context.Context, code, codeVerifier string) (*repo.Shop, error)
}

// ReadingService is the slice of the reading generator the server needs.
type ReadingService interface {
	GenerateForOrder(ctx context.Context, orderID string) (string, error)
	SendToBuyer(ctx context.Context, orderID string) error
	MarkSent(ctx context.Context, orderID string) error
}

// Dependencies exposes core dependencies to handlers.
type Dependencies struct {
	Repository    repo.Repository
	Redis         *cache.Redis
	Sync          Syncer
	Readings      ReadingService
	StatsCacheTTL time.Duration
}

// Server wraps an http.Server with predefined routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *metrics.Metrics
	deps       Dependencies
	basePath   string
}

// New creates the HTTP server listening on addr.
func New(addr string, logger *slog.Logger, metricRegistry *metrics.Metrics, deps Dependencies, basePath string) *Server {
	server := &Server{
		logger:   logger.With("component", "http"),
		metrics:  metricRegistry,
		deps:     deps,
		basePath: normaliseBasePath(basePath),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", server.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/orders/sync", server.handleSyncOrders)
	mux.HandleFunc("POST /api/readings/generate", server.handleGenerateReading)
	mux.HandleFunc("POST /api/orders/{id}/send-message", server.handleSendMessage)
	mux.HandleFunc("POST /api/orders/{id}/mark-sent", server.handleMarkSent)
	mux.HandleFunc("POST /api/shops/connect", server.handleConnectShop)
	mux.HandleFunc("POST /api/shops/{id}/listings/sync", server.handleSyncListings)
	mux.HandleFunc("POST /api/listings/{id}/product-code", server.handleSetListingProductCode)
	mux.HandleFunc("GET /api/products", server.handleListProducts)
	mux.HandleFunc("GET /api/stats", server.handleStats)

	handler := mountWithBasePath(server.basePath, mux)

	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if server.basePath != "" {
		server.logger.Info("http server configured with base path", "base_path", server.basePath)
	}

	return server
}

// Start begins listening for incoming HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Repository.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSyncOrders(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ShopID string `json:"shopId"`
	}
	if err := decodeOptionalJSON(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.deps.Sync.SyncOrders(r.Context(), body.ShopID)
	if err != nil {
		s.writeError(w, "sync orders", err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleGenerateReading(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OrderID == "" {
		http.Error(w, "orderId is required", http.StatusBadRequest)
		return
	}

	text, err := s.deps.Readings.GenerateForOrder(r.Context(), body.OrderID)
	if err != nil {
		s.writeError(w, "generate reading", err)
		return
	}
	writeJSON(w, map[string]string{"orderId": body.OrderID, "readingText": text})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	if err := s.deps.Readings.SendToBuyer(r.Context(), orderID); err != nil {
		s.writeError(w, "send message", err)
		return
	}
	writeJSON(w, map[string]string{"status": "sent", "orderId": orderID})
}

func (s *Server) handleMarkSent(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	if err := s.deps.Readings.MarkSent(r.Context(), orderID); err != nil {
		s.writeError(w, "mark sent", err)
		return
	}
	writeJSON(w, map[string]string{"status": "sent", "orderId": orderID})
}

func (s *Server) handleConnectShop(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code         string `json:"code"`
		CodeVerifier string `json:"codeVerifier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	shop, err := s.deps.Sync.ConnectShop(r.Context(), body.Code, body.CodeVerifier)
	if err != nil {
		s.writeError(w, "connect shop", err)
		return
	}
	writeJSON(w, map[string]string{"shopId": shop.ID, "name": shop.Name, "etsyShopId": shop.EtsyShopID})
}

func (s *Server) handleSyncListings(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Sync.SyncListings(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, "sync listings", err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleSetListingProductCode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductCode string `json:"productCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProductCode == "" {
		http.Error(w, "productCode is required", http.StatusBadRequest)
		return
	}
	if _, ok := catalog.Lookup(body.ProductCode); !ok && body.ProductCode != catalog.CodeUnknown {
		http.Error(w, fmt.Sprintf("unknown product code %q", body.ProductCode), http.StatusBadRequest)
		return
	}

	listingID := r.PathValue("id")
	if err := s.deps.Repository.SetListingProductCode(r.Context(), listingID, body.ProductCode); err != nil {
		s.writeError(w, "set listing product code", err)
		return
	}
	writeJSON(w, map[string]string{"listingId": listingID, "productCode": body.ProductCode})
}

func (s *Server) handleListProducts(w http.ResponseWriter, _ *http.Request) {
	type product struct {
		Code     string `json:"code"`
		Title    string `json:"title"`
		Category string `json:"category"`
	}
	products := make([]product, 0, len(catalog.Definitions))
	for _, code := range catalog.AllCodes() {
		def, _ := catalog.Lookup(code)
		products = append(products, product{Code: def.Code, Title: def.Title, Category: string(def.Category)})
	}
	writeJSON(w, products)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "days must be a non-negative integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	cacheKey := fmt.Sprintf("esamind:stats:%d", days)
	if s.deps.Redis != nil {
		var cached repo.Stats
		ok, err := s.deps.Redis.GetJSON(r.Context(), cacheKey, &cached)
		if err != nil {
			s.logger.Warn("read stats cache failed", "error", err)
		} else if ok {
			writeJSON(w, cached)
			return
		}
	}

	var since *time.Time
	if days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		since = &cutoff
	}

	stats, err := s.deps.Repository.OrderStats(r.Context(), since)
	if err != nil {
		s.writeError(w, "stats", err)
		return
	}

	if s.deps.Redis != nil {
		ttl := s.deps.StatsCacheTTL
		if ttl <= 0 {
			ttl = time.Minute
		}
		if err := s.deps.Redis.SetJSON(r.Context(), cacheKey, stats, ttl); err != nil {
			s.logger.Warn("set stats cache failed", "error", err)
		}
	}
	writeJSON(w, stats)
}

// writeError maps error classes to HTTP statuses: missing records 404,
// credential problems 500, rate limits 429, exhausted quota 402, bad model
// 400, marketplace failures 502, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", "error", err)
	if s.metrics != nil {
		s.metrics.Errors.WithLabelValues("http").Inc()
	}

	var apiErr *etsy.APIError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, readings.ErrOrderNotFound),
		errors.Is(err, prompts.ErrProductNotFound),
		errors.Is(err, repo.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, openai.ErrInvalidAPIKey):
		status = http.StatusInternalServerError
	case errors.Is(err, openai.ErrQuotaExceeded):
		status = http.StatusPaymentRequired
	case errors.Is(err, openai.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, openai.ErrModelUnavailable):
		status = http.StatusBadRequest
	case errors.Is(err, readings.ErrReadingMissing):
		status = http.StatusConflict
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// decodeOptionalJSON decodes a JSON body when one is present; an empty body
// leaves dest untouched.
func decodeOptionalJSON(r *http.Request, dest any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode json", http.StatusInternalServerError)
	}
}

func mountWithBasePath(basePath string, handler http.Handler) http.Handler {
	if basePath == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, basePath) {
			http.NotFound(w, r)
			return
		}
		if len(r.URL.Path) > len(basePath) && r.URL.Path[len(basePath)] != '/' {
			http.NotFound(w, r)
			return
		}
		trimmed := strings.TrimPrefix(r.URL.Path, basePath)
		if trimmed == "" {
			trimmed = "/"
		}
		r.URL.Path = trimmed
		if r.URL.RawPath != "" {
			rawTrimmed := strings.TrimPrefix(r.URL.RawPath, basePath)
			if rawTrimmed == "" {
				rawTrimmed = "/"
			}
			r.URL.RawPath = rawTrimmed
		}
		handler.ServeHTTP(w, r)
	})
}

func normaliseBasePath(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimSuffix(base, "/")
}
