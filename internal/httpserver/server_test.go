package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"esamind/internal/openai"
	"esamind/internal/readings"
	"esamind/internal/repo"
	syncer "esamind/internal/sync"
)

type stubRepo struct {
	repo.Repository
	stats    *repo.Stats
	codeErr  error
	setCodes map[string]string
}

func (stubRepo) Ping(context.Context) error { return nil }

func (s stubRepo) OrderStats(context.Context, *time.Time) (*repo.Stats, error) {
	return s.stats, nil
}

func (s stubRepo) SetListingProductCode(_ context.Context, id, productCode string) error {
	if s.codeErr != nil {
		return s.codeErr
	}
	if s.setCodes != nil {
		s.setCodes[id] = productCode
	}
	return nil
}

type fakeSync struct {
	result syncer.Result
	err    error
}

func (f *fakeSync) SyncOrders(_ context.Context, _ string) (syncer.Result, error) {
	return f.result, f.err
}

func (f *fakeSync) SyncListings(_ context.Context, _ string) (syncer.ListingsResult, error) {
	return syncer.ListingsResult{Created: 2}, f.err
}

func (f *fakeSync) ConnectShop(_ context.Context, _, _ string) (*repo.Shop, error) {
	return &repo.Shop{ID: "shop-1", Name: "Esamind", EtsyShopID: "123"}, f.err
}

type fakeReadings struct {
	generateErr error
	sendErr     error
	markErr     error
}

func (f *fakeReadings) GenerateForOrder(_ context.Context, orderID string) (string, error) {
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return "the reading for " + orderID, nil
}

func (f *fakeReadings) SendToBuyer(context.Context, string) error { return f.sendErr }
func (f *fakeReadings) MarkSent(context.Context, string) error    { return f.markErr }

func newTestServer(deps Dependencies) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(":0", logger, nil, deps, "")
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestSyncOrdersRoute(t *testing.T) {
	s := newTestServer(Dependencies{
		Repository: stubRepo{},
		Sync:       &fakeSync{result: syncer.Result{NewOrders: 3, Skipped: 1}},
		Readings:   &fakeReadings{},
	})

	rec := doRequest(t, s, http.MethodPost, "/api/orders/sync", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result syncer.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if result.NewOrders != 3 || result.Skipped != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestGenerateReadingRoute(t *testing.T) {
	s := newTestServer(Dependencies{
		Repository: stubRepo{},
		Sync:       &fakeSync{},
		Readings:   &fakeReadings{},
	})

	rec := doRequest(t, s, http.MethodPost, "/api/readings/generate", `{"orderId": "order-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "the reading for order-1") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodPost, "/api/readings/generate", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing orderId, got %d", rec.Code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"order not found", readings.ErrOrderNotFound, http.StatusNotFound},
		{"invalid key", openai.ErrInvalidAPIKey, http.StatusInternalServerError},
		{"rate limited", openai.ErrRateLimited, http.StatusTooManyRequests},
		{"quota", openai.ErrQuotaExceeded, http.StatusPaymentRequired},
		{"model", openai.ErrModelUnavailable, http.StatusBadRequest},
		{"wrapped", fmt.Errorf("generate reading: %w", openai.ErrRateLimited), http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(Dependencies{
				Repository: stubRepo{},
				Sync:       &fakeSync{},
				Readings:   &fakeReadings{generateErr: tc.err},
			})
			rec := doRequest(t, s, http.MethodPost, "/api/readings/generate", `{"orderId": "order-1"}`)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestMarkSentNotFound(t *testing.T) {
	s := newTestServer(Dependencies{
		Repository: stubRepo{},
		Sync:       &fakeSync{},
		Readings:   &fakeReadings{markErr: readings.ErrOrderNotFound},
	})

	rec := doRequest(t, s, http.MethodPost, "/api/orders/order-9/mark-sent", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStatsRoute(t *testing.T) {
	s := newTestServer(Dependencies{
		Repository: stubRepo{stats: &repo.Stats{TotalOrders: 12, SentOrders: 5, OrdersByProduct: map[string]int64{"tarot_3_card": 7}}},
		Sync:       &fakeSync{},
		Readings:   &fakeReadings{},
	})

	rec := doRequest(t, s, http.MethodGet, "/api/stats?days=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var stats repo.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if stats.TotalOrders != 12 || stats.OrdersByProduct["tarot_3_card"] != 7 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/stats?days=nope", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad days, got %d", rec.Code)
	}
}

func TestConnectShopRoute(t *testing.T) {
	s := newTestServer(Dependencies{
		Repository: stubRepo{},
		Sync:       &fakeSync{},
		Readings:   &fakeReadings{},
	})

	rec := doRequest(t, s, http.MethodPost, "/api/shops/connect", `{"code": "abc"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "shop-1") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestSetListingProductCodeRoute(t *testing.T) {
	repoStub := stubRepo{setCodes: map[string]string{}}
	s := newTestServer(Dependencies{
		Repository: repoStub,
		Sync:       &fakeSync{},
		Readings:   &fakeReadings{},
	})

	rec := doRequest(t, s, http.MethodPost, "/api/listings/l1/product-code", `{"productCode": "tarot_3_card"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if repoStub.setCodes["l1"] != "tarot_3_card" {
		t.Fatalf("product code not stored, got %v", repoStub.setCodes)
	}

	// "unknown" unmaps a listing again.
	rec = doRequest(t, s, http.MethodPost, "/api/listings/l1/product-code", `{"productCode": "unknown"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d for unknown, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodPost, "/api/listings/l1/product-code", `{"productCode": "no_such_code"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bogus code, got %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/listings/l1/product-code", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing code, got %d", rec.Code)
	}
}

func TestSetListingProductCodeNotFound(t *testing.T) {
	s := newTestServer(Dependencies{
		Repository: stubRepo{codeErr: repo.ErrNotFound},
		Sync:       &fakeSync{},
		Readings:   &fakeReadings{},
	})

	rec := doRequest(t, s, http.MethodPost, "/api/listings/nope/product-code", `{"productCode": "tarot_3_card"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListProductsRoute(t *testing.T) {
	s := newTestServer(Dependencies{
		Repository: stubRepo{},
		Sync:       &fakeSync{},
		Readings:   &fakeReadings{},
	})

	rec := doRequest(t, s, http.MethodGet, "/api/products", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var products []struct {
		Code     string `json:"code"`
		Title    string `json:"title"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(products) != 30 {
		t.Fatalf("expected 30 products, got %d", len(products))
	}
	if products[0].Code != "energy_aura_field" || products[0].Title == "" || products[0].Category != "energy" {
		t.Fatalf("unexpected first product %+v", products[0])
	}
}

func TestBasePathMounting(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(":0", logger, nil, Dependencies{
		Repository: stubRepo{},
		Sync:       &fakeSync{},
		Readings:   &fakeReadings{},
	}, "/esamind")

	rec := doRequest(t, s, http.MethodGet, "/esamind/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 off base path, got %d", rec.Code)
	}
}
