package etsy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL, ClientID: "client-id"}, testLogger(), nil, nil)
}

func TestGetShopReceipts(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/application/shops/123/receipts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("was_shipped") != "false" || q.Get("was_digital") != "true" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("x-api-key"); got != "client-id" {
			t.Errorf("unexpected api key header %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		io.WriteString(w, `{"count": 1, "results": [{"receipt_id": 42, "buyer_name": "Ana", "buyer_user_id": 7}]}`)
	}))

	receipts, err := client.GetShopReceipts(context.Background(), "tok", "123", 100, nil)
	if err != nil {
		t.Fatalf("GetShopReceipts: %v", err)
	}
	if len(receipts) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(receipts))
	}
	if receipts[0].ReceiptID != 42 || receipts[0].BuyerName != "Ana" {
		t.Fatalf("unexpected receipt %+v", receipts[0])
	}
}

func TestGetReceiptTransactions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/application/shops/receipts/42/transactions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `{"count": 1, "results": [{"transaction_id": 9, "listing_id": 5, "personalization": "Name: Ana"}]}`)
	}))

	txs, err := client.GetReceiptTransactions(context.Background(), "tok", 42)
	if err != nil {
		t.Fatalf("GetReceiptTransactions: %v", err)
	}
	if len(txs) != 1 || txs[0].Personalization != "Name: Ana" {
		t.Fatalf("unexpected transactions %+v", txs)
	}
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error": "insufficient scope"}`)
	}))

	_, err := client.GetShop(context.Background(), "tok", "123")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
}

func TestGetActiveListingsPagination(t *testing.T) {
	var offsets []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		if offset == "0" {
			w.Write([]byte(pageOfListings(listingPageSize)))
			return
		}
		io.WriteString(w, `{"count": 0, "results": [{"listing_id": 999, "title": "last"}]}`)
	}))

	listings, err := client.GetActiveListings(context.Background(), "tok", "123")
	if err != nil {
		t.Fatalf("GetActiveListings: %v", err)
	}
	if len(listings) != listingPageSize+1 {
		t.Fatalf("expected %d listings, got %d", listingPageSize+1, len(listings))
	}
	if len(offsets) != 2 || offsets[1] != "100" {
		t.Fatalf("unexpected offsets %v", offsets)
	}
}

func pageOfListings(n int) string {
	out := `{"count": 101, "results": [`
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += `{"listing_id": 1, "title": "t"}`
	}
	return out + `]}`
}

func TestSendMessageToBuyerReusesConversation(t *testing.T) {
	var created, sent bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			io.WriteString(w, `{"count": 1, "results": [{"conversation_id": 55, "other_user_id": 7}]}`)
		case r.URL.Path == "/application/conversations/55/messages":
			sent = true
			io.WriteString(w, `{}`)
		default:
			created = true
			io.WriteString(w, `{}`)
		}
	}))

	err := client.SendMessageToBuyer(context.Background(), "tok", "123", "7", "your reading")
	if err != nil {
		t.Fatalf("SendMessageToBuyer: %v", err)
	}
	if !sent {
		t.Fatal("expected message sent to existing conversation")
	}
	if created {
		t.Fatal("should not create conversation when one exists")
	}
}

func TestSendMessageToBuyerCreatesConversation(t *testing.T) {
	var created bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `{"count": 0, "results": []}`)
		default:
			created = true
			if got := r.FormValue("recipient_user_id"); got != "7" {
				t.Errorf("unexpected recipient %q", got)
			}
			if got := r.FormValue("message"); got != "your reading" {
				t.Errorf("unexpected message %q", got)
			}
			io.WriteString(w, `{"conversation_id": 56}`)
		}
	}))

	err := client.SendMessageToBuyer(context.Background(), "tok", "123", "7", "your reading")
	if err != nil {
		t.Fatalf("SendMessageToBuyer: %v", err)
	}
	if !created {
		t.Fatal("expected conversation to be created")
	}
}

func TestGetUserShops(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/application/users/me/shops" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `{"count": 1, "results": [{"shop_id": 123, "shop_name": "Esamind"}]}`)
	}))

	shops, err := client.GetUserShops(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetUserShops: %v", err)
	}
	if len(shops) != 1 {
		t.Fatalf("expected 1 shop, got %d", len(shops))
	}
	if shops[0].ShopID != 123 || shops[0].ShopName != "Esamind" {
		t.Fatalf("unexpected shop %+v", shops[0])
	}
}

func TestExchangeCode(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/public/oauth/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.FormValue("grant_type"); got != "authorization_code" {
			t.Errorf("unexpected grant type %q", got)
		}
		io.WriteString(w, `{"access_token": "at", "refresh_token": "rt"}`)
	}))

	tokens, err := client.ExchangeCode(context.Background(), "the-code", "verifier")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if tokens.AccessToken != "at" || tokens.RefreshToken != "rt" {
		t.Fatalf("unexpected tokens %+v", tokens)
	}
}
