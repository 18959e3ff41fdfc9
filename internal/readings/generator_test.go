package readings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"esamind/internal/openai"
	"esamind/internal/prompts"
	"esamind/internal/repo"
)

type fakeStore struct {
	orders   map[string]*repo.Order
	readings map[string]string
	statuses map[string]string
}

func newFakeStore(orders ...*repo.Order) *fakeStore {
	s := &fakeStore{
		orders:   map[string]*repo.Order{},
		readings: map[string]string{},
		statuses: map[string]string{},
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *fakeStore) GetOrderWithShop(_ context.Context, id string) (*repo.Order, error) {
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return nil, repo.ErrNotFound
}

func (s *fakeStore) UpdateOrderReading(_ context.Context, id, readingText string, _ repo.Usage) error {
	if _, ok := s.orders[id]; !ok {
		return repo.ErrNotFound
	}
	s.readings[id] = readingText
	s.statuses[id] = repo.StatusGenerated
	return nil
}

func (s *fakeStore) UpdateOrderStatus(_ context.Context, id, status string) error {
	if _, ok := s.orders[id]; !ok {
		return repo.ErrNotFound
	}
	s.statuses[id] = status
	return nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, _ string, _ prompts.Input) (string, error) {
	return "the prompt", nil
}

type fakeTextGen struct {
	err error
}

func (f *fakeTextGen) GenerateReading(_ context.Context, _ string) (*openai.Completion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &openai.Completion{
		Content: "a generated reading",
		Usage:   openai.Usage{Model: "gpt-4o", InputTokens: 10, OutputTokens: 20, TotalTokens: 30, Cost: 0.01},
	}, nil
}

type fakeMessenger struct {
	err   error
	calls int
}

func (f *fakeMessenger) SendMessageToBuyer(_ context.Context, _, _, _, _ string) error {
	f.calls++
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOrder() *repo.Order {
	return &repo.Order{
		ID:          "order-1",
		BuyerUserID: "7",
		ProductCode: "tarot_3_card",
		Status:      repo.StatusPending,
		Shop:        &repo.Shop{ID: "shop-1", EtsyShopID: "123", AccessToken: "tok"},
	}
}

func TestGenerateForOrderDelivers(t *testing.T) {
	store := newFakeStore(testOrder())
	messenger := &fakeMessenger{}
	g := NewGenerator(store, fakeResolver{}, &fakeTextGen{}, messenger, testLogger(), nil)

	text, err := g.GenerateForOrder(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}
	if text != "a generated reading" {
		t.Fatalf("unexpected reading %q", text)
	}
	if store.readings["order-1"] != "a generated reading" {
		t.Fatal("reading not persisted")
	}
	if messenger.calls != 1 {
		t.Fatalf("expected 1 delivery, got %d", messenger.calls)
	}
	if store.statuses["order-1"] != repo.StatusSent {
		t.Fatalf("expected SENT, got %s", store.statuses["order-1"])
	}
}

func TestGenerateForOrderDeliveryFailureStaysGenerated(t *testing.T) {
	store := newFakeStore(testOrder())
	messenger := &fakeMessenger{err: errors.New("etsy down")}
	g := NewGenerator(store, fakeResolver{}, &fakeTextGen{}, messenger, testLogger(), nil)

	text, err := g.GenerateForOrder(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}
	if text == "" {
		t.Fatal("expected reading text despite delivery failure")
	}
	if store.statuses["order-1"] != repo.StatusGenerated {
		t.Fatalf("expected GENERATED, got %s", store.statuses["order-1"])
	}
}

func TestGenerateForOrderMissingBuyerSkipsDelivery(t *testing.T) {
	order := testOrder()
	order.BuyerUserID = ""
	store := newFakeStore(order)
	messenger := &fakeMessenger{}
	g := NewGenerator(store, fakeResolver{}, &fakeTextGen{}, messenger, testLogger(), nil)

	_, err := g.GenerateForOrder(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("GenerateForOrder: %v", err)
	}
	if messenger.calls != 0 {
		t.Fatal("should not attempt delivery without buyer id")
	}
	if store.statuses["order-1"] != repo.StatusGenerated {
		t.Fatalf("expected GENERATED, got %s", store.statuses["order-1"])
	}
}

func TestGenerateForOrderNotFound(t *testing.T) {
	g := NewGenerator(newFakeStore(), fakeResolver{}, &fakeTextGen{}, &fakeMessenger{}, testLogger(), nil)

	_, err := g.GenerateForOrder(context.Background(), "missing")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestGenerateForOrderGenerationError(t *testing.T) {
	store := newFakeStore(testOrder())
	g := NewGenerator(store, fakeResolver{}, &fakeTextGen{err: openai.ErrRateLimited}, &fakeMessenger{}, testLogger(), nil)

	_, err := g.GenerateForOrder(context.Background(), "order-1")
	if !errors.Is(err, openai.ErrRateLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if _, ok := store.readings["order-1"]; ok {
		t.Fatal("no reading should be stored on generation failure")
	}
}

func TestSendToBuyerRequiresReading(t *testing.T) {
	store := newFakeStore(testOrder())
	g := NewGenerator(store, fakeResolver{}, &fakeTextGen{}, &fakeMessenger{}, testLogger(), nil)

	err := g.SendToBuyer(context.Background(), "order-1")
	if !errors.Is(err, ErrReadingMissing) {
		t.Fatalf("expected ErrReadingMissing, got %v", err)
	}
}

func TestSendToBuyerMarksSent(t *testing.T) {
	order := testOrder()
	reading := "stored reading"
	order.ReadingText = &reading
	store := newFakeStore(order)
	messenger := &fakeMessenger{}
	g := NewGenerator(store, fakeResolver{}, &fakeTextGen{}, messenger, testLogger(), nil)

	if err := g.SendToBuyer(context.Background(), "order-1"); err != nil {
		t.Fatalf("SendToBuyer: %v", err)
	}
	if messenger.calls != 1 {
		t.Fatalf("expected 1 delivery, got %d", messenger.calls)
	}
	if store.statuses["order-1"] != repo.StatusSent {
		t.Fatalf("expected SENT, got %s", store.statuses["order-1"])
	}
}

func TestMarkSent(t *testing.T) {
	store := newFakeStore(testOrder())
	g := NewGenerator(store, fakeResolver{}, &fakeTextGen{}, &fakeMessenger{}, testLogger(), nil)

	if err := g.MarkSent(context.Background(), "order-1"); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if store.statuses["order-1"] != repo.StatusSent {
		t.Fatalf("expected SENT, got %s", store.statuses["order-1"])
	}

	if err := g.MarkSent(context.Background(), "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
