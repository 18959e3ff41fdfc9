package readings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"esamind/internal/metrics"
	"esamind/internal/openai"
	"esamind/internal/prompts"
	"esamind/internal/repo"
)

// ErrOrderNotFound is returned when the order id does not exist.
var ErrOrderNotFound = errors.New("order not found")

// ErrReadingMissing is returned when delivery is requested before a reading
// has been generated.
var ErrReadingMissing = errors.New("order has no reading yet")

// Store is the slice of the repository the generator needs.
type Store interface {
	GetOrderWithShop(ctx context.Context, id string) (*repo.Order, error)
	UpdateOrderReading(ctx context.Context, id, readingText string, usage repo.Usage) error
	UpdateOrderStatus(ctx context.Context, id, status string) error
}

// TextGenerator produces reading text from a prompt.
type TextGenerator interface {
	GenerateReading(ctx context.Context, prompt string) (*openai.Completion, error)
}

// PromptResolver turns a product code plus buyer input into prompt text.
type PromptResolver interface {
	Resolve(ctx context.Context, productCode string, in prompts.Input) (string, error)
}

// Messenger delivers text to a buyer through the marketplace.
type Messenger interface {
	SendMessageToBuyer(ctx context.Context, accessToken, shopID, buyerUserID, message string) error
}

// Generator orchestrates reading generation and delivery for orders.
type Generator struct {
	logger    *slog.Logger
	store     Store
	resolver  PromptResolver
	generator TextGenerator
	messenger Messenger
	metrics   *metrics.Metrics
}

func NewGenerator(store Store, resolver PromptResolver, generator TextGenerator, messenger Messenger, logger *slog.Logger, m *metrics.Metrics) *Generator {
	return &Generator{
		logger:    logger.With("component", "readings"),
		store:     store,
		resolver:  resolver,
		generator: generator,
		messenger: messenger,
		metrics:   m,
	}
}

// GenerateForOrder generates a reading for the order, persists it together
// with usage accounting, then attempts delivery. Delivery is best effort: the
// order stays GENERATED when sending fails or buyer details are missing, and
// the generated text is returned either way. Calling it again on an already
// generated order produces a fresh reading and overwrites the stored one.
func (g *Generator) GenerateForOrder(ctx context.Context, orderID string) (string, error) {
	order, err := g.loadOrder(ctx, orderID)
	if err != nil {
		return "", err
	}

	in := prompts.Input{
		Name:     order.Name,
		Age:      order.Age,
		Question: order.Question,
		Raw:      order.Personalization,
	}

	prompt, err := g.resolver.Resolve(ctx, order.ProductCode, in)
	if err != nil {
		g.observe("prompt_error")
		return "", fmt.Errorf("resolve prompt: %w", err)
	}

	g.logger.Info("generating reading", "order_id", orderID, "product_code", order.ProductCode)
	completion, err := g.generator.GenerateReading(ctx, prompt)
	if err != nil {
		g.observe("generation_error")
		return "", fmt.Errorf("generate reading: %w", err)
	}

	usage := repo.Usage{
		Model:        completion.Usage.Model,
		InputTokens:  completion.Usage.InputTokens,
		OutputTokens: completion.Usage.OutputTokens,
		TotalTokens:  completion.Usage.TotalTokens,
		Cost:         completion.Usage.Cost,
	}
	if err := g.store.UpdateOrderReading(ctx, order.ID, completion.Content, usage); err != nil {
		g.observe("store_error")
		return "", fmt.Errorf("store reading: %w", err)
	}
	g.observe("ok")
	g.logger.Info("reading generated", "order_id", orderID,
		"tokens", usage.TotalTokens, "cost", usage.Cost, "length", len(completion.Content))

	g.deliver(ctx, order, completion.Content)
	return completion.Content, nil
}

// deliver sends the reading to the buyer and flips the order to SENT on
// success. Failures are logged only so a delivery problem never loses the
// generated text.
func (g *Generator) deliver(ctx context.Context, order *repo.Order, readingText string) {
	if order.BuyerUserID == "" || order.Shop == nil || order.Shop.EtsyShopID == "" {
		g.logger.Warn("skipping delivery, buyer or shop details missing",
			"order_id", order.ID,
			"has_buyer", order.BuyerUserID != "",
			"has_shop", order.Shop != nil && order.Shop.EtsyShopID != "")
		return
	}

	err := g.messenger.SendMessageToBuyer(ctx, order.Shop.AccessToken, order.Shop.EtsyShopID, order.BuyerUserID, readingText)
	if err != nil {
		g.logger.Error("delivery failed, order stays generated", "order_id", order.ID, "error", err)
		return
	}

	if err := g.store.UpdateOrderStatus(ctx, order.ID, repo.StatusSent); err != nil {
		g.logger.Error("mark sent failed after delivery", "order_id", order.ID, "error", err)
		return
	}
	g.logger.Info("reading delivered", "order_id", order.ID)
}

// SendToBuyer delivers the stored reading of an order manually and marks the
// order SENT. It requires a generated reading.
func (g *Generator) SendToBuyer(ctx context.Context, orderID string) error {
	order, err := g.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.ReadingText == nil || *order.ReadingText == "" {
		return fmt.Errorf("order %s: %w", orderID, ErrReadingMissing)
	}
	if order.BuyerUserID == "" || order.Shop == nil || order.Shop.EtsyShopID == "" {
		return fmt.Errorf("order %s has no buyer or shop to deliver to", orderID)
	}

	err = g.messenger.SendMessageToBuyer(ctx, order.Shop.AccessToken, order.Shop.EtsyShopID, order.BuyerUserID, *order.ReadingText)
	if err != nil {
		return fmt.Errorf("send reading: %w", err)
	}
	if err := g.store.UpdateOrderStatus(ctx, order.ID, repo.StatusSent); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	g.logger.Info("reading re-sent to buyer", "order_id", orderID)
	return nil
}

// MarkSent flips the order to SENT without contacting the marketplace, for
// readings delivered out of band.
func (g *Generator) MarkSent(ctx context.Context, orderID string) error {
	if err := g.store.UpdateOrderStatus(ctx, orderID, repo.StatusSent); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
		}
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

func (g *Generator) loadOrder(ctx context.Context, orderID string) (*repo.Order, error) {
	order, err := g.store.GetOrderWithShop(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}

func (g *Generator) observe(status string) {
	if g.metrics == nil {
		return
	}
	g.metrics.ReadingsGenerated.WithLabelValues(status).Inc()
}
