package prompts

import (
	"context"
	"errors"
	"log/slog"

	"esamind/internal/repo"
)

// PromptStore is the slice of the repository the resolver needs.
type PromptStore interface {
	GetPromptByCode(ctx context.Context, productCode string) (*repo.Prompt, error)
}

// Resolver turns a product code plus buyer input into the final prompt text.
// Sources are tried in priority order: stored template, hand-written builder,
// category autogeneration.
type Resolver struct {
	store  PromptStore
	logger *slog.Logger
}

func NewResolver(store PromptStore, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger.With("component", "prompts"),
	}
}

// Resolve returns the prompt for productCode. A stored template wins over a
// builder, a builder wins over autogeneration. Store errors other than
// not-found are logged and treated as a miss so a flaky database never blocks
// a reading.
func (r *Resolver) Resolve(ctx context.Context, productCode string, in Input) (string, error) {
	stored, err := r.store.GetPromptByCode(ctx, productCode)
	switch {
	case err == nil:
		r.logger.Debug("using stored template", "product_code", productCode)
		return RenderTemplate(stored.Template, in), nil
	case errors.Is(err, repo.ErrNotFound):
		// fall through
	default:
		r.logger.Warn("prompt lookup failed, falling back", "product_code", productCode, "error", err)
	}

	if builder, ok := builders[productCode]; ok {
		r.logger.Debug("using builder", "product_code", productCode)
		return builder(in), nil
	}

	r.logger.Debug("autogenerating prompt", "product_code", productCode)
	return Generate(productCode, in)
}
