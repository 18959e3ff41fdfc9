package prompts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"esamind/internal/catalog"
	"esamind/internal/repo"
)

// PromptSeeder is the slice of the repository seeding needs.
type PromptSeeder interface {
	UpsertPrompt(ctx context.Context, prompt repo.Prompt) error
	CountPrompts(ctx context.Context) (int64, error)
}

const (
	markerName     = "SEED_NAME_MARKER"
	markerAge      = "SEED_AGE_MARKER"
	markerQuestion = "SEED_QUESTION_MARKER"
	markerRaw      = "SEED_RAW_MARKER"
)

// Seed writes every hand-written builder into the prompts table as a stored
// template, keyed by product code. The builder is rendered with marker values
// which are then swapped back to template placeholders, so the stored row is
// editable and round-trips through RenderTemplate.
func Seed(ctx context.Context, store PromptSeeder, logger *slog.Logger) error {
	logger = logger.With("component", "prompt_seed")

	var seeded int
	for code, builder := range builders {
		product, ok := catalog.Lookup(code)
		if !ok {
			logger.Warn("builder without catalog entry skipped", "product_code", code)
			continue
		}

		template := extractTemplate(builder)
		err := store.UpsertPrompt(ctx, repo.Prompt{
			ProductCode: code,
			Template:    template,
			Category:    string(product.Category),
			IsCustom:    true,
		})
		if err != nil {
			return fmt.Errorf("seed prompt %s: %w", code, err)
		}
		seeded++
	}

	total, err := store.CountPrompts(ctx)
	if err != nil {
		return fmt.Errorf("count prompts: %w", err)
	}
	logger.Info("prompt templates seeded", "seeded", seeded, "total", total)
	return nil
}

func extractTemplate(builder Builder) string {
	rendered := builder(Input{
		Name:     markerName,
		Age:      markerAge,
		Question: markerQuestion,
		Raw:      markerRaw,
	})

	replacer := strings.NewReplacer(
		markerName, placeholderName,
		markerAge, placeholderAge,
		markerQuestion, placeholderQuestion,
		markerRaw, placeholderRaw,
	)
	return replacer.Replace(rendered)
}
