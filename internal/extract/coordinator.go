package extract

import (
	"context"

	"go.uber.org/zap"

	"github.com/curiobot/curio/internal/curio"
)

// Coordinator routes a URL to the extractor for its category and falls back
// to the generic extractor on a recoverable failure. Every failure that
// escapes it is part of the ExtractionError taxonomy, so downstream code has
// exactly one error type to branch on.
type Coordinator struct {
	extractors map[curio.Category]curio.Extractor
	generic    curio.Extractor
	logger     *zap.Logger
}

// NewCoordinator wires the per-category extractors and the generic fallback.
func NewCoordinator(extractors map[curio.Category]curio.Extractor, generic curio.Extractor, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		extractors: extractors,
		generic:    generic,
		logger:     logger,
	}
}

// Extract normalizes and classifies the URL, runs the matched extractor, and
// retries once with the generic extractor before giving up. The returned
// envelope carries the classified category even when the fallback produced it.
func (c *Coordinator) Extract(ctx context.Context, rawURL string) (curio.ContentEnvelope, error) {
	normalized, err := curio.NormalizeURL(rawURL)
	if err != nil {
		return curio.ContentEnvelope{}, curio.NewExtractionError(rawURL, err)
	}
	category := curio.Classify(normalized)

	extractor, ok := c.extractors[category]
	if !ok {
		extractor = c.generic
	}

	envelope, err := extractor.Extract(ctx, normalized)
	if err == nil {
		envelope.Category = category
		return envelope, nil
	}

	firstErr := curio.NewExtractionError(normalized, err)
	if extractor == c.generic {
		return curio.ContentEnvelope{}, firstErr
	}

	c.logger.Warn("extractor failed, retrying with generic",
		zap.String("url", normalized),
		zap.String("category", string(category)),
		zap.Error(err),
	)

	envelope, err = c.generic.Extract(ctx, normalized)
	if err != nil {
		// Keep the first error: it names the extractor that actually matched.
		return curio.ContentEnvelope{}, firstErr
	}
	envelope.Category = category
	return envelope, nil
}
