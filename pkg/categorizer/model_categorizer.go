package categorizer

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"threatcat/internal/models"
)

// ModelCategorizer implements ThreatCategorizer
// on top of a trained artifact pair
type ModelCategorizer struct {
	loader PairLoader
}

// NewModelCategorizer creates a categorizer that loads the artifact pair
// from loader on every call. No pair is kept between calls.
func NewModelCategorizer(loader PairLoader) *ModelCategorizer {
	return &ModelCategorizer{loader: loader}
}

func (c *ModelCategorizer) Categorize(ctx context.Context, text string) (CategorizationResult, error) {
	if strings.TrimSpace(text) == "" {
		return CategorizationResult{}, fmt.Errorf("%w: description is empty", models.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return CategorizationResult{}, err
	}
	if c.loader == nil {
		return CategorizationResult{}, models.ErrNotFitted
	}

	pair, err := c.loader.Load()
	if err != nil {
		return CategorizationResult{}, fmt.Errorf("load model: %w", err)
	}
	category, err := pair.Predict(text)
	if err != nil {
		return CategorizationResult{}, fmt.Errorf("predict: %w", err)
	}

	res := CategorizationResult{
		Category: category,
		Severity: models.SeverityForCategory(category),
		RunID:    pair.RunID,
	}
	log.Debugf("Categorized description as %s (severity %s, run %s)", res.Category, res.Severity, res.RunID)
	return res, nil
}
