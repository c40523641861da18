package categorizer

import (
	"context"

	"threatcat/internal/artifact"
	"threatcat/internal/models"
)

// CategorizationResult holds the predicted category of one description.
type CategorizationResult struct {
	Category string
	Severity models.Severity
	// RunID identifies the training run that produced the model.
	RunID string
}

// ThreatCategorizer categorizes threat descriptions
type ThreatCategorizer interface {
	Categorize(ctx context.Context, text string) (CategorizationResult, error)
}

// PairLoader supplies the artifact pair used for one prediction.
type PairLoader interface {
	Load() (*artifact.Pair, error)
}
