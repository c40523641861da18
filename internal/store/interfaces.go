package store

import (
	"context"

	"github.com/google/uuid"

	"threatcat/internal/models"
)

// --- Prediction History Store ---

type PredictionStore interface {
	RecordPrediction(ctx context.Context, p *models.Prediction) error
	GetPrediction(ctx context.Context, id uuid.UUID) (*models.Prediction, error)
	// ListPredictions returns the most recent predictions first.
	ListPredictions(ctx context.Context, limit, offset int) ([]*models.Prediction, error)
	// CategoryCounts returns how often each category was predicted.
	CategoryCounts(ctx context.Context) (map[string]int, error)
	Ping(ctx context.Context) error
	Close() error
}

// --- Threat Catalog Store ---

// ThreatFilter selects a page of ingested threats. Category and Search
// match case-insensitive substrings; Severity, when set, must match the
// severity score exactly.
type ThreatFilter struct {
	Category  string
	Search    string
	Severity  *float64
	Ascending bool // oldest first; newest first otherwise
	Limit     int
	Offset    int
}

type ThreatStore interface {
	// InsertThreats stores threats in one transaction and assigns their
	// IDs. With replace set, existing threats are deleted first.
	InsertThreats(ctx context.Context, threats []*models.Threat, replace bool) error
	// ListThreats returns one page of matches and the total match count.
	ListThreats(ctx context.Context, f ThreatFilter) ([]*models.Threat, int, error)
	GetThreat(ctx context.Context, id int64) (*models.Threat, error)
	ThreatStats(ctx context.Context) (*models.ThreatStats, error)
}
