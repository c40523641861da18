package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"threatcat/internal/models"
	"threatcat/internal/store"
	"threatcat/internal/util"
	"threatcat/pkg/categorizer"
)

var ErrHistoryDisabled = errors.New("prediction history is disabled")

type PredictionService struct {
	categorizer categorizer.ThreatCategorizer
	history     store.PredictionStore // nil disables history
}

func NewPredictionService(c categorizer.ThreatCategorizer, history store.PredictionStore) *PredictionService {
	return &PredictionService{categorizer: c, history: history}
}

// Analyze predicts the category of text and records the prediction when
// a history store is configured. A failure to record is logged and does
// not fail the prediction.
func (s *PredictionService) Analyze(ctx context.Context, text string) (*models.Prediction, error) {
	text = util.CleanText(text, "request")
	res, err := s.categorizer.Categorize(ctx, text)
	if err != nil {
		return nil, err
	}

	p := &models.Prediction{
		ID:        uuid.New(),
		Text:      text,
		Category:  res.Category,
		Severity:  res.Severity,
		RunID:     res.RunID,
		CreatedAt: time.Now().UTC(),
	}
	if s.history != nil {
		if err := s.history.RecordPrediction(ctx, p); err != nil {
			log.Errorf("Failed to record prediction %s: %v", p.ID, err)
		}
	}
	return p, nil
}

func (s *PredictionService) ListRecent(ctx context.Context, limit, offset int) ([]*models.Prediction, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.ListPredictions(ctx, limit, offset)
}

func (s *PredictionService) Get(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.GetPrediction(ctx, id)
}

// Stats returns the number of recorded predictions per category.
func (s *PredictionService) Stats(ctx context.Context) (map[string]int, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.CategoryCounts(ctx)
}
