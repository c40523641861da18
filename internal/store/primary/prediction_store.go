package primary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"threatcat/internal/models"
	"threatcat/internal/store"
)

// --- Prediction Store Implementation ---

func (s *StoreImpl) RecordPrediction(ctx context.Context, p *models.Prediction) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.CreatedAt = p.CreatedAt.UTC()

	query := s.rebind(`
		INSERT INTO predictions (id, text, category, severity, run_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Text, p.Category, string(p.Severity), p.RunID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record prediction: %w", err)
	}
	return nil
}

func (s *StoreImpl) GetPrediction(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	query := s.rebind(`
		SELECT id, text, category, severity, run_id, created_at
		FROM predictions
		WHERE id = ?`)

	p := &models.Prediction{}
	err := scanPrediction(s.db.QueryRowContext(ctx, query, id), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("prediction %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get prediction %s: %w", id, err)
	}
	return p, nil
}

func (s *StoreImpl) ListPredictions(ctx context.Context, limit, offset int) ([]*models.Prediction, error) {
	if limit <= 0 {
		limit = 20 // Default limit
	}
	if offset < 0 {
		offset = 0
	}
	query := s.rebind(`
		SELECT id, text, category, severity, run_id, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`)

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	predictions := []*models.Prediction{}
	for rows.Next() {
		p := &models.Prediction{}
		if err := scanPrediction(rows, p); err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction rows: %w", err)
	}
	return predictions, nil
}

func (s *StoreImpl) CategoryCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM predictions GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count predictions: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[category] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category counts: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPrediction expects the column order of the SELECTs above.
func scanPrediction(row rowScanner, dest *models.Prediction) error {
	var severity string
	err := row.Scan(
		&dest.ID,
		&dest.Text,
		&dest.Category,
		&severity,
		&dest.RunID,
		&dest.CreatedAt,
	)
	dest.Severity = models.Severity(severity)
	return err
}

// Ensure StoreImpl satisfies the PredictionStore interface
var _ store.PredictionStore = (*StoreImpl)(nil)
