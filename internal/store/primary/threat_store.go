package primary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"threatcat/internal/models"
	"threatcat/internal/store"
)

// --- Threat Store Implementation ---

const threatColumns = `id, category, text, iocs, threat_actor, attack_vector, location,
		sentiment, severity_score, predicted_category, defense_mechanism, risk_level,
		keywords, named_entities, topic_labels, word_count, created_at`

func (s *StoreImpl) InsertThreats(ctx context.Context, threats []*models.Threat, replace bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM threats`); err != nil {
			return fmt.Errorf("failed to clear threats: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO threats (category, text, iocs, threat_actor, attack_vector, location,
			sentiment, severity_score, predicted_category, defense_mechanism, risk_level,
			keywords, named_entities, topic_labels, word_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`))
	if err != nil {
		return fmt.Errorf("failed to prepare threat insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, t := range threats {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.CreatedAt = t.CreatedAt.UTC()
		err := stmt.QueryRowContext(ctx,
			t.Category, t.Text, t.IOCs, t.ThreatActor, t.AttackVector, t.Location,
			t.Sentiment, t.SeverityScore, t.PredictedCategory, t.SuggestedDefenseMechanism, t.RiskLevel,
			t.Keywords, t.NamedEntities, t.TopicLabels, t.WordCount, t.CreatedAt,
		).Scan(&t.ID)
		if err != nil {
			return fmt.Errorf("failed to insert threat: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit threats: %w", err)
	}
	return nil
}

func (s *StoreImpl) ListThreats(ctx context.Context, f store.ThreatFilter) ([]*models.Threat, int, error) {
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	where, args := threatWhere(f)
	var total int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM threats`+where), args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count threats: %w", err)
	}

	order := "DESC"
	if f.Ascending {
		order = "ASC"
	}
	query := s.rebind(fmt.Sprintf(`
		SELECT %s
		FROM threats%s
		ORDER BY created_at %s, id %s
		LIMIT ? OFFSET ?`, threatColumns, where, order, order))

	rows, err := s.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list threats: %w", err)
	}
	defer rows.Close()

	threats := []*models.Threat{}
	for rows.Next() {
		t := &models.Threat{}
		if err := scanThreat(rows, t); err != nil {
			return nil, 0, fmt.Errorf("failed to scan threat row: %w", err)
		}
		threats = append(threats, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating threat rows: %w", err)
	}
	return threats, total, nil
}

func (s *StoreImpl) GetThreat(ctx context.Context, id int64) (*models.Threat, error) {
	query := s.rebind(`SELECT ` + threatColumns + ` FROM threats WHERE id = ?`)

	t := &models.Threat{}
	if err := scanThreat(s.db.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("threat %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get threat %d: %w", id, err)
	}
	return t, nil
}

func (s *StoreImpl) ThreatStats(ctx context.Context) (*models.ThreatStats, error) {
	stats := &models.ThreatStats{
		CategoryCounts: []models.CategoryCount{},
		SeverityCounts: []models.SeverityCount{},
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM threats`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count threats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM threats GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count threat categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.CategoryCounts = append(stats.CategoryCounts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category counts: %w", err)
	}

	sevRows, err := s.db.QueryContext(ctx, `
		SELECT severity_score, COUNT(*) FROM threats GROUP BY severity_score ORDER BY severity_score`)
	if err != nil {
		return nil, fmt.Errorf("failed to count threat severities: %w", err)
	}
	defer sevRows.Close()
	for sevRows.Next() {
		var c models.SeverityCount
		if err := sevRows.Scan(&c.Severity, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan severity count: %w", err)
		}
		stats.SeverityCounts = append(stats.SeverityCounts, c)
	}
	if err := sevRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating severity counts: %w", err)
	}
	return stats, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// threatWhere builds the WHERE clause shared by the count and page queries.
func threatWhere(f store.ThreatFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Category != "" {
		conds = append(conds, `LOWER(category) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(f.Category))+"%")
	}
	if f.Search != "" {
		conds = append(conds, `LOWER(text) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(f.Search))+"%")
	}
	if f.Severity != nil {
		conds = append(conds, `severity_score = ?`)
		args = append(args, *f.Severity)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanThreat expects the column order of threatColumns.
func scanThreat(row rowScanner, dest *models.Threat) error {
	return row.Scan(
		&dest.ID,
		&dest.Category,
		&dest.Text,
		&dest.IOCs,
		&dest.ThreatActor,
		&dest.AttackVector,
		&dest.Location,
		&dest.Sentiment,
		&dest.SeverityScore,
		&dest.PredictedCategory,
		&dest.SuggestedDefenseMechanism,
		&dest.RiskLevel,
		&dest.Keywords,
		&dest.NamedEntities,
		&dest.TopicLabels,
		&dest.WordCount,
		&dest.CreatedAt,
	)
}

// Ensure StoreImpl satisfies the ThreatStore interface
var _ store.ThreatStore = (*StoreImpl)(nil)
