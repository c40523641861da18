package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatcat/internal/models"
	"threatcat/internal/store/primary"
	"threatcat/pkg/categorizer"
)

type stubCategorizer struct {
	result categorizer.CategorizationResult
	err    error
	seen   []string
}

func (s *stubCategorizer) Categorize(ctx context.Context, text string) (categorizer.CategorizationResult, error) {
	s.seen = append(s.seen, text)
	return s.result, s.err
}

func TestPredictionServiceAnalyzeRecords(t *testing.T) {
	history, err := primary.NewPrimaryStore(context.Background(), primary.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer history.Close()

	stub := &stubCategorizer{result: categorizer.CategorizationResult{
		Category: "Phishing", Severity: models.SeverityHigh, RunID: "run-1",
	}}
	svc := NewPredictionService(stub, history)

	p, err := svc.Analyze(context.Background(), "  spoofed\nlogin page ")
	require.NoError(t, err)
	assert.Equal(t, "Phishing", p.Category)
	assert.Equal(t, "spoofed login page", p.Text)
	assert.Equal(t, []string{"spoofed login page"}, stub.seen)

	recent, err := svc.ListRecent(context.Background(), 5, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, p.ID, recent[0].ID)

	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityHigh, got.Severity)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Phishing": 1}, stats)
}

func TestPredictionServiceAnalyzeError(t *testing.T) {
	stub := &stubCategorizer{err: models.ErrArtifactLoad}
	svc := NewPredictionService(stub, nil)

	_, err := svc.Analyze(context.Background(), "text")
	assert.True(t, errors.Is(err, models.ErrArtifactLoad))
}

func TestPredictionServiceWithoutHistory(t *testing.T) {
	stub := &stubCategorizer{result: categorizer.CategorizationResult{Category: "DDoS", Severity: models.SeverityMedium}}
	svc := NewPredictionService(stub, nil)

	p, err := svc.Analyze(context.Background(), "syn flood")
	require.NoError(t, err)
	assert.Equal(t, "DDoS", p.Category)

	_, err = svc.ListRecent(context.Background(), 5, 0)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}
