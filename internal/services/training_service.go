package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"threatcat/internal/artifact"
	"threatcat/internal/classifier"
	"threatcat/internal/dataset"
	"threatcat/internal/vectorizer"
)

// ArtifactSaver persists a trained pair.
type ArtifactSaver interface {
	Save(p *artifact.Pair) error
}

// TrainResult describes one completed training run.
type TrainResult struct {
	RunID          string
	Examples       int
	Skipped        int
	VocabularySize int
	Classes        []string
	Report         *classifier.Report
	Duration       time.Duration
}

type TrainingService struct {
	source    dataset.Source
	artifacts ArtifactSaver
	vecOpts   vectorizer.Options
	clfOpts   classifier.Options
	now       func() time.Time
}

func NewTrainingService(src dataset.Source, artifacts ArtifactSaver, vecOpts vectorizer.Options, clfOpts classifier.Options) *TrainingService {
	return &TrainingService{
		source:    src,
		artifacts: artifacts,
		vecOpts:   vecOpts,
		clfOpts:   clfOpts,
		now:       time.Now,
	}
}

// Train loads the dataset, fits the vectorizer on every example, fits
// the classifier on its training split and saves the pair. Nothing is
// saved unless every step succeeds.
func (s *TrainingService) Train(ctx context.Context) (*TrainResult, error) {
	start := s.now()
	runID := uuid.New().String()
	logger := log.WithField("run_id", runID)

	ds, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	logger.Infof("Training on %d examples from %s", len(ds.Examples), s.source)

	vec, err := vectorizer.Fit(ds.Texts(), s.vecOpts)
	if err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	logger.Infof("Vocabulary has %d terms", vec.Dim())

	vecs, err := vec.Transform(ds.Texts())
	if err != nil {
		return nil, fmt.Errorf("transform dataset: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clf, report, err := classifier.Fit(vecs, ds.Categories(), s.clfOpts)
	if err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}
	logger.Infof("Held-out accuracy %.4f on %d examples", report.Accuracy, report.TestSize)

	pair, err := artifact.NewPair(runID, start, vec, clf)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.artifacts.Save(pair); err != nil {
		return nil, fmt.Errorf("save artifacts: %w", err)
	}

	return &TrainResult{
		RunID:          runID,
		Examples:       len(ds.Examples),
		Skipped:        ds.Skipped,
		VocabularySize: vec.Dim(),
		Classes:        clf.Classes,
		Report:         report,
		Duration:       s.now().Sub(start),
	}, nil
}
