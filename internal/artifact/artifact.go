// Package artifact persists and loads the matched vectorizer and
// classifier produced by one training run.
package artifact

import (
	"fmt"
	"time"

	"threatcat/internal/classifier"
	"threatcat/internal/features"
	"threatcat/internal/models"
	"threatcat/internal/vectorizer"
)

// FormatVersion is bumped whenever the on-disk schema changes. Files
// written with another version are rejected.
const FormatVersion = 1

const (
	KindVectorizer = "tfidf_vectorizer"
	KindClassifier = "logistic_regression"
)

// Header is stamped on both files of a pair.
type Header struct {
	Kind          string    `json:"kind"`
	FormatVersion int       `json:"format_version"`
	RunID         string    `json:"run_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type vectorizerFile struct {
	Header
	State vectorizer.State `json:"state"`
}

type classifierFile struct {
	Header
	State classifier.State `json:"state"`
}

// A Pair is a vectorizer and a classifier from the same training run.
// The zero Pair is unfitted.
type Pair struct {
	RunID      string
	CreatedAt  time.Time
	Vectorizer *vectorizer.Vectorizer
	Classifier *classifier.Model
}

// NewPair checks that the classifier was fit on vectors of the
// vectorizer's dimension.
func NewPair(runID string, createdAt time.Time, vec *vectorizer.Vectorizer, clf *classifier.Model) (*Pair, error) {
	if vec == nil || clf == nil {
		return nil, models.ErrNotFitted
	}
	if vec.Dim() != clf.Dim {
		return nil, fmt.Errorf("%w: vocabulary has %d terms, classifier expects %d",
			models.ErrDimensionMismatch, vec.Dim(), clf.Dim)
	}
	return &Pair{RunID: runID, CreatedAt: createdAt, Vectorizer: vec, Classifier: clf}, nil
}

// Predict runs text through the vectorizer and then the classifier.
func (p *Pair) Predict(text string) (string, error) {
	labels, err := p.PredictBatch([]string{text})
	if err != nil {
		return "", err
	}
	return labels[0], nil
}

// PredictBatch predicts every text, keeping input order.
func (p *Pair) PredictBatch(texts []string) ([]string, error) {
	vecs, err := p.transform(texts)
	if err != nil {
		return nil, err
	}
	return p.Classifier.PredictBatch(vecs)
}

func (p *Pair) transform(texts []string) ([]features.Vector, error) {
	if p == nil || p.Vectorizer == nil || p.Classifier == nil {
		return nil, models.ErrNotFitted
	}
	return p.Vectorizer.Transform(texts)
}
