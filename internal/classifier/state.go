package classifier

import (
	"fmt"
	"sort"

	"threatcat/internal/models"
)

// State is the persisted form of a Model.
type State struct {
	Classes []string    `json:"classes"`
	Dim     int         `json:"dim"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// State returns the persisted form of m.
func (m *Model) State() (State, error) {
	if m == nil || len(m.Classes) == 0 {
		return State{}, models.ErrNotFitted
	}
	s := State{
		Classes: append([]string(nil), m.Classes...),
		Dim:     m.Dim,
		Weights: make([][]float64, len(m.Weights)),
		Bias:    append([]float64(nil), m.Bias...),
	}
	for k, row := range m.Weights {
		s.Weights[k] = append([]float64(nil), row...)
	}
	return s, nil
}

// FromState rebuilds a Model. A state whose shapes disagree yields
// ErrArtifactLoad.
func FromState(s State) (*Model, error) {
	if len(s.Classes) < 2 {
		return nil, fmt.Errorf("%w: classifier: need at least 2 classes, got %d", models.ErrArtifactLoad, len(s.Classes))
	}
	if !sort.StringsAreSorted(s.Classes) {
		return nil, fmt.Errorf("%w: classifier: classes are not sorted", models.ErrArtifactLoad)
	}
	if s.Dim <= 0 {
		return nil, fmt.Errorf("%w: classifier: dimension %d", models.ErrArtifactLoad, s.Dim)
	}
	if len(s.Weights) != len(s.Classes) || len(s.Bias) != len(s.Classes) {
		return nil, fmt.Errorf("%w: classifier: %d classes, %d weight rows, %d biases",
			models.ErrArtifactLoad, len(s.Classes), len(s.Weights), len(s.Bias))
	}
	m := &Model{
		Classes: append([]string(nil), s.Classes...),
		Dim:     s.Dim,
		Weights: make([][]float64, len(s.Weights)),
		Bias:    append([]float64(nil), s.Bias...),
	}
	for k, row := range s.Weights {
		if len(row) != s.Dim {
			return nil, fmt.Errorf("%w: classifier: weight row %d has %d entries, expected %d",
				models.ErrArtifactLoad, k, len(row), s.Dim)
		}
		m.Weights[k] = append([]float64(nil), row...)
	}
	return m, nil
}
