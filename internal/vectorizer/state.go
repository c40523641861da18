package vectorizer

import (
	"fmt"

	"threatcat/internal/models"
)

// State is the persisted form of a fitted Vectorizer.
type State struct {
	Terms       []string  `json:"terms"`
	IDF         []float64 `json:"idf"`
	MaxFeatures int       `json:"max_features"`
	NGramMin    int       `json:"ngram_min"`
	NGramMax    int       `json:"ngram_max"`
	StopWords   string    `json:"stop_words"`
}

// State returns the persisted form of v.
func (v *Vectorizer) State() (State, error) {
	if v == nil || len(v.terms) == 0 {
		return State{}, models.ErrNotFitted
	}
	return State{
		Terms:       append([]string(nil), v.terms...),
		IDF:         append([]float64(nil), v.idf...),
		MaxFeatures: v.opts.MaxFeatures,
		NGramMin:    v.opts.NGramMin,
		NGramMax:    v.opts.NGramMax,
		StopWords:   v.opts.StopWords,
	}, nil
}

// FromState rebuilds a fitted Vectorizer. A malformed state yields
// ErrArtifactLoad.
func FromState(s State) (*Vectorizer, error) {
	opts := Options{
		MaxFeatures: s.MaxFeatures,
		NGramMin:    s.NGramMin,
		NGramMax:    s.NGramMax,
		StopWords:   s.StopWords,
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("%w: vectorizer: %v", models.ErrArtifactLoad, err)
	}
	if len(s.Terms) == 0 {
		return nil, fmt.Errorf("%w: vectorizer: empty vocabulary", models.ErrArtifactLoad)
	}
	if len(s.Terms) != len(s.IDF) {
		return nil, fmt.Errorf("%w: vectorizer: %d terms but %d idf weights",
			models.ErrArtifactLoad, len(s.Terms), len(s.IDF))
	}

	v := &Vectorizer{
		opts:  opts,
		stop:  stopWordSets[opts.StopWords],
		terms: append([]string(nil), s.Terms...),
		idf:   append([]float64(nil), s.IDF...),
		index: make(map[string]int, len(s.Terms)),
	}
	for i, term := range v.terms {
		if _, dup := v.index[term]; dup {
			return nil, fmt.Errorf("%w: vectorizer: duplicate term %q", models.ErrArtifactLoad, term)
		}
		v.index[term] = i
	}
	return v, nil
}
