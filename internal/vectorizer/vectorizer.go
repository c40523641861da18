// Package vectorizer turns free text into fixed-dimension TF-IDF vectors.
//
// A Vectorizer is built once with Fit and is read-only afterwards. The
// index of every term is specific to the corpus it was fit on, so the
// instance used to transform training text must be the one used at
// prediction time.
package vectorizer

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"threatcat/internal/features"
	"threatcat/internal/models"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Options control vocabulary construction.
type Options struct {
	// MaxFeatures caps the vocabulary size. Zero or less keeps every term.
	MaxFeatures int
	NGramMin    int
	NGramMax    int
	// StopWords names a stop-word set, "english" or "none".
	StopWords string
}

// DefaultOptions returns a 3000 term cap over unigrams and bigrams with
// english stop words removed.
func DefaultOptions() Options {
	return Options{
		MaxFeatures: 3000,
		NGramMin:    1,
		NGramMax:    2,
		StopWords:   "english",
	}
}

func (o Options) validate() error {
	if o.NGramMin < 1 || o.NGramMax < o.NGramMin {
		return fmt.Errorf("invalid n-gram range (%d, %d)", o.NGramMin, o.NGramMax)
	}
	if _, ok := stopWordSets[o.StopWords]; !ok {
		return fmt.Errorf("unknown stop word set %q", o.StopWords)
	}
	return nil
}

// A Vectorizer maps text to TF-IDF vectors over a learned vocabulary.
type Vectorizer struct {
	opts  Options
	stop  map[string]bool
	terms []string
	index map[string]int
	idf   []float64
}

type termStat struct {
	term  string
	count int
	df    int
	score float64
}

// Fit learns a vocabulary and IDF weights from corpus.
func Fit(corpus []string, opts Options) (*Vectorizer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(corpus) == 0 {
		return nil, fmt.Errorf("%w: corpus is empty", models.ErrInvalidCorpus)
	}

	v := &Vectorizer{opts: opts, stop: stopWordSets[opts.StopWords]}

	stats := map[string]*termStat{}
	for _, doc := range corpus {
		seen := map[string]bool{}
		for _, term := range v.analyze(doc) {
			st, ok := stats[term]
			if !ok {
				st = &termStat{term: term}
				stats[term] = st
			}
			st.count++
			if !seen[term] {
				seen[term] = true
				st.df++
			}
		}
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("%w: no terms left after stop word removal", models.ErrInvalidCorpus)
	}

	n := float64(len(corpus))
	ranked := make([]*termStat, 0, len(stats))
	for _, st := range stats {
		st.score = float64(st.count) * smoothIDF(n, float64(st.df))
		ranked = append(ranked, st)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].term < ranked[j].term
	})
	if opts.MaxFeatures > 0 && len(ranked) > opts.MaxFeatures {
		ranked = ranked[:opts.MaxFeatures]
	}

	// Indices follow lexicographic term order so they do not depend on
	// score rounding.
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].term < ranked[j].term
	})
	v.terms = make([]string, len(ranked))
	v.idf = make([]float64, len(ranked))
	v.index = make(map[string]int, len(ranked))
	for i, st := range ranked {
		v.terms[i] = st.term
		v.idf[i] = smoothIDF(n, float64(st.df))
		v.index[st.term] = i
	}
	return v, nil
}

func smoothIDF(n, df float64) float64 {
	return math.Log((1+n)/(1+df)) + 1
}

// Dim returns the vocabulary size, which is the dimension of every
// vector produced by Transform.
func (v *Vectorizer) Dim() int {
	if v == nil {
		return 0
	}
	return len(v.terms)
}

// Terms returns the vocabulary in index order.
func (v *Vectorizer) Terms() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.terms...)
}

// Options returns the options the vectorizer was fit with.
func (v *Vectorizer) Options() Options {
	if v == nil {
		return Options{}
	}
	return v.opts
}

// Transform converts each text into an L2-normalized TF-IDF vector.
// Terms outside the vocabulary are ignored.
func (v *Vectorizer) Transform(texts []string) ([]features.Vector, error) {
	if v == nil || len(v.terms) == 0 {
		return nil, models.ErrNotFitted
	}
	res := make([]features.Vector, len(texts))
	for i, text := range texts {
		res[i] = v.vectorize(text)
	}
	return res, nil
}

// TransformOne converts a single text.
func (v *Vectorizer) TransformOne(text string) (features.Vector, error) {
	vecs, err := v.Transform([]string{text})
	if err != nil {
		return features.Vector{}, err
	}
	return vecs[0], nil
}

func (v *Vectorizer) vectorize(text string) features.Vector {
	counts := map[int]int{}
	for _, term := range v.analyze(text) {
		if idx, ok := v.index[term]; ok {
			counts[idx]++
		}
	}

	vec := features.Vector{Dim: len(v.terms), Entries: make([]features.Value, 0, len(counts))}
	var sumSq float64
	for idx, c := range counts {
		val := float64(c) * v.idf[idx]
		sumSq += val * val
		vec.Entries = append(vec.Entries, features.Value{Index: idx, Value: val})
	}
	sort.Slice(vec.Entries, func(i, j int) bool {
		return vec.Entries[i].Index < vec.Entries[j].Index
	})
	if sumSq > 0 {
		norm := math.Sqrt(sumSq)
		for i := range vec.Entries {
			vec.Entries[i].Value /= norm
		}
	}
	return vec
}

// analyze lower-cases text, drops stop words and emits the n-grams of
// the remaining tokens.
func (v *Vectorizer) analyze(text string) []string {
	var tokens []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if !v.stop[tok] {
			tokens = append(tokens, tok)
		}
	}

	var terms []string
	for n := v.opts.NGramMin; n <= v.opts.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				terms = append(terms, tokens[i])
			} else {
				terms = append(terms, strings.Join(tokens[i:i+n], " "))
			}
		}
	}
	return terms
}
