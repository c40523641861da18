// Package classifier implements a class-weighted multinomial logistic
// regression over sparse feature vectors.
package classifier

import (
	"fmt"
	"math"
	"sort"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"threatcat/internal/features"
	"threatcat/internal/models"
)

const (
	ClassWeightBalanced = "balanced"
	ClassWeightNone     = "none"
)

// Options control training.
type Options struct {
	// TestSize is the held-out share used for the evaluation report.
	TestSize float64
	Seed     int64
	// C is the inverse L2 regularization strength.
	C           float64
	MaxIter     int
	ClassWeight string
}

// DefaultOptions returns an 80/20 split seeded with 42, C=1, at most
// 1000 L-BFGS iterations and balanced class weights.
func DefaultOptions() Options {
	return Options{
		TestSize:    0.2,
		Seed:        42,
		C:           1.0,
		MaxIter:     1000,
		ClassWeight: ClassWeightBalanced,
	}
}

func (o Options) validate() error {
	if o.C <= 0 {
		return fmt.Errorf("C must be positive, got %v", o.C)
	}
	if o.MaxIter <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", o.MaxIter)
	}
	if o.ClassWeight != ClassWeightBalanced && o.ClassWeight != ClassWeightNone {
		return fmt.Errorf("unknown class weight mode %q", o.ClassWeight)
	}
	return nil
}

// A Model scores a vector against every class. Classes are sorted, and
// Weights[k] and Bias[k] belong to Classes[k].
type Model struct {
	Classes []string
	Dim     int
	Weights [][]float64
	Bias    []float64
}

// Fit splits the data with StratifiedSplit, trains on the training split
// and evaluates on the held-out split. The returned model is the one fit
// on the training split.
func Fit(vecs []features.Vector, labels []string, opts Options) (*Model, *Report, error) {
	if err := checkInput(vecs, labels); err != nil {
		return nil, nil, err
	}
	trainIdx, testIdx, err := StratifiedSplit(labels, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, nil, err
	}

	trainVecs, trainLabels := subset(vecs, labels, trainIdx)
	testVecs, testLabels := subset(vecs, labels, testIdx)

	m, err := Train(trainVecs, trainLabels, opts)
	if err != nil {
		return nil, nil, err
	}
	predicted, err := m.PredictBatch(testVecs)
	if err != nil {
		return nil, nil, err
	}
	report := Evaluate(testLabels, predicted)
	report.TrainSize = len(trainIdx)
	return m, report, nil
}

// Train fits a model on all of the given examples.
func Train(vecs []features.Vector, labels []string, opts Options) (*Model, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := checkInput(vecs, labels); err != nil {
		return nil, err
	}

	classes, y := encodeLabels(labels)
	dim := vecs[0].Dim
	sampleWeights := classWeights(y, len(classes), opts.ClassWeight)

	obj := &objective{
		vecs:    vecs,
		y:       y,
		weights: sampleWeights,
		k:       len(classes),
		dim:     dim,
		lambda:  1 / opts.C,
	}
	problem := optimize.Problem{
		Func: obj.value,
		Grad: obj.gradient,
	}
	settings := &optimize.Settings{
		MajorIterations:   opts.MaxIter,
		GradientThreshold: 1e-6,
	}
	x0 := make([]float64, obj.k*(dim+1))

	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result == nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	if err != nil {
		log.Warnf("classifier: optimizer stopped early after %d iterations: %v", result.MajorIterations, err)
	} else {
		log.Debugf("classifier: optimizer finished with status %v after %d iterations",
			result.Status, result.MajorIterations)
	}

	m := &Model{
		Classes: classes,
		Dim:     dim,
		Weights: make([][]float64, obj.k),
		Bias:    make([]float64, obj.k),
	}
	for k := 0; k < obj.k; k++ {
		row := result.X[k*(dim+1) : (k+1)*(dim+1)]
		m.Weights[k] = append([]float64(nil), row[:dim]...)
		m.Bias[k] = row[dim]
	}
	return m, nil
}

func checkInput(vecs []features.Vector, labels []string) error {
	if len(vecs) != len(labels) {
		return fmt.Errorf("%w: %d vectors but %d labels", models.ErrInsufficientData, len(vecs), len(labels))
	}
	if len(vecs) == 0 {
		return fmt.Errorf("%w: no examples", models.ErrInsufficientData)
	}
	dim := vecs[0].Dim
	if dim <= 0 {
		return fmt.Errorf("%w: vectors have dimension %d", models.ErrDimensionMismatch, dim)
	}
	for i, v := range vecs {
		if v.Dim != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, expected %d", models.ErrDimensionMismatch, i, v.Dim, dim)
		}
	}
	seen := map[string]bool{}
	for _, l := range labels {
		seen[l] = true
	}
	if len(seen) < 2 {
		return fmt.Errorf("%w: need at least 2 classes, got %d", models.ErrInsufficientData, len(seen))
	}
	return nil
}

func subset(vecs []features.Vector, labels []string, idx []int) ([]features.Vector, []string) {
	v := make([]features.Vector, len(idx))
	l := make([]string, len(idx))
	for i, j := range idx {
		v[i] = vecs[j]
		l[i] = labels[j]
	}
	return v, l
}

func encodeLabels(labels []string) ([]string, []int) {
	seen := map[string]bool{}
	var classes []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = index[l]
	}
	return classes, y
}

// classWeights returns one weight per example. Balanced mode weighs
// class c by n / (k * n_c).
func classWeights(y []int, k int, mode string) []float64 {
	res := make([]float64, len(y))
	if mode != ClassWeightBalanced {
		for i := range res {
			res[i] = 1
		}
		return res
	}
	counts := make([]int, k)
	for _, c := range y {
		counts[c]++
	}
	n := float64(len(y))
	for i, c := range y {
		res[i] = n / (float64(k) * float64(counts[c]))
	}
	return res
}

// objective is the weighted multinomial log loss plus an L2 penalty on
// the weights. Parameters are laid out per class as dim weights followed
// by the bias.
type objective struct {
	vecs    []features.Vector
	y       []int
	weights []float64
	k, dim  int
	lambda  float64
}

func (o *objective) scores(x []float64, v features.Vector, dst []float64) {
	stride := o.dim + 1
	for k := 0; k < o.k; k++ {
		row := x[k*stride : (k+1)*stride]
		dst[k] = v.Dot(row) + row[o.dim]
	}
}

func (o *objective) value(x []float64) float64 {
	z := make([]float64, o.k)
	var loss float64
	for i, v := range o.vecs {
		o.scores(x, v, z)
		loss += o.weights[i] * (floats.LogSumExp(z) - z[o.y[i]])
	}
	return loss + 0.5*o.lambda*o.penalty(x)
}

func (o *objective) penalty(x []float64) float64 {
	stride := o.dim + 1
	var sum float64
	for k := 0; k < o.k; k++ {
		row := x[k*stride : k*stride+o.dim]
		sum += floats.Dot(row, row)
	}
	return sum
}

func (o *objective) gradient(grad, x []float64) {
	stride := o.dim + 1
	for i := range grad {
		grad[i] = 0
	}
	z := make([]float64, o.k)
	for i, v := range o.vecs {
		o.scores(x, v, z)
		lse := floats.LogSumExp(z)
		for k := 0; k < o.k; k++ {
			g := math.Exp(z[k] - lse)
			if k == o.y[i] {
				g--
			}
			g *= o.weights[i]
			row := grad[k*stride : (k+1)*stride]
			for _, e := range v.Entries {
				row[e.Index] += g * e.Value
			}
			row[o.dim] += g
		}
	}
	for k := 0; k < o.k; k++ {
		floats.AddScaled(grad[k*stride:k*stride+o.dim], o.lambda, x[k*stride:k*stride+o.dim])
	}
}

// Scores returns the raw linear score of v for every class.
func (m *Model) Scores(v features.Vector) ([]float64, error) {
	if m == nil || len(m.Classes) == 0 {
		return nil, models.ErrNotFitted
	}
	if v.Dim != m.Dim {
		return nil, fmt.Errorf("%w: vector has dimension %d, model expects %d", models.ErrDimensionMismatch, v.Dim, m.Dim)
	}
	res := make([]float64, len(m.Classes))
	for k := range m.Classes {
		res[k] = v.Dot(m.Weights[k]) + m.Bias[k]
	}
	return res, nil
}

// Predict returns the highest-scoring class. Ties go to the class that
// sorts first.
func (m *Model) Predict(v features.Vector) (string, error) {
	s, err := m.Scores(v)
	if err != nil {
		return "", err
	}
	return m.Classes[floats.MaxIdx(s)], nil
}

// PredictBatch predicts every vector, keeping input order.
func (m *Model) PredictBatch(vecs []features.Vector) ([]string, error) {
	if m == nil || len(m.Classes) == 0 {
		return nil, models.ErrNotFitted
	}
	res := make([]string, len(vecs))
	for i, v := range vecs {
		label, err := m.Predict(v)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		res[i] = label
	}
	return res, nil
}
