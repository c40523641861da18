package classifier

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatcat/internal/features"
	"threatcat/internal/models"
)

// separable builds n examples per class where class c lights up
// features 2c and 2c+1.
func separable(classes []string, n int) ([]features.Vector, []string) {
	dim := 2 * len(classes)
	var vecs []features.Vector
	var labels []string
	for c, label := range classes {
		for i := 0; i < n; i++ {
			jitter := 0.1 * float64(i%3)
			vecs = append(vecs, features.Vector{Dim: dim, Entries: []features.Value{
				{Index: 2 * c, Value: 1 - jitter},
				{Index: 2*c + 1, Value: 0.5 + jitter},
			}})
			labels = append(labels, label)
		}
	}
	return vecs, labels
}

func TestFitReportsEveryClass(t *testing.T) {
	vecs, labels := separable([]string{"Malware", "Phishing", "DDoS"}, 10)

	m, report, err := Fit(vecs, labels, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, m)

	require.Len(t, report.Classes, 3)
	assert.GreaterOrEqual(t, report.Accuracy, 0.0)
	assert.LessOrEqual(t, report.Accuracy, 1.0)
	assert.Equal(t, 24, report.TrainSize)
	assert.Equal(t, 6, report.TestSize)
	for _, c := range report.Classes {
		assert.Equal(t, 2, c.Support, "class %s", c.Label)
	}
}

func TestTrainLearnsSeparableData(t *testing.T) {
	classes := []string{"DDoS", "Malware", "Phishing"}
	vecs, labels := separable(classes, 6)

	m, err := Train(vecs, labels, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, classes, m.Classes)

	got, err := m.PredictBatch(vecs)
	require.NoError(t, err)
	assert.Equal(t, labels, got)
}

func TestPredictIsDeterministic(t *testing.T) {
	vecs, labels := separable([]string{"a", "b"}, 5)
	m, err := Train(vecs, labels, DefaultOptions())
	require.NoError(t, err)

	first, err := m.Predict(vecs[3])
	require.NoError(t, err)
	second, err := m.Predict(vecs[3])
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPredictTieGoesToFirstClass(t *testing.T) {
	m := &Model{
		Classes: []string{"alpha", "beta"},
		Dim:     2,
		Weights: [][]float64{{1, 0}, {1, 0}},
		Bias:    []float64{0, 0},
	}
	label, err := m.Predict(features.Vector{Dim: 2, Entries: []features.Value{{Index: 0, Value: 1}}})
	require.NoError(t, err)
	assert.Equal(t, "alpha", label)
}

func TestPredictNotFitted(t *testing.T) {
	var m *Model
	_, err := m.Predict(features.Vector{Dim: 3})
	assert.ErrorIs(t, err, models.ErrNotFitted)

	_, err = (&Model{}).PredictBatch(nil)
	assert.ErrorIs(t, err, models.ErrNotFitted)
}

func TestPredictDimensionMismatch(t *testing.T) {
	vecs, labels := separable([]string{"a", "b"}, 4)
	m, err := Train(vecs, labels, DefaultOptions())
	require.NoError(t, err)

	_, err = m.Predict(features.Vector{Dim: 7})
	assert.ErrorIs(t, err, models.ErrDimensionMismatch)
}

func TestFitInsufficientData(t *testing.T) {
	vecs, labels := separable([]string{"a", "b"}, 4)
	vecs = append(vecs, features.Vector{Dim: 4})
	labels = append(labels, "lonely")

	_, _, err := Fit(vecs, labels, DefaultOptions())
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	one, oneLabels := separable([]string{"only"}, 5)
	_, _, err = Fit(one, oneLabels, DefaultOptions())
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	_, _, err = Fit(vecs[:2], labels[:1], DefaultOptions())
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestFitRejectsMixedDimensions(t *testing.T) {
	vecs, labels := separable([]string{"a", "b"}, 4)
	vecs[1].Dim = 9

	_, _, err := Fit(vecs, labels, DefaultOptions())
	assert.ErrorIs(t, err, models.ErrDimensionMismatch)
}

func TestStratifiedSplitKeepsEveryLabel(t *testing.T) {
	var labels []string
	for label, n := range map[string]int{"rare": 2, "mid": 3, "common": 17} {
		for i := 0; i < n; i++ {
			labels = append(labels, label)
		}
	}

	train, test, err := StratifiedSplit(labels, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, append(train, test...), len(labels))

	inTrain, inTest := map[string]bool{}, map[string]bool{}
	for _, i := range train {
		inTrain[labels[i]] = true
	}
	for _, i := range test {
		inTest[labels[i]] = true
	}
	for _, l := range []string{"rare", "mid", "common"} {
		assert.True(t, inTrain[l], "%s missing from train", l)
		assert.True(t, inTest[l], "%s missing from test", l)
	}
}

func TestStratifiedSplitIsSeeded(t *testing.T) {
	var labels []string
	for i := 0; i < 40; i++ {
		labels = append(labels, fmt.Sprintf("c%d", i%4))
	}
	trainA, testA, err := StratifiedSplit(labels, 0.25, 7)
	require.NoError(t, err)
	trainB, testB, err := StratifiedSplit(labels, 0.25, 7)
	require.NoError(t, err)
	assert.Equal(t, trainA, trainB)
	assert.Equal(t, testA, testB)
	assert.Len(t, testA, 12)
}

func TestStratifiedSplitRejectsBadTestSize(t *testing.T) {
	_, _, err := StratifiedSplit([]string{"a", "a"}, 1.5, 1)
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	truth := []string{"a", "a", "b", "b"}
	pred := []string{"a", "b", "b", "b"}
	r := Evaluate(truth, pred)

	assert.InDelta(t, 0.75, r.Accuracy, 1e-12)
	require.Len(t, r.Classes, 2)
	a, b := r.Classes[0], r.Classes[1]
	assert.InDelta(t, 1.0, a.Precision, 1e-12)
	assert.InDelta(t, 0.5, a.Recall, 1e-12)
	assert.InDelta(t, 2.0/3.0, b.Precision, 1e-12)
	assert.InDelta(t, 1.0, b.Recall, 1e-12)
	assert.InDelta(t, (a.F1+b.F1)/2, r.MacroAvg.F1, 1e-12)
}

func TestModelStateRoundTrip(t *testing.T) {
	vecs, labels := separable([]string{"x", "y", "z"}, 4)
	m, err := Train(vecs, labels, DefaultOptions())
	require.NoError(t, err)

	st, err := m.State()
	require.NoError(t, err)
	loaded, err := FromState(st)
	require.NoError(t, err)

	want, err := m.PredictBatch(vecs)
	require.NoError(t, err)
	got, err := loaded.PredictBatch(vecs)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFromStateRejectsBadShapes(t *testing.T) {
	st := State{
		Classes: []string{"a", "b"},
		Dim:     2,
		Weights: [][]float64{{1, 2}, {3}},
		Bias:    []float64{0, 0},
	}
	_, err := FromState(st)
	assert.ErrorIs(t, err, models.ErrArtifactLoad)

	st.Weights = [][]float64{{1, 2}, {3, 4}}
	st.Classes = []string{"b", "a"}
	_, err = FromState(st)
	assert.ErrorIs(t, err, models.ErrArtifactLoad)
}
