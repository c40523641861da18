package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"threatcat/internal/classifier"
)

func TestRenderEvaluation(t *testing.T) {
	r := classifier.Evaluate(
		[]string{"Malware", "Malware", "Phishing", "DDoS"},
		[]string{"Malware", "Phishing", "Phishing", "DDoS"},
	)
	r.TrainSize = 16

	var buf bytes.Buffer
	RenderEvaluation(&buf, r)
	out := buf.String()

	for _, want := range []string{"PRECISION", "Malware", "Phishing", "DDoS", "macro avg", "weighted avg", "Accuracy: 0.7500 (train 16, test 4)"} {
		assert.Contains(t, out, want)
	}
}
