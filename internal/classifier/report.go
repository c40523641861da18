package classifier

import "sort"

// ClassMetrics holds per-class evaluation figures.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// A Report summarizes predictions on the held-out split. It is
// diagnostic output and is never persisted with the model.
type Report struct {
	Classes     []ClassMetrics `json:"classes"`
	Accuracy    float64        `json:"accuracy"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
	TrainSize   int            `json:"train_size"`
	TestSize    int            `json:"test_size"`
}

// Evaluate compares predicted labels against the truth. Classes are the
// sorted union of both label sets; undefined ratios count as 0.
func Evaluate(truth, predicted []string) *Report {
	type counts struct{ tp, fp, fn int }
	byLabel := map[string]*counts{}
	get := func(l string) *counts {
		c, ok := byLabel[l]
		if !ok {
			c = &counts{}
			byLabel[l] = c
		}
		return c
	}

	correct := 0
	for i, want := range truth {
		got := predicted[i]
		if got == want {
			correct++
			get(want).tp++
			continue
		}
		get(want).fn++
		get(got).fp++
	}

	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	r := &Report{TestSize: len(truth)}
	if len(truth) > 0 {
		r.Accuracy = float64(correct) / float64(len(truth))
	}

	r.MacroAvg.Label = "macro avg"
	r.WeightedAvg.Label = "weighted avg"
	for _, l := range labels {
		c := byLabel[l]
		m := ClassMetrics{
			Label:     l,
			Precision: ratio(c.tp, c.tp+c.fp),
			Recall:    ratio(c.tp, c.tp+c.fn),
			Support:   c.tp + c.fn,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)

		r.MacroAvg.Precision += m.Precision
		r.MacroAvg.Recall += m.Recall
		r.MacroAvg.F1 += m.F1
		w := float64(m.Support)
		r.WeightedAvg.Precision += w * m.Precision
		r.WeightedAvg.Recall += w * m.Recall
		r.WeightedAvg.F1 += w * m.F1
	}

	if k := float64(len(labels)); k > 0 {
		r.MacroAvg.Precision /= k
		r.MacroAvg.Recall /= k
		r.MacroAvg.F1 /= k
	}
	if n := float64(len(truth)); n > 0 {
		r.WeightedAvg.Precision /= n
		r.WeightedAvg.Recall /= n
		r.WeightedAvg.F1 /= n
	}
	r.MacroAvg.Support = len(truth)
	r.WeightedAvg.Support = len(truth)
	return r
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
