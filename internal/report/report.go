// Package report renders training diagnostics for a terminal.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"threatcat/internal/classifier"
)

// RenderEvaluation writes the per-class table followed by accuracy and
// the averaged rows.
func RenderEvaluation(w io.Writer, r *classifier.Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Class", "Precision", "Recall", "F1", "Support"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, c := range r.Classes {
		table.Append(metricsRow(c))
	}
	table.Append([]string{"", "", "", "", ""})
	table.Append(metricsRow(r.MacroAvg))
	table.Append(metricsRow(r.WeightedAvg))
	table.Render()

	fmt.Fprintf(w, "\nAccuracy: %.4f (train %d, test %d)\n", r.Accuracy, r.TrainSize, r.TestSize)
}

func metricsRow(c classifier.ClassMetrics) []string {
	return []string{
		c.Label,
		fmt.Sprintf("%.2f", c.Precision),
		fmt.Sprintf("%.2f", c.Recall),
		fmt.Sprintf("%.2f", c.F1),
		strconv.Itoa(c.Support),
	}
}
