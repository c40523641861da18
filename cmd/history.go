package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"threatcat/internal/app"
	"threatcat/internal/clix"
	"threatcat/internal/models"
)

const snippetLen = 60

// historyCmd represents the base command for prediction history operations
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded predictions",
	Long:  `Displays predictions recorded by the HTTP API in the history database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listHistoryCmd.RunE(cmd, args)
	},
}

var listHistoryCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent predictions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pagination, err := clix.ParsePagination(cmd.Flags())
		if err != nil {
			return err
		}
		appInstance, err := historyApp(cmd)
		if err != nil {
			return err
		}

		preds, err := appInstance.PredictionService.ListRecent(cmd.Context(), pagination.Limit, pagination.Offset)
		if err != nil {
			return fmt.Errorf("error listing predictions: %w", err)
		}
		if len(preds) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No predictions recorded.")
			return nil
		}
		renderPredictions(cmd.OutOrStdout(), preds)
		return nil
	},
}

var showHistoryCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded prediction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid prediction ID %q: %w", args[0], err)
		}
		appInstance, err := historyApp(cmd)
		if err != nil {
			return err
		}

		p, err := appInstance.PredictionService.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:       %s\n", p.ID)
		fmt.Fprintf(out, "Category: %s\n", p.Category)
		fmt.Fprintf(out, "Severity: %s\n", p.Severity)
		fmt.Fprintf(out, "Run:      %s\n", p.RunID)
		fmt.Fprintf(out, "Created:  %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Text:     %s\n", p.Text)
		return nil
	},
}

var statsHistoryCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count recorded predictions per category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := historyApp(cmd)
		if err != nil {
			return err
		}
		counts, err := appInstance.PredictionService.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("error counting predictions: %w", err)
		}
		if len(counts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No predictions recorded.")
			return nil
		}

		categories := make([]string, 0, len(counts))
		for c := range counts {
			categories = append(categories, c)
		}
		sort.Strings(categories)

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Category", "Severity", "Predictions"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, c := range categories {
			table.Append([]string{c, string(models.SeverityForCategory(c)), strconv.Itoa(counts[c])})
		}
		table.Render()
		return nil
	},
}

func historyApp(cmd *cobra.Command) (*app.App, error) {
	appInstance, err := GetAppFromContext(cmd.Context())
	if err != nil {
		return nil, err
	}
	if err := appInstance.OpenHistory(cmd.Context()); err != nil {
		return nil, err
	}
	return appInstance, nil
}

func renderPredictions(w io.Writer, preds []*models.Prediction) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Category", "Severity", "Description", "Created At"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, p := range preds {
		table.Append([]string{
			p.ID.String(),
			p.Category,
			string(p.Severity),
			snippet(p.Text, snippetLen),
			p.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	for _, c := range []*cobra.Command{historyCmd, listHistoryCmd} {
		c.Flags().IntP("limit", "n", 20, "Maximum number of predictions to show")
		c.Flags().Int("offset", 0, "Number of predictions to skip")
	}

	historyCmd.AddCommand(listHistoryCmd)
	historyCmd.AddCommand(showHistoryCmd)
	historyCmd.AddCommand(statsHistoryCmd)

	rootCmd.AddCommand(historyCmd)
}
