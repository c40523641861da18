package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"threatcat/internal/report"
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the vectorizer and classifier and save the artifact pair",
	Long: `Reads the labeled dataset, fits the TF-IDF vectorizer on every description,
trains a class-balanced logistic regression on a stratified training split,
prints the held-out evaluation and saves both artifacts. Nothing is written
if any step fails, so a previously saved model stays in place.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get app instance: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Training threat classifier...")

		res, err := appInstance.TrainingService.Train(cmd.Context())
		if err != nil {
			return fmt.Errorf("training failed: %w", err)
		}

		fmt.Fprintf(out, "Examples: %d (skipped %d), vocabulary: %d terms, classes: %d\n\n",
			res.Examples, res.Skipped, res.VocabularySize, len(res.Classes))
		report.RenderEvaluation(out, res.Report)

		fmt.Fprintf(out, "\n%s run %s in %s\n", color.GreenString("Saved model"), res.RunID, res.Duration.Round(time.Millisecond))
		fmt.Fprintf(out, "  %s\n  %s\n", appInstance.Artifacts.VectorizerPath(), appInstance.Artifacts.ClassifierPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
}
