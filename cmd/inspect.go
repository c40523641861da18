package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"threatcat/internal/artifact"
)

var inspectTerms int

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the saved artifact pair",
	Long: `Prints the header of each saved artifact file, then loads the pair and
summarizes the vocabulary and the classes it predicts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		store := appInstance.Artifacts
		out := cmd.OutOrStdout()

		vecHeader, clfHeader, err := store.Inspect()
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"File", "Kind", "Version", "Run ID", "Created At"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.Append(headerRow(store.VectorizerPath(), vecHeader))
		table.Append(headerRow(store.ClassifierPath(), clfHeader))
		table.Render()

		pair, err := store.Load()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nVocabulary: %d terms\n", pair.Vectorizer.Dim())
		fmt.Fprintf(out, "Classes:    %s\n", strings.Join(pair.Classifier.Classes, ", "))

		if inspectTerms > 0 {
			terms := pair.Vectorizer.Terms()
			if inspectTerms < len(terms) {
				terms = terms[:inspectTerms]
			}
			fmt.Fprintf(out, "Terms:      %s\n", strings.Join(terms, ", "))
		}
		return nil
	},
}

func headerRow(path string, h artifact.Header) []string {
	return []string{
		path,
		h.Kind,
		strconv.Itoa(h.FormatVersion),
		h.RunID,
		h.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func init() {
	inspectCmd.Flags().IntVar(&inspectTerms, "terms", 0, "Also print the first N vocabulary terms")
	rootCmd.AddCommand(inspectCmd)
}
