package cmd

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"threatcat/internal/dataset"
)

var (
	ingestFile    string
	ingestReplace bool
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load the labeled threat dataset into the database for browsing",
	Long: `Reads every row of the dataset CSV, including the optional columns such as
Threat Actor and Severity Score, and stores it in the threats table served by
GET /api/threats. Needs database.driver to be set.`,
	Example: `  threatcat ingest
  threatcat ingest --file data/cyber_threat_data.csv --replace`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := historyApp(cmd)
		if err != nil {
			return err
		}
		cfg := appInstance.Config.Dataset
		path := cfg.Path
		if ingestFile != "" {
			path = ingestFile
		}
		src := dataset.NewCSVSource(path, cfg.TextColumn, cfg.CategoryColumn)

		n, err := appInstance.ThreatService.Ingest(cmd.Context(), src, ingestReplace)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %d threats from %s\n", color.GreenString("Ingested"), n, path)

		stats, err := appInstance.ThreatService.Stats(cmd.Context())
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Category", "Threats"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, c := range stats.CategoryCounts {
			table.Append([]string{c.Category, strconv.Itoa(c.Count)})
		}
		table.Render()
		fmt.Fprintf(out, "Catalog now holds %d threats\n", stats.Total)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "CSV file to ingest (defaults to dataset.path)")
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "Delete previously ingested threats first")
	rootCmd.AddCommand(ingestCmd)
}
