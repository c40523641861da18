package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"threatcat/internal/artifact"
	"threatcat/internal/clix"
)

// predictOutput is the single JSON object predict writes to stdout.
type predictOutput struct {
	PredictedCategory string `json:"predicted_category,omitempty"`
	Error             string `json:"error,omitempty"`
}

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict <description>",
	Short: "Predict the threat category of a description and print JSON",
	Long: `Loads the saved vectorizer and classifier and prints
{"predicted_category": "..."} for the given description. Every failure,
including a missing argument, an unknown flag or a broken config, prints
{"error": "..."} and exits with status 1.

A description that starts with a dash must follow "--" so it is not read as
a flag.`,
	Example: `  threatcat predict "Ransomware encrypted the file server"
  threatcat predict -- "-malware encrypted files"`,
	// Config errors must still come out as JSON, so predict builds the app
	// itself instead of relying on the root hook.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		code := runPredict(cmd.OutOrStdout(), args, func() (*artifact.Pair, error) {
			appInstance, err := newApp()
			if err != nil {
				return nil, err
			}
			defer appInstance.Close()
			return appInstance.Artifacts.Load()
		})
		if code != 0 {
			return errReported
		}
		return nil
	},
}

// runPredict performs one prediction and returns the process exit code.
func runPredict(out io.Writer, args []string, load func() (*artifact.Pair, error)) int {
	description, err := clix.ParseDescription(args)
	if err != nil {
		return writePredict(out, predictOutput{Error: err.Error()})
	}

	pair, err := load()
	if err != nil {
		log.Debugf("predict: %v", err)
		return writePredict(out, predictOutput{Error: err.Error()})
	}

	label, err := pair.Predict(description)
	if err != nil {
		return writePredict(out, predictOutput{Error: err.Error()})
	}
	return writePredict(out, predictOutput{PredictedCategory: label})
}

func writePredict(out io.Writer, res predictOutput) int {
	if err := json.NewEncoder(out).Encode(res); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write result: %v\n", err)
		return 1
	}
	if res.Error != "" {
		return 1
	}
	return 0
}

// predictFlagError reports a flag parse failure as JSON, the same way
// runPredict reports every other failure.
func predictFlagError(cmd *cobra.Command, err error) error {
	writePredict(cmd.OutOrStdout(), predictOutput{Error: err.Error()})
	return errReported
}

func init() {
	predictCmd.SetFlagErrorFunc(predictFlagError)
	rootCmd.AddCommand(predictCmd)
}
