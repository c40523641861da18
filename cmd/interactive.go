package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"threatcat/internal/interactive"
)

// interactiveCmd represents the interactive command
var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"repl"},
	Short:   "Classify threat descriptions typed at a prompt",
	Long: `Loads the saved model once and reads descriptions line by line,
printing the predicted category for each. Type 'exit' or send EOF to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		pair, err := appInstance.Artifacts.Load()
		if err != nil {
			return fmt.Errorf("failed to load model: %w", err)
		}
		log.WithField("run_id", pair.RunID).Debug("Loaded artifact pair for interactive session")

		n, err := interactive.New(cmd.InOrStdin(), cmd.OutOrStdout(), pair).Run(cmd.Context())
		log.Debugf("Interactive session ended after %d predictions", n)
		return err
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
