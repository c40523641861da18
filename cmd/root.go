package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"threatcat/internal/app"
	"threatcat/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "threatcat",
	Short: "Threat description classifier",
	Long: `threatcat trains a TF-IDF + logistic regression model on labeled threat
descriptions and predicts the category of new ones from the command line,
an interactive prompt or an HTTP API.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is given, print help.
		cmd.Help()
	},
	// PersistentPreRunE runs before any subcommand's RunE
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		appInstance, err := newApp()
		if err != nil {
			return err
		}

		// Store the app instance in the command's context
		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appInstance, err := GetAppFromContext(cmd.Context()); err == nil {
			appInstance.Close()
		}
	},
}

func newApp() (*app.App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	appInstance, err := app.NewApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return appInstance, nil
}

// errReported marks a failure the command already wrote to its output.
var errReported = errors.New("failure already reported")

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errReported) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}

// Define a custom type for the context key to avoid collisions.
type contextKey string

const appKey contextKey = "app"

// GetAppFromContext retrieves the app instance stored by PersistentPreRunE.
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	if ctx == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is ./config.yaml)")
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the model artifacts and the prediction history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to get app instance: %w", err)
		}
		out := cmd.OutOrStdout()
		ok := color.GreenString("OK")
		failed := false

		fmt.Fprintf(out, "Loading artifact pair from %s...\n", appInstance.Artifacts.Dir)
		if pair, err := appInstance.Artifacts.Load(); err != nil {
			failed = true
			fmt.Fprintf(out, "  %s: %v\n", color.RedString("FAIL"), err)
		} else {
			fmt.Fprintf(out, "  %s: run %s, %d terms, %d classes\n", ok,
				pair.RunID, pair.Vectorizer.Dim(), len(pair.Classifier.Classes))
		}

		fmt.Fprintln(out, "Checking prediction history database...")
		switch {
		case appInstance.Config.Database.Driver == "":
			fmt.Fprintf(out, "  %s: history disabled\n", color.YellowString("SKIP"))
		default:
			if err := appInstance.OpenHistory(ctx); err != nil {
				failed = true
				fmt.Fprintf(out, "  %s: %v\n", color.RedString("FAIL"), err)
			} else if err := appInstance.History.Ping(ctx); err != nil {
				failed = true
				fmt.Fprintf(out, "  %s: %v\n", color.RedString("FAIL"), err)
			} else {
				fmt.Fprintf(out, "  %s: %s\n", ok, appInstance.Config.Database.Driver)
			}
		}

		if failed {
			return fmt.Errorf("one or more checks failed")
		}
		return nil
	},
}
