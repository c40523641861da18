package app

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"threatcat/internal/artifact"
	"threatcat/internal/classifier"
	"threatcat/internal/config"
	"threatcat/internal/dataset"
	"threatcat/internal/services"
	"threatcat/internal/store"
	"threatcat/internal/store/primary"
	"threatcat/internal/vectorizer"
	"threatcat/pkg/categorizer"
)

type App struct {
	Config    *config.Config
	Artifacts *artifact.Store

	// History is nil until OpenHistory succeeds, and stays nil when
	// database.driver is empty.
	History store.PredictionStore
	// Threats shares History's connection and is nil under the same
	// conditions.
	Threats store.ThreatStore

	Categorizer       categorizer.ThreatCategorizer
	PredictionService *services.PredictionService
	TrainingService   *services.TrainingService
	ThreatService     *services.ThreatService
}

// NewApp wires everything that does not need a database connection.
// Commands that use prediction history call OpenHistory.
func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	app.initLogging()
	app.initArtifactStore()
	if err := app.initTrainingService(); err != nil {
		return nil, err
	}
	app.initPredictionService()
	app.ThreatService = services.NewThreatService(nil)

	log.Debug("Application initialization complete.")
	return app, nil
}

// --- Private Helper Methods ---

func (a *App) initLogging() {
	level, err := log.ParseLevel(a.Config.Log.Level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", a.Config.Log.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	// Stdout carries command output such as predict's JSON.
	log.SetOutput(os.Stderr)
	if a.Config.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func (a *App) initArtifactStore() {
	cfg := a.Config.Artifacts
	a.Artifacts = artifact.NewStore(cfg.Dir, cfg.VectorizerFile, cfg.ClassifierFile)
}

func (a *App) initTrainingService() error {
	cfg := a.Config

	var src dataset.Source
	switch cfg.Dataset.Driver {
	case "":
		src = dataset.NewCSVSource(cfg.Dataset.Path, cfg.Dataset.TextColumn, cfg.Dataset.CategoryColumn)
	case primary.DriverSQLite, primary.DriverPostgres:
		src = dataset.NewSQLSource(cfg.Dataset.Driver, cfg.Dataset.DSN, cfg.Dataset.Query)
	default:
		return fmt.Errorf("unsupported dataset driver: %s", cfg.Dataset.Driver)
	}

	vecOpts := vectorizer.Options{
		MaxFeatures: cfg.Vectorizer.MaxFeatures,
		NGramMin:    cfg.Vectorizer.NGramMin,
		NGramMax:    cfg.Vectorizer.NGramMax,
		StopWords:   cfg.Vectorizer.StopWords,
	}
	clfOpts := classifier.Options{
		TestSize:    cfg.Classifier.TestSize,
		Seed:        cfg.Classifier.Seed,
		C:           cfg.Classifier.C,
		MaxIter:     cfg.Classifier.MaxIter,
		ClassWeight: cfg.Classifier.ClassWeight,
	}
	a.TrainingService = services.NewTrainingService(src, a.Artifacts, vecOpts, clfOpts)
	return nil
}

func (a *App) initPredictionService() {
	a.Categorizer = categorizer.NewModelCategorizer(a.Artifacts)
	a.PredictionService = services.NewPredictionService(a.Categorizer, a.History)
}

// OpenHistory connects the database behind prediction history and the
// threat catalog, and rebuilds both services around it. It is a no-op
// when database.driver is empty.
func (a *App) OpenHistory(ctx context.Context) error {
	db := a.Config.Database
	if db.Driver == "" {
		log.Info("Prediction history disabled (database.driver is empty)")
		return nil
	}
	ps, err := primary.NewPrimaryStore(ctx, db.Driver, db.DSN)
	if err != nil {
		return fmt.Errorf("init prediction store: %w", err)
	}
	a.History = ps
	a.Threats = ps
	a.initPredictionService()
	a.ThreatService = services.NewThreatService(ps)
	return nil
}

// Close releases the history store if it was opened.
func (a *App) Close() {
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			log.Warnf("Error closing prediction store: %v", err)
		}
	}
}
