package config

import (
	"errors"
	"fmt"
)

/*
Validate checks the settings every command relies on:
- Logging
- Artifact locations
- Vectorizer and classifier hyperparameters
- Dataset source selection
- History database driver
*/

func (c *Config) Validate() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	if c.Artifacts.Dir == "" {
		return errors.New("artifacts.dir is required")
	}
	if c.Artifacts.VectorizerFile == "" || c.Artifacts.ClassifierFile == "" {
		return errors.New("artifacts.vectorizer_file and artifacts.classifier_file are required")
	}
	if c.Artifacts.VectorizerFile == c.Artifacts.ClassifierFile {
		return errors.New("artifacts.vectorizer_file and artifacts.classifier_file must differ")
	}

	// Vectorizer config
	if c.Vectorizer.NGramMin < 1 {
		return errors.New("vectorizer.ngram_min must be at least 1")
	}
	if c.Vectorizer.NGramMax < c.Vectorizer.NGramMin {
		return fmt.Errorf("vectorizer.ngram_max (%d) must not be less than ngram_min (%d)",
			c.Vectorizer.NGramMax, c.Vectorizer.NGramMin)
	}

	// Classifier config
	if c.Classifier.TestSize <= 0 || c.Classifier.TestSize >= 1 {
		return fmt.Errorf("classifier.test_size must be in (0, 1), got %v", c.Classifier.TestSize)
	}
	if c.Classifier.C <= 0 {
		return errors.New("classifier.c must be positive")
	}
	if c.Classifier.MaxIter <= 0 {
		return errors.New("classifier.max_iter must be a positive integer")
	}

	// Dataset config
	if c.Dataset.Driver != "" {
		if c.Dataset.DSN == "" || c.Dataset.Query == "" {
			return errors.New("dataset.dsn and dataset.query are required when dataset.driver is set")
		}
	} else if c.Dataset.Path == "" {
		return errors.New("dataset.path is required when dataset.driver is not set")
	}

	// Database config
	switch c.Database.Driver {
	case "":
	case "sqlite3", "pgx":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required when database.driver is set")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite3, pgx or empty, got %q", c.Database.Driver)
	}
	return nil
}
