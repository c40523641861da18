package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // "text" or "json"
	} `mapstructure:"log"`

	Artifacts struct {
		Dir            string `mapstructure:"dir"`
		VectorizerFile string `mapstructure:"vectorizer_file"`
		ClassifierFile string `mapstructure:"classifier_file"`
	} `mapstructure:"artifacts"`

	// Dataset is read by the train command. When Driver is set, Query
	// runs against DSN; otherwise Path names a CSV file.
	Dataset struct {
		Path           string `mapstructure:"path"`
		TextColumn     string `mapstructure:"text_column"`
		CategoryColumn string `mapstructure:"category_column"`
		Driver         string `mapstructure:"driver"`
		DSN            string `mapstructure:"dsn"`
		Query          string `mapstructure:"query"`
	} `mapstructure:"dataset"`

	Vectorizer struct {
		MaxFeatures int    `mapstructure:"max_features"`
		NGramMin    int    `mapstructure:"ngram_min"`
		NGramMax    int    `mapstructure:"ngram_max"`
		StopWords   string `mapstructure:"stop_words"`
	} `mapstructure:"vectorizer"`

	Classifier struct {
		TestSize    float64 `mapstructure:"test_size"`
		Seed        int64   `mapstructure:"seed"`
		C           float64 `mapstructure:"c"`
		MaxIter     int     `mapstructure:"max_iter"`
		ClassWeight string  `mapstructure:"class_weight"`
	} `mapstructure:"classifier"`

	// Database holds prediction history. An empty driver disables it.
	Database struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	Server struct {
		Addr string `mapstructure:"addr"`
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("artifacts.dir", "./ml")
	v.SetDefault("artifacts.vectorizer_file", "tfidf_vectorizer.json")
	v.SetDefault("artifacts.classifier_file", "threat_model.json")

	v.SetDefault("dataset.path", "./data/cyber_threat_data.csv")
	v.SetDefault("dataset.text_column", "Cleaned Threat Description")
	v.SetDefault("dataset.category_column", "Threat Category")

	v.SetDefault("vectorizer.max_features", 3000)
	v.SetDefault("vectorizer.ngram_min", 1)
	v.SetDefault("vectorizer.ngram_max", 2)
	v.SetDefault("vectorizer.stop_words", "english")

	v.SetDefault("classifier.test_size", 0.2)
	v.SetDefault("classifier.seed", 42)
	v.SetDefault("classifier.c", 1.0)
	v.SetDefault("classifier.max_iter", 1000)
	v.SetDefault("classifier.class_weight", "balanced")

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "threatcat.db")

	v.SetDefault("server.addr", "localhost")
	v.SetDefault("server.port", "8080")
}

// LoadConfig reads config.yaml from the working directory, or the file
// at path when it is not empty. A .env file, THREATCAT_* environment
// variables and defaults fill in the rest.
func LoadConfig(path string) (*Config, error) {
	// It's okay if there is no .env file.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("THREATCAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// DATABASE_URL is what most hosting platforms hand out.
	v.BindEnv("database.dsn", "THREATCAT_DATABASE_DSN", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed, relying on defaults/env vars.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
