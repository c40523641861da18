package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "./ml", cfg.Artifacts.Dir)
	assert.Equal(t, "tfidf_vectorizer.json", cfg.Artifacts.VectorizerFile)
	assert.Equal(t, 3000, cfg.Vectorizer.MaxFeatures)
	assert.Equal(t, 2, cfg.Vectorizer.NGramMax)
	assert.Equal(t, 0.2, cfg.Classifier.TestSize)
	assert.Equal(t, int64(42), cfg.Classifier.Seed)
	assert.Equal(t, "balanced", cfg.Classifier.ClassWeight)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "Cleaned Threat Description", cfg.Dataset.TextColumn)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
artifacts:
  dir: /tmp/models
vectorizer:
  max_features: 500
classifier:
  test_size: 0.3
`), 0o644))
	t.Setenv("THREATCAT_SERVER_PORT", "9090")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/models", cfg.Artifacts.Dir)
	assert.Equal(t, 500, cfg.Vectorizer.MaxFeatures)
	assert.Equal(t, 0.3, cfg.Classifier.TestSize)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := LoadConfig("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("THREATCAT_CLASSIFIER_TEST_SIZE", "1.5")
	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classifier.test_size")
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	chdir(t, t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"same artifact files": func(c *Config) { c.Artifacts.ClassifierFile = c.Artifacts.VectorizerFile },
		"ngram range":         func(c *Config) { c.Vectorizer.NGramMax = 0 },
		"non-positive C":      func(c *Config) { c.Classifier.C = 0 },
		"sql without query":   func(c *Config) { c.Dataset.Driver = "sqlite3"; c.Dataset.DSN = "x.db" },
		"no dataset":          func(c *Config) { c.Dataset.Path = "" },
		"unknown db driver":   func(c *Config) { c.Database.Driver = "mysql" },
		"bad log format":      func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig(t)
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := validConfig(t)
	cfg.Database.Driver = ""
	assert.NoError(t, cfg.Validate())
}
