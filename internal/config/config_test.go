package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/event_research/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("K", "")
	t.Setenv("WINDOW", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := config.LoadConfig(writeConfig(t, "llm:\n  model: test-model\n"))
	require.NoError(t, err)

	require.Equal(t, "test-model", cfg.LLM.Model)
	require.Equal(t, "eino", cfg.LLM.Provider)
	require.Equal(t, "duckduckgo", cfg.Search.Provider)
	require.Equal(t, "mongo", cfg.Storage.Driver)
	require.Equal(t, "reports", cfg.Storage.Mongo.Collection)
	require.Equal(t, 4, cfg.Concurrency.Tickers)
	require.Equal(t, 3, cfg.Concurrency.LLM)
	require.Equal(t, 10, cfg.Concurrency.HTTP)
	require.Equal(t, 6, cfg.Research.NumQueries)
	require.Equal(t, 7, cfg.Research.MaxQueryWords)
	require.Equal(t, 5, cfg.Research.NumURLs)
	require.Equal(t, 200, cfg.Research.MinArticleChars)
	require.Equal(t, 100000, cfg.Research.MaxArticleChars)
	require.Equal(t, 5, cfg.Research.MaxRetries)
	require.Equal(t, 3*time.Second, cfg.Research.RetryDelay)
	require.Equal(t, 15*time.Second, cfg.Research.FetchTimeout)
	require.Equal(t, int64(37), cfg.Batch.Seed)
	require.Zero(t, cfg.Batch.Window)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("MONGO_URI", "mongodb://env:27017")
	t.Setenv("K", "140")
	t.Setenv("WINDOW", "70")
	t.Setenv("LOG_LEVEL", "debug")

	body := `
llm:
  api_key: sk-file
research:
  retry_delay: 10s
  num_queries: 4
batch:
  offset: 5
`
	cfg, err := config.LoadConfig(writeConfig(t, body))
	require.NoError(t, err)

	require.Equal(t, "sk-env", cfg.LLM.APIKey)
	require.Equal(t, "mongodb://env:27017", cfg.Storage.Mongo.URI)
	require.Equal(t, 140, cfg.Batch.Offset)
	require.Equal(t, 70, cfg.Batch.Window)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 10*time.Second, cfg.Research.RetryDelay)
	require.Equal(t, 4, cfg.Research.NumQueries)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigBadOffset(t *testing.T) {
	t.Setenv("K", "abc")
	_, err := config.LoadConfig(writeConfig(t, "{}\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	require.ErrorContains(t, cfg.Validate(), "api key")

	cfg.LLM.APIKey = "sk"
	require.ErrorContains(t, cfg.Validate(), "mongo uri")

	cfg.Storage.Driver = "sqlite"
	require.NoError(t, cfg.Validate())

	cfg.Research.Extractor = "regex"
	require.ErrorContains(t, cfg.Validate(), "extractor")

	cfg.Research.Extractor = "readability"
	cfg.Storage.Driver = "redis"
	require.ErrorContains(t, cfg.Validate(), "storage driver")
}
