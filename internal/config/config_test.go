package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/newsroom-crawler/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func load(t *testing.T, path string) (*config.Config, error) {
	t.Helper()

	v := viper.New()
	require.NoError(t, config.Setup(v, path))
	return config.Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, writeConfig(t, "app:\n  environment: production\n"))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Crawl.Cutoff)
	assert.Equal(t, config.DefaultTerms, cfg.Crawl.Terms)
	assert.Equal(t, 500, cfg.Crawl.ExcerptLength)
	assert.Equal(t, 1, cfg.Crawl.OrgConcurrency)

	assert.Equal(t, 10*time.Second, cfg.Fetcher.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.Fetcher.PageLoadTimeout)
	assert.Equal(t, 2*time.Second, cfg.Fetcher.ScrollPause)
	assert.True(t, cfg.Fetcher.RenderSeeds)
	assert.Equal(t, 3, cfg.Fetcher.ScrollRetry.MaxAttempts)
	assert.Equal(t, 4*time.Second, cfg.Fetcher.ScrollRetry.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.Fetcher.ScrollRetry.MaxDelay)

	assert.Equal(t, "partnership_articles.json", cfg.Storage.ResultsJSON)
	assert.Equal(t, "partnership_articles.csv", cfg.Storage.ResultsCSV)
	assert.Equal(t, config.DriverSQLite, cfg.State.Driver)
	assert.Equal(t, config.PolicyMark, cfg.State.FailurePolicy)

	assert.Len(t, cfg.Registry, 23)
	assert.Equal(t, "SAP", cfg.Registry[0].Name)
	assert.Equal(t, "Financial Times", cfg.Registry[22].Name)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
crawl:
  terms: ["merger", "alliance"]
  cutoff: "2023-06-15"
  org_concurrency: 4
fetcher:
  request_timeout: 3s
  render_seeds: false
state:
  driver: memory
  failure_policy: retry
registry:
  - name: Acme
    seeds: ["https://acme.example/news"]
`)

	cfg, err := load(t, path)
	require.NoError(t, err)

	assert.Equal(t, []string{"merger", "alliance"}, cfg.Crawl.Terms)
	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), cfg.Crawl.Cutoff)
	assert.Equal(t, 4, cfg.Crawl.OrgConcurrency)
	assert.Equal(t, 3*time.Second, cfg.Fetcher.RequestTimeout)
	assert.False(t, cfg.Fetcher.RenderSeeds)
	assert.Equal(t, config.DriverMemory, cfg.State.Driver)
	assert.Equal(t, config.PolicyRetry, cfg.State.FailurePolicy)
	require.Len(t, cfg.Registry, 1)
	assert.Equal(t, []string{"https://acme.example/news"}, cfg.Registry[0].Seeds)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("STATE_DSN", "/tmp/ledger.db")
	t.Setenv("CRAWL_EXCERPT_LENGTH", "120")
	t.Setenv("APP_ENV", "development")

	cfg, err := load(t, writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "/tmp/ledger.db", cfg.State.DSN)
	assert.Equal(t, 120, cfg.Crawl.ExcerptLength)
	assert.True(t, cfg.Logger.Development)
	assert.Equal(t, "console", cfg.Logger.Encoding)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "unknown driver", body: "state:\n  driver: mysql\n", field: "state.driver"},
		{name: "unknown failure policy", body: "state:\n  failure_policy: ignore\n", field: "state.failure_policy"},
		{name: "zero excerpt", body: "crawl:\n  excerpt_length: 0\n", field: "crawl.excerpt_length"},
		{name: "bad cron", body: "schedule:\n  cron: \"not a cron\"\n", field: "schedule.cron"},
		{
			name:  "seed without scheme",
			body:  "registry:\n  - name: Acme\n    seeds: [\"acme.example/news\"]\n",
			field: "registry[0].seeds[0]",
		},
		{
			name:  "duplicate organization",
			body:  "registry:\n  - name: Acme\n    seeds: [\"https://a.example\"]\n  - name: acme\n    seeds: [\"https://b.example\"]\n",
			field: "registry[1].name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, writeConfig(t, tt.body))
			require.Error(t, err)
			require.ErrorIs(t, err, config.ErrConfigValidationFailed)

			var vErr *config.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestSetup_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	err := config.Setup(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSelectOrganizations(t *testing.T) {
	t.Parallel()

	registry := []config.Organization{
		{Name: "SAP", Seeds: []string{"https://news.sap.com/"}},
		{Name: "Google Cloud", Seeds: []string{"https://cloud.google.com/blog"}},
		{Name: "IBM", Seeds: []string{"https://newsroom.ibm.com/"}},
	}

	all, err := config.SelectOrganizations(registry, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	all[0].Seeds[0] = "mutated"
	assert.Equal(t, "https://news.sap.com/", registry[0].Seeds[0], "selection must return copies")

	some, err := config.SelectOrganizations(registry, []string{"ibm", "google cloud"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "Google Cloud", some[0].Name, "registry order is preserved")
	assert.Equal(t, "IBM", some[1].Name)

	_, err = config.SelectOrganizations(registry, []string{"Initech"})
	require.ErrorIs(t, err, config.ErrUnknownOrganization)
}
