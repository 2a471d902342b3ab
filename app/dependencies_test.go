package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/hybrid-summarizer/config"
	"github.com/upb/hybrid-summarizer/models"
	"github.com/upb/hybrid-summarizer/services/providers"
	"github.com/upb/hybrid-summarizer/services/providers/redact"
	"github.com/upb/hybrid-summarizer/services/ratelimit"
	"github.com/upb/hybrid-summarizer/services/summary"
	"go.uber.org/zap/zaptest"
)

func TestNewDependencies(t *testing.T) {
	t.Run("local only without database", func(t *testing.T) {
		ctx := context.Background()
		deps, err := NewDependencies(ctx, testConfig(t), zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, deps)

		assert.Nil(t, deps.DB)
		assert.Nil(t, deps.Summaries)
		assert.Nil(t, deps.Remote)
		assert.Nil(t, deps.DatabaseChecker())
		assert.Empty(t, deps.RemoteName())
		assert.NotNil(t, deps.Policy)
		assert.NotNil(t, deps.Dispatcher)
		assert.False(t, deps.SummaryService.HistoryEnabled())

		assert.NoError(t, deps.Close(ctx))
	})

	t.Run("remote provider with api key", func(t *testing.T) {
		for _, name := range []string{"gemini", "openai", "anthropic"} {
			cfg := testConfig(t)
			cfg.Remote.Provider = name
			cfg.Remote.Gemini.APIKey = "g-key"
			cfg.Remote.OpenAI.APIKey = "o-key"
			cfg.Remote.Anthropic.APIKey = "a-key"

			deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
			require.NoError(t, err, name)
			require.NotNil(t, deps.Remote, name)
			assert.Equal(t, name, deps.RemoteName())
			assert.Equal(t, name, deps.Dispatcher.RemoteName())
		}
	})

	t.Run("remote wrapped with redaction", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Remote.Gemini.APIKey = "g-key"
		cfg.Remote.RedactPII = true

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.IsType(t, &redact.Summarizer{}, deps.Remote)
		assert.Equal(t, "gemini", deps.RemoteName())
	})

	t.Run("remote calls rate limited", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Remote.Gemini.APIKey = "g-key"
		cfg.Remote.RequestsPerMinute = 5

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, deps.RemoteLimiter)
		assert.IsType(t, &ratelimit.RemoteSummarizer{}, deps.Remote)
		assert.Equal(t, "gemini", deps.RemoteName())
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Remote.Provider = "mistral"

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.ErrorIs(t, err, providers.ErrProviderNotFound)
	})

	t.Run("invalid routing metric", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Routing.Metric = "tokens"

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize summarizer")
	})

	t.Run("database connection failure", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Database.Driver = "sqlite3"
		cfg.Database.URL = filepath.Join(t.TempDir(), "missing", "dir", "history.db")

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize database")
	})
}

func TestNewDependencies_SQLiteHistory(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Database.Driver = "sqlite3"
	cfg.Database.URL = filepath.Join(t.TempDir(), "history.db")
	cfg.Database.AutoMigrate = true

	deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer deps.Close(ctx)

	require.NotNil(t, deps.DB)
	require.NotNil(t, deps.DatabaseChecker())
	assert.NoError(t, deps.DatabaseChecker().HealthCheck(ctx))
	assert.True(t, deps.SummaryService.HistoryEnabled())

	// No remote is configured, so a forced remote request falls back and is recorded
	result, err := deps.SummaryService.Summarize(ctx, summary.Input{
		Text:     "The council approved the new budget. Parks will receive more funding. The vote was unanimous.",
		Override: models.OverrideForceRemote,
		UserID:   "user-1",
	})
	require.NoError(t, err)
	assert.True(t, result.FellBack)
	assert.Equal(t, models.MethodLocal, result.MethodUsed)
	assert.Equal(t, "QuotaError", result.ErrorKind())
	require.NotNil(t, result.Record)

	history, err := deps.SummaryService.History(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "local_fallback", history[0].DisplayMethod())
}

func TestNewProviderRegistry(t *testing.T) {
	registry := NewProviderRegistry()

	assert.Equal(t, []string{"anthropic", "gemini", "openai"}, registry.ListProviders())

	_, err := registry.Build("gemini", providers.ProviderConfig{})
	assert.Error(t, err, "api key is required")
}

func TestDependenciesClose(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Database.Driver = "sqlite3"
	cfg.Database.URL = filepath.Join(t.TempDir(), "history.db")

	deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.NoError(t, deps.Close(ctx))

	// Second close should not fail
	assert.NoError(t, deps.Close(ctx))
}

// Test helpers

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Routing: config.RoutingConfig{
			Threshold:              1000,
			Metric:                 "chars",
			FallbackOnForcedRemote: true,
			LocalMaxSentences:      3,
			HistoryLimit:           20,
		},
		Remote: config.RemoteConfig{
			Provider:        "gemini",
			Timeout:         5 * time.Second,
			MaxOutputTokens: 256,
		},
		Database: config.DatabaseConfig{
			MaxOpenConns:    2,
			MaxIdleConns:    1,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "error",
			LogFormat: "json",
		},
	}
}
