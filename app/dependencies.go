package app

import (
	"context"
	"fmt"

	"github.com/upb/hybrid-summarizer/config"
	"github.com/upb/hybrid-summarizer/repositories"
	"github.com/upb/hybrid-summarizer/repositories/sqldb"
	"github.com/upb/hybrid-summarizer/services/providers"
	"github.com/upb/hybrid-summarizer/services/providers/anthropic"
	"github.com/upb/hybrid-summarizer/services/providers/gemini"
	"github.com/upb/hybrid-summarizer/services/providers/local"
	"github.com/upb/hybrid-summarizer/services/providers/openai"
	"github.com/upb/hybrid-summarizer/services/providers/redact"
	"github.com/upb/hybrid-summarizer/services/ratelimit"
	"github.com/upb/hybrid-summarizer/services/routing"
	"github.com/upb/hybrid-summarizer/services/summary"
	"go.uber.org/zap"
)

// Version is reported by the status endpoint and the CLI
const Version = "0.1.0"

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *sqldb.DB
	Logger *zap.Logger

	// Repositories, nil when history is disabled
	Summaries repositories.SummaryRepository

	// Provider Registry
	ProviderRegistry *providers.Registry

	// Summarization
	Policy         *routing.Policy
	Local          *local.ExtractiveSummarizer
	Remote         providers.RemoteSummarizer
	RemoteLimiter  *ratelimit.Limiter
	Dispatcher     *summary.Dispatcher
	SummaryService *summary.Service
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// History storage is optional
	if err := deps.initDatabase(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initProviders(cfg); err != nil {
		deps.closeDB()
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	if err := deps.initSummarizer(cfg); err != nil {
		deps.closeDB()
		return nil, fmt.Errorf("failed to initialize summarizer: %w", err)
	}

	logger.Info("all dependencies initialized successfully",
		zap.String("remote_provider", deps.RemoteName()),
		zap.Bool("history_enabled", deps.SummaryService.HistoryEnabled()))
	return deps, nil
}

// initDatabase opens the history database and runs migrations when enabled
func (d *Dependencies) initDatabase(cfg *config.Config) error {
	if !cfg.Database.Enabled() {
		d.Logger.Info("history storage disabled")
		return nil
	}

	db, err := sqldb.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return err
		}
	}

	d.DB = db
	d.Summaries = sqldb.NewSummaryRepository(db, d.Logger)

	d.Logger.Info("history storage enabled",
		zap.String("driver", db.Driver()),
		zap.Bool("auto_migrate", cfg.Database.AutoMigrate))
	return nil
}

// NewProviderRegistry returns a registry holding every supported remote backend
func NewProviderRegistry() *providers.Registry {
	registry := providers.NewRegistry()
	// Names are distinct constants, registration cannot fail
	_ = registry.RegisterBuilder("gemini", gemini.Build)
	_ = registry.RegisterBuilder("openai", openai.Build)
	_ = registry.RegisterBuilder("anthropic", anthropic.Build)
	return registry
}

// initProviders builds the configured remote summarizer. A missing API key leaves
// the remote path unconfigured and every request is served locally.
func (d *Dependencies) initProviders(cfg *config.Config) error {
	d.ProviderRegistry = NewProviderRegistry()

	creds, ok := cfg.Remote.Credentials(cfg.Remote.Provider)
	if !ok || !d.ProviderRegistry.Has(cfg.Remote.Provider) {
		return fmt.Errorf("%w: %s", providers.ErrProviderNotFound, cfg.Remote.Provider)
	}

	if creds.APIKey == "" {
		d.Logger.Warn("no API key for remote provider, remote summarization disabled",
			zap.String("provider", cfg.Remote.Provider))
		return nil
	}

	remote, err := d.ProviderRegistry.Build(cfg.Remote.Provider, providers.ProviderConfig{
		APIKey:          creds.APIKey,
		BaseURL:         creds.BaseURL,
		Model:           creds.Model,
		Timeout:         cfg.Remote.Timeout,
		MaxOutputTokens: cfg.Remote.MaxOutputTokens,
	})
	if err != nil {
		return err
	}

	if cfg.Remote.RedactPII {
		remote = redact.Wrap(remote, d.Logger.Named("redact"))
	}

	limits := ratelimit.Config{
		RequestsPerMinute: cfg.Remote.RequestsPerMinute,
		RequestsPerHour:   cfg.Remote.RequestsPerHour,
		RequestsPerDay:    cfg.Remote.RequestsPerDay,
	}
	if limits.Enabled() {
		d.RemoteLimiter = ratelimit.NewLimiter(limits)
		remote = ratelimit.Wrap(remote, d.RemoteLimiter, d.Logger.Named("ratelimit"))
	}

	d.Remote = remote
	d.Logger.Info("registered remote provider",
		zap.String("provider", remote.Name()),
		zap.Bool("redact_pii", cfg.Remote.RedactPII))
	return nil
}

// initSummarizer wires the routing policy, the summarizers, the dispatcher and the service
func (d *Dependencies) initSummarizer(cfg *config.Config) error {
	metric, err := routing.ParseMetric(cfg.Routing.Metric)
	if err != nil {
		return err
	}

	policy, err := routing.NewPolicy(routing.PolicyConfig{
		Threshold: cfg.Routing.Threshold,
		Metric:    metric,
	})
	if err != nil {
		return err
	}
	d.Policy = policy

	d.Local = local.NewExtractiveSummarizer(cfg.Routing.LocalMaxSentences)

	d.Dispatcher = summary.NewDispatcher(
		policy,
		d.Local,
		d.Remote,
		summary.DispatcherConfig{FallbackOnForcedRemote: cfg.Routing.FallbackOnForcedRemote},
		d.Logger.Named("dispatcher"),
	)

	serviceCfg := summary.DefaultServiceConfig()
	serviceCfg.MinTextLength = cfg.Routing.MinTextLength
	if cfg.Routing.HistoryLimit > 0 {
		serviceCfg.DefaultHistoryLimit = cfg.Routing.HistoryLimit
	}

	// An untyped nil keeps history disabled
	var repo repositories.SummaryRepository
	if d.Summaries != nil {
		repo = d.Summaries
	}
	d.SummaryService = summary.NewService(d.Dispatcher, repo, serviceCfg, d.Logger.Named("summary"))
	return nil
}

// RemoteName returns the configured remote provider, or "" when none is configured
func (d *Dependencies) RemoteName() string {
	if d.Remote == nil {
		return ""
	}
	return d.Remote.Name()
}

// DatabaseChecker returns the history database as a health checker, or nil when
// history is disabled
func (d *Dependencies) DatabaseChecker() interface {
	HealthCheck(ctx context.Context) error
} {
	if d.DB == nil {
		return nil
	}
	return d.DB
}

func (d *Dependencies) closeDB() {
	if d.DB != nil {
		_ = d.DB.Close()
		d.DB = nil
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Close database connection
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.DB = nil
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
