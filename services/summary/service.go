package summary

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/upb/hybrid-summarizer/models"
	"github.com/upb/hybrid-summarizer/repositories"
	"github.com/upb/hybrid-summarizer/services"
	"go.uber.org/zap"
)

// Summarizer is the dispatcher contract the service depends on
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (*Outcome, error)
}

// ServiceConfig holds configuration for the summary service
type ServiceConfig struct {
	// MinTextLength is the minimum number of characters accepted after trimming.
	// Zero accepts any non-blank text.
	MinTextLength int

	// DefaultHistoryLimit is used when a history query gives no limit
	DefaultHistoryLimit int

	// MaxHistoryLimit caps the limit of a history query
	MaxHistoryLimit int
}

// DefaultServiceConfig returns a sensible default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MinTextLength:       0,
		DefaultHistoryLimit: 20,
		MaxHistoryLimit:     100,
	}
}

// Input is a summarization request as received from a caller
type Input struct {
	Text     string
	Override models.Override
	UserID   string
}

// Result is the outcome of a summarization plus the caller-facing echo of its request
type Result struct {
	*Outcome

	// Override is the routing instruction the caller sent
	Override models.Override

	// Record is the persisted history entry, nil when history is disabled or saving failed
	Record *models.SummaryRecord
}

// Service validates requests, runs the dispatcher and keeps a per-user history
type Service struct {
	dispatcher Summarizer
	repo       repositories.SummaryRepository
	config     ServiceConfig
	logger     *zap.Logger
}

// NewService creates a new summary service. repo may be nil to disable history.
func NewService(dispatcher Summarizer, repo repositories.SummaryRepository, config ServiceConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultHistoryLimit <= 0 {
		config.DefaultHistoryLimit = DefaultServiceConfig().DefaultHistoryLimit
	}
	if config.MaxHistoryLimit < config.DefaultHistoryLimit {
		config.MaxHistoryLimit = config.DefaultHistoryLimit
	}
	return &Service{
		dispatcher: dispatcher,
		repo:       repo,
		config:     config,
		logger:     logger,
	}
}

// HistoryEnabled reports whether summaries are persisted
func (s *Service) HistoryEnabled() bool {
	return s.repo != nil
}

// Summarize validates in, summarizes its text and records the result
func (s *Service) Summarize(ctx context.Context, in Input) (*Result, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, services.ErrEmptyText
	}
	if length := utf8.RuneCountInString(text); length < s.config.MinTextLength {
		return nil, services.NewValidationError(services.ErrTextTooShort.Message).
			WithDetail("minLength", s.config.MinTextLength).
			WithDetail("length", length)
	}

	override := in.Override
	if override == "" {
		override = models.OverrideAuto
	}

	req, err := NewRequest(text, override)
	if err != nil {
		return nil, services.ErrInvalidOverride
	}

	outcome, err := s.dispatcher.Summarize(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &Result{Outcome: outcome, Override: override}
	result.Record = s.record(ctx, in.UserID, text, override, outcome)
	return result, nil
}

// record persists the outcome. Failures are logged and never fail the request.
func (s *Service) record(ctx context.Context, userID, text string, override models.Override, outcome *Outcome) *models.SummaryRecord {
	if s.repo == nil {
		return nil
	}

	rec := models.NewSummaryRecord(userID, text, outcome.Summary, outcome.MethodUsed, outcome.RequestedMethod, override)
	if outcome.FellBack {
		rec.MarkFallback(outcome.ErrorKind())
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		s.logger.Error("failed to save summary history",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil
	}
	return rec
}

// History returns the most recent records of userID, newest first
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*models.SummaryRecord, error) {
	if s.repo == nil {
		return nil, services.ErrHistoryDisabled
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, services.ErrMissingUserID
	}

	if limit <= 0 {
		limit = s.config.DefaultHistoryLimit
	}
	if limit > s.config.MaxHistoryLimit {
		limit = s.config.MaxHistoryLimit
	}

	records, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, services.WrapInternal("failed to load summary history", err)
	}
	if records == nil {
		records = []*models.SummaryRecord{}
	}
	return records, nil
}

// Get returns one history record by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.SummaryRecord, error) {
	if s.repo == nil {
		return nil, services.ErrHistoryDisabled
	}

	rec, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, services.ErrRecordNotFound
	}
	if err != nil {
		return nil, services.WrapInternal("failed to load summary record", err)
	}
	return rec, nil
}
