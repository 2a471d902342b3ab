package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/hybrid-summarizer/middleware"
	"github.com/upb/hybrid-summarizer/models"
	"github.com/upb/hybrid-summarizer/services/summary"
	"github.com/upb/hybrid-summarizer/utils"
	"go.uber.org/zap"
)

// SummarizeRequest is the body of POST /summarize
type SummarizeRequest struct {
	Text     string `json:"text" validate:"required"`
	Override string `json:"override,omitempty" validate:"omitempty,oneof=auto local remote"`
	UserID   string `json:"userId,omitempty" validate:"omitempty,max=128"`
}

// SummarizeResponse is the success envelope of POST /summarize
type SummarizeResponse struct {
	ID              string          `json:"id,omitempty"`
	Summary         string          `json:"summary"`
	Method          models.Method   `json:"method"`
	RequestedMethod models.Override `json:"requestedMethod"`
	RoutedMethod    models.Method   `json:"routedMethod"`
	FellBack        bool            `json:"fellBack"`
	Error           string          `json:"error,omitempty"`
}

// NewSummarizeResponse renders a service result as the wire envelope
func NewSummarizeResponse(result *summary.Result) SummarizeResponse {
	resp := SummarizeResponse{
		Summary:         result.Summary,
		Method:          result.MethodUsed,
		RequestedMethod: result.Override,
		RoutedMethod:    result.RequestedMethod,
		FellBack:        result.FellBack,
		Error:           result.ErrorKind(),
	}
	if result.Record != nil {
		resp.ID = result.Record.ID.String()
	}
	return resp
}

// SummaryService defines the summary operations used by the handler
type SummaryService interface {
	Summarize(ctx context.Context, in summary.Input) (*summary.Result, error)
	History(ctx context.Context, userID string, limit int) ([]*models.SummaryRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*models.SummaryRecord, error)
}

// SummaryHandler handles summarization HTTP requests
type SummaryHandler struct {
	service SummaryService
	logger  *zap.Logger
}

// NewSummaryHandler creates a new SummaryHandler
func NewSummaryHandler(service SummaryService, logger *zap.Logger) *SummaryHandler {
	return &SummaryHandler{
		service: service,
		logger:  logger,
	}
}

// HandleSummarize handles POST /summarize
func (h *SummaryHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With(zap.String("request_id", middleware.GetRequestIDFromContext(ctx)))

	var req SummarizeRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, logger)
		return
	}

	override, err := models.ParseOverride(req.Override)
	if err != nil {
		HandleValidationError(w, err, logger)
		return
	}

	result, err := h.service.Summarize(ctx, summary.Input{
		Text:     req.Text,
		Override: override,
		UserID:   req.UserID,
	})
	if err != nil {
		logger.Warn("summarize request failed", zap.Error(err))
		// The timeout middleware answers 504 once the request deadline has passed
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		HandleServiceError(w, err, logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, NewSummarizeResponse(result)); err != nil {
		logger.Error("failed to write summarize response", zap.Error(err))
	}
}

// HandleHistory handles GET /history?userId=...&limit=...
func (h *SummaryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			_ = utils.WriteBadRequest(w, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	records, err := h.service.History(r.Context(), r.URL.Query().Get("userId"), limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, records); err != nil {
		h.logger.Error("failed to write history response", zap.Error(err))
	}
}

// HandleGetSummary handles GET /history/{id}
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, record); err != nil {
		h.logger.Error("failed to write summary response", zap.Error(err))
	}
}
