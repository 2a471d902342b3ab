package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/hybrid-summarizer/services"
	"github.com/upb/hybrid-summarizer/services/summary"
	"github.com/upb/hybrid-summarizer/utils"
	"go.uber.org/zap"
)

// TotalFailureResponse is the body returned when every summarization path failed
type TotalFailureResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	var failure *summary.TotalFailure
	switch {
	case errors.As(err, &failure):
		// Both paths failed; each detail reads "Kind: message"
		if err := utils.WriteJSON(w, http.StatusBadGateway, TotalFailureResponse{
			Error:   "TotalFailure",
			Details: failure.Messages(),
		}); err != nil {
			logger.Error("failed to write total failure response", zap.Error(err))
		}

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		if err := utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse{
			Error:   "cancelled",
			Message: err.Error(),
		}); err != nil {
			logger.Error("failed to write cancelled response", zap.Error(err))
		}

	case services.IsNotFoundError(err):
		if err := utils.WriteNotFound(w, err.Error()); err != nil {
			logger.Error("failed to write not found response", zap.Error(err))
		}

	case services.IsValidationError(err):
		if err := utils.WriteBadRequest(w, err.Error(), nilIfEmpty(details)); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}

	case services.IsUnavailableError(err):
		if err := utils.WriteServiceUnavailable(w, err.Error()); err != nil {
			logger.Error("failed to write unavailable response", zap.Error(err))
		}

	case services.IsInternalError(err):
		// Log internal errors but return generic message
		logger.Error("internal server error", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An internal error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		if err := utils.WriteBadRequest(w, "Validation failed", utils.GetValidationFields(err)); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	// Generic validation error
	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}

func nilIfEmpty(details map[string]interface{}) interface{} {
	if len(details) == 0 {
		return nil
	}
	return details
}
