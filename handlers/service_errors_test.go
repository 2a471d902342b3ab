package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/hybrid-summarizer/services"
	"github.com/upb/hybrid-summarizer/services/providers"
	"github.com/upb/hybrid-summarizer/services/summary"
	"github.com/upb/hybrid-summarizer/utils"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "not found error",
			err:            services.ErrRecordNotFound,
			expectedStatus: http.StatusNotFound,
			expectedError:  "not_found",
		},
		{
			name:           "validation error",
			err:            services.ErrInvalidInput,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "bad_request",
		},
		{
			name:           "unavailable error",
			err:            services.ErrHistoryDisabled,
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  "unavailable",
		},
		{
			name:           "internal error",
			err:            services.WrapInternal("db failure", errors.New("boom")),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal_error",
		},
		{
			name:           "cancelled request",
			err:            fmt.Errorf("summarization cancelled: %w", context.Canceled),
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  "cancelled",
		},
		{
			name:           "deadline exceeded",
			err:            fmt.Errorf("summarization cancelled: %w", context.DeadlineExceeded),
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  "cancelled",
		},
		{
			name:           "unmapped domain error type",
			err:            services.NewDomainError(services.ErrorType("external"), "provider failed", nil),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal_error",
		},
		{
			name:           "unknown error",
			err:            errors.New("unknown"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedError, response.Error)
		})
	}
}

func TestHandleServiceError_TotalFailure(t *testing.T) {
	failure := &summary.TotalFailure{Details: []summary.FailureDetail{
		{Kind: providers.KindNetwork, Message: "request timed out", Err: context.DeadlineExceeded},
		{Kind: providers.KindLocalProcessing, Message: "tokenizer failed"},
	}}

	w := httptest.NewRecorder()
	HandleServiceError(w, failure, zap.NewNop())

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var response TotalFailureResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "TotalFailure", response.Error)
	assert.Equal(t, []string{
		"NetworkError: request timed out",
		"LocalProcessingError: tokenizer failed",
	}, response.Details)
}

func TestHandleServiceError_ValidationDetails(t *testing.T) {
	err := services.NewValidationError("text is too short to summarize").
		WithDetail("minLength", 20)

	w := httptest.NewRecorder()
	HandleServiceError(w, err, zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, float64(20), response["details"].(map[string]interface{})["minLength"])
}

func TestHandleServiceError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	HandleServiceError(w, nil, zap.NewNop())
	assert.Empty(t, w.Body.String())
}

func TestHandleValidationError(t *testing.T) {
	t.Run("struct validation", func(t *testing.T) {
		err := utils.ValidateStruct(&SummarizeRequest{})
		require.Error(t, err)

		w := httptest.NewRecorder()
		HandleValidationError(w, err, zap.NewNop())

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "Validation failed", response["message"])
		assert.Contains(t, response["details"], "text")
	})

	t.Run("generic error", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleValidationError(w, errors.New("invalid JSON body"), zap.NewNop())

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "invalid JSON body", response.Message)
		assert.Nil(t, response.Details)
	})
}
