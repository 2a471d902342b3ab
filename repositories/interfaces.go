package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/hybrid-summarizer/models"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// SummaryRepository handles persisted summarization history
type SummaryRepository interface {
	// Create stores a new summary record
	Create(ctx context.Context, record *models.SummaryRecord) error

	// GetByID retrieves a record by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.SummaryRecord, error)

	// ListByUser retrieves the most recent records of a user, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.SummaryRecord, error)
}
