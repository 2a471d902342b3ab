package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/hybrid-summarizer/models"
	"github.com/upb/hybrid-summarizer/repositories"
	"go.uber.org/zap"
)

const summaryColumns = `id, user_id, original_text, summary, method, requested_method,
		       override, fell_back, error_kind, created_at`

// SummaryRepository implements the repositories.SummaryRepository interface
type SummaryRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *DB, logger *zap.Logger) repositories.SummaryRepository {
	return &SummaryRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new summary record
func (r *SummaryRepository) Create(ctx context.Context, rec *models.SummaryRecord) error {
	query := r.db.Rebind(`
		INSERT INTO summaries (
			id, user_id, original_text, summary, method, requested_method,
			override, fell_back, error_kind, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`)

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.OriginalText,
		rec.Summary,
		string(rec.Method),
		string(rec.RequestedMethod),
		string(rec.Override),
		rec.FellBack,
		rec.ErrorKind,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create summary record: %w", err)
	}

	r.logger.Debug("summary record created", zap.String("id", rec.ID.String()), zap.String("user_id", rec.UserID))
	return nil
}

// GetByID retrieves a summary record by ID
func (r *SummaryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SummaryRecord, error) {
	query := r.db.Rebind(`
		SELECT ` + summaryColumns + `
		FROM summaries
		WHERE id = $1
	`)

	rec, err := scanSummary(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary record: %w", err)
	}
	return rec, nil
}

// ListByUser retrieves the most recent records of a user, newest first
func (r *SummaryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.SummaryRecord, error) {
	query := r.db.Rebind(`
		SELECT ` + summaryColumns + `
		FROM summaries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`)

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list summary records: %w", err)
	}
	defer rows.Close()

	records := []*models.SummaryRecord{}
	for rows.Next() {
		rec, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summary records: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*models.SummaryRecord, error) {
	var (
		rec             models.SummaryRecord
		method          string
		requestedMethod string
		override        string
		errorKind       sql.NullString
	)

	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.OriginalText,
		&rec.Summary,
		&method,
		&requestedMethod,
		&override,
		&rec.FellBack,
		&errorKind,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	rec.Method = models.Method(method)
	rec.RequestedMethod = models.Method(requestedMethod)
	rec.Override = models.Override(override)
	if errorKind.Valid {
		rec.ErrorKind = &errorKind.String
	}
	return &rec, nil
}
