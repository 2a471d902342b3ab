package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Method identifies which summarizer produces (or was asked to produce) a summary
type Method string

const (
	MethodLocal  Method = "local"
	MethodRemote Method = "remote"
)

// Override is the caller's routing instruction
type Override string

const (
	// OverrideAuto lets the routing policy pick a method from the text length
	OverrideAuto Override = "auto"

	// OverrideForceLocal always routes to the local summarizer
	OverrideForceLocal Override = "local"

	// OverrideForceRemote always routes to the remote summarizer first
	OverrideForceRemote Override = "remote"
)

// ParseOverride converts a wire value into an Override. The empty string means auto.
func ParseOverride(s string) (Override, error) {
	switch Override(strings.ToLower(strings.TrimSpace(s))) {
	case "", OverrideAuto:
		return OverrideAuto, nil
	case OverrideForceLocal:
		return OverrideForceLocal, nil
	case OverrideForceRemote:
		return OverrideForceRemote, nil
	default:
		return "", fmt.Errorf("unknown override %q", s)
	}
}

// IsValid reports whether o is one of the known overrides
func (o Override) IsValid() bool {
	switch o {
	case OverrideAuto, OverrideForceLocal, OverrideForceRemote:
		return true
	}
	return false
}

// SummaryRecord is one persisted summarization, newest records are served by the history endpoint
type SummaryRecord struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          string    `json:"userId" db:"user_id"`
	OriginalText    string    `json:"originalText" db:"original_text"`
	Summary         string    `json:"summary" db:"summary"`
	Method          Method    `json:"method" db:"method"`
	RequestedMethod Method    `json:"requestedMethod" db:"requested_method"`
	Override        Override  `json:"override" db:"override"`
	FellBack        bool      `json:"fellBack" db:"fell_back"`
	ErrorKind       *string   `json:"error,omitempty" db:"error_kind"`
	CreatedAt       time.Time `json:"timestamp" db:"created_at"`
}

// NewSummaryRecord creates a record with a fresh ID and creation time
func NewSummaryRecord(userID, originalText, summary string, method, requested Method, override Override) *SummaryRecord {
	return &SummaryRecord{
		ID:              uuid.New(),
		UserID:          userID,
		OriginalText:    originalText,
		Summary:         summary,
		Method:          method,
		RequestedMethod: requested,
		Override:        override,
		CreatedAt:       time.Now().UTC(),
	}
}

// MarkFallback records that the remote attempt failed with errKind and local produced the summary
func (r *SummaryRecord) MarkFallback(errKind string) {
	r.FellBack = true
	r.ErrorKind = &errKind
}

// DisplayMethod returns the indicator label shown to users: "remote", "local" or "local_fallback"
func (r *SummaryRecord) DisplayMethod() string {
	if r.FellBack {
		return "local_fallback"
	}
	return string(r.Method)
}
