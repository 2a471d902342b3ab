package summary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/upb/hybrid-summarizer/models"
	"github.com/upb/hybrid-summarizer/services/providers"
)

// ErrEmptyRequest is returned by NewRequest when the text is blank
var ErrEmptyRequest = errors.New("summary request text cannot be empty")

// Request is one summarization request. It cannot be changed once built.
type Request struct {
	text     string
	override models.Override
}

// NewRequest builds a request from trimmed text and a routing override
func NewRequest(text string, override models.Override) (Request, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Request{}, ErrEmptyRequest
	}
	if override == "" {
		override = models.OverrideAuto
	}
	if !override.IsValid() {
		return Request{}, fmt.Errorf("invalid override %q", override)
	}
	return Request{text: text, override: override}, nil
}

// Text returns the text to summarize
func (r Request) Text() string { return r.text }

// Override returns the caller's routing instruction
func (r Request) Override() models.Override { return r.override }

// FailureDetail describes one failed summarization attempt
type FailureDetail struct {
	Method   models.Method       `json:"method"`
	Provider string              `json:"provider,omitempty"`
	Kind     providers.ErrorKind `json:"kind"`
	Message  string              `json:"message"`
	Err      error               `json:"-"`
}

// String renders the detail as "Kind: message"
func (d FailureDetail) String() string {
	return string(d.Kind) + ": " + d.Message
}

// newFailureDetail classifies err raised by the summarizer for method
func newFailureDetail(method models.Method, err error) FailureDetail {
	detail := FailureDetail{Method: method, Kind: providers.KindOf(err), Message: err.Error(), Err: err}

	var remoteErr *providers.RemoteError
	var localErr *providers.LocalProcessingError
	switch {
	case errors.As(err, &remoteErr):
		detail.Provider = remoteErr.Provider
		detail.Message = remoteErr.Message
	case errors.As(err, &localErr):
		detail.Message = localErr.Message
	case method == models.MethodLocal:
		detail.Kind = providers.KindLocalProcessing
	default:
		// adapters are expected to classify their own errors
		detail.Kind = providers.KindNetwork
	}
	return detail
}

// Outcome is the result of a successful summarization
type Outcome struct {
	Summary         string
	MethodUsed      models.Method
	RequestedMethod models.Method
	FellBack        bool

	// ErrorDetail is set iff the remote attempt was made and failed
	ErrorDetail *FailureDetail
}

// ErrorKind returns the kind of the remote failure, or "" when the remote path did not fail
func (o *Outcome) ErrorKind() string {
	if o.ErrorDetail == nil {
		return ""
	}
	return string(o.ErrorDetail.Kind)
}

// TotalFailure is returned when every permitted attempt failed
type TotalFailure struct {
	Details []FailureDetail
}

// Error implements the error interface
func (e *TotalFailure) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.String())
	}
	return "TotalFailure: " + strings.Join(parts, "; ")
}

// Unwrap exposes the underlying attempt errors
func (e *TotalFailure) Unwrap() []error {
	errs := make([]error, 0, len(e.Details))
	for _, d := range e.Details {
		if d.Err != nil {
			errs = append(errs, d.Err)
		}
	}
	return errs
}

// Kinds returns the failure kinds in attempt order
func (e *TotalFailure) Kinds() []providers.ErrorKind {
	kinds := make([]providers.ErrorKind, 0, len(e.Details))
	for _, d := range e.Details {
		kinds = append(kinds, d.Kind)
	}
	return kinds
}

// Messages returns each detail rendered as "Kind: message"
func (e *TotalFailure) Messages() []string {
	out := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		out = append(out, d.String())
	}
	return out
}

// IsTotalFailure reports whether err is a *TotalFailure
func IsTotalFailure(err error) bool {
	var tf *TotalFailure
	return errors.As(err, &tf)
}
