package redact

import (
	"context"

	"github.com/upb/hybrid-summarizer/services/providers"
	"go.uber.org/zap"
)

// Summarizer redacts PII from the text before handing it to a remote summarizer.
// The local path never sees it, so only text that leaves the process is altered.
type Summarizer struct {
	next   providers.RemoteSummarizer
	logger *zap.Logger
}

// Wrap decorates next with PII redaction
func Wrap(next providers.RemoteSummarizer, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{next: next, logger: logger}
}

// Name returns the wrapped provider name
func (s *Summarizer) Name() string {
	return s.next.Name()
}

// SummarizeRemote redacts text and calls the wrapped summarizer
func (s *Summarizer) SummarizeRemote(ctx context.Context, text string) (string, error) {
	redacted, detections := Redact(text)
	if len(detections) > 0 {
		counts := make(map[string]int)
		for _, d := range detections {
			counts[string(d.Type)]++
		}
		s.logger.Debug("redacted PII before remote call",
			zap.String("provider", s.next.Name()),
			zap.Any("counts", counts))
	}
	return s.next.SummarizeRemote(ctx, redacted)
}

var _ providers.RemoteSummarizer = (*Summarizer)(nil)
