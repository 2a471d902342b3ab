package ratelimit

import (
	"context"
	"net/http"

	"github.com/upb/hybrid-summarizer/services/providers"
	"go.uber.org/zap"
)

// RemoteSummarizer caps the calls made to a remote provider. A rejected call
// fails as a QuotaError without reaching the provider, so the dispatcher
// falls back to the local summarizer.
type RemoteSummarizer struct {
	next    providers.RemoteSummarizer
	limiter *Limiter
	logger  *zap.Logger
}

// Wrap decorates next with limiter
func Wrap(next providers.RemoteSummarizer, limiter *Limiter, logger *zap.Logger) *RemoteSummarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteSummarizer{next: next, limiter: limiter, logger: logger}
}

// Name returns the wrapped provider name
func (s *RemoteSummarizer) Name() string {
	return s.next.Name()
}

// SummarizeRemote calls the wrapped provider when the limiter admits the request
func (s *RemoteSummarizer) SummarizeRemote(ctx context.Context, text string) (string, error) {
	result := s.limiter.Allow()
	if !result.Allowed {
		s.logger.Warn("remote call rate limited",
			zap.String("provider", s.next.Name()),
			zap.String("window", string(result.ViolatedWindow)),
			zap.Time("reset_at", result.ResetAt))
		return "", providers.NewRemoteError(s.next.Name(), providers.KindQuota,
			"local rate limit: "+result.ViolationReason, http.StatusTooManyRequests, nil)
	}
	return s.next.SummarizeRemote(ctx, text)
}

var _ providers.RemoteSummarizer = (*RemoteSummarizer)(nil)
