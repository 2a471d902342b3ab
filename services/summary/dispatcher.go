package summary

import (
	"context"
	"fmt"

	"github.com/upb/hybrid-summarizer/models"
	"github.com/upb/hybrid-summarizer/services/providers"
	"go.uber.org/zap"
)

// Router picks the first summarization method for a text
type Router interface {
	Decide(text string, override models.Override) models.Method
}

// DispatcherConfig holds configuration for the dispatcher
type DispatcherConfig struct {
	// FallbackOnForcedRemote lets a failed forced-remote request fall back to local.
	// Auto-routed remote failures always fall back.
	FallbackOnForcedRemote bool
}

// DefaultDispatcherConfig returns a sensible default configuration
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		FallbackOnForcedRemote: true,
	}
}

type state int

const (
	stateRouting state = iota
	stateLocalAttempt
	stateRemoteAttempt
	stateRemoteFailed
	stateFallbackAttempt
	stateSuccess
	stateTotalFailure
	stateCancelled
)

func (s state) String() string {
	switch s {
	case stateRouting:
		return "routing"
	case stateLocalAttempt:
		return "local_attempt"
	case stateRemoteAttempt:
		return "remote_attempt"
	case stateRemoteFailed:
		return "remote_failed"
	case stateFallbackAttempt:
		return "fallback_attempt"
	case stateSuccess:
		return "success"
	case stateTotalFailure:
		return "total_failure"
	case stateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s state) terminal() bool {
	return s == stateSuccess || s == stateTotalFailure || s == stateCancelled
}

// run is the per-request state carried between transitions
type run struct {
	req      Request
	choice   models.Method
	summary  string
	used     models.Method
	fellBack bool
	remote   *FailureDetail
	failures []FailureDetail
	err      error
}

// Dispatcher runs the routing and fallback protocol for one request at a time.
// It holds only immutable configuration and is safe for concurrent use.
type Dispatcher struct {
	router Router
	local  providers.LocalSummarizer
	remote providers.RemoteSummarizer
	config DispatcherConfig
	logger *zap.Logger
}

// NewDispatcher creates a new dispatcher. remote may be nil when no backend is
// configured; remote attempts then fail and fall back like any other failure.
func NewDispatcher(
	router Router,
	local providers.LocalSummarizer,
	remote providers.RemoteSummarizer,
	config DispatcherConfig,
	logger *zap.Logger,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		router: router,
		local:  local,
		remote: remote,
		config: config,
		logger: logger,
	}
}

// RemoteName returns the configured remote backend name, or "" when none is configured
func (d *Dispatcher) RemoteName() string {
	if d.remote == nil {
		return ""
	}
	return d.remote.Name()
}

// Summarize routes req, runs the chosen summarizer and falls back to local when the
// remote attempt fails. It returns either a complete outcome, a *TotalFailure, or
// the context error when ctx ends before a fallback could start.
func (d *Dispatcher) Summarize(ctx context.Context, req Request) (*Outcome, error) {
	r := &run{req: req}

	for st := stateRouting; !st.terminal(); {
		next := d.step(ctx, r, st)
		d.logger.Debug("summary dispatch transition",
			zap.String("from", st.String()),
			zap.String("to", next.String()))
		st = next

		switch st {
		case stateSuccess:
			outcome := &Outcome{
				Summary:         r.summary,
				MethodUsed:      r.used,
				RequestedMethod: r.choice,
				FellBack:        r.fellBack,
				ErrorDetail:     r.remote,
			}
			d.logger.Info("summary produced",
				zap.String("requested_method", string(outcome.RequestedMethod)),
				zap.String("method_used", string(outcome.MethodUsed)),
				zap.Bool("fell_back", outcome.FellBack),
				zap.String("remote_error", outcome.ErrorKind()))
			return outcome, nil
		case stateTotalFailure:
			failure := &TotalFailure{Details: r.failures}
			d.logger.Warn("summary failed on every path",
				zap.String("requested_method", string(r.choice)),
				zap.Strings("details", failure.Messages()))
			return nil, failure
		case stateCancelled:
			d.logger.Info("summary cancelled before fallback",
				zap.String("requested_method", string(r.choice)),
				zap.Error(r.err))
			return nil, fmt.Errorf("summarization cancelled: %w", r.err)
		}
	}

	return nil, fmt.Errorf("dispatcher stopped in non-terminal state")
}

// step performs the work of st and returns the next state
func (d *Dispatcher) step(ctx context.Context, r *run, st state) state {
	switch st {
	case stateRouting:
		r.choice = d.router.Decide(r.req.Text(), r.req.Override())
		if r.choice == models.MethodRemote {
			return stateRemoteAttempt
		}
		return stateLocalAttempt

	case stateLocalAttempt:
		summary, err := d.summarizeLocal(r.req.Text())
		if err != nil {
			r.failures = append(r.failures, newFailureDetail(models.MethodLocal, err))
			return stateTotalFailure
		}
		r.summary, r.used = summary, models.MethodLocal
		return stateSuccess

	case stateRemoteAttempt:
		summary, err := d.summarizeRemote(ctx, r.req.Text())
		if err == nil {
			r.summary, r.used = summary, models.MethodRemote
			return stateSuccess
		}
		detail := newFailureDetail(models.MethodRemote, err)
		r.remote = &detail
		r.failures = append(r.failures, detail)
		return stateRemoteFailed

	case stateRemoteFailed:
		if err := ctx.Err(); err != nil {
			r.err = err
			return stateCancelled
		}
		if r.req.Override() == models.OverrideForceRemote && !d.config.FallbackOnForcedRemote {
			return stateTotalFailure
		}
		return stateFallbackAttempt

	case stateFallbackAttempt:
		summary, err := d.summarizeLocal(r.req.Text())
		if err != nil {
			r.failures = append(r.failures, newFailureDetail(models.MethodLocal, err))
			return stateTotalFailure
		}
		r.summary, r.used, r.fellBack = summary, models.MethodLocal, true
		return stateSuccess
	}

	return stateTotalFailure
}

func (d *Dispatcher) summarizeLocal(text string) (string, error) {
	summary, err := d.local.SummarizeLocal(text)
	if err != nil {
		return "", err
	}
	if summary == "" {
		return "", providers.NewLocalProcessingError("empty summary", nil)
	}
	return summary, nil
}

func (d *Dispatcher) summarizeRemote(ctx context.Context, text string) (string, error) {
	if d.remote == nil {
		return "", providers.NewRemoteError("none", providers.KindQuota, "no remote provider configured", 0, nil)
	}
	if err := ctx.Err(); err != nil {
		return "", providers.ClassifyTransportError(d.remote.Name(), err)
	}
	summary, err := d.remote.SummarizeRemote(ctx, text)
	if err != nil {
		return "", err
	}
	if summary == "" {
		return "", providers.NewMalformedResponseError(d.remote.Name(), "empty summary", 0, nil)
	}
	return summary, nil
}
