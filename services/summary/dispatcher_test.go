package summary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/hybrid-summarizer/models"
	"github.com/upb/hybrid-summarizer/services/providers"
	"github.com/upb/hybrid-summarizer/services/providers/gemini"
	"github.com/upb/hybrid-summarizer/services/providers/local"
	"github.com/upb/hybrid-summarizer/services/routing"
	"go.uber.org/zap/zaptest"
)

const shortNote = "Short note."

func longArticle() string {
	var b strings.Builder
	sentence := "Renewable energy adoption keeps accelerating in many regions of the world today. "
	for i := 0; i < 400; i++ {
		b.WriteString(sentence)
	}
	return strings.TrimSpace(b.String())
}

func newPolicy(t *testing.T) *routing.Policy {
	t.Helper()
	p, err := routing.NewPolicy(routing.DefaultPolicyConfig())
	require.NoError(t, err)
	return p
}

func newRequest(t *testing.T, text string, override models.Override) Request {
	t.Helper()
	req, err := NewRequest(text, override)
	require.NoError(t, err)
	return req
}

func newTestDispatcher(t *testing.T, localSum providers.LocalSummarizer, remote providers.RemoteSummarizer, cfg DispatcherConfig) *Dispatcher {
	t.Helper()
	return NewDispatcher(newPolicy(t), localSum, remote, cfg, zaptest.NewLogger(t))
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("  hello world  ", "")
	require.NoError(t, err)
	assert.Equal(t, "hello world", req.Text())
	assert.Equal(t, models.OverrideAuto, req.Override())

	_, err = NewRequest("   ", models.OverrideAuto)
	assert.ErrorIs(t, err, ErrEmptyRequest)

	_, err = NewRequest("hello", models.Override("sometimes"))
	assert.Error(t, err)
}

func TestDispatcher_ShortNoteAutoRoutesLocal(t *testing.T) {
	localSum := new(MockLocalSummarizer)
	remote := new(MockRemoteSummarizer)
	localSum.On("SummarizeLocal", shortNote).Return(shortNote, nil)

	d := newTestDispatcher(t, localSum, remote, DefaultDispatcherConfig())
	outcome, err := d.Summarize(context.Background(), newRequest(t, shortNote, models.OverrideAuto))

	require.NoError(t, err)
	assert.Equal(t, models.MethodLocal, outcome.MethodUsed)
	assert.Equal(t, models.MethodLocal, outcome.RequestedMethod)
	assert.False(t, outcome.FellBack)
	assert.Nil(t, outcome.ErrorDetail)
	assert.Equal(t, shortNote, outcome.Summary)
	remote.AssertNotCalled(t, "SummarizeRemote", mock.Anything, mock.Anything)
}

func TestDispatcher_SummarizersReceiveTrimmedText(t *testing.T) {
	article := longArticle()
	localSum := new(MockLocalSummarizer)
	remote := new(MockRemoteSummarizer)
	remote.On("SummarizeRemote", mock.Anything, article).
		Return("", providers.NewRemoteError("gemini", providers.KindQuota, "rate limited", 429, nil))
	localSum.On("SummarizeLocal", article).Return("Local summary.", nil)

	d := newTestDispatcher(t, localSum, remote, DefaultDispatcherConfig())
	outcome, err := d.Summarize(context.Background(), newRequest(t, "\n  "+article+" \t\n", models.OverrideAuto))

	require.NoError(t, err)
	assert.True(t, outcome.FellBack)
	remote.AssertExpectations(t)
	localSum.AssertExpectations(t)
}

func TestDispatcher_LongArticleAutoRoutesRemote(t *testing.T) {
	article := longArticle()
	localSum := new(MockLocalSummarizer)
	remote := new(MockRemoteSummarizer)
	remote.On("SummarizeRemote", mock.Anything, article).Return("Renewables are growing.", nil)

	d := newTestDispatcher(t, localSum, remote, DefaultDispatcherConfig())
	outcome, err := d.Summarize(context.Background(), newRequest(t, article, models.OverrideAuto))

	require.NoError(t, err)
	assert.Equal(t, models.MethodRemote, outcome.MethodUsed)
	assert.Equal(t, models.MethodRemote, outcome.RequestedMethod)
	assert.False(t, outcome.FellBack)
	assert.Nil(t, outcome.ErrorDetail)
	assert.Equal(t, "Renewables are growing.", outcome.Summary)
	localSum.AssertNotCalled(t, "SummarizeLocal", mock.Anything)
}

func TestDispatcher_RemoteQuotaFallsBackToLocal(t *testing.T) {
	article := longArticle()
	localSum := new(MockLocalSummarizer)
	remote := new(MockRemoteSummarizer)
	remote.On("SummarizeRemote", mock.Anything, article).
		Return("", providers.NewRemoteError("mock", providers.KindQuota, "Too Many Requests", http.StatusTooManyRequests, nil))
	localSum.On("SummarizeLocal", article).Return("Local summary.", nil)

	d := newTestDispatcher(t, localSum, remote, DefaultDispatcherConfig())
	outcome, err := d.Summarize(context.Background(), newRequest(t, article, models.OverrideAuto))

	require.NoError(t, err)
	assert.Equal(t, models.MethodLocal, outcome.MethodUsed)
	assert.Equal(t, models.MethodRemote, outcome.RequestedMethod)
	assert.True(t, outcome.FellBack)
	require.NotNil(t, outcome.ErrorDetail)
	assert.Equal(t, "QuotaError", outcome.ErrorKind())
	assert.Equal(t, "mock", outcome.ErrorDetail.Provider)
	assert.Equal(t, "Local summary.", outcome.Summary)
}

func TestDispatcher_ForcedRemoteTimeoutAndLocalFailure(t *testing.T) {
	localSum := new(MockLocalSummarizer)
	remote := new(MockRemoteSummarizer)
	remote.On("SummarizeRemote", mock.Anything, shortNote).
		Return("", providers.NewNetworkError("mock", "request timed out", context.DeadlineExceeded))
	localSum.On("SummarizeLocal", shortNote).
		Return("", providers.NewLocalProcessingError("tokenizer unavailable", nil))

	d := newTestDispatcher(t, localSum, remote, DefaultDispatcherConfig())
	outcome, err := d.Summarize(context.Background(), newRequest(t, shortNote, models.OverrideForceRemote))

	require.Error(t, err)
	assert.Nil(t, outcome)

	var failure *TotalFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, []providers.ErrorKind{providers.KindNetwork, providers.KindLocalProcessing}, failure.Kinds())
	assert.Equal(t, []string{
		"NetworkError: request timed out",
		"LocalProcessingError: tokenizer unavailable",
	}, failure.Messages())
	assert.True(t, IsTotalFailure(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded, "attempt errors stay reachable")
}

func TestDispatcher_ForcedLocalIgnoresLength(t *testing.T) {
	article := longArticle()
	localSum := new(MockLocalSummarizer)
	remote := new(MockRemoteSummarizer)
	localSum.On("SummarizeLocal", article).Return("Local summary.", nil)

	d := newTestDispatcher(t, localSum, remote, DefaultDispatcherConfig())
	outcome, err := d.Summarize(context.Background(), newRequest(t, article, models.OverrideForceLocal))

	require.NoError(t, err)
	assert.Equal(t, models.MethodLocal, outcome.MethodUsed)
	assert.False(t, outcome.FellBack)
	remote.AssertNotCalled(t, "SummarizeRemote", mock.Anything, mock.Anything)
}

func TestDispatcher_ForcedRemoteSuccess(t *testing.T) {
	localSum := new(MockLocalSummarizer)
	remote := new(MockRemoteSummarizer)
	remote.On("SummarizeRemote", mock.Anything, shortNote).Return("A note.", nil)

	d := newTestDispatcher(t, localSum, remote, DefaultDispatcherConfig())
	outcome, err := d.Summarize(context.Background(), newRequest(t, shortNote, models.OverrideForceRemote))

	require.NoError(t, err)
	assert.Equal(t, models.MethodRemote, outcome.MethodUsed)
	assert.False(t, outcome.FellBack)
	assert.Empty(t, outcome.ErrorKind())
}

func TestDispatcher_LocalFailureIsTotal(t *testing.T) {
	localSum := new(MockLocalSummarizer)
	remote := new(MockRemoteSummarizer)
	localSum.On("SummarizeLocal", shortNote).Return("", errors.New("segfault in tokenizer"))

	d := newTestDispatcher(t, localSum, remote, DefaultDispatcherConfig())
	_, err := d.Summarize(context.Background(), newRequest(t, shortNote, models.OverrideAuto))

	var failure *TotalFailure
	require.ErrorAs(t, err, &failure)
	require.Len(t, failure.Details, 1)
	assert.Equal(t, providers.KindLocalProcessing, failure.Details[0].Kind)
	remote.AssertNotCalled(t, "SummarizeRemote", mock.Anything, mock.Anything)
}

func TestDispatcher_EmptyLocalSummaryIsFailure(t *testing.T) {
	localSum := new(MockLocalSummarizer)
	localSum.On("SummarizeLocal", shortNote).Return("", nil)

	d := newTestDispatcher(t, localSum, nil, DefaultDispatcherConfig())
	_, err := d.Summarize(context.Background(), newRequest(t, shortNote, models.OverrideAuto))

	assert.True(t, IsTotalFailure(err))
}

func TestDispatcher_ForcedRemoteWithoutFallback(t *testing.T) {
	article := longArticle()
	noFallback := DispatcherConfig{FallbackOnForcedRemote: false}

	t.Run("forced remote failure is total", func(t *testing.T) {
		localSum := new(MockLocalSummarizer)
		remote := new(MockRemoteSummarizer)
		remote.On("SummarizeRemote", mock.Anything, article).
			Return("", providers.NewRemoteError("mock", providers.KindQuota, "rate limited", 429, nil))

		d := newTestDispatcher(t, localSum, remote, noFallback)
		_, err := d.Summarize(context.Background(), newRequest(t, article, models.OverrideForceRemote))

		var failure *TotalFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, []providers.ErrorKind{providers.KindQuota}, failure.Kinds())
		localSum.AssertNotCalled(t, "SummarizeLocal", mock.Anything)
	})

	t.Run("auto routed remote still falls back", func(t *testing.T) {
		localSum := new(MockLocalSummarizer)
		remote := new(MockRemoteSummarizer)
		remote.On("SummarizeRemote", mock.Anything, article).
			Return("", providers.NewMalformedResponseError("mock", "no candidates", 200, nil))
		localSum.On("SummarizeLocal", article).Return("Local summary.", nil)

		d := newTestDispatcher(t, localSum, remote, noFallback)
		outcome, err := d.Summarize(context.Background(), newRequest(t, article, models.OverrideAuto))

		require.NoError(t, err)
		assert.True(t, outcome.FellBack)
		assert.Equal(t, "MalformedResponseError", outcome.ErrorKind())
	})
}

func TestDispatcher_CancellationSkipsFallback(t *testing.T) {
	article := longArticle()
	ctx, cancel := context.WithCancel(context.Background())

	localSum := new(MockLocalSummarizer)
	remote := new(MockRemoteSummarizer)
	remote.On("SummarizeRemote", mock.Anything, article).
		Run(func(args mock.Arguments) { cancel() }).
		Return("", providers.NewNetworkError("mock", "request cancelled", context.Canceled))

	d := newTestDispatcher(t, localSum, remote, DefaultDispatcherConfig())
	outcome, err := d.Summarize(ctx, newRequest(t, article, models.OverrideAuto))

	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTotalFailure(err))
	localSum.AssertNotCalled(t, "SummarizeLocal", mock.Anything)
}

func TestDispatcher_NoRemoteConfiguredFallsBack(t *testing.T) {
	article := longArticle()
	localSum := new(MockLocalSummarizer)
	localSum.On("SummarizeLocal", article).Return("Local summary.", nil)

	d := newTestDispatcher(t, localSum, nil, DefaultDispatcherConfig())
	assert.Empty(t, d.RemoteName())

	outcome, err := d.Summarize(context.Background(), newRequest(t, article, models.OverrideAuto))
	require.NoError(t, err)
	assert.True(t, outcome.FellBack)
	assert.Equal(t, "QuotaError", outcome.ErrorKind())
}

func TestDispatcher_UnclassifiedRemoteErrorIsNetwork(t *testing.T) {
	article := longArticle()
	localSum := new(MockLocalSummarizer)
	remote := new(MockRemoteSummarizer)
	remote.On("SummarizeRemote", mock.Anything, article).Return("", errors.New("socket closed"))
	localSum.On("SummarizeLocal", article).Return("Local summary.", nil)

	d := newTestDispatcher(t, localSum, remote, DefaultDispatcherConfig())
	outcome, err := d.Summarize(context.Background(), newRequest(t, article, models.OverrideAuto))

	require.NoError(t, err)
	assert.Equal(t, "NetworkError", outcome.ErrorKind())
	assert.Equal(t, "socket closed", outcome.ErrorDetail.Message)
}

func TestDispatcher_OutcomeInvariants(t *testing.T) {
	article := longArticle()
	remoteErrors := []error{
		nil,
		providers.NewNetworkError("mock", "connection refused", nil),
		providers.NewRemoteError("mock", providers.KindQuota, "quota", 429, nil),
		providers.NewMalformedResponseError("mock", "missing text", 200, nil),
	}
	overrides := []models.Override{models.OverrideAuto, models.OverrideForceLocal, models.OverrideForceRemote}

	for _, remoteErr := range remoteErrors {
		for _, override := range overrides {
			for _, text := range []string{shortNote, article} {
				localSum := new(MockLocalSummarizer)
				remote := new(MockRemoteSummarizer)
				localSum.On("SummarizeLocal", text).Return("local", nil)
				if remoteErr != nil {
					remote.On("SummarizeRemote", mock.Anything, text).Return("", remoteErr)
				} else {
					remote.On("SummarizeRemote", mock.Anything, text).Return("remote", nil)
				}

				d := NewDispatcher(newPolicy(t), localSum, remote, DefaultDispatcherConfig(), nil)
				outcome, err := d.Summarize(context.Background(), newRequest(t, text, override))
				require.NoError(t, err)

				assert.NotEmpty(t, outcome.Summary)
				if outcome.FellBack {
					assert.Equal(t, models.MethodRemote, outcome.RequestedMethod)
					assert.Equal(t, models.MethodLocal, outcome.MethodUsed)
				}
				remoteAttempted := outcome.RequestedMethod == models.MethodRemote
				assert.Equal(t, remoteAttempted && remoteErr != nil, outcome.ErrorDetail != nil)
				if override == models.OverrideForceLocal {
					assert.Equal(t, models.MethodLocal, outcome.MethodUsed)
				}
				if override == models.OverrideForceRemote && remoteErr == nil {
					assert.Equal(t, models.MethodRemote, outcome.MethodUsed)
					assert.False(t, outcome.FellBack)
				}
			}
		}
	}
}

func TestDispatcher_Concurrent(t *testing.T) {
	article := longArticle()
	localSum := new(MockLocalSummarizer)
	remote := new(MockRemoteSummarizer)
	localSum.On("SummarizeLocal", mock.Anything).Return("local", nil)
	remote.On("SummarizeRemote", mock.Anything, article).Return("remote", nil)

	d := NewDispatcher(newPolicy(t), localSum, remote, DefaultDispatcherConfig(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text, want := shortNote, models.MethodLocal
			if i%2 == 0 {
				text, want = article, models.MethodRemote
			}
			req, err := NewRequest(text, models.OverrideAuto)
			if !assert.NoError(t, err) {
				return
			}
			outcome, err := d.Summarize(context.Background(), req)
			if assert.NoError(t, err) {
				assert.Equal(t, want, outcome.MethodUsed)
			}
		}(i)
	}
	wg.Wait()
}

func TestDispatcher_GeminiQuotaEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted"}}`))
	}))
	defer server.Close()

	remote := gemini.NewGeminiAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: time.Second,
	})
	d := newTestDispatcher(t, local.NewExtractiveSummarizer(3), remote, DefaultDispatcherConfig())

	outcome, err := d.Summarize(context.Background(), newRequest(t, longArticle(), models.OverrideAuto))
	require.NoError(t, err)
	assert.Equal(t, models.MethodLocal, outcome.MethodUsed)
	assert.True(t, outcome.FellBack)
	assert.Equal(t, "QuotaError", outcome.ErrorKind())
	assert.NotEmpty(t, outcome.Summary)
}
