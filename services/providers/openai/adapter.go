package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/upb/hybrid-summarizer/services/providers"
)

const (
	defaultModel = "gpt-4o-mini"
)

// OpenAIAdapter implements providers.RemoteSummarizer on the OpenAI Responses API
type OpenAIAdapter struct {
	config providers.ProviderConfig
	client openai.Client
}

// NewOpenAIAdapter creates a new OpenAI adapter.
// SDK retries are disabled; a failed call is reported to the dispatcher immediately.
func NewOpenAIAdapter(config providers.ProviderConfig) *OpenAIAdapter {
	if config.Model == "" {
		config.Model = defaultModel
	}

	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(config.BaseURL, "/")+"/"))
	}

	return &OpenAIAdapter{
		config: config,
		client: openai.NewClient(opts...),
	}
}

// Build is a providers.Builder for the registry
func Build(config providers.ProviderConfig) (providers.RemoteSummarizer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	return NewOpenAIAdapter(config), nil
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// SummarizeRemote asks the Responses API for a short summary of text
func (a *OpenAIAdapter) SummarizeRemote(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	params := responses.ResponseNewParams{
		Model: a.config.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(providers.BuildPrompt(text)),
		},
	}
	if a.config.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(a.config.MaxOutputTokens)
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return "", a.handleError(err)
	}

	if resp.Status == "incomplete" {
		return "", providers.NewMalformedResponseError(
			a.Name(),
			fmt.Sprintf("response is incomplete (reason = %s)", resp.IncompleteDetails.Reason),
			0,
			nil,
		)
	}

	summary := strings.TrimSpace(resp.OutputText())
	if summary == "" {
		return "", providers.NewMalformedResponseError(
			a.Name(),
			fmt.Sprintf("output text is missing (status = %s)", resp.Status),
			0,
			nil,
		)
	}

	return summary, nil
}

// handleError classifies an error returned by the SDK
func (a *OpenAIAdapter) handleError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return providers.NewRemoteError(
			a.Name(),
			providers.KindForStatus(apiErr.StatusCode),
			apiErrorMessage(apiErr),
			apiErr.StatusCode,
			err,
		)
	}
	return providers.ClassifyTransportError(a.Name(), err)
}

func apiErrorMessage(apiErr *openai.Error) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return fmt.Sprintf("unexpected status %d", apiErr.StatusCode)
}

var _ providers.RemoteSummarizer = (*OpenAIAdapter)(nil)
