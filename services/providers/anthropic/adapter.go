package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/upb/hybrid-summarizer/services/providers"
)

const (
	defaultModel = string(anthropic.ModelClaude3_5HaikuLatest)
)

// AnthropicAdapter implements providers.RemoteSummarizer on the Anthropic Messages API
type AnthropicAdapter struct {
	config providers.ProviderConfig
	client *anthropic.Client
}

// NewAnthropicAdapter creates a new Anthropic adapter with SDK retries disabled
func NewAnthropicAdapter(config providers.ProviderConfig) *AnthropicAdapter {
	if config.Model == "" {
		config.Model = defaultModel
	}

	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	if config.MaxOutputTokens <= 0 {
		config.MaxOutputTokens = providers.DefaultProviderConfig().MaxOutputTokens
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(config.BaseURL, "/")+"/"))
	}

	return &AnthropicAdapter{
		config: config,
		client: anthropic.NewClient(opts...),
	}
}

// Build is a providers.Builder for the registry
func Build(config providers.ProviderConfig) (providers.RemoteSummarizer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	return NewAnthropicAdapter(config), nil
}

// Name returns the provider name
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

// SummarizeRemote asks the Messages API for a short summary of text
func (a *AnthropicAdapter) SummarizeRemote(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	msg := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(a.config.Model)),
		MaxTokens: anthropic.Int(a.config.MaxOutputTokens),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(providers.BuildPrompt(text))),
		}),
	}

	resp, err := a.client.Messages.New(ctx, msg)
	if err != nil {
		return "", a.handleError(err)
	}

	for _, block := range resp.Content {
		if summary := strings.TrimSpace(block.Text); summary != "" {
			return summary, nil
		}
	}

	return "", providers.NewMalformedResponseError(a.Name(), "response has no text content", 0, nil)
}

// handleError classifies an error returned by the SDK
func (a *AnthropicAdapter) handleError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return providers.NewRemoteError(
			a.Name(),
			providers.KindForStatus(apiErr.StatusCode),
			fmt.Sprintf("unexpected status %d", apiErr.StatusCode),
			apiErr.StatusCode,
			err,
		)
	}
	return providers.ClassifyTransportError(a.Name(), err)
}

var _ providers.RemoteSummarizer = (*AnthropicAdapter)(nil)
