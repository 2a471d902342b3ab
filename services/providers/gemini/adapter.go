package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/upb/hybrid-summarizer/services/providers"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"

	// maxResponseBytes caps how much of a response body is read
	maxResponseBytes = 4 << 20
)

// GeminiAdapter implements providers.RemoteSummarizer for the Gemini generateContent API
type GeminiAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
}

// NewGeminiAdapter creates a new Gemini adapter
func NewGeminiAdapter(config providers.ProviderConfig) *GeminiAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.Model == "" {
		config.Model = defaultModel
	}

	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &GeminiAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Build is a providers.Builder for the registry
func Build(config providers.ProviderConfig) (providers.RemoteSummarizer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	return NewGeminiAdapter(config), nil
}

// Name returns the provider name
func (a *GeminiAdapter) Name() string {
	return "gemini"
}

// SummarizeRemote asks Gemini for a short summary of text
func (a *GeminiAdapter) SummarizeRemote(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	reqBody, err := json.Marshal(a.buildRequest(text))
	if err != nil {
		return "", providers.NewMalformedResponseError(a.Name(), "failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewReader(reqBody))
	if err != nil {
		return "", providers.NewNetworkError(a.Name(), "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", providers.ClassifyTransportError(a.Name(), err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return "", providers.ClassifyTransportError(a.Name(), err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	var geminiResp GenerateContentResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", providers.NewMalformedResponseError(a.Name(), "failed to unmarshal response", httpResp.StatusCode, err)
	}

	summary, ok := geminiResp.firstText()
	if !ok {
		return "", providers.NewMalformedResponseError(a.Name(), "response has no candidate text", httpResp.StatusCode, nil)
	}

	return summary, nil
}

func (a *GeminiAdapter) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		a.config.BaseURL, url.PathEscape(a.config.Model), url.QueryEscape(a.config.APIKey))
}

func (a *GeminiAdapter) buildRequest(text string) *GenerateContentRequest {
	req := &GenerateContentRequest{
		Contents: []Content{
			{
				Role:  "user",
				Parts: []Part{{Text: providers.BuildPrompt(text)}},
			},
		},
	}
	if a.config.MaxOutputTokens > 0 {
		req.GenerationConfig = &GenerationConfig{MaxOutputTokens: a.config.MaxOutputTokens}
	}
	return req
}

// handleErrorResponse classifies a non-200 Gemini response
func (a *GeminiAdapter) handleErrorResponse(statusCode int, body []byte) error {
	message := http.StatusText(statusCode)

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return providers.NewRemoteError(
		a.Name(),
		providers.KindForStatus(statusCode),
		message,
		statusCode,
		nil,
	)
}

// Gemini-specific request/response types

type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type GenerationConfig struct {
	MaxOutputTokens int64 `json:"maxOutputTokens,omitempty"`
}

type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// firstText returns candidates[0].content.parts[0].text when it is non-blank
func (r *GenerateContentResponse) firstText() (string, bool) {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	text := strings.TrimSpace(r.Candidates[0].Content.Parts[0].Text)
	return text, text != ""
}

var _ providers.RemoteSummarizer = (*GeminiAdapter)(nil)
