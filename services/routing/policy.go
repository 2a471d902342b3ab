package routing

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/upb/hybrid-summarizer/models"
)

// Metric selects how the length of a text is scored
type Metric string

const (
	// MetricChars scores a text by its number of runes
	MetricChars Metric = "chars"

	// MetricWords scores a text by its number of whitespace-separated words
	MetricWords Metric = "words"
)

// ParseMetric converts a configuration value into a Metric
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case "", MetricChars:
		return MetricChars, nil
	case MetricWords:
		return MetricWords, nil
	default:
		return "", fmt.Errorf("unknown routing metric %q", s)
	}
}

// PolicyConfig holds configuration for the routing policy
type PolicyConfig struct {
	// Threshold is the score at and above which auto routing picks remote
	Threshold int

	// Metric used to score a text
	Metric Metric
}

// DefaultPolicyConfig returns a sensible default configuration
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Threshold: 1000,
		Metric:    MetricChars,
	}
}

// Policy maps a text and an override to a summarization method.
// It performs no I/O and holds only immutable configuration.
type Policy struct {
	config PolicyConfig
}

// NewPolicy creates a routing policy
func NewPolicy(config PolicyConfig) (*Policy, error) {
	if config.Threshold <= 0 {
		return nil, fmt.Errorf("routing threshold must be positive, got %d", config.Threshold)
	}
	if config.Metric == "" {
		config.Metric = MetricChars
	}
	if config.Metric != MetricChars && config.Metric != MetricWords {
		return nil, fmt.Errorf("unknown routing metric %q", config.Metric)
	}
	return &Policy{config: config}, nil
}

// Config returns the policy configuration
func (p *Policy) Config() PolicyConfig {
	return p.config
}

// Decide returns the method that should handle text first
func (p *Policy) Decide(text string, override models.Override) models.Method {
	switch override {
	case models.OverrideForceLocal:
		return models.MethodLocal
	case models.OverrideForceRemote:
		return models.MethodRemote
	}

	if p.Score(text) < p.config.Threshold {
		return models.MethodLocal
	}
	return models.MethodRemote
}

// Score returns the length score of text under the configured metric
func (p *Policy) Score(text string) int {
	if p.config.Metric == MetricWords {
		return len(strings.Fields(text))
	}
	return utf8.RuneCountInString(text)
}
