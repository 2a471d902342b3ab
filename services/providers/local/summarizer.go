package local

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/tsawler/prose/v3"
	"github.com/upb/hybrid-summarizer/services/providers"
)

// DefaultMaxSentences is the summary length used when none is configured
const DefaultMaxSentences = 3

// ExtractiveSummarizer selects the highest-scoring sentences of a text by
// normalised word frequency. It keeps no state between calls.
type ExtractiveSummarizer struct {
	maxSentences int
}

// NewExtractiveSummarizer creates a summarizer that keeps at most maxSentences sentences
func NewExtractiveSummarizer(maxSentences int) *ExtractiveSummarizer {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	return &ExtractiveSummarizer{maxSentences: maxSentences}
}

// MaxSentences returns the configured summary length
func (s *ExtractiveSummarizer) MaxSentences() int {
	return s.maxSentences
}

type scoredSentence struct {
	index int
	text  string
	words []string
	score float64
}

// SummarizeLocal implements providers.LocalSummarizer
func (s *ExtractiveSummarizer) SummarizeLocal(text string) (summary string, err error) {
	// The tokenizer models are third-party code; a panic there is a processing failure.
	defer func() {
		if r := recover(); r != nil {
			summary = ""
			err = providers.NewLocalProcessingError("tokenizer panicked", fmt.Errorf("%v", r))
		}
	}()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", providers.NewLocalProcessingError("empty text", nil)
	}

	sentences, err := splitSentences(trimmed)
	if err != nil {
		return "", providers.NewLocalProcessingError("sentence segmentation failed", err)
	}
	if len(sentences) == 0 {
		return "", providers.NewLocalProcessingError("no sentences found", nil)
	}
	if len(sentences) <= s.maxSentences {
		return trimmed, nil
	}

	frequency := make(map[string]float64)
	for _, sent := range sentences {
		words, err := tokenize(sent.text)
		if err != nil {
			return "", providers.NewLocalProcessingError("tokenization failed", err)
		}
		sent.words = words
		for _, w := range words {
			frequency[w]++
		}
	}

	normalise(frequency)

	for _, sent := range sentences {
		for _, w := range sent.words {
			sent.score += frequency[w]
		}
	}

	top := make([]*scoredSentence, len(sentences))
	copy(top, sentences)
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].score != top[j].score {
			return top[i].score > top[j].score
		}
		return top[i].index < top[j].index
	})
	top = top[:s.maxSentences]

	// restore reading order
	sort.Slice(top, func(i, j int) bool { return top[i].index < top[j].index })

	parts := make([]string, 0, len(top))
	for _, sent := range top {
		parts = append(parts, sent.text)
	}

	summary = strings.TrimSpace(strings.Join(parts, " "))
	if summary == "" {
		return "", providers.NewLocalProcessingError("empty summary", nil)
	}
	return summary, nil
}

func splitSentences(text string) ([]*scoredSentence, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}

	var out []*scoredSentence
	for _, sent := range doc.Sentences() {
		t := strings.TrimSpace(sent.Text)
		if t == "" {
			continue
		}
		out = append(out, &scoredSentence{index: len(out), text: t})
	}
	return out, nil
}

// tokenize returns the lowercased content words of a sentence
func tokenize(sentence string) ([]string, error) {
	doc, err := prose.NewDocument(sentence,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}

	var words []string
	for _, tok := range doc.Tokens() {
		w := strings.ToLower(tok.Text)
		if w == "" || isPunctuation(w) {
			continue
		}
		if _, stop := englishStopWords[w]; stop {
			continue
		}
		words = append(words, w)
	}
	return words, nil
}

func normalise(frequency map[string]float64) {
	maxFreq := 0.0
	for _, f := range frequency {
		if f > maxFreq {
			maxFreq = f
		}
	}
	if maxFreq == 0 {
		return
	}
	for w := range frequency {
		frequency[w] /= maxFreq
	}
}

func isPunctuation(token string) bool {
	for _, r := range token {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

var _ providers.LocalSummarizer = (*ExtractiveSummarizer)(nil)
