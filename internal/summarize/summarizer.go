// Package summarize condenses paper abstracts into short clinician-oriented summaries.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/paperindex/internal/config"
)

// ErrEmptyText is returned when there is nothing to summarize.
var ErrEmptyText = errors.New("empty text")

// Summarizer turns an abstract into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// New builds the summarizer selected by cfg.Provider. The OpenAI provider reads
// its key from the environment variable named by cfg.APIKeyEnv.
func New(cfg config.SummarizerConfig, logger *zap.Logger) (Summarizer, error) {
	switch cfg.Provider {
	case config.SummarizerLead, "":
		return NewLeadSummarizer(cfg.MaxSentences), nil
	case config.SummarizerOpenAI:
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("summarizer provider %q needs an API key in $%s", cfg.Provider, cfg.APIKeyEnv)
		}
		return NewOpenAISummarizer(OpenAIOptions{
			APIKey:        key,
			BaseURL:       cfg.BaseURL,
			Model:         cfg.Model,
			MaxTokens:     cfg.MaxTokens,
			MaxInputWords: cfg.MaxInputWords,
			Timeout:       cfg.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider: %s", cfg.Provider)
	}
}

// truncateWords keeps at most n whitespace-separated words of text.
func truncateWords(text string, n int) string {
	words := strings.Fields(text)
	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
