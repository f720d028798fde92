package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const clinicianPrompt = "Summarize this medical research abstract for a clinician. " +
	"Include key findings, methodology, population size, and clinical relevance."

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 200
	defaultTimeout   = 60 * time.Second
)

// OpenAIOptions configures OpenAISummarizer. An empty BaseURL uses the OpenAI API.
type OpenAIOptions struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxTokens     int
	MaxInputWords int
	Timeout       time.Duration
}

// OpenAISummarizer summarizes with a chat-completion model behind any
// OpenAI-compatible endpoint.
type OpenAISummarizer struct {
	client    *openai.Client
	model     string
	maxTokens int
	maxWords  int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewOpenAISummarizer creates a summarizer for opts.
func NewOpenAISummarizer(opts OpenAIOptions, logger *zap.Logger) *OpenAISummarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	s := &OpenAISummarizer{
		client:    openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		maxWords:  opts.MaxInputWords,
		timeout:   opts.Timeout,
		logger:    logger,
	}
	if s.model == "" {
		s.model = defaultModel
	}
	if s.maxTokens <= 0 {
		s.maxTokens = defaultMaxTokens
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	return s
}

// Summarize sends the abstract, cut to the input word budget, with the clinician prompt.
func (s *OpenAISummarizer) Summarize(ctx context.Context, text string) (string, error) {
	input := truncateWords(text, s.maxWords)
	if input == "" {
		return "", ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: clinicianPrompt},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		s.logger.Error("summary request failed",
			zap.String("model", s.model),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("summary request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model %s", s.model)
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("empty summary from model %s", s.model)
	}
	s.logger.Debug("summary generated",
		zap.String("model", s.model),
		zap.Int("input_words", len(strings.Fields(input))),
		zap.Duration("latency", time.Since(start)))
	return summary, nil
}
