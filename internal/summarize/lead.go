package summarize

import (
	"context"
	"strings"
	"unicode"
)

// LeadSummarizer returns the first sentences of the text. It needs no model.
type LeadSummarizer struct {
	maxSentences int
}

// NewLeadSummarizer keeps up to maxSentences sentences (3 when <= 0).
func NewLeadSummarizer(maxSentences int) *LeadSummarizer {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &LeadSummarizer{maxSentences: maxSentences}
}

// Summarize returns the leading sentences of text with whitespace collapsed.
func (s *LeadSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", ErrEmptyText
	}
	sentences := splitSentences(text)
	if len(sentences) > s.maxSentences {
		sentences = sentences[:s.maxSentences]
	}
	return strings.Join(sentences, " "), nil
}

// splitSentences splits after '.', '!' or '?' when followed by a space and an
// upper-case letter or digit, so "e.g. the" stays in one sentence.
func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
		default:
			continue
		}
		if i+2 >= len(runes) || runes[i+1] != ' ' {
			continue
		}
		next := runes[i+2]
		if !unicode.IsUpper(next) && !unicode.IsDigit(next) {
			continue
		}
		out = append(out, strings.TrimSpace(string(runes[start:i+1])))
		start = i + 2
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		out = append(out, rest)
	}
	return out
}
