// Package session runs the interactive keyword loop: fetch papers from PubMed,
// summarize and index the first new one, then show related stored papers.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hyperjump/paperindex/internal/models"
	"github.com/hyperjump/paperindex/internal/persist"
	"github.com/hyperjump/paperindex/internal/pubmed"
	"github.com/hyperjump/paperindex/internal/semindex"
	"github.com/hyperjump/paperindex/internal/summarize"
	"github.com/hyperjump/paperindex/pkg/utils"
)

// Fetcher looks up articles by keyword. *pubmed.Client implements it.
type Fetcher interface {
	FetchByKeyword(ctx context.Context, keyword string, max int) ([]models.Article, error)
}

// Index is the part of *semindex.Index the session uses.
type Index interface {
	Add(ctx context.Context, paper models.Paper) (semindex.AddResult, error)
	SimilarByID(ctx context.Context, id string, k int) ([]models.ScoredPaper, error)
	Contains(id string) bool
	Get(id string) (models.Paper, bool)
}

// Catalog finds stored papers by keyword. *keyword.Catalog implements it.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
	Suggest(query string) (string, bool)
}

// Options holds the loop limits.
type Options struct {
	MaxResults        int // articles fetched per keyword
	MinAbstractLength int // shorter abstracts are skipped
	RelatedLimit      int // related papers shown after an add
	CatalogLimit      int // stored papers listed when nothing new is found
}

// Session is one interactive loop over an input and an output stream.
type Session struct {
	index      Index
	fetcher    Fetcher
	summarizer summarize.Summarizer
	catalog    Catalog
	opts       Options
	logger     *zap.Logger

	in  *bufio.Scanner
	out io.Writer
}

// New creates a session.
func New(index Index, fetcher Fetcher, summarizer summarize.Summarizer, catalog Catalog, opts Options, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 3
	}
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = 2
	}
	if opts.CatalogLimit <= 0 {
		opts.CatalogLimit = 20
	}
	return &Session{
		index:      index,
		fetcher:    fetcher,
		summarizer: summarizer,
		catalog:    catalog,
		opts:       opts,
		logger:     logger,
	}
}

// Run reads keywords from in until "exit", end of input or ctx is done.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	s.in = bufio.NewScanner(in)
	s.out = out
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		keyword, ok := s.prompt("Enter a healthcare keyword to search papers or 'exit': ")
		if !ok {
			s.printf("\n")
			return s.in.Err()
		}
		if strings.EqualFold(keyword, "exit") {
			s.printf("Exiting.\n")
			return nil
		}
		s.handle(ctx, keyword)
	}
}

func (s *Session) handle(ctx context.Context, keyword string) {
	articles, err := s.fetcher.FetchByKeyword(ctx, keyword, s.opts.MaxResults)
	if err != nil && !errors.Is(err, pubmed.ErrNoResults) {
		s.logger.Warn("fetch failed", zap.String("keyword", keyword), zap.Error(err))
		s.printf("Error fetching papers: %v\n", err)
		return
	}

	var candidate *models.Article
	for i := range articles {
		a := &articles[i]
		if utf8.RuneCountInString(strings.TrimSpace(a.Abstract)) < s.opts.MinAbstractLength {
			continue
		}
		if s.index.Contains(a.ID) {
			continue
		}
		candidate = a
		break
	}
	if candidate == nil {
		s.browse(ctx, keyword)
		return
	}
	s.ingest(ctx, *candidate)
}

// ingest summarizes a, stores it and prints its related papers.
func (s *Session) ingest(ctx context.Context, a models.Article) {
	s.printf("\nSummarizing paper: %s (%s)\n", a.Title, a.Year)
	summary, err := s.summarizer.Summarize(ctx, a.Abstract)
	if err != nil {
		s.logger.Warn("summarize failed", zap.String("paper_id", a.ID), zap.Error(err))
		s.printf("Error summarizing paper: %v\n", err)
		return
	}
	s.printf("\nSummary:\n%s\n", summary)

	_, err = s.index.Add(ctx, models.Paper{ID: a.ID, Summary: summary, Title: a.Title, Year: a.Year})
	if err != nil {
		var perr *persist.PersistenceError
		if !errors.As(err, &perr) {
			s.printf("Error storing paper: %v\n", err)
			return
		}
		s.printf("Warning: paper kept for this session but not saved: %v\n", err)
	}

	related, err := s.index.SimilarByID(ctx, a.ID, s.opts.RelatedLimit)
	if err != nil {
		s.printf("Error finding related papers: %v\n", err)
		return
	}
	if len(related) == 0 {
		s.printf("\nNo similar papers found in the database.\n")
		return
	}
	s.printf("\nRelated papers based on summary similarity:\n")
	for _, r := range related {
		s.printf("- %s (%s)\n", r.Title, r.Year)
	}
}

// browse lists stored papers matching keyword and shows the summary the user picks.
func (s *Session) browse(ctx context.Context, keyword string) {
	ids, err := s.catalog.Search(ctx, keyword, s.opts.CatalogLimit)
	if err != nil {
		s.logger.Warn("catalog search failed", zap.String("keyword", keyword), zap.Error(err))
	}
	matched := make([]models.Paper, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.index.Get(id); ok {
			matched = append(matched, p)
		}
	}

	if len(matched) == 0 {
		s.printf("No suitable paper found in PubMed or in your database.\n")
		if suggestion, ok := s.catalog.Suggest(keyword); ok {
			s.printf("Did you mean %q?\n", suggestion)
		}
		return
	}

	s.printf("No new paper found, but here are some from your existing database:\n")
	for i, p := range matched {
		s.printf("%d. %s (%s)\n", i+1, utils.Truncate(p.Title, 100), p.Year)
	}
	choice, _ := s.prompt("Enter the number of a paper to view its summary, or press Enter to skip: ")
	if !isDigits(choice) {
		s.printf("Skipping selection.\n")
		return
	}
	n, err := strconv.Atoi(choice)
	if err != nil {
		s.printf("Invalid selection.\n")
		return
	}
	if n < 1 || n > len(matched) {
		s.printf("Invalid selection.\n")
		return
	}
	selected := matched[n-1]
	s.printf("\nSummary for: %s (%s)\n%s\n", selected.Title, selected.Year, selected.Summary)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *Session) prompt(text string) (string, bool) {
	s.printf("%s", text)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
