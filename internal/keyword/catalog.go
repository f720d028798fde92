// Package keyword provides an in-memory full-text catalog of stored papers.
package keyword

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/hyperjump/paperindex/internal/models"
)

// paperDoc is the indexed form of a paper. Position keeps results in insertion order.
type paperDoc struct {
	Title    string  `json:"title"`
	Summary  string  `json:"summary"`
	Year     string  `json:"year"`
	Position float64 `json:"position"`
}

// Catalog is a bleve in-memory index over paper titles and summaries.
type Catalog struct {
	index bleve.Index
	mu    sync.Mutex
	next  int
}

// NewCatalog creates an empty catalog.
func NewCatalog() (*Catalog, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer: lower-case and tokenize without stemming, so "statin"
	// does not match "statins" by accident of the stemmer.
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textField)
	docMapping.AddFieldMappingsAt("summary", textField)
	docMapping.AddFieldMappingsAt("year", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("position", bleve.NewNumericFieldMapping())
	im.AddDocumentMapping("paper", docMapping)
	im.DefaultType = "paper"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index: %w", err)
	}
	return &Catalog{index: index}, nil
}

// Add indexes p after the papers already in the catalog.
func (c *Catalog) Add(p models.Paper) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc := paperDoc{Title: p.Title, Summary: p.Summary, Year: p.Year, Position: float64(c.next)}
	if err := c.index.Index(p.ID, doc); err != nil {
		return fmt.Errorf("index paper %s: %w", p.ID, err)
	}
	c.next++
	return nil
}

// Search returns the ids of up to limit papers whose title or summary contains
// query as a phrase, oldest first. A blank query matches nothing.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return []string{}, nil
	}

	title := bleve.NewMatchPhraseQuery(query)
	title.SetField("title")
	summary := bleve.NewMatchPhraseQuery(query)
	summary.SetField("summary")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(title, summary))
	req.Size = limit
	req.SortBy([]string{"position"})
	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}
	ids := make([]string, len(res.Hits))
	for i, hit := range res.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// Count returns the number of indexed papers.
func (c *Catalog) Count() (uint64, error) {
	return c.index.DocCount()
}

// Close releases the index.
func (c *Catalog) Close() error {
	return c.index.Close()
}
