// Package cli provides output formatting and an HTTP client for the paperindex command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/paperindex/internal/models"
	"github.com/hyperjump/paperindex/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes a search or similar-papers response.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	switch {
	case response.SeedID != "":
		fmt.Fprintf(w, "\n%d papers similar to %s (%dms)\n\n", response.Total, response.SeedID, response.QueryTime)
	default:
		fmt.Fprintf(w, "\nFound %d results for %q in %dms\n\n", response.Total, response.Query, response.QueryTime)
	}
	for i, r := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. %s | Score: %.4f\n", i+1, r.ID, r.Score)
		writePaperHeading(w, r.Paper)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Summary, 200))
	}
	return nil
}

// WritePaper writes a single paper with its full summary.
func WritePaper(w io.Writer, p models.Paper, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, p)
	}
	fmt.Fprintf(w, "ID: %s\n", p.ID)
	writePaperHeading(w, p)
	fmt.Fprintf(w, "\n%s\n", p.Summary)
	return nil
}

func writePaperHeading(w io.Writer, p models.Paper) {
	switch {
	case p.Title != "" && p.Year != "":
		fmt.Fprintf(w, "Title: %s (%s)\n", p.Title, p.Year)
	case p.Title != "":
		fmt.Fprintf(w, "Title: %s\n", p.Title)
	case p.Year != "":
		fmt.Fprintf(w, "Year: %s\n", p.Year)
	}
}

// WriteStatus writes index status.
func WriteStatus(w io.Writer, status *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "papers:             %d   # metadata records\n", status.Papers)
	fmt.Fprintf(w, "vectors:            %d   # vectors in the semantic index\n", status.Vectors)
	if !status.Consistent {
		fmt.Fprintf(w, "WARNING: vector and metadata counts differ; results may be mislabeled\n")
	}
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # both state files\n", *status.DiskUsageBytes)
	}
	if c := status.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		fmt.Fprintf(w, "index_type:         %s\n", c.IndexType)
		fmt.Fprintf(w, "embedding_dims:     %d\n", c.EmbeddingDimensions)
		if c.EmbeddingProvider != "" {
			fmt.Fprintf(w, "embedding_provider: %s\n", c.EmbeddingProvider)
		}
		if c.SummarizerProvider != "" {
			fmt.Fprintf(w, "summarizer:         %s\n", c.SummarizerProvider)
		}
		if c.VectorPath != "" {
			fmt.Fprintf(w, "vector_path:        %s\n", c.VectorPath)
		}
		if c.MetadataPath != "" {
			fmt.Fprintf(w, "metadata_path:      %s\n", c.MetadataPath)
		}
	}
	return nil
}
