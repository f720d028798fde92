package models

import (
	"fmt"
	"strings"
)

// SearchQuery is a semantic search request.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Validate ensures the query is non-empty and clamps Limit into [1, maxLimit],
// using defaultLimit when Limit is unset.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	q.Limit = ClampLimit(q.Limit, defaultLimit, maxLimit)
	return nil
}

// ClampLimit returns defaultLimit when limit <= 0 and caps the result at maxLimit.
func ClampLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

// PaperInput is the request body for adding a paper.
type PaperInput struct {
	ID      string `json:"paper_id"`
	Summary string `json:"summary"`
	Title   string `json:"title,omitempty"`
	Year    string `json:"year,omitempty"`
}

// Paper converts the input into a record.
func (in *PaperInput) Paper() Paper {
	return Paper{
		ID:      strings.TrimSpace(in.ID),
		Summary: in.Summary,
		Title:   in.Title,
		Year:    in.Year,
	}
}
