// Package models defines core data structures for papers, fetched articles, and search results.
package models

// Paper is a stored record, parallel to one vector in the semantic index.
// The JSON keys match the metadata file layout.
type Paper struct {
	ID      string `json:"paper_id"`
	Summary string `json:"summary"`
	Title   string `json:"title"`
	Year    string `json:"year"`
}

// Article is a paper as returned by the literature fetcher, before summarization.
type Article struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Year     string `json:"year"`
}
