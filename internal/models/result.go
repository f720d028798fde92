package models

// ScoredPaper is a single similarity hit. It encodes as the paper's fields plus score.
type ScoredPaper struct {
	Paper
	Score float64 `json:"score"` // inner product of unit vectors (cosine similarity)
}

// SearchResponse is the response for a search or similar-papers request.
type SearchResponse struct {
	Query     string        `json:"query,omitempty"`
	SeedID    string        `json:"seed_id,omitempty"`
	Results   []ScoredPaper `json:"results"`
	Total     int           `json:"total"`
	QueryTime int64         `json:"query_time_ms"`
}
