package models

// Status summarizes the index for the status endpoint and command.
type Status struct {
	Papers         int           `json:"papers"`
	Vectors        int           `json:"vectors"`
	Consistent     bool          `json:"consistent"` // vectors == papers
	DiskUsageBytes *int64        `json:"disk_usage_bytes,omitempty"`
	Config         *StatusConfig `json:"config,omitempty"`
}

// StatusConfig is the configuration part of Status.
type StatusConfig struct {
	IndexType           string `json:"index_type"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
	EmbeddingProvider   string `json:"embedding_provider,omitempty"`
	SummarizerProvider  string `json:"summarizer_provider,omitempty"`
	VectorPath          string `json:"vector_path,omitempty"`
	MetadataPath        string `json:"metadata_path,omitempty"`
}
