package config

import "time"

// Embedding providers.
const (
	ProviderAuto    = "auto"
	ProviderONNX    = "onnx"
	ProviderHashing = "hashing"
)

// Summarizer providers.
const (
	SummarizerOpenAI = "openai"
	SummarizerLead   = "lead"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.VectorPath == "" {
		cfg.Storage.VectorPath = ".paperindex/paper_index.bin"
	}
	if cfg.Storage.MetadataPath == "" {
		cfg.Storage.MetadataPath = ".paperindex/paper_metadata.json"
	}
	if cfg.Storage.IndexType == "" {
		cfg.Storage.IndexType = "memory"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderAuto
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = ".paperindex/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Summarizer.Provider == "" {
		cfg.Summarizer.Provider = SummarizerLead
	}
	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = "gpt-4o-mini"
	}
	if cfg.Summarizer.APIKeyEnv == "" {
		cfg.Summarizer.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Summarizer.MaxTokens == 0 {
		cfg.Summarizer.MaxTokens = 200
	}
	if cfg.Summarizer.MaxInputWords == 0 {
		cfg.Summarizer.MaxInputWords = 700
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Summarizer.Timeout == 0 {
		cfg.Summarizer.Timeout = 60 * time.Second
	}
	if cfg.PubMed.BaseURL == "" {
		cfg.PubMed.BaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	}
	if cfg.PubMed.MaxResults == 0 {
		cfg.PubMed.MaxResults = 3
	}
	if cfg.PubMed.MinAbstractLength == 0 {
		cfg.PubMed.MinAbstractLength = 100
	}
	if cfg.PubMed.Timeout == 0 {
		cfg.PubMed.Timeout = 10 * time.Second
	}
	if cfg.PubMed.APIKeyEnv == "" {
		cfg.PubMed.APIKeyEnv = "NCBI_API_KEY"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 3
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.RelatedLimit == 0 {
		cfg.Search.RelatedLimit = 2
	}
}
