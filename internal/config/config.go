package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ModelConfig configures the OpenAI-compatible chat model used by the agent.
type ModelConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxSteps    int    `yaml:"max_steps"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
// TFIDFState is where the ingest-time vocabulary is saved so the answering
// process can embed queries consistently.
type EmbedderConfig struct {
	Type       string                `yaml:"type"`
	TFIDFState string                `yaml:"tfidf_state,omitempty"`
	OpenAI     *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
// Snapshot is the on-disk index file used by the memory store.
type VectorStoreConfig struct {
	Type     string        `yaml:"type"`
	Snapshot string        `yaml:"snapshot,omitempty"`
	Qdrant   *QdrantConfig `yaml:"qdrant,omitempty"`
}

// RetrieverConfig controls similarity search fan-out.
type RetrieverConfig struct {
	TopK int `yaml:"top_k"`
}

// ProfileConfig locates the user profile text injected into the system prompt.
type ProfileConfig struct {
	Path         string `yaml:"path"`
	MaxSentences int    `yaml:"max_sentences"`
}

// IngestConfig configures the offline history ingestion pipeline.
type IngestConfig struct {
	HistoryDB         string   `yaml:"history_db"`
	StartDate         string   `yaml:"start_date"`
	EndDate           string   `yaml:"end_date"`
	FetchTimeoutSecs  int      `yaml:"fetch_timeout_secs"`
	BatchSize         int      `yaml:"batch_size"`
	SkipKeywords      []string `yaml:"skip_keywords"`
	SentencesPerChunk int      `yaml:"sentences_per_chunk"`
	OverlapSentences  int      `yaml:"overlap_sentences"`
}

// ServerConfig configures the HTTP ask API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Model       ModelConfig       `yaml:"model"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	Profile     ProfileConfig     `yaml:"profile"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Server      ServerConfig      `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/webmemory/config.yaml.
// If neither exists, it writes defaults to ~/.config/webmemory/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "webmemory", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Model: ModelConfig{
			APIKeyEnv: "OPENAI_API_KEY",
			Model:     "gpt-4o",
		},
		Embedder:    EmbedderConfig{Type: "tfidf"},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Retriever:   RetrieverConfig{TopK: 8},
		Profile:     ProfileConfig{Path: "data/user_profile.txt", MaxSentences: 5},
		Ingest: IngestConfig{
			HistoryDB:         "data/history_copy.db",
			FetchTimeoutSecs:  15,
			BatchSize:         50,
			SkipKeywords:      []string{"login", "account", "mfa", "password", "oauth"},
			SentencesPerChunk: 5,
			OverlapSentences:  1,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Model.BaseURL == "" {
		cfg.Model.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model.APIKeyEnv == "" {
		cfg.Model.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Model.Model == "" {
		cfg.Model.Model = "gpt-4o"
	}
	if cfg.Model.TimeoutSecs == 0 {
		cfg.Model.TimeoutSecs = 60
	}
	if cfg.Model.MaxSteps == 0 {
		cfg.Model.MaxSteps = 8
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 8
	}
	if cfg.Embedder.Type == "" || cfg.Embedder.Type == "tfidf" {
		if cfg.Embedder.TFIDFState == "" {
			cfg.Embedder.TFIDFState = "data/tfidf.gob"
		}
	}
	if cfg.VectorStore.Type == "" || cfg.VectorStore.Type == "memory" {
		if cfg.VectorStore.Snapshot == "" {
			cfg.VectorStore.Snapshot = "data/index.gob"
		}
	}
	if cfg.Profile.Path == "" {
		cfg.Profile.Path = "data/user_profile.txt"
	}
	if cfg.Profile.MaxSentences == 0 {
		cfg.Profile.MaxSentences = 5
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Ingest.FetchTimeoutSecs == 0 {
		cfg.Ingest.FetchTimeoutSecs = 15
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 50
	}
	if cfg.Ingest.SentencesPerChunk == 0 {
		cfg.Ingest.SentencesPerChunk = 5
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
}
