package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries all service configuration, populated from environment
// variables. A .env file is honored when present.
type Config struct {
	Addr string `env:"SERVER_ADDR" envDefault:":8080"`

	UploadDir   string `env:"UPLOAD_DIR" envDefault:"./upload_files"`
	VectorDBDir string `env:"VECTOR_DB_DIR" envDefault:"./chroma-db"`

	// OpenAI-compatible chat + embeddings endpoint.
	LLMBaseURL     string `env:"LLM_BASE_URL" envDefault:"http://localhost:1234/v1"`
	LLMAPIKey      string `env:"LLM_API_KEY"`
	LLMModel       string `env:"LLM_MODEL" envDefault:"gemini-1.5-flash"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"all-MiniLM-L6-v2"`

	// Partitioning service (hi-res layout + table structure inference).
	PartitionURL    string `env:"PARTITION_API_URL" envDefault:"http://localhost:8000"`
	PartitionAPIKey string `env:"PARTITION_API_KEY"`

	// Cross-encoder re-ranking service.
	RerankURL   string `env:"RERANK_API_URL" envDefault:"http://localhost:8787"`
	RerankModel string `env:"RERANK_MODEL" envDefault:"cross-encoder/ms-marco-MiniLM-L-6-v2"`

	// Retrieval tuning.
	ChunkSize    int `env:"CHUNK_SIZE" envDefault:"800"`
	ChunkOverlap int `env:"CHUNK_OVERLAP" envDefault:"200"`
	TopKInitial  int `env:"TOP_K_INITIAL" envDefault:"10"`
	TopKFinal    int `env:"TOP_K_FINAL" envDefault:"6"`

	// Conversation memory window (turns kept per session).
	MemoryWindow int `env:"MEMORY_WINDOW" envDefault:"10"`

	// Agent loop bounds.
	AgentMaxIterations int `env:"AGENT_MAX_ITERATIONS" envDefault:"6"`
	AgentTimeoutSec    int `env:"AGENT_TIMEOUT_SEC" envDefault:"120"`

	// Upstream retry budget (retries after the first attempt).
	LLMRetries int `env:"LLM_RETRIES" envDefault:"2"`

	// Optional TTF for chart text; gg's built-in face is used when empty.
	ChartFontPath string `env:"CHART_FONT"`

	// Redis document registry (optional; registry is disabled when
	// unreachable).
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load reads configuration from the environment, after loading .env if one
// exists in the working directory.
func Load() (*Config, error) {
	// Missing .env is not an error; explicit environment always wins.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
