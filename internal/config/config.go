package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultChunkSize        = 1000
	defaultChunkOverlap     = 150
	defaultTopK             = 3
	defaultContextCharLimit = 1200
	defaultOCRDPI           = 300
	defaultOCRMaxPages      = 20
	defaultOCRTimeout       = 10 * time.Second
	defaultLLMTimeout       = 60 * time.Second
	defaultMaxSessions      = 100
	defaultListenAddr       = ":8080"
	defaultLocalDimension   = 384

	defaultLLMBaseURL = "https://openrouter.ai/api/v1"
	defaultLLMModel   = "meta-llama/llama-3-8b-instruct"
)

type Config struct {
	LogLevel string         `yaml:"log_level"`
	LLM      LLMConfig      `yaml:"llm"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	RAG      RAGConfig      `yaml:"rag"`
	OCR      OCRConfig      `yaml:"ocr"`
	Index    IndexConfig    `yaml:"index"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
}

// LLMConfig describes a model endpoint. Provider is only used for embeddings
// (local, cybertron, ollama, openai); generation always talks to an
// OpenAI-compatible endpoint.
type LLMConfig struct {
	Provider  string            `yaml:"provider"`
	BaseURL   string            `yaml:"base_url"`
	Key       string            `yaml:"key"`
	Model     string            `yaml:"model"`
	Dimension int               `yaml:"dimension"`
	ModelsDir string            `yaml:"models_dir"`
	Timeout   time.Duration     `yaml:"timeout"`
	Headers   map[string]string `yaml:"headers"`
}

type RAGConfig struct {
	ChunkSize        int  `yaml:"chunk_size"`
	ChunkOverlap     *int `yaml:"chunk_overlap"` // nil means default; 0 disables overlap
	TopK             int  `yaml:"top_k"`
	ContextCharLimit int  `yaml:"context_char_limit"`
}

type OCRConfig struct {
	Engine        string        `yaml:"engine"` // cli or gosseract
	TesseractPath string        `yaml:"tesseract_path"`
	PdftoppmPath  string        `yaml:"pdftoppm_path"`
	Language      string        `yaml:"language"`
	DPI           int           `yaml:"dpi"`
	MaxPages      int           `yaml:"max_pages"`
	Timeout       time.Duration `yaml:"timeout"`
}

type IndexConfig struct {
	Backend string `yaml:"backend"` // memory or postgres
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // pgdriver or pq
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

type SessionConfig struct {
	MaxSessions int `yaml:"max_sessions"`
}

// LoadConfig reads the YAML file at path and fills in defaults. A missing file
// is not an error. Values from a .env file in the working directory are
// loaded into the environment first.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	key := firstEnv("OPENROUTER_API_KEY", "OPENAI_API_KEY")
	if cfg.LLM.Key == "" {
		cfg.LLM.Key = key
	}
	if cfg.EmbedLLM.Key == "" {
		cfg.EmbedLLM.Key = key
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = os.Getenv("DATABASE_URL")
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = defaultLLMBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultLLMModel
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = defaultLLMTimeout
	}

	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "local"
	}
	if cfg.EmbedLLM.Provider == "local" && cfg.EmbedLLM.Dimension == 0 {
		cfg.EmbedLLM.Dimension = defaultLocalDimension
	}
	if cfg.EmbedLLM.Provider == "cybertron" && cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.EmbedLLM.Timeout == 0 {
		cfg.EmbedLLM.Timeout = defaultLLMTimeout
	}

	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.ChunkOverlap == nil {
		overlap := defaultChunkOverlap
		cfg.RAG.ChunkOverlap = &overlap
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = defaultTopK
	}
	if cfg.RAG.ContextCharLimit == 0 {
		cfg.RAG.ContextCharLimit = defaultContextCharLimit
	}

	if cfg.OCR.Engine == "" {
		cfg.OCR.Engine = "cli"
	}
	if cfg.OCR.TesseractPath == "" {
		cfg.OCR.TesseractPath = "tesseract"
	}
	if cfg.OCR.PdftoppmPath == "" {
		cfg.OCR.PdftoppmPath = "pdftoppm"
	}
	if cfg.OCR.Language == "" {
		cfg.OCR.Language = "eng"
	}
	if cfg.OCR.DPI == 0 {
		cfg.OCR.DPI = defaultOCRDPI
	}
	if cfg.OCR.MaxPages == 0 {
		cfg.OCR.MaxPages = defaultOCRMaxPages
	}
	if cfg.OCR.Timeout == 0 {
		cfg.OCR.Timeout = defaultOCRTimeout
	}

	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "memory"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgdriver"
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultListenAddr
	}
	if cfg.Server.MaxUploadSize == 0 {
		cfg.Server.MaxUploadSize = 32 << 20
	}
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = defaultMaxSessions
	}
}
