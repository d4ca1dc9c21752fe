package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"doc-analyzer/internal/domain"

	"gopkg.in/yaml.v3"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort  string `yaml:"server_port"`
	UploadPath  string `yaml:"upload_path"`
	MaxFileSize int64  `yaml:"max_file_size"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`

	AllowedExtensions       []string      `yaml:"allowed_extensions"`
	PrimaryConverterTimeout time.Duration `yaml:"primary_converter_timeout"`
	PDFBackend              string        `yaml:"pdf_backend"`
	ConverterBackend        string        `yaml:"converter_backend"`
	ConverterURL            string        `yaml:"converter_url"`
	ConverterAPIKey         string        `yaml:"converter_api_key"`

	AIProvider      string        `yaml:"ai_provider"`
	OpenAIAPIKey    string        `yaml:"openai_api_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	OpenAIModel     string        `yaml:"openai_model"`
	VertexProjectID string        `yaml:"vertex_project_id"`
	VertexLocation  string        `yaml:"vertex_location"`
	VertexModel     string        `yaml:"vertex_model"`
	AnalysisTimeout time.Duration `yaml:"analysis_timeout"`

	RepositoryBackend string `yaml:"repository_backend"`
	DatabaseURL       string `yaml:"database_url"`
	SupabaseURL       string `yaml:"supabase_url"`
	SupabaseKey       string `yaml:"supabase_service_key"`

	RedisURL         string        `yaml:"redis_url"`
	AnalysisCacheTTL time.Duration `yaml:"analysis_cache_ttl"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *AppConfig {
	return &AppConfig{
		ServerPort:  "8080",
		UploadPath:  "./uploads",
		MaxFileSize: 16 * 1024 * 1024, // 16MB
		LogLevel:    "info",
		LogFormat:   "json",

		AllowedExtensions:       []string{"pdf", "doc", "docx"},
		PrimaryConverterTimeout: 60 * time.Second,
		PDFBackend:              "fitz",
		ConverterBackend:        "mupdf",

		AIProvider:      "openai",
		OpenAIModel:     "gpt-4o",
		VertexLocation:  "us-central1",
		VertexModel:     "gemini-2.0-flash-001",
		AnalysisTimeout: 2 * time.Minute,

		RepositoryBackend: "sql",
		DatabaseURL:       "sqlite://documents.db",

		AnalysisCacheTTL: 24 * time.Hour,
	}
}

// NewConfig creates a new configuration instance from defaults and the environment.
// CONFIG_FILE, when set, names a YAML file applied before the environment.
func NewConfig() domain.Config {
	cfg, err := LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v, using defaults and environment\n", err)
		cfg = Defaults()
		cfg.applyEnv()
	}
	return cfg
}

// LoadConfig reads defaults, then the optional YAML file at path, then the environment.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.AllowedExtensions = normalizeExtensions(cfg.AllowedExtensions)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	// Cloud Run (and many PaaS) provide the listening port via PORT.
	// Keep SERVER_PORT for local/dev compatibility.
	c.ServerPort = getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", c.ServerPort))
	c.UploadPath = getEnvOrDefault("UPLOAD_PATH", c.UploadPath)
	c.MaxFileSize = getEnvInt64OrDefault("MAX_FILE_SIZE", c.MaxFileSize)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("LOG_FORMAT", c.LogFormat)

	c.AllowedExtensions = getEnvListOrDefault("ALLOWED_EXTENSIONS", c.AllowedExtensions)
	c.PrimaryConverterTimeout = getEnvDurationOrDefault("PRIMARY_CONVERTER_TIMEOUT", c.PrimaryConverterTimeout)
	c.PDFBackend = getEnvOrDefault("PDF_BACKEND", c.PDFBackend)
	c.ConverterBackend = getEnvOrDefault("CONVERTER_BACKEND", c.ConverterBackend)
	c.ConverterURL = getEnvOrDefault("CONVERTER_URL", c.ConverterURL)
	c.ConverterAPIKey = getEnvOrDefault("CONVERTER_API_KEY", c.ConverterAPIKey)

	c.AIProvider = getEnvOrDefault("AI_PROVIDER", c.AIProvider)
	c.OpenAIAPIKey = getEnvOrDefault("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = getEnvOrDefault("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", c.OpenAIModel)
	c.VertexProjectID = getEnvOrDefault("VERTEX_PROJECT_ID", c.VertexProjectID)
	c.VertexLocation = getEnvOrDefault("VERTEX_LOCATION", c.VertexLocation)
	c.VertexModel = getEnvOrDefault("VERTEX_MODEL", c.VertexModel)
	c.AnalysisTimeout = getEnvDurationOrDefault("ANALYSIS_TIMEOUT", c.AnalysisTimeout)

	c.RepositoryBackend = getEnvOrDefault("REPOSITORY_BACKEND", c.RepositoryBackend)
	c.DatabaseURL = getEnvOrDefault("DATABASE_URL", c.DatabaseURL)
	c.SupabaseURL = getEnvOrDefault("SUPABASE_URL", c.SupabaseURL)
	c.SupabaseKey = getEnvOrDefault("SUPABASE_SERVICE_KEY", c.SupabaseKey)

	c.RedisURL = getEnvOrDefault("REDIS_URL", c.RedisURL)
	c.AnalysisCacheTTL = getEnvDurationOrDefault("ANALYSIS_CACHE_TTL", c.AnalysisCacheTTL)
}

// Validate rejects settings the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	if c.MaxFileSize <= 0 {
		return &domain.ValidationError{Field: "max_file_size", Message: "must be positive"}
	}
	if c.PrimaryConverterTimeout <= 0 {
		return &domain.ValidationError{Field: "primary_converter_timeout", Message: "must be positive"}
	}
	if len(c.AllowedExtensions) == 0 {
		return &domain.ValidationError{Field: "allowed_extensions", Message: "at least one extension is required"}
	}
	switch c.ConverterBackend {
	case "mupdf":
	case "http":
		if c.ConverterURL == "" {
			return &domain.ValidationError{Field: "converter_url", Message: "required for the http converter"}
		}
	default:
		return &domain.ValidationError{Field: "converter_backend", Message: "unknown backend " + c.ConverterBackend}
	}
	switch c.PDFBackend {
	case "fitz", "native":
	default:
		return &domain.ValidationError{Field: "pdf_backend", Message: "unknown backend " + c.PDFBackend}
	}
	return nil
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetUploadPath returns the upload directory path
func (c *AppConfig) GetUploadPath() string {
	return c.UploadPath
}

// GetMaxFileSize returns the maximum allowed file size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetLogFormat returns json or console
func (c *AppConfig) GetLogFormat() string {
	return c.LogFormat
}

// GetAllowedExtensions returns the accepted file extensions, lower-case and without dots
func (c *AppConfig) GetAllowedExtensions() []string {
	return c.AllowedExtensions
}

func (c *AppConfig) GetPrimaryConverterTimeout() time.Duration {
	return c.PrimaryConverterTimeout
}

func (c *AppConfig) GetPDFBackend() string {
	return c.PDFBackend
}

func (c *AppConfig) GetConverterBackend() string {
	return c.ConverterBackend
}

func (c *AppConfig) GetConverterURL() string {
	return c.ConverterURL
}

func (c *AppConfig) GetConverterAPIKey() string {
	return c.ConverterAPIKey
}

// GetAIProvider returns openai or vertex
func (c *AppConfig) GetAIProvider() string {
	return c.AIProvider
}

func (c *AppConfig) GetOpenAIAPIKey() string {
	return c.OpenAIAPIKey
}

func (c *AppConfig) GetOpenAIBaseURL() string {
	return c.OpenAIBaseURL
}

func (c *AppConfig) GetOpenAIModel() string {
	return c.OpenAIModel
}

func (c *AppConfig) GetVertexProjectID() string {
	return c.VertexProjectID
}

func (c *AppConfig) GetVertexLocation() string {
	return c.VertexLocation
}

func (c *AppConfig) GetVertexModel() string {
	return c.VertexModel
}

func (c *AppConfig) GetAnalysisTimeout() time.Duration {
	return c.AnalysisTimeout
}

// GetRepositoryBackend returns sql or supabase
func (c *AppConfig) GetRepositoryBackend() string {
	return c.RepositoryBackend
}

func (c *AppConfig) GetDatabaseURL() string {
	return c.DatabaseURL
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase service key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetRedisURL returns the analysis cache address; empty disables the cache
func (c *AppConfig) GetRedisURL() string {
	return c.RedisURL
}

func (c *AppConfig) GetAnalysisCacheTTL() time.Duration {
	return c.AnalysisCacheTTL
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("90s") or a bare number of seconds.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	out := normalizeExtensions(strings.Split(value, ","))
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}
