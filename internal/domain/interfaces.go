package domain

import "time"

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetUploadPath() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetLogFormat() string

	GetAllowedExtensions() []string
	GetPrimaryConverterTimeout() time.Duration
	GetPDFBackend() string
	GetConverterBackend() string
	GetConverterURL() string
	GetConverterAPIKey() string

	GetAIProvider() string
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetOpenAIModel() string
	GetVertexProjectID() string
	GetVertexLocation() string
	GetVertexModel() string
	GetAnalysisTimeout() time.Duration

	GetRepositoryBackend() string
	GetDatabaseURL() string
	GetSupabaseURL() string
	GetSupabaseKey() string

	GetRedisURL() string
	GetAnalysisCacheTTL() time.Duration
}
