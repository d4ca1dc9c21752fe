package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

const defaultMaxFileSize int64 = 16 * 1024 * 1024

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "SERVER_PORT", "MAX_FILE_SIZE", "LOG_LEVEL", "LOG_FORMAT",
		"ALLOWED_EXTENSIONS", "PRIMARY_CONVERTER_TIMEOUT", "PDF_BACKEND", "CONVERTER_BACKEND",
		"CONVERTER_URL", "AI_PROVIDER", "OPENAI_API_KEY", "DATABASE_URL", "REDIS_URL",
		"SUPABASE_URL", "SUPABASE_SERVICE_KEY", "REPOSITORY_BACKEND",
	} {
		t.Setenv(key, "")
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := NewConfig()

	if cfg.GetServerPort() != "8080" {
		t.Fatalf("expected default server port 8080, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != defaultMaxFileSize {
		t.Fatalf("expected default max file size %d, got %d", defaultMaxFileSize, cfg.GetMaxFileSize())
	}
	if cfg.GetLogLevel() != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.GetLogLevel())
	}
	if !reflect.DeepEqual(cfg.GetAllowedExtensions(), []string{"pdf", "doc", "docx"}) {
		t.Fatalf("unexpected default extensions %v", cfg.GetAllowedExtensions())
	}
	if cfg.GetPrimaryConverterTimeout() != 60*time.Second {
		t.Fatalf("expected default converter timeout 60s, got %s", cfg.GetPrimaryConverterTimeout())
	}
	if cfg.GetConverterBackend() != "mupdf" {
		t.Fatalf("expected default converter backend mupdf, got %s", cfg.GetConverterBackend())
	}
	if cfg.GetDatabaseURL() != "sqlite://documents.db" {
		t.Fatalf("unexpected default database url %s", cfg.GetDatabaseURL())
	}
	if cfg.GetRedisURL() != "" {
		t.Fatalf("expected redis disabled by default, got %s", cfg.GetRedisURL())
	}
}

func TestNewConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("MAX_FILE_SIZE", "12345")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_EXTENSIONS", ".PDF, docx")
	t.Setenv("PRIMARY_CONVERTER_TIMEOUT", "15")
	t.Setenv("CONVERTER_BACKEND", "http")
	t.Setenv("CONVERTER_URL", "http://converter:8000/convert")
	t.Setenv("AI_PROVIDER", "vertex")
	t.Setenv("ANALYSIS_CACHE_TTL", "90m")

	cfg := NewConfig()

	if cfg.GetServerPort() != "9090" {
		t.Fatalf("expected server port 9090, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != 12345 {
		t.Fatalf("expected max file size 12345, got %d", cfg.GetMaxFileSize())
	}
	if cfg.GetLogLevel() != "debug" {
		t.Fatalf("expected log level debug, got %s", cfg.GetLogLevel())
	}
	if !reflect.DeepEqual(cfg.GetAllowedExtensions(), []string{"pdf", "docx"}) {
		t.Fatalf("expected normalized extensions, got %v", cfg.GetAllowedExtensions())
	}
	if cfg.GetPrimaryConverterTimeout() != 15*time.Second {
		t.Fatalf("expected converter timeout 15s, got %s", cfg.GetPrimaryConverterTimeout())
	}
	if cfg.GetConverterURL() != "http://converter:8000/convert" {
		t.Fatalf("unexpected converter url %s", cfg.GetConverterURL())
	}
	if cfg.GetAIProvider() != "vertex" {
		t.Fatalf("expected ai provider vertex, got %s", cfg.GetAIProvider())
	}
	if cfg.GetAnalysisCacheTTL() != 90*time.Minute {
		t.Fatalf("expected cache ttl 90m, got %s", cfg.GetAnalysisCacheTTL())
	}
}

func TestNewConfig_Fallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9091")
	t.Setenv("MAX_FILE_SIZE", "not-a-number")
	t.Setenv("PRIMARY_CONVERTER_TIMEOUT", "soon")

	cfg := NewConfig()

	if cfg.GetServerPort() != "9091" {
		t.Fatalf("expected server port 9091, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != defaultMaxFileSize {
		t.Fatalf("expected default max file size %d, got %d", defaultMaxFileSize, cfg.GetMaxFileSize())
	}
	if cfg.GetPrimaryConverterTimeout() != 60*time.Second {
		t.Fatalf("expected default converter timeout, got %s", cfg.GetPrimaryConverterTimeout())
	}
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server_port: "7000"
max_file_size: 1024
allowed_extensions: [".DOCX"]
primary_converter_timeout: 5s
pdf_backend: native
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAX_FILE_SIZE", "2048")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.GetServerPort() != "7000" {
		t.Errorf("server port = %s, want 7000", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != 2048 {
		t.Errorf("environment should win over file, got %d", cfg.GetMaxFileSize())
	}
	if !reflect.DeepEqual(cfg.GetAllowedExtensions(), []string{"docx"}) {
		t.Errorf("extensions = %v, want [docx]", cfg.GetAllowedExtensions())
	}
	if cfg.GetPrimaryConverterTimeout() != 5*time.Second {
		t.Errorf("timeout = %s, want 5s", cfg.GetPrimaryConverterTimeout())
	}
	if cfg.GetPDFBackend() != "native" {
		t.Errorf("pdf backend = %s, want native", cfg.GetPDFBackend())
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"http converter without url", map[string]string{"CONVERTER_BACKEND": "http"}},
		{"unknown converter", map[string]string{"CONVERTER_BACKEND": "pandoc"}},
		{"unknown pdf backend", map[string]string{"PDF_BACKEND": "poppler"}},
		{"negative size", map[string]string{"MAX_FILE_SIZE": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(""); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
