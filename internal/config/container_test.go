package config

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"doc-analyzer/internal/analyzer"

	"github.com/alicebob/miniredis/v2"
)

func testConfig(t *testing.T) *AppConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := Defaults()
	cfg.UploadPath = filepath.Join(dir, "uploads")
	cfg.DatabaseURL = "sqlite://" + filepath.Join(dir, "documents.db")
	cfg.LogLevel = "error"
	cfg.AIProvider = "none"
	return cfg
}

func TestNewContainer_SQLiteWithoutAnalyzer(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer c.Close()

	if _, ok := c.Analyzer.(analyzer.Disabled); !ok {
		t.Fatalf("expected disabled analyzer, got %T", c.Analyzer)
	}
	if c.DocumentService == nil || c.Extractor == nil {
		t.Fatalf("expected service and extractor to be wired")
	}

	docs, err := c.DocumentService.ListDocuments(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty database, got %d documents", len(docs))
	}

	rr := httptest.NewRecorder()
	c.MetricsHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	if rr.Code != http.StatusOK || !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("unexpected metrics response %d: %.200s", rr.Code, body)
	}
}

func TestNewContainer_OpenAIWithoutKeyIsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.AIProvider = "openai"
	cfg.OpenAIAPIKey = ""

	c, err := NewContainer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer c.Close()

	if _, ok := c.Analyzer.(analyzer.Disabled); !ok {
		t.Fatalf("expected disabled analyzer, got %T", c.Analyzer)
	}
}

func TestNewContainer_CachesAnalysisWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.AIProvider = "openai"
	cfg.OpenAIAPIKey = "sk-test"
	cfg.RedisURL = "redis://" + mr.Addr()

	c, err := NewContainer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer c.Close()

	if _, ok := c.Analyzer.(*analyzer.Cached); !ok {
		t.Fatalf("expected cached analyzer, got %T", c.Analyzer)
	}
}

func TestNewContainer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *AppConfig)
	}{
		{name: "unknown provider", mutate: func(cfg *AppConfig) { cfg.AIProvider = "llama" }},
		{name: "unknown repository", mutate: func(cfg *AppConfig) { cfg.RepositoryBackend = "mongo" }},
		{name: "supabase without credentials", mutate: func(cfg *AppConfig) { cfg.RepositoryBackend = "supabase" }},
		{name: "bad database url", mutate: func(cfg *AppConfig) { cfg.DatabaseURL = "mysql://localhost/db" }},
		{name: "http converter without url", mutate: func(cfg *AppConfig) { cfg.ConverterBackend = "http" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			c, err := NewContainer(context.Background(), cfg)
			if err == nil {
				c.Close()
				t.Fatalf("expected error")
			}
		})
	}
}
