package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"doc-analyzer/internal/analyzer"
	"doc-analyzer/internal/cache"
	"doc-analyzer/internal/converter"
	"doc-analyzer/internal/domain"
	"doc-analyzer/internal/extraction"
	"doc-analyzer/internal/repository"
	"doc-analyzer/internal/service"
	"doc-analyzer/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Container holds all application dependencies
type Container struct {
	Config             domain.Config
	Logger             domain.Logger
	Extractor          *extraction.Orchestrator
	Analyzer           domain.Analyzer
	DocumentRepository domain.DocumentRepository
	DocumentService    *service.DocumentService
	Registry           *prometheus.Registry

	closers []io.Closer
}

// NewLogger builds the application logger from config.
func NewLogger(config domain.Config) domain.Logger {
	return logger.New(logger.Options{
		Level:  config.GetLogLevel(),
		Format: config.GetLogFormat(),
	})
}

// NewExtractor builds the extraction orchestrator described by config.
func NewExtractor(config domain.Config, appLogger domain.Logger) (*extraction.Orchestrator, error) {
	conv, err := converter.New(
		config.GetConverterBackend(),
		config.GetConverterURL(),
		config.GetConverterAPIKey(),
		appLogger,
	)
	if err != nil {
		return nil, err
	}
	return extraction.NewOrchestrator(extraction.Dependencies{
		Converter:         conv,
		Logger:            appLogger,
		MaxFileSize:       config.GetMaxFileSize(),
		AllowedExtensions: config.GetAllowedExtensions(),
		PrimaryTimeout:    config.GetPrimaryConverterTimeout(),
		PDFBackend:        config.GetPDFBackend(),
	})
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, config domain.Config) (*Container, error) {
	appLogger := NewLogger(config)
	c := &Container{
		Config:   config,
		Logger:   appLogger,
		Registry: prometheus.NewRegistry(),
	}
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	extractor, err := NewExtractor(config, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to build extractor: %w", err)
	}
	c.Extractor = extractor

	if err := c.initAnalyzer(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initRepository(ctx); err != nil {
		c.Close()
		return nil, err
	}

	storage, err := service.NewStorageService(config.GetUploadPath(), config.GetMaxFileSize())
	if err != nil {
		c.Close()
		return nil, err
	}

	c.DocumentService = service.NewDocumentService(
		c.DocumentRepository,
		storage,
		c.Extractor,
		c.Analyzer,
		service.NewMetrics(c.Registry),
		config.GetAllowedExtensions(),
		appLogger,
	)

	appLogger.Info("Container initialized",
		"converter", config.GetConverterBackend(),
		"pdf_backend", config.GetPDFBackend(),
		"ai_provider", config.GetAIProvider(),
		"repository", config.GetRepositoryBackend(),
		"analysis_cache", config.GetRedisURL() != "",
	)
	return c, nil
}

func (c *Container) initAnalyzer(ctx context.Context) error {
	var (
		base domain.Analyzer
		err  error
	)
	switch c.Config.GetAIProvider() {
	case "openai":
		base, err = analyzer.NewOpenAIAnalyzer(analyzer.OpenAIConfig{
			APIKey:  c.Config.GetOpenAIAPIKey(),
			BaseURL: c.Config.GetOpenAIBaseURL(),
			Model:   c.Config.GetOpenAIModel(),
			Timeout: c.Config.GetAnalysisTimeout(),
		}, c.Logger)
	case "vertex":
		var vertex *analyzer.VertexAnalyzer
		vertex, err = analyzer.NewVertexAnalyzer(ctx,
			c.Config.GetVertexProjectID(),
			c.Config.GetVertexLocation(),
			c.Config.GetVertexModel(),
			c.Config.GetAnalysisTimeout(),
			c.Logger,
		)
		if err == nil {
			c.closers = append(c.closers, vertex)
			base = vertex
		}
	case "", "none":
		err = domain.ErrAnalyzerNotEnabled
	default:
		return &domain.ValidationError{Field: "ai_provider", Message: "unknown provider " + c.Config.GetAIProvider()}
	}

	if errors.Is(err, domain.ErrAnalyzerNotEnabled) {
		c.Logger.Warn("Document analysis disabled", "reason", err.Error())
		c.Analyzer = analyzer.Disabled{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to build analyzer: %w", err)
	}

	if url := c.Config.GetRedisURL(); url != "" {
		redisCache, err := cache.NewRedisCache(ctx, url, cache.DefaultPrefix)
		if err != nil {
			// Analysis works without the cache.
			c.Logger.Error("Analysis cache unavailable", err)
		} else {
			c.closers = append(c.closers, redisCache)
			base = analyzer.NewCached(base, redisCache, c.Config.GetAnalysisCacheTTL(), c.Logger)
		}
	}
	c.Analyzer = base
	return nil
}

func (c *Container) initRepository(ctx context.Context) error {
	switch c.Config.GetRepositoryBackend() {
	case "sql", "":
		repo, err := repository.OpenSQLDocumentRepository(ctx, c.Config.GetDatabaseURL(), c.Logger)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		c.closers = append(c.closers, repo)
		c.DocumentRepository = repo
	case "supabase":
		client := repository.NewSupabaseClient(c.Config.GetSupabaseURL(), c.Config.GetSupabaseKey(), c.Logger)
		if err := client.Initialize(); err != nil {
			return err
		}
		c.DocumentRepository = repository.NewSupabaseDocumentRepository(client, c.Logger)
	default:
		return &domain.ValidationError{Field: "repository_backend", Message: "unknown backend " + c.Config.GetRepositoryBackend()}
	}
	return nil
}

// MetricsHandler serves the container's Prometheus registry.
func (c *Container) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})
}

// Close releases database, cache and model clients.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			c.Logger.Error("Failed to close dependency", err)
		}
	}
	c.closers = nil
}
