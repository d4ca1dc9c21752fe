package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"doc-analyzer/internal/domain"
	"doc-analyzer/internal/extraction"
	apperrors "doc-analyzer/pkg/errors"

	"github.com/google/uuid"
)

type DocumentService struct {
	repo      domain.DocumentRepository
	storage   StorageService
	extractor domain.Extractor
	analyzer  domain.Analyzer
	metrics   *Metrics
	allowed   []string
	logger    domain.Logger
}

func NewDocumentService(
	repo domain.DocumentRepository,
	storage StorageService,
	extractor domain.Extractor,
	analyzer domain.Analyzer,
	metrics *Metrics,
	allowedExtensions []string,
	logger domain.Logger,
) *DocumentService {
	if len(allowedExtensions) == 0 {
		allowedExtensions = extraction.DefaultAllowedExtensions
	}
	return &DocumentService{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		analyzer:  analyzer,
		metrics:   metrics,
		allowed:   allowedExtensions,
		logger:    logger,
	}
}

func (s *DocumentService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	document, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return nil, apperrors.NewNotFoundError("Document not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load document", err)
	}
	return document, nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, limit int) ([]*domain.Document, error) {
	documents, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list documents", err)
	}
	if documents == nil {
		documents = []*domain.Document{}
	}
	return documents, nil
}

// Upload stores file, extracts its text, analyzes it and persists the
// resulting document. The stored copy is removed before Upload returns.
func (s *DocumentService) Upload(ctx context.Context, file io.Reader, originalName string) (*domain.UploadResult, error) {
	originalName = strings.TrimSpace(originalName)
	if originalName == "" {
		s.metrics.upload("rejected")
		return nil, apperrors.NewValidationError("No selected file")
	}
	if !extraction.AllowedFile(originalName, s.allowed) {
		s.metrics.upload("rejected")
		return nil, apperrors.NewValidationError("Invalid file type")
	}
	safeName := NormalizeName(originalName)
	if !extraction.AllowedFile(safeName, s.allowed) {
		s.metrics.upload("rejected")
		return nil, apperrors.NewValidationError("Invalid file type", "filename has no usable characters")
	}

	docID := uuid.New().String()
	name := storedName(docID, safeName)

	path, err := s.storage.Save(ctx, name, file)
	if err != nil {
		s.metrics.upload("error")
		return nil, apperrors.NewInternalError("Failed to store upload", err)
	}
	defer func() {
		if err := s.storage.Remove(path); err != nil {
			s.logger.Warn("Failed to remove stored upload", "file", name, "error", err)
		}
	}()

	s.logger.Info("Upload stored", "doc_id", docID, "file", name)

	started := time.Now()
	result, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return nil, s.extractionFailed(ctx, name, err, time.Since(started))
	}
	s.metrics.extracted(result, time.Since(started))

	text := prepareForAnalysis(result.Text)
	analysis, err := s.analyze(ctx, text)
	if err != nil {
		s.metrics.upload("error")
		s.recordFailure(ctx, &domain.ProcessingFailure{
			Filename: name,
			Stage:    domain.StageAnalysis,
			Reason:   domain.ReasonAnalysis,
			Detail:   err.Error(),
		})
		return nil, apperrors.NewNetworkError("Error processing document", err)
	}

	document := &domain.Document{
		ID:                 docID,
		Filename:           name,
		OriginalFilename:   originalName,
		FileType:           extraction.Extension(safeName),
		UploadDate:         time.Now().UTC(),
		DocMetadata:        result.Metadata.Map(),
		ProcessingAttempts: result.Attempts(),
		ProcessingMethod:   result.Method,
	}
	if analysis != nil {
		document.AnalysisComplete = true
		document.Summary = analysis.Summary
		document.Insights = insightsJSON(analysis)
	}

	if err := s.repo.Create(ctx, document); err != nil {
		s.metrics.upload("error")
		return nil, apperrors.NewInternalError("Failed to save document", err)
	}

	s.metrics.upload("success")
	s.logger.Info("Document analyzed",
		"doc_id", docID,
		"method", result.Method,
		"attempts", result.Attempts(),
		"analysis_complete", document.AnalysisComplete,
	)

	out := &domain.UploadResult{
		ID:       docID,
		Method:   result.Method,
		Metadata: document.DocMetadata,
		Insights: []string{},
		Topics:   []string{},
		Entities: []string{},
	}
	if analysis != nil {
		out.Summary = analysis.Summary
		out.Insights = nonNil(analysis.KeyInsights)
		out.Topics = nonNil(analysis.MainTopics)
		out.Entities = nonNil(analysis.ImportantEntities)
	}
	return out, nil
}

// analyze returns a nil result without error when no model is configured.
func (s *DocumentService) analyze(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	analysis, err := s.analyzer.Analyze(ctx, text)
	if errors.Is(err, domain.ErrAnalyzerNotEnabled) {
		s.metrics.analysis("skipped")
		s.logger.Warn("Analyzer not configured, storing document without analysis")
		return nil, nil
	}
	if err != nil {
		s.metrics.analysis("failure")
		return nil, err
	}
	s.metrics.analysis("success")

	if len(analysis.KeyInsights) == 0 {
		points, err := s.analyzer.ExtractKeyPoints(ctx, text)
		if err != nil {
			s.logger.Warn("Key point extraction failed", "error", err)
		} else {
			analysis.KeyInsights = points
		}
	}
	return analysis, nil
}

func (s *DocumentService) extractionFailed(ctx context.Context, name string, err error, elapsed time.Duration) error {
	var failure *domain.ExtractionFailure
	if !errors.As(err, &failure) {
		s.metrics.upload("error")
		return apperrors.NewInternalError("Error processing document", err)
	}
	s.metrics.extractionFailed(failure, elapsed)
	s.metrics.upload("failed")

	redacted := redactFailure(failure, s.storage.Dir())
	s.recordFailure(ctx, &domain.ProcessingFailure{
		Filename: name,
		Stage:    redacted.Stage,
		Reason:   redacted.Reason,
		Detail:   redacted.Detail,
		Causes:   redacted.Causes,
	})
	return apperrors.FromExtractionFailure(redacted)
}

// recordFailure is best effort; the caller already has an error to report.
func (s *DocumentService) recordFailure(ctx context.Context, failure *domain.ProcessingFailure) {
	failure.ID = uuid.New().String()
	failure.CreatedAt = time.Now().UTC()
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := s.repo.RecordFailure(ctx, failure); err != nil {
		s.logger.Error("Failed to record processing error", err, "file", failure.Filename, "stage", failure.Stage)
	}
}

// redactFailure strips the upload directory from every detail so that
// server paths never reach clients or failure records.
func redactFailure(f *domain.ExtractionFailure, dir string) *domain.ExtractionFailure {
	redact := func(s string) string {
		if dir == "" {
			return s
		}
		return strings.ReplaceAll(s, dir+string(filepath.Separator), "")
	}
	out := *f
	out.Detail = redact(f.Detail)
	if len(f.Causes) > 0 {
		out.Causes = make([]domain.Attempt, len(f.Causes))
		for i, c := range f.Causes {
			c.Detail = redact(c.Detail)
			out.Causes[i] = c
		}
	}
	return &out
}

func insightsJSON(a *domain.AnalysisResult) json.RawMessage {
	data, err := json.Marshal(a)
	if err != nil {
		return nil
	}
	return data
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
