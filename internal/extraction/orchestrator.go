package extraction

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"doc-analyzer/internal/domain"
)

// Dependencies configures an Orchestrator.
type Dependencies struct {
	Converter         domain.Converter
	Logger            domain.Logger
	MaxFileSize       int64
	AllowedExtensions []string
	PrimaryTimeout    time.Duration
	PDFBackend        string
}

type textExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Orchestrator validates a file, dispatches it by kind and runs the Word
// primary and fallback strategies in order. It keeps no state between calls.
type Orchestrator struct {
	guard    *SizeGuard
	pdf      textExtractor
	metadata *MetadataExtractor
	primary  textExtractor
	fallback textExtractor
	allowed  map[string]bool
	logger   domain.Logger
}

// NewOrchestrator wires the extractors described by deps.
func NewOrchestrator(deps Dependencies) (*Orchestrator, error) {
	if deps.Converter == nil {
		return nil, errors.New("extraction: converter is required")
	}
	if deps.Logger == nil {
		return nil, errors.New("extraction: logger is required")
	}
	pdf, err := NewPdfExtractor(deps.PDFBackend, deps.Logger)
	if err != nil {
		return nil, err
	}

	guard := NewSizeGuard(deps.MaxFileSize)
	allowed := deps.AllowedExtensions
	if len(allowed) == 0 {
		allowed = DefaultAllowedExtensions
	}

	return &Orchestrator{
		guard:    guard,
		pdf:      pdf,
		metadata: NewMetadataExtractor(deps.Logger),
		primary:  NewPrimaryWordExtractor(deps.Converter, guard, deps.PrimaryTimeout, deps.Logger),
		fallback: NewFallbackWordExtractor(deps.Logger),
		allowed:  extensionSet(allowed),
		logger:   deps.Logger,
	}, nil
}

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		set[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return set
}

// Extract runs the pipeline for the file at path. Failures are *domain.ExtractionFailure.
func (o *Orchestrator) Extract(ctx context.Context, path string) (*domain.ExtractionResult, error) {
	return o.ExtractRequest(ctx, domain.ExtractionRequest{Path: path})
}

// ExtractRequest runs the pipeline for req. The kind is derived from the file
// extension; a kind set on the request is only compared against it.
func (o *Orchestrator) ExtractRequest(ctx context.Context, req domain.ExtractionRequest) (*domain.ExtractionResult, error) {
	name := filepath.Base(req.Path)
	started := time.Now()

	size, kind, failure := o.validate(ctx, req.Path)
	if failure != nil {
		o.logFailure(name, failure)
		return nil, failure
	}
	if req.Kind != "" && req.Kind != kind {
		o.logger.Warn("Requested kind differs from file extension", "file", name, "requested", req.Kind, "detected", kind)
	}

	o.logger.Info("Extraction started", "file", name, "kind", kind, "size", size)

	var result *domain.ExtractionResult
	switch kind {
	case domain.KindPDF:
		result, failure = o.extractPDF(ctx, req.Path)
	default:
		result, failure = o.extractWord(ctx, req.Path)
	}
	if failure != nil {
		o.logFailure(name, failure)
		return nil, failure
	}

	result.Kind = kind
	result.Size = size
	o.logger.Info("Extraction finished",
		"file", name,
		"method", result.Method,
		"attempts", result.Attempts(),
		"chars", len(result.Text),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return result, nil
}

func (o *Orchestrator) validate(ctx context.Context, path string) (int64, domain.Kind, *domain.ExtractionFailure) {
	if err := ctx.Err(); err != nil {
		return 0, "", cancelled(domain.StageCancelled, nil, err)
	}

	name := filepath.Base(path)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return 0, "", &domain.ExtractionFailure{Stage: domain.StageNotFound, Reason: domain.ReasonNotFound, Detail: name + " does not exist", Err: err}
	case errors.Is(err, fs.ErrPermission):
		return 0, "", &domain.ExtractionFailure{Stage: domain.StagePermission, Reason: domain.ReasonPermissionDenied, Detail: name + " is not accessible", Err: err}
	case err != nil:
		return 0, "", &domain.ExtractionFailure{Stage: domain.StageValidation, Reason: domain.ReasonIO, Detail: describeIOError(err), Err: err}
	case info.IsDir():
		return 0, "", &domain.ExtractionFailure{Stage: domain.StageValidation, Reason: domain.ReasonIO, Detail: name + " is a directory"}
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return 0, "", &domain.ExtractionFailure{Stage: domain.StagePermission, Reason: domain.ReasonPermissionDenied, Detail: name + " is not readable", Err: err}
		}
		return 0, "", &domain.ExtractionFailure{Stage: domain.StageValidation, Reason: domain.ReasonIO, Detail: describeIOError(err), Err: err}
	}
	f.Close()

	size, err := o.guard.Check(path)
	if err != nil {
		var sizeErr *SizeError
		if errors.As(err, &sizeErr) && sizeErr.Kind != domain.ReasonIO {
			return 0, "", &domain.ExtractionFailure{Stage: domain.StageSize, Reason: sizeErr.Kind, Detail: sizeErr.Error(), Err: err}
		}
		return 0, "", &domain.ExtractionFailure{Stage: domain.StageValidation, Reason: domain.ReasonIO, Detail: err.Error(), Err: err}
	}

	ext := Extension(path)
	kind, ok := KindOf(ext)
	if !o.allowed[ext] || !ok {
		detail := "files without an extension are not supported"
		if ext != "" {
			detail = fmt.Sprintf("extension .%s is not supported", ext)
		}
		return 0, "", &domain.ExtractionFailure{Stage: domain.StageValidation, Reason: domain.ReasonUnsupportedType, Detail: detail, Err: domain.ErrUnsupportedFile}
	}
	return size, kind, nil
}

func (o *Orchestrator) extractPDF(ctx context.Context, path string) (*domain.ExtractionResult, *domain.ExtractionFailure) {
	text, err := o.pdf.Extract(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(domain.StagePDF, nil, ctx.Err())
		}
		reason := domain.ReasonPDFOpen
		var pdfErr *PdfError
		if errors.As(err, &pdfErr) {
			reason = pdfErr.Kind
		}
		return nil, &domain.ExtractionFailure{Stage: domain.StagePDF, Reason: reason, Detail: err.Error(), Err: err}
	}
	return &domain.ExtractionResult{
		Text:   text,
		Method: domain.MethodPDF,
	}, nil
}

func (o *Orchestrator) extractWord(ctx context.Context, path string) (*domain.ExtractionResult, *domain.ExtractionFailure) {
	name := filepath.Base(path)
	meta := o.metadata.Extract(ctx, path)

	text, err := o.primary.Extract(ctx, path)
	if err == nil {
		if result := wordResult(text, meta, domain.MethodWordPrimary, nil); result != nil {
			return result, nil
		}
		err = &PrimaryError{Kind: domain.ReasonEmptyResult, Detail: "converter returned no text"}
	}

	primaryAttempt := attemptFrom(domain.MethodWordPrimary, err)
	if ctx.Err() != nil {
		return nil, cancelled(domain.StagePrimary, []domain.Attempt{primaryAttempt}, ctx.Err())
	}
	o.logger.Warn("Primary extraction failed, trying fallback", "file", name, "reason", primaryAttempt.Reason, "detail", primaryAttempt.Detail)

	text, fallbackErr := o.fallback.Extract(ctx, path)
	if fallbackErr == nil {
		if result := wordResult(text, meta, domain.MethodWordFallback, []domain.Attempt{primaryAttempt}); result != nil {
			return result, nil
		}
		fallbackErr = &FallbackError{Kind: domain.ReasonEmptyContent, Detail: "no text in document"}
	}

	fallbackAttempt := attemptFrom(domain.MethodWordFallback, fallbackErr)
	causes := []domain.Attempt{primaryAttempt, fallbackAttempt}
	if ctx.Err() != nil {
		return nil, cancelled(domain.StageFallback, causes, ctx.Err())
	}
	return nil, &domain.ExtractionFailure{
		Stage:  domain.StageExhausted,
		Reason: domain.ReasonExhausted,
		Detail: "all extraction methods failed",
		Causes: causes,
		Err:    errors.Join(err, fallbackErr),
	}
}

func wordResult(text string, meta domain.DocumentMetadata, method domain.Method, diagnostics []domain.Attempt) *domain.ExtractionResult {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &domain.ExtractionResult{
		Text:        text,
		Metadata:    meta,
		Method:      method,
		Diagnostics: diagnostics,
	}
}

func attemptFrom(method domain.Method, err error) domain.Attempt {
	attempt := domain.Attempt{Method: method, Reason: domain.ReasonConverter, Detail: err.Error()}

	var primaryErr *PrimaryError
	var fallbackErr *FallbackError
	switch {
	case errors.As(err, &primaryErr):
		attempt.Reason = primaryErr.Kind
		attempt.Detail = primaryErr.Detail
		if primaryErr.Kind == domain.ReasonPrecondition {
			attempt.Detail = primaryErr.Error()
		}
	case errors.As(err, &fallbackErr):
		attempt.Reason = fallbackErr.Kind
		attempt.Detail = fallbackErr.Detail
	}
	return attempt
}

// cancelled reports the stage that was running when the context ended;
// StageCancelled means no stage had started.
func cancelled(stage domain.Stage, causes []domain.Attempt, err error) *domain.ExtractionFailure {
	return &domain.ExtractionFailure{
		Stage:  stage,
		Reason: domain.ReasonCancelled,
		Detail: "extraction cancelled",
		Causes: causes,
		Err:    err,
	}
}

func (o *Orchestrator) logFailure(name string, f *domain.ExtractionFailure) {
	o.logger.Error("Extraction failed", f.Err,
		"file", name,
		"stage", f.Stage,
		"reason", f.Reason,
		"detail", f.Detail,
	)
}
