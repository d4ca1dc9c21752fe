package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"doc-analyzer/internal/domain"
)

// DefaultPrimaryTimeout bounds a single converter call when none is configured.
const DefaultPrimaryTimeout = 60 * time.Second

// Preconditions checked before the converter is invoked.
const (
	PreconditionExists   = "exists"
	PreconditionReadable = "readable"
	PreconditionSize     = "size"
)

// PrimaryError reports a failed rich conversion. Detail keeps the converter's
// own message.
type PrimaryError struct {
	Kind         domain.Reason
	Precondition string
	Detail       string
	Err          error
}

func (e *PrimaryError) Error() string {
	if e.Kind == domain.ReasonPrecondition {
		return fmt.Sprintf("precondition %q failed: %s", e.Precondition, e.Detail)
	}
	return fmt.Sprintf("primary conversion failed (%s): %s", e.Kind, e.Detail)
}

func (e *PrimaryError) Unwrap() error {
	return e.Err
}

// PrimaryWordExtractor delegates Word conversion to a rich converter.
type PrimaryWordExtractor struct {
	converter domain.Converter
	guard     *SizeGuard
	timeout   time.Duration
	logger    domain.Logger
}

func NewPrimaryWordExtractor(converter domain.Converter, guard *SizeGuard, timeout time.Duration, logger domain.Logger) *PrimaryWordExtractor {
	if timeout <= 0 {
		timeout = DefaultPrimaryTimeout
	}
	return &PrimaryWordExtractor{
		converter: converter,
		guard:     guard,
		timeout:   timeout,
		logger:    logger,
	}
}

// Extract converts the Word file at path and returns its text content.
func (e *PrimaryWordExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := e.checkPreconditions(path); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type convertResult struct {
		conv *domain.Conversion
		err  error
	}
	resultCh := make(chan convertResult, 1)
	started := time.Now()
	go func() {
		conv, err := e.converter.Convert(callCtx, path)
		resultCh <- convertResult{conv: conv, err: err}
	}()

	var res convertResult
	select {
	case res = <-resultCh:
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return "", &PrimaryError{Kind: domain.ReasonCancelled, Detail: "conversion cancelled", Err: ctx.Err()}
		}
		e.logger.Warn("Primary conversion timed out", "file", filepath.Base(path), "timeout_sec", int(e.timeout.Seconds()))
		return "", &PrimaryError{
			Kind:   domain.ReasonTimeout,
			Detail: fmt.Sprintf("converter did not finish within %s", e.timeout),
			Err:    callCtx.Err(),
		}
	}

	e.logger.Debug("Primary conversion returned", "file", filepath.Base(path), "duration_ms", time.Since(started).Milliseconds())

	if res.err != nil {
		if ctx.Err() != nil {
			return "", &PrimaryError{Kind: domain.ReasonCancelled, Detail: res.err.Error(), Err: res.err}
		}
		return "", &PrimaryError{Kind: classifyConversionError(res.err), Detail: res.err.Error(), Err: res.err}
	}
	if res.conv == nil || strings.TrimSpace(res.conv.TextContent) == "" {
		return "", &PrimaryError{Kind: domain.ReasonEmptyResult, Detail: "converter returned no text"}
	}
	return res.conv.TextContent, nil
}

func (e *PrimaryWordExtractor) checkPreconditions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &PrimaryError{Kind: domain.ReasonPrecondition, Precondition: PreconditionExists, Detail: describeIOError(err), Err: err}
	}
	if info.IsDir() {
		return &PrimaryError{Kind: domain.ReasonPrecondition, Precondition: PreconditionExists, Detail: "not a regular file"}
	}

	f, err := os.Open(path)
	if err != nil {
		return &PrimaryError{Kind: domain.ReasonPrecondition, Precondition: PreconditionReadable, Detail: describeIOError(err), Err: err}
	}
	f.Close()

	if _, err := e.guard.Check(path); err != nil {
		return &PrimaryError{Kind: domain.ReasonPrecondition, Precondition: PreconditionSize, Detail: err.Error(), Err: err}
	}
	return nil
}

// Message fragments converters use, matched case-insensitively.
var (
	resourcePatterns = []string{
		"out of memory", "cannot allocate", "memoryerror", "resource exhausted",
		"too many open files", "no space left", "quota", "too many requests", "killed",
	}
	corruptionPatterns = []string{
		"corrupt", "not a valid zip", "not a zip", "zip: checksum", "zip: unsupported",
		"malformed", "invalid document", "invalid file", "invalid docx", "invalid format",
		"invalid zip", "bad xml", "xml syntax", "unexpected eof", "cannot open document",
		"damaged", "encrypted", "password", "unsupported format", "badzipfile",
	}
	emptyPatterns = []string{
		"empty", "no text", "no content",
	}
	timeoutPatterns = []string{
		"timeout", "timed out", "deadline exceeded",
	}
)

// classifyConversionError separates failures of the converter itself from
// failures caused by the document. Converters mark their own outages with
// domain.ErrConverterUnavailable; only unmarked messages are pattern matched.
func classifyConversionError(err error) domain.Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ReasonTimeout
	}
	if errors.Is(err, domain.ErrConverterUnavailable) {
		return domain.ReasonConverterUnavailable
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, timeoutPatterns):
		return domain.ReasonTimeout
	case containsAny(msg, resourcePatterns):
		return domain.ReasonResourceExhaustion
	case containsAny(msg, corruptionPatterns):
		return domain.ReasonCorruption
	case containsAny(msg, emptyPatterns):
		return domain.ReasonEmptyResult
	}
	return domain.ReasonConverter
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
