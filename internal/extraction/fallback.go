package extraction

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"doc-analyzer/internal/domain"

	"github.com/nguyenthenguyen/docx"
)

// FallbackError reports a failed structural read of a Word container.
type FallbackError struct {
	Kind   domain.Reason
	Detail string
	Err    error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("fallback extraction failed (%s): %s", e.Kind, e.Detail)
}

func (e *FallbackError) Unwrap() error {
	return e.Err
}

// FallbackWordExtractor reads paragraph text straight out of a .docx container.
// It needs nothing beyond the file itself.
type FallbackWordExtractor struct {
	logger domain.Logger
}

func NewFallbackWordExtractor(logger domain.Logger) *FallbackWordExtractor {
	return &FallbackWordExtractor{logger: logger}
}

// Extract joins the text of every body paragraph with a newline.
func (e *FallbackWordExtractor) Extract(ctx context.Context, path string) (string, error) {
	if ctx.Err() != nil {
		return "", &FallbackError{Kind: domain.ReasonCancelled, Detail: "fallback cancelled", Err: ctx.Err()}
	}
	if isOLEContainer(path) {
		return "", &FallbackError{
			Kind:   domain.ReasonUnsupportedType,
			Detail: "legacy binary Word format has no paragraph structure to read",
		}
	}

	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", &FallbackError{Kind: domain.ReasonCorruption, Detail: "cannot open Word container: " + describeIOError(err), Err: err}
	}
	defer r.Close()

	b, err := parseBody(strings.NewReader(r.Editable().GetContent()))
	if err != nil {
		return "", &FallbackError{Kind: domain.ReasonCorruption, Detail: err.Error(), Err: err}
	}

	text := strings.Join(b.Paragraphs, "\n")
	if strings.TrimSpace(text) == "" {
		return "", &FallbackError{Kind: domain.ReasonEmptyContent, Detail: fmt.Sprintf("no text in %d paragraphs", len(b.Paragraphs))}
	}

	e.logger.Debug("Fallback read paragraphs", "file", filepath.Base(path), "paragraphs", len(b.Paragraphs))
	return text, nil
}
