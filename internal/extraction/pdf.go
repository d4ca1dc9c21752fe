package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"doc-analyzer/internal/domain"
)

// PdfError reports why a PDF could not be turned into text.
// Page is the 1-based page number for ReasonPDFPage and zero otherwise.
type PdfError struct {
	Kind domain.Reason
	Page int
	Err  error
}

func (e *PdfError) Error() string {
	switch e.Kind {
	case domain.ReasonPDFPage:
		return fmt.Sprintf("failed to extract page %d: %v", e.Page, e.Err)
	case domain.ReasonEmptyContent:
		return "no extractable text in PDF"
	case domain.ReasonCancelled:
		return "pdf extraction cancelled"
	default:
		return fmt.Sprintf("failed to open PDF: %v", e.Err)
	}
}

func (e *PdfError) Unwrap() error {
	return e.Err
}

// PageSource is an opened PDF that yields text page by page.
type PageSource interface {
	NumPage() int
	// PageText returns the text of the page at the 0-based index.
	PageText(index int) (string, error)
	Close() error
}

// PageSourceOpener parses an open PDF file of the given size.
type PageSourceOpener func(f *os.File, size int64) (PageSource, error)

// PdfExtractor concatenates the text of every page of a PDF.
type PdfExtractor struct {
	open    PageSourceOpener
	backend string
	logger  domain.Logger
}

// NewPdfExtractor selects a backend: "fitz" (MuPDF) or "native" (pure Go).
func NewPdfExtractor(backend string, logger domain.Logger) (*PdfExtractor, error) {
	switch backend {
	case "", "fitz":
		return &PdfExtractor{open: openFitzSource, backend: "fitz", logger: logger}, nil
	case "native":
		return &PdfExtractor{open: openNativeSource, backend: "native", logger: logger}, nil
	}
	return nil, fmt.Errorf("unknown pdf backend %q", backend)
}

// Extract returns the page texts of the PDF at path joined without separators.
func (e *PdfExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &PdfError{Kind: domain.ReasonPDFOpen, Err: errors.New(describeIOError(err))}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", &PdfError{Kind: domain.ReasonPDFOpen, Err: errors.New(describeIOError(err))}
	}

	src, err := e.safeOpen(f, info.Size())
	if err != nil {
		return "", &PdfError{Kind: domain.ReasonPDFOpen, Err: err}
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			e.logger.Warn("Failed to close PDF document", "file", filepath.Base(path), "error", cerr)
		}
	}()

	numPages := src.NumPage()
	e.logger.Debug("PDF opened", "file", filepath.Base(path), "pages", numPages, "backend", e.backend)

	var sb strings.Builder
	for i := 0; i < numPages; i++ {
		if ctx.Err() != nil {
			return "", &PdfError{Kind: domain.ReasonCancelled, Page: i + 1, Err: ctx.Err()}
		}
		pageText, err := safePageText(src, i)
		if err != nil {
			return "", &PdfError{Kind: domain.ReasonPDFPage, Page: i + 1, Err: err}
		}
		sb.WriteString(pageText)
	}

	text = sb.String()
	if strings.TrimSpace(text) == "" {
		return "", &PdfError{Kind: domain.ReasonEmptyContent}
	}
	return text, nil
}

func (e *PdfExtractor) safeOpen(f *os.File, size int64) (src PageSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("pdf parser panic: %v", r)
		}
	}()
	return e.open(f, size)
}

func safePageText(src PageSource, index int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parser panic: %v", r)
		}
	}()
	return src.PageText(index)
}
