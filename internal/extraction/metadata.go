package extraction

import (
	"archive/zip"
	"context"
	"path/filepath"
	"strings"

	"doc-analyzer/internal/domain"
)

// MetadataExtractor reads document properties from Word files.
// It never fails: anything it cannot read is left out of the result.
type MetadataExtractor struct {
	logger domain.Logger
}

func NewMetadataExtractor(logger domain.Logger) *MetadataExtractor {
	return &MetadataExtractor{logger: logger}
}

// Extract returns whatever properties are available for the file at path.
func (e *MetadataExtractor) Extract(ctx context.Context, path string) domain.DocumentMetadata {
	var meta domain.DocumentMetadata
	name := filepath.Base(path)

	if ctx.Err() != nil {
		return meta
	}
	if isOLEContainer(path) {
		e.logger.Debug("No property reader for legacy Word format", "file", name)
		return meta
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		e.logger.Warn("Metadata unavailable, container not readable", "file", name, "error", describeIOError(err))
		return meta
	}
	defer zr.Close()

	if rc, err := openPart(&zr.Reader, corePart); err != nil {
		e.logger.Debug("Document has no core properties", "file", name)
	} else {
		props, perr := parseCoreProperties(rc)
		rc.Close()
		if perr != nil {
			e.logger.Warn("Failed to parse core properties", "file", name, "error", perr)
		} else {
			applyCoreProperties(&meta, props)
		}
	}

	if rc, err := openPart(&zr.Reader, documentPart); err != nil {
		e.logger.Warn("Document body missing", "file", name)
	} else {
		b, perr := parseBody(rc)
		rc.Close()
		if perr != nil {
			e.logger.Warn("Failed to count paragraphs", "file", name, "error", perr)
		} else {
			paragraphs := len(b.Paragraphs)
			sections := b.Sections
			meta.ParagraphCount = &paragraphs
			meta.SectionCount = &sections
		}
	}

	return meta
}

func applyCoreProperties(meta *domain.DocumentMetadata, props *coreProperties) {
	meta.Author = optionalString(props.Creator)
	meta.Title = optionalString(props.Title)
	meta.Subject = optionalString(props.Subject)
	meta.Keywords = optionalString(props.Keywords)
	meta.Category = optionalString(props.Category)
	if t, ok := parseCoreTime(props.Created); ok {
		meta.Created = &t
	}
	if t, ok := parseCoreTime(props.Modified); ok {
		meta.Modified = &t
	}
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
