package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Kind is the input family a file belongs to.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindWord Kind = "word"
)

// Method names the strategy that produced an extraction result.
type Method string

const (
	MethodPDF          Method = "pdf"
	MethodWordPrimary  Method = "word-primary"
	MethodWordFallback Method = "word-fallback"
)

// Stage is the pipeline stage an extraction failed in.
type Stage string

const (
	StageValidation Stage = "validation"
	StageNotFound   Stage = "not-found"
	StagePermission Stage = "permission"
	StageSize       Stage = "size"
	StagePDF        Stage = "pdf"
	StagePrimary    Stage = "primary-conversion"
	StageFallback   Stage = "fallback-conversion"
	StageExhausted  Stage = "all-methods-exhausted"
	StageCancelled  Stage = "cancelled"
)

// Reason classifies why a stage failed.
type Reason string

const (
	ReasonNotFound             Reason = "not-found"
	ReasonPermissionDenied     Reason = "permission-denied"
	ReasonEmpty                Reason = "empty"
	ReasonTooLarge             Reason = "too-large"
	ReasonUnsupportedType      Reason = "unsupported-type"
	ReasonIO                   Reason = "io"
	ReasonPDFOpen              Reason = "pdf-open"
	ReasonPDFPage              Reason = "pdf-page"
	ReasonEmptyContent         Reason = "empty-content"
	ReasonCorruption           Reason = "corruption"
	ReasonResourceExhaustion   Reason = "resource-exhaustion"
	ReasonEmptyResult          Reason = "empty-result"
	ReasonTimeout              Reason = "timeout"
	ReasonConverter            Reason = "converter"
	ReasonConverterUnavailable Reason = "converter-unavailable"
	ReasonPrecondition         Reason = "precondition"
	ReasonExhausted            Reason = "exhausted"
	ReasonCancelled            Reason = "cancelled"
)

// ExtractionRequest describes one file to extract.
type ExtractionRequest struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind,omitempty"`
}

// Attempt records the outcome of one failed extraction method.
type Attempt struct {
	Method Method `json:"method"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail"`
}

// ExtractionResult is the output of a successful extraction.
type ExtractionResult struct {
	Text     string           `json:"text"`
	Metadata DocumentMetadata `json:"metadata"`
	Method   Method           `json:"method"`
	Kind     Kind             `json:"kind"`
	Size     int64            `json:"size"`

	// Diagnostics holds the attempts that failed before Method succeeded.
	Diagnostics []Attempt `json:"diagnostics,omitempty"`
}

// Attempts is the number of methods tried to produce the result.
func (r *ExtractionResult) Attempts() int {
	return len(r.Diagnostics) + 1
}

// ExtractionFailure is the terminal error of an extraction run.
type ExtractionFailure struct {
	Stage  Stage     `json:"stage"`
	Reason Reason    `json:"reason"`
	Detail string    `json:"detail"`
	Causes []Attempt `json:"causes,omitempty"`
	Err    error     `json:"-"`
}

func (f *ExtractionFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "extraction failed at %s (%s)", f.Stage, f.Reason)
	if f.Detail != "" {
		b.WriteString(": ")
		b.WriteString(f.Detail)
	}
	for _, c := range f.Causes {
		fmt.Fprintf(&b, "; %s: %s", c.Method, c.Detail)
	}
	return b.String()
}

func (f *ExtractionFailure) Unwrap() error {
	return f.Err
}

// DocumentMetadata holds structural properties of a Word document.
// A nil field means the property is not available.
type DocumentMetadata struct {
	Author         *string    `json:"author,omitempty"`
	Created        *time.Time `json:"created,omitempty"`
	Modified       *time.Time `json:"modified,omitempty"`
	Title          *string    `json:"title,omitempty"`
	Subject        *string    `json:"subject,omitempty"`
	Keywords       *string    `json:"keywords,omitempty"`
	Category       *string    `json:"category,omitempty"`
	ParagraphCount *int       `json:"paragraph_count,omitempty"`
	SectionCount   *int       `json:"section_count,omitempty"`
}

// IsEmpty reports whether no property is available.
func (m DocumentMetadata) IsEmpty() bool {
	return len(m.Map()) == 0
}

// Map renders the metadata as a flat mapping holding only the available keys.
func (m DocumentMetadata) Map() map[string]interface{} {
	out := make(map[string]interface{})
	putString := func(key string, v *string) {
		if v != nil && *v != "" {
			out[key] = *v
		}
	}
	putString("author", m.Author)
	putString("title", m.Title)
	putString("subject", m.Subject)
	putString("keywords", m.Keywords)
	putString("category", m.Category)
	if m.Created != nil {
		out["created"] = m.Created.UTC().Format(time.RFC3339)
	}
	if m.Modified != nil {
		out["modified"] = m.Modified.UTC().Format(time.RFC3339)
	}
	if m.ParagraphCount != nil {
		out["paragraph_count"] = *m.ParagraphCount
	}
	if m.SectionCount != nil {
		out["section_count"] = *m.SectionCount
	}
	return out
}

// Conversion is the output of a rich converter.
type Conversion struct {
	TextContent string `json:"text_content"`
}

// Converter turns a Word file into text.
type Converter interface {
	Convert(ctx context.Context, path string) (*Conversion, error)
}

// Extractor runs the whole extraction pipeline for one file.
type Extractor interface {
	Extract(ctx context.Context, path string) (*ExtractionResult, error)
}
