package domain

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// Document is the persisted record of an analyzed upload.
type Document struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	FileType         string `json:"file_type"`

	UploadDate       time.Time `json:"upload_date"`
	AnalysisComplete bool      `json:"analysis_complete"`

	Summary  string          `json:"summary"`
	Insights json.RawMessage `json:"insights,omitempty"`

	DocMetadata        map[string]interface{} `json:"doc_metadata,omitempty"`
	ProcessingAttempts int                    `json:"processing_attempts"`
	ProcessingMethod   Method                 `json:"processing_method"`
}

// Validate checks the fields a record needs before it is stored.
func (d *Document) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "id", Message: "document ID is required"}
	}
	if d.Filename == "" {
		return &ValidationError{Field: "filename", Message: "filename is required"}
	}
	switch d.FileType {
	case "pdf", "doc", "docx":
	default:
		return &ValidationError{Field: "file_type", Message: "unsupported file type " + d.FileType}
	}
	if d.ProcessingAttempts < 0 {
		return &ValidationError{Field: "processing_attempts", Message: "processing attempts cannot be negative"}
	}
	if len(d.Insights) > 0 && !json.Valid(d.Insights) {
		return &ValidationError{Field: "insights", Message: "insights must be valid JSON"}
	}
	return nil
}

// StageAnalysis marks a failure record written when the model call fails
// after a successful extraction.
const (
	StageAnalysis  Stage  = "analysis"
	ReasonAnalysis Reason = "analysis-failed"
)

// ProcessingFailure is the persisted record of an upload that could not be analyzed.
type ProcessingFailure struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Stage     Stage     `json:"stage"`
	Reason    Reason    `json:"reason"`
	Detail    string    `json:"detail"`
	Causes    []Attempt `json:"causes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadResult is the payload returned to the uploader.
type UploadResult struct {
	ID       string                 `json:"id"`
	Summary  string                 `json:"summary"`
	Insights []string               `json:"insights"`
	Topics   []string               `json:"topics"`
	Entities []string               `json:"entities"`
	Method   Method                 `json:"method"`
	Metadata map[string]interface{} `json:"metadata"`
}

// DocumentRepository defines persistence operations for documents.
type DocumentRepository interface {
	Create(ctx context.Context, document *Document) error
	GetByID(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context, limit int) ([]*Document, error)
	RecordFailure(ctx context.Context, failure *ProcessingFailure) error
}

// DocumentService defines the use-case operations for documents.
type DocumentService interface {
	Upload(ctx context.Context, file io.Reader, originalName string) (*UploadResult, error)
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, limit int) ([]*Document, error)
}
