package domain

import (
	"encoding/json"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// TestDocument_Validate tests that the Document.Validate() method works correctly.
func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr bool
		errMsg  string
	}{
		{
			name: "Valid document",
			doc: Document{
				ID:                 "test-id",
				Filename:           "report.pdf",
				FileType:           "pdf",
				Insights:           json.RawMessage(`{"summary":"ok"}`),
				ProcessingAttempts: 1,
				UploadDate:         time.Now(),
			},
		},
		{
			name:    "Missing ID",
			doc:     Document{Filename: "report.pdf", FileType: "pdf"},
			wantErr: true,
			errMsg:  "id: document ID is required",
		},
		{
			name:    "Missing filename",
			doc:     Document{ID: "test-id", FileType: "pdf"},
			wantErr: true,
			errMsg:  "filename: filename is required",
		},
		{
			name:    "Unsupported file type",
			doc:     Document{ID: "test-id", Filename: "notes.txt", FileType: "txt"},
			wantErr: true,
			errMsg:  "file_type: unsupported file type txt",
		},
		{
			name:    "Negative attempts",
			doc:     Document{ID: "test-id", Filename: "a.docx", FileType: "docx", ProcessingAttempts: -1},
			wantErr: true,
			errMsg:  "processing_attempts: processing attempts cannot be negative",
		},
		{
			name:    "Invalid insights JSON",
			doc:     Document{ID: "test-id", Filename: "a.docx", FileType: "docx", Insights: json.RawMessage(`{`)},
			wantErr: true,
			errMsg:  "insights: insights must be valid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Document.Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err != nil && err.Error() != tt.errMsg {
				t.Errorf("Document.Validate() error = %v, want %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestDocumentMetadata_Map(t *testing.T) {
	author := "Ada"
	empty := ""
	paragraphs := 3
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	m := DocumentMetadata{
		Author:         &author,
		Title:          &empty,
		Created:        &created,
		ParagraphCount: &paragraphs,
	}

	got := m.Map()
	if got["author"] != "Ada" {
		t.Errorf("author = %v, want Ada", got["author"])
	}
	if _, ok := got["title"]; ok {
		t.Error("empty title should be absent")
	}
	if got["created"] != "2024-05-01T10:00:00Z" {
		t.Errorf("created = %v", got["created"])
	}
	if got["paragraph_count"] != 3 {
		t.Errorf("paragraph_count = %v, want 3", got["paragraph_count"])
	}
	if _, ok := got["section_count"]; ok {
		t.Error("section_count should be absent")
	}

	if !(DocumentMetadata{}).IsEmpty() {
		t.Error("zero metadata should be empty")
	}
	if (DocumentMetadata{Title: &empty}).IsEmpty() == false {
		t.Error("metadata with only empty strings should be empty")
	}
}

func TestExtractionFailure_Error(t *testing.T) {
	f := &ExtractionFailure{
		Stage:  StageExhausted,
		Reason: ReasonExhausted,
		Detail: "all extraction methods failed",
		Causes: []Attempt{
			{Method: MethodWordPrimary, Reason: ReasonCorruption, Detail: "file is corrupt"},
			{Method: MethodWordFallback, Reason: ReasonEmptyContent, Detail: "no text"},
		},
		Err: fs.ErrInvalid,
	}

	msg := f.Error()
	for _, want := range []string{"all-methods-exhausted", "word-primary: file is corrupt", "word-fallback: no text"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
	if !errors.Is(f, fs.ErrInvalid) {
		t.Error("ExtractionFailure should unwrap to its cause")
	}
}

func TestExtractionResult_Attempts(t *testing.T) {
	r := &ExtractionResult{Method: MethodWordFallback, Diagnostics: []Attempt{{Method: MethodWordPrimary}}}
	if r.Attempts() != 2 {
		t.Errorf("Attempts() = %d, want 2", r.Attempts())
	}
}
