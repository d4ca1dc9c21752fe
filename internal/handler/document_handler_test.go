package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"doc-analyzer/internal/domain"
	apperrors "doc-analyzer/pkg/errors"

	"github.com/gorilla/mux"
)

// Mock implementations for handler testing
type MockDocumentService struct {
	documents map[string]*domain.Document
	uploadErr error

	lastName    string
	lastContent string
	lastLimit   int
}

func NewMockDocumentService() *MockDocumentService {
	return &MockDocumentService{
		documents: make(map[string]*domain.Document),
	}
}

func (m *MockDocumentService) Upload(ctx context.Context, file io.Reader, originalName string) (*domain.UploadResult, error) {
	m.lastName = originalName
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	m.lastContent = string(data)
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	if originalName == "" {
		return nil, apperrors.NewValidationError("No selected file")
	}
	return &domain.UploadResult{
		ID:       "doc-1",
		Summary:  "A summary",
		Insights: []string{"one"},
		Topics:   []string{},
		Entities: []string{},
		Method:   domain.MethodPDF,
		Metadata: map[string]interface{}{"page_count": 2},
	}, nil
}

func (m *MockDocumentService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	if doc, exists := m.documents[id]; exists {
		return doc, nil
	}
	return nil, apperrors.NewNotFoundError("Document not found")
}

func (m *MockDocumentService) ListDocuments(ctx context.Context, limit int) ([]*domain.Document, error) {
	m.lastLimit = limit
	docs := []*domain.Document{}
	for _, doc := range m.documents {
		docs = append(docs, doc)
	}
	return docs, nil
}

func multipartRequest(t *testing.T, target, field, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestDocumentHandler_UploadDocument(t *testing.T) {
	service := NewMockDocumentService()
	handler := NewDocumentHandler(service, 1024, NewMockHandlerLogger())

	req := multipartRequest(t, "/upload", "file", "report.pdf", "%PDF-1.7 body")
	rr := httptest.NewRecorder()
	handler.UploadDocument(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	if service.lastName != "report.pdf" {
		t.Errorf("expected filename report.pdf, got %q", service.lastName)
	}
	if service.lastContent != "%PDF-1.7 body" {
		t.Errorf("unexpected content passed to service: %q", service.lastContent)
	}

	var result domain.UploadResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.ID != "doc-1" || result.Method != domain.MethodPDF {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestDocumentHandler_UploadDocument_StripsClientPath(t *testing.T) {
	service := NewMockDocumentService()
	handler := NewDocumentHandler(service, 1024, NewMockHandlerLogger())

	req := multipartRequest(t, "/upload", "file", `C:\Users\ann\report.docx`, "data")
	rr := httptest.NewRecorder()
	handler.UploadDocument(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
	if service.lastName != "report.docx" {
		t.Errorf("expected base name report.docx, got %q", service.lastName)
	}
}

func TestDocumentHandler_UploadDocument_Errors(t *testing.T) {
	tests := []struct {
		name       string
		request    func(t *testing.T) *http.Request
		uploadErr  error
		maxSize    int64
		wantStatus int
		wantError  string
	}{
		{
			name: "not multipart",
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("{}"))
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "No file provided",
		},
		{
			name: "wrong field",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload", "document", "report.pdf", "data")
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "No file provided",
		},
		{
			name: "empty selection",
			request: func(t *testing.T) *http.Request {
				var body bytes.Buffer
				writer := multipart.NewWriter(&body)
				_ = writer.WriteField("file", "")
				_ = writer.Close()
				req := httptest.NewRequest(http.MethodPost, "/upload", &body)
				req.Header.Set("Content-Type", writer.FormDataContentType())
				return req
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "No selected file",
		},
		{
			name: "file too large",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload", "file", "big.pdf", strings.Repeat("x", 64))
			},
			maxSize:    16,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantError:  "File too large",
		},
		{
			name: "service validation error",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload", "file", "notes.txt", "data")
			},
			uploadErr:  apperrors.NewValidationError("Invalid file type"),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid file type",
		},
		{
			name: "extraction failure",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload", "file", "broken.pdf", "data")
			},
			uploadErr: apperrors.FromExtractionFailure(&domain.ExtractionFailure{
				Stage:  domain.StagePDF,
				Reason: domain.ReasonEmptyContent,
				Detail: "no text found",
			}),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "analysis unavailable",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload", "file", "report.pdf", "data")
			},
			uploadErr:  apperrors.NewNetworkError("Error processing document", io.ErrUnexpectedEOF),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "Error processing document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewMockDocumentService()
			service.uploadErr = tt.uploadErr
			maxSize := tt.maxSize
			if maxSize == 0 {
				maxSize = 1024
			}
			handler := NewDocumentHandler(service, maxSize, NewMockHandlerLogger())

			rr := httptest.NewRecorder()
			handler.UploadDocument(rr, tt.request(t))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			var body map[string]interface{}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if _, ok := body["error"]; !ok {
				t.Fatalf("expected error key in body: %s", rr.Body.String())
			}
			if tt.wantError != "" && body["error"] != tt.wantError {
				t.Errorf("expected error %q, got %v", tt.wantError, body["error"])
			}
		})
	}
}

func TestDocumentHandler_GetDocument(t *testing.T) {
	service := NewMockDocumentService()
	service.documents["doc-1"] = &domain.Document{
		ID:               "doc-1",
		Filename:         "doc-1_report.pdf",
		OriginalFilename: "report.pdf",
		FileType:         "pdf",
	}
	handler := NewDocumentHandler(service, 1024, NewMockHandlerLogger())

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{name: "found", id: "doc-1", wantStatus: http.StatusOK},
		{name: "missing", id: "doc-2", wantStatus: http.StatusNotFound},
		{name: "empty", id: "", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+tt.id, nil)
			req = mux.SetURLVars(req, map[string]string{"id": tt.id})
			rr := httptest.NewRecorder()

			handler.GetDocument(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantStatus == http.StatusOK && !strings.Contains(rr.Body.String(), `"original_filename":"report.pdf"`) {
				t.Fatalf("unexpected response body: %s", rr.Body.String())
			}
		})
	}
}

func TestDocumentHandler_GetDocuments(t *testing.T) {
	tests := []struct {
		query      string
		wantStatus int
		wantLimit  int
	}{
		{query: "", wantStatus: http.StatusOK, wantLimit: defaultListLimit},
		{query: "?limit=5", wantStatus: http.StatusOK, wantLimit: 5},
		{query: "?limit=5000", wantStatus: http.StatusOK, wantLimit: maxListLimit},
		{query: "?limit=0", wantStatus: http.StatusBadRequest},
		{query: "?limit=abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			service := NewMockDocumentService()
			service.documents["doc-1"] = &domain.Document{ID: "doc-1"}
			handler := NewDocumentHandler(service, 1024, NewMockHandlerLogger())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/documents"+tt.query, nil)
			rr := httptest.NewRecorder()
			handler.GetDocuments(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if service.lastLimit != tt.wantLimit {
				t.Errorf("expected limit %d, got %d", tt.wantLimit, service.lastLimit)
			}
			var body struct {
				Documents []domain.Document `json:"documents"`
				Count     int               `json:"count"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body.Count != 1 || len(body.Documents) != 1 {
				t.Errorf("unexpected body: %s", rr.Body.String())
			}
		})
	}
}
