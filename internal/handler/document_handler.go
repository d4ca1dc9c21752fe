// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"doc-analyzer/internal/domain"

	"github.com/gorilla/mux"
)

const (
	fileField = "file"

	// multipartOverhead is added to the file size limit to leave room for
	// boundaries and part headers.
	multipartOverhead = 1 << 20

	defaultListLimit = 50
	maxListLimit     = 200
)

// DocumentHandler handles document-related HTTP requests
type DocumentHandler struct {
	documentService domain.DocumentService
	maxFileSize     int64
	logger          domain.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService domain.DocumentService, maxFileSize int64, logger domain.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxFileSize:     maxFileSize,
		logger:          logger,
	}
}

// UploadDocument accepts a multipart upload in the "file" field, runs it
// through extraction and analysis and returns the result.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.maxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		if errors.Is(err, http.ErrNotMultipart) {
			writeError(w, http.StatusBadRequest, "No file provided")
			return
		}
		h.logger.Warn("Failed to parse upload", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(fileField)
	if errors.Is(err, http.ErrMissingFile) {
		// A file input submitted without a selection arrives as a plain value.
		if _, ok := r.MultipartForm.Value[fileField]; ok {
			writeError(w, http.StatusBadRequest, "No selected file")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file upload")
		return
	}
	defer file.Close()

	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	name := filepath.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}

	result, err := h.documentService.Upload(r.Context(), file, name)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	h.logger.Info("Upload processed", "doc_id", result.ID, "method", result.Method)
	writeJSON(w, http.StatusCreated, result)
}

// GetDocuments lists stored documents, newest first.
func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	documents, err := h.documentService.ListDocuments(r.Context(), limit)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// GetDocument returns a single stored document.
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	document, err := h.documentService.GetDocument(r.Context(), id)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, document)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}
