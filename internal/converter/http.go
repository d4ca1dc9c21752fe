package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"doc-analyzer/internal/domain"
)

const maxErrorBody = 4 << 10

// HTTPConverter posts the file to a remote conversion service that answers
// with {"text_content": "..."}.
type HTTPConverter struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   domain.Logger
}

// NewHTTPConverter creates a converter for endpoint; a nil client gets a default one.
func NewHTTPConverter(endpoint, apiKey string, client *http.Client, logger domain.Logger) *HTTPConverter {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &HTTPConverter{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   client,
		logger:   logger,
	}
}

type conversionResponse struct {
	TextContent string `json:"text_content"`
	Error       string `json:"error,omitempty"`
}

// Convert implements domain.Converter.
func (c *HTTPConverter) Convert(ctx context.Context, path string) (*domain.Conversion, error) {
	body, contentType, err := multipartFile(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build conversion request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: conversion service request failed: %w", domain.ErrConverterUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Conversion service responded",
		"file", filepath.Base(path),
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: conversion service returned %d: %s", domain.ErrConverterUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out conversionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode conversion response: %w", domain.ErrConverterUnavailable, err)
	}
	// The service ran and rejected the document.
	if out.Error != "" {
		return nil, fmt.Errorf("conversion service: %s", out.Error)
	}
	return &domain.Conversion{TextContent: out.TextContent}, nil
}

func multipartFile(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fileError("open", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fileError("read", path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// fileError names the file by its base name so upload directories never
// appear in conversion errors.
func fileError(op, path string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return fmt.Errorf("%s %s: %w", op, filepath.Base(path), err)
}
