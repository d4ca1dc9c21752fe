package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"doc-analyzer/internal/domain"
)

const (
	documentsTable        = "documents"
	processingErrorsTable = "processing_errors"
)

// SupabaseDocumentRepository implements the domain.DocumentRepository interface
type SupabaseDocumentRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseDocumentRepository creates a new Supabase document repository
func NewSupabaseDocumentRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.DocumentRepository {
	return &SupabaseDocumentRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// supabaseDocument is the row shape of the documents table.
type supabaseDocument struct {
	ID                 string                 `json:"id"`
	Filename           string                 `json:"filename"`
	OriginalFilename   string                 `json:"original_filename"`
	FileType           string                 `json:"file_type"`
	UploadDate         string                 `json:"upload_date"`
	AnalysisComplete   bool                   `json:"analysis_complete"`
	Summary            string                 `json:"summary,omitempty"`
	Insights           interface{}            `json:"insights,omitempty"`
	DocMetadata        map[string]interface{} `json:"doc_metadata,omitempty"`
	ProcessingAttempts int                    `json:"processing_attempts"`
	ProcessingMethod   string                 `json:"processing_method,omitempty"`
}

// Create a new document in Supabase
func (r *SupabaseDocumentRepository) Create(ctx context.Context, document *domain.Document) error {
	if err := document.Validate(); err != nil {
		return err
	}
	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	row := supabaseDocument{
		ID:                 document.ID,
		Filename:           document.Filename,
		OriginalFilename:   document.OriginalFilename,
		FileType:           document.FileType,
		UploadDate:         document.UploadDate.UTC().Format(time.RFC3339Nano),
		AnalysisComplete:   document.AnalysisComplete,
		Summary:            removeNullCharacters(document.Summary),
		DocMetadata:        document.DocMetadata,
		ProcessingAttempts: document.ProcessingAttempts,
		ProcessingMethod:   string(document.ProcessingMethod),
	}

	// JSONB columns reject \u0000, which model output and document
	// properties occasionally contain.
	if len(document.Insights) > 0 {
		var insights interface{}
		if err := json.Unmarshal([]byte(removeProblematicUnicode(string(document.Insights))), &insights); err != nil {
			r.logger.Warn("Failed to parse insights JSON, storing without insights", "error", err, "doc_id", document.ID)
		} else {
			row.Insights = insights
		}
	}
	if row.DocMetadata != nil {
		cleaned, err := cleanJSONMap(row.DocMetadata)
		if err != nil {
			r.logger.Warn("Failed to clean metadata, storing without metadata", "error", err, "doc_id", document.ID)
		}
		row.DocMetadata = cleaned
	}

	_, _, err := client.From(documentsTable).Insert(row, false, "", "", "").Execute()
	if err != nil {
		r.logger.Error("Failed to insert document in Supabase", err, "doc_id", document.ID)
		return fmt.Errorf("failed to create document: %w", err)
	}

	r.logger.Info("Document created", "id", document.ID, "method", document.ProcessingMethod)
	return nil
}

// GetByID retrieves a document by ID
func (r *SupabaseDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	var rows []supabaseDocument
	_, err := client.From(documentsTable).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrDocumentNotFound
	}
	return r.toDocument(rows[0])
}

// List returns the most recent documents first.
func (r *SupabaseDocumentRepository) List(ctx context.Context, limit int) ([]*domain.Document, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	var rows []supabaseDocument
	_, err := client.From(documentsTable).
		Select("*", "", false).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	documents := make([]*domain.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := r.toDocument(row)
		if err != nil {
			r.logger.Error("Failed to map document", err, "doc_id", row.ID)
			continue
		}
		documents = append(documents, doc)
	}
	sort.SliceStable(documents, func(i, j int) bool {
		return documents[i].UploadDate.After(documents[j].UploadDate)
	})
	if len(documents) > limit {
		documents = documents[:limit]
	}
	return documents, nil
}

// RecordFailure stores a processing error record.
func (r *SupabaseDocumentRepository) RecordFailure(ctx context.Context, failure *domain.ProcessingFailure) error {
	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}
	createdAt := failure.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := map[string]interface{}{
		"id":         failure.ID,
		"filename":   failure.Filename,
		"stage":      string(failure.Stage),
		"reason":     string(failure.Reason),
		"detail":     removeNullCharacters(failure.Detail),
		"created_at": createdAt.UTC().Format(time.RFC3339Nano),
	}
	if len(failure.Causes) > 0 {
		row["causes"] = failure.Causes
	}

	if _, _, err := client.From(processingErrorsTable).Insert(row, false, "", "", "").Execute(); err != nil {
		return fmt.Errorf("failed to record processing error: %w", err)
	}
	return nil
}

func (r *SupabaseDocumentRepository) toDocument(row supabaseDocument) (*domain.Document, error) {
	document := &domain.Document{
		ID:                 row.ID,
		Filename:           row.Filename,
		OriginalFilename:   row.OriginalFilename,
		FileType:           row.FileType,
		AnalysisComplete:   row.AnalysisComplete,
		Summary:            row.Summary,
		DocMetadata:        row.DocMetadata,
		ProcessingAttempts: row.ProcessingAttempts,
		ProcessingMethod:   domain.Method(row.ProcessingMethod),
	}
	if row.UploadDate != "" {
		document.UploadDate = parseTime(row.UploadDate)
	}

	// Insights can come back as a JSON string or as a JSONB object
	switch v := row.Insights.(type) {
	case nil:
	case string:
		document.Insights = json.RawMessage(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal insights: %w", err)
		}
		document.Insights = data
	}
	return document, nil
}

var (
	reControlEscapes = regexp.MustCompile(`\\u00[0-1][0-9a-fA-F]`)
	reSurrogates     = regexp.MustCompile(`\\u[dD][89aAbBcCdDeEfF][0-9a-fA-F]{2}`)
)

// removeProblematicUnicode strips control character and surrogate escapes
// that PostgreSQL rejects in JSONB (error 22P05).
func removeProblematicUnicode(jsonStr string) string {
	jsonStr = reControlEscapes.ReplaceAllStringFunc(jsonStr, func(m string) string {
		switch strings.ToLower(m) {
		case `\u0009`, `\u000a`, `\u000d`:
			return m
		}
		return ""
	})
	jsonStr = reSurrogates.ReplaceAllString(jsonStr, "")
	return removeNullCharacters(jsonStr)
}

func removeNullCharacters(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

func cleanJSONMap(m map[string]interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var cleaned map[string]interface{}
	if err := json.Unmarshal([]byte(removeProblematicUnicode(string(data))), &cleaned); err != nil {
		return nil, err
	}
	return cleaned, nil
}
