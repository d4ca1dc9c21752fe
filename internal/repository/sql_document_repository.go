package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"doc-analyzer/internal/domain"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

type migration struct {
	version  string
	sqlite   string
	postgres string
}

// Migrations are applied in version order and never edited once released.
var migrations = []migration{
	{
		version: "001_create_documents",
		sqlite: `CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			original_filename TEXT NOT NULL,
			file_type TEXT NOT NULL,
			upload_date TEXT NOT NULL,
			analysis_complete INTEGER NOT NULL DEFAULT 0,
			summary TEXT,
			insights TEXT
		)`,
		postgres: `CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			filename VARCHAR(255) NOT NULL,
			original_filename VARCHAR(255) NOT NULL,
			file_type VARCHAR(10) NOT NULL,
			upload_date TIMESTAMPTZ NOT NULL DEFAULT now(),
			analysis_complete BOOLEAN NOT NULL DEFAULT FALSE,
			summary TEXT,
			insights JSONB
		)`,
	},
	{
		version:  "002_add_doc_metadata",
		sqlite:   `ALTER TABLE documents ADD COLUMN doc_metadata TEXT`,
		postgres: `ALTER TABLE documents ADD COLUMN IF NOT EXISTS doc_metadata JSONB`,
	},
	{
		version: "003_add_processing_columns",
		sqlite: `ALTER TABLE documents ADD COLUMN processing_attempts INTEGER NOT NULL DEFAULT 1;
			ALTER TABLE documents ADD COLUMN processing_method TEXT`,
		postgres: `ALTER TABLE documents ADD COLUMN IF NOT EXISTS processing_attempts INTEGER NOT NULL DEFAULT 1;
			ALTER TABLE documents ADD COLUMN IF NOT EXISTS processing_method VARCHAR(50)`,
	},
	{
		version: "004_create_processing_errors",
		sqlite: `CREATE TABLE IF NOT EXISTS processing_errors (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			stage TEXT NOT NULL,
			reason TEXT NOT NULL,
			detail TEXT,
			causes TEXT,
			created_at TEXT NOT NULL
		)`,
		postgres: `CREATE TABLE IF NOT EXISTS processing_errors (
			id TEXT PRIMARY KEY,
			filename VARCHAR(255) NOT NULL,
			stage VARCHAR(50) NOT NULL,
			reason VARCHAR(50) NOT NULL,
			detail TEXT,
			causes JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
}

const documentColumns = `id, filename, original_filename, file_type, upload_date, analysis_complete,
	summary, insights, doc_metadata, processing_attempts, processing_method`

// SQLDocumentRepository stores documents in SQLite or PostgreSQL.
type SQLDocumentRepository struct {
	db      *sql.DB
	dialect string
	logger  domain.Logger
}

// OpenSQLDocumentRepository opens databaseURL, which is either
// postgres://... or sqlite://path, and applies pending migrations.
func OpenSQLDocumentRepository(ctx context.Context, databaseURL string, logger domain.Logger) (*SQLDocumentRepository, error) {
	dialect, dsn, err := parseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == dialectSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	repo := &SQLDocumentRepository{db: db, dialect: dialect, logger: logger}
	if err := repo.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func parseDatabaseURL(databaseURL string) (string, string, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return dialectPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite database url has no path")
		}
		return dialectSQLite, path, nil
	case strings.HasPrefix(databaseURL, "file:"), databaseURL == ":memory:":
		return dialectSQLite, databaseURL, nil
	}
	return "", "", fmt.Errorf("unsupported database url %q", databaseURL)
}

func (r *SQLDocumentRepository) migrate(ctx context.Context) error {
	ensure := `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`
	if _, err := r.db.ExecContext(ctx, ensure); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	applied := map[string]bool{}
	rows, err := r.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		stmt := m.sqlite
		if r.dialect == dialectPostgres {
			stmt = m.postgres
		}

		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for _, part := range strings.Split(stmt, ";") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, part); err != nil {
				tx.Rollback()
				return fmt.Errorf("run migration %s: %w", m.version, err)
			}
		}
		if _, err := tx.ExecContext(ctx, r.rebind(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`),
			m.version, formatTime(time.Now())); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		r.logger.Info("Applied migration", "version", m.version, "dialect", r.dialect)
	}
	return nil
}

// Create inserts a new document.
func (r *SQLDocumentRepository) Create(ctx context.Context, document *domain.Document) error {
	if err := document.Validate(); err != nil {
		return err
	}

	metadata, err := marshalNullable(document.DocMetadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := r.rebind(`INSERT INTO documents (` + documentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, query,
		document.ID,
		document.Filename,
		document.OriginalFilename,
		document.FileType,
		formatTime(document.UploadDate),
		document.AnalysisComplete,
		nullString(document.Summary),
		nullString(string(document.Insights)),
		metadata,
		document.ProcessingAttempts,
		nullString(string(document.ProcessingMethod)),
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	r.logger.Info("Document created", "id", document.ID, "method", document.ProcessingMethod)
	return nil
}

// GetByID retrieves a document by ID.
func (r *SQLDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+documentColumns+` FROM documents WHERE id = ?`), id)
	document, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return document, nil
}

// List returns the most recent documents first.
func (r *SQLDocumentRepository) List(ctx context.Context, limit int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		r.rebind(`SELECT `+documentColumns+` FROM documents ORDER BY upload_date DESC, id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var documents []*domain.Document
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		documents = append(documents, document)
	}
	return documents, rows.Err()
}

// RecordFailure stores a processing error record.
func (r *SQLDocumentRepository) RecordFailure(ctx context.Context, failure *domain.ProcessingFailure) error {
	causes, err := marshalNullable(failure.Causes)
	if err != nil {
		return fmt.Errorf("failed to marshal causes: %w", err)
	}
	createdAt := failure.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, r.rebind(`INSERT INTO processing_errors
		(id, filename, stage, reason, detail, causes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		failure.ID,
		failure.Filename,
		string(failure.Stage),
		string(failure.Reason),
		nullString(failure.Detail),
		causes,
		formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record processing error: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (r *SQLDocumentRepository) Close() error {
	return r.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (r *SQLDocumentRepository) rebind(query string) string {
	if r.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(s scanner) (*domain.Document, error) {
	var (
		d          domain.Document
		uploadDate string
		summary    sql.NullString
		insights   sql.NullString
		metadata   sql.NullString
		method     sql.NullString
	)
	if err := s.Scan(
		&d.ID,
		&d.Filename,
		&d.OriginalFilename,
		&d.FileType,
		&uploadDate,
		&d.AnalysisComplete,
		&summary,
		&insights,
		&metadata,
		&d.ProcessingAttempts,
		&method,
	); err != nil {
		return nil, err
	}

	d.UploadDate = parseTime(uploadDate)
	d.Summary = summary.String
	d.ProcessingMethod = domain.Method(method.String)
	if insights.Valid && insights.String != "" {
		d.Insights = json.RawMessage(insights.String)
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &d.DocMetadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &d, nil
}

func marshalNullable(v interface{}) (sql.NullString, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		if len(val) == 0 {
			return sql.NullString{}, nil
		}
	case []domain.Attempt:
		if len(val) == 0 {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// timestampLayout has a fixed width so text columns sort chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
