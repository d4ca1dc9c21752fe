package extraction

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"doc-analyzer/internal/domain"
)

// MockLogger records messages for assertions.
type MockLogger struct {
	mu       sync.Mutex
	Messages []string
}

func (l *MockLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, level+": "+msg)
}

func (l *MockLogger) Info(msg string, fields ...interface{})  { l.record("INFO", msg) }
func (l *MockLogger) Debug(msg string, fields ...interface{}) { l.record("DEBUG", msg) }
func (l *MockLogger) Warn(msg string, fields ...interface{})  { l.record("WARN", msg) }
func (l *MockLogger) Error(msg string, err error, fields ...interface{}) {
	l.record("ERROR", msg)
}

func (l *MockLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// stubConverter returns a fixed result or runs fn when set.
type stubConverter struct {
	text  string
	err   error
	fn    func(ctx context.Context) (*domain.Conversion, error)
	calls int32
}

func (c *stubConverter) Convert(ctx context.Context, path string) (*domain.Conversion, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.fn != nil {
		return c.fn(ctx)
	}
	if c.err != nil {
		return nil, c.err
	}
	return &domain.Conversion{TextContent: c.text}, nil
}

// countingExtractor is a textExtractor with a fixed outcome.
type countingExtractor struct {
	text  string
	err   error
	fn    func(ctx context.Context) (string, error)
	calls int32
}

func (e *countingExtractor) Extract(ctx context.Context, path string) (string, error) {
	atomic.AddInt32(&e.calls, 1)
	if e.fn != nil {
		return e.fn(ctx)
	}
	return e.text, e.err
}

const testCoreXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<dc:title>Quarterly Report</dc:title>
<dc:subject></dc:subject>
<dc:creator>Ada Lovelace</dc:creator>
<cp:keywords>finance, q3</cp:keywords>
<cp:category>Reports</cp:category>
<dcterms:created xsi:type="dcterms:W3CDTF">2024-05-01T10:00:00Z</dcterms:created>
<dcterms:modified xsi:type="dcterms:W3CDTF">2024-05-02T11:30:00Z</dcterms:modified>
</cp:coreProperties>`

// documentXML wraps body content in a WordprocessingML document.
func documentXML(bodyContent string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		bodyContent + `<w:sectPr/></w:body></w:document>`
}

// paragraphs renders one simple paragraph per string; "" renders an empty paragraph.
func paragraphs(texts ...string) string {
	var b strings.Builder
	for _, t := range texts {
		if t == "" {
			b.WriteString(`<w:p/>`)
			continue
		}
		fmt.Fprintf(&b, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, t)
	}
	return b.String()
}

// writeDocx writes a minimal .docx container; an empty core skips docProps/core.xml.
func writeDocx(t *testing.T, dir, name, document, core string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	parts := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"_rels/.rels":                  `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml":            document,
	}
	if core != "" {
		parts["docProps/core.xml"] = core
	}
	for partName, content := range parts {
		w, err := zw.Create(partName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
