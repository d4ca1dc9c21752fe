// Package converter provides rich Word-to-text converters.
package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"doc-analyzer/internal/domain"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/gen2brain/go-fitz"
)

// MuPDFConverter renders each page of a document to HTML with MuPDF and
// turns the HTML into Markdown, keeping headings, lists and tables.
type MuPDFConverter struct {
	md     *htmlmd.Converter
	logger domain.Logger
}

func NewMuPDFConverter(logger domain.Logger) *MuPDFConverter {
	return &MuPDFConverter{
		md: htmlmd.NewConverter(
			htmlmd.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		logger: logger,
	}
}

// Convert implements domain.Converter.
func (c *MuPDFConverter) Convert(ctx context.Context, path string) (*domain.Conversion, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open document: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	c.logger.Debug("MuPDF document opened", "file", filepath.Base(path), "pages", numPages)

	parts := make([]string, 0, numPages)
	for i := 0; i < numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		html, err := doc.HTML(i, false)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		markdown, err := c.md.ConvertString(html)
		if err != nil {
			return nil, fmt.Errorf("convert page %d to markdown: %w", i+1, err)
		}
		if markdown = strings.TrimSpace(markdown); markdown != "" {
			parts = append(parts, markdown)
		}
	}

	return &domain.Conversion{TextContent: strings.Join(parts, "\n\n")}, nil
}
