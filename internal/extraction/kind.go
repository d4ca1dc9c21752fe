// Package extraction turns uploaded PDF and Word files into plain text.
package extraction

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"doc-analyzer/internal/domain"
)

// DefaultAllowedExtensions are the extensions accepted when none are configured.
var DefaultAllowedExtensions = []string{"pdf", "doc", "docx"}

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// AllowedFile reports whether name has a stem and an extension in allowed.
func AllowedFile(name string, allowed []string) bool {
	ext := Extension(name)
	if ext == "" || strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)) == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimPrefix(a, "."), ext) {
			return true
		}
	}
	return false
}

// KindOf maps an extension to the input family that handles it.
func KindOf(ext string) (domain.Kind, bool) {
	switch strings.ToLower(ext) {
	case "pdf":
		return domain.KindPDF, true
	case "doc", "docx":
		return domain.KindWord, true
	}
	return "", false
}

// describeIOError renders an OS error without the path it was raised for.
func describeIOError(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Op + ": " + pathErr.Err.Error()
	}
	return err.Error()
}
