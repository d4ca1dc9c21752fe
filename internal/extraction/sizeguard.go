package extraction

import (
	"fmt"
	"os"

	"doc-analyzer/internal/domain"
)

// DefaultMaxFileSize is the ceiling applied when none is configured.
const DefaultMaxFileSize int64 = 16 * 1024 * 1024

// SizeError reports a file outside the accepted size range.
// Kind is one of ReasonEmpty, ReasonTooLarge or ReasonIO.
type SizeError struct {
	Kind domain.Reason
	Size int64
	Max  int64
	Err  error
}

func (e *SizeError) Error() string {
	switch e.Kind {
	case domain.ReasonEmpty:
		return "file is empty"
	case domain.ReasonTooLarge:
		return fmt.Sprintf("file size %d bytes exceeds maximum of %d bytes", e.Size, e.Max)
	default:
		return "cannot read file size: " + describeIOError(e.Err)
	}
}

func (e *SizeError) Unwrap() error {
	return e.Err
}

// SizeGuard checks that a file is non-empty and within the configured ceiling.
type SizeGuard struct {
	maxSize int64
}

// NewSizeGuard creates a guard; a non-positive max selects DefaultMaxFileSize.
func NewSizeGuard(maxSize int64) *SizeGuard {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &SizeGuard{maxSize: maxSize}
}

// Max returns the configured ceiling in bytes.
func (g *SizeGuard) Max() int64 {
	return g.maxSize
}

// Check returns the file size or a *SizeError.
func (g *SizeGuard) Check(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, &SizeError{Kind: domain.ReasonIO, Max: g.maxSize, Err: err}
	}
	size := info.Size()
	if size == 0 {
		return 0, &SizeError{Kind: domain.ReasonEmpty, Max: g.maxSize}
	}
	if size > g.maxSize {
		return size, &SizeError{Kind: domain.ReasonTooLarge, Size: size, Max: g.maxSize}
	}
	return size, nil
}
