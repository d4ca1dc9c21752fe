package converter

import (
	"fmt"

	"doc-analyzer/internal/domain"
)

// New returns the converter named by backend: "mupdf" or "http".
func New(backend, endpoint, apiKey string, logger domain.Logger) (domain.Converter, error) {
	switch backend {
	case "", "mupdf":
		return NewMuPDFConverter(logger), nil
	case "http":
		if endpoint == "" {
			return nil, fmt.Errorf("http converter requires an endpoint")
		}
		return NewHTTPConverter(endpoint, apiKey, nil, logger), nil
	}
	return nil, fmt.Errorf("unknown converter backend %q", backend)
}
