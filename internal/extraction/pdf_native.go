package extraction

import (
	"errors"
	"os"

	"github.com/ledongthuc/pdf"
)

type nativeSource struct {
	r *pdf.Reader
}

func openNativeSource(f *os.File, size int64) (PageSource, error) {
	r, err := pdf.NewReader(f, size)
	if err != nil {
		return nil, err
	}
	return &nativeSource{r: r}, nil
}

func (s *nativeSource) NumPage() int {
	return s.r.NumPage()
}

func (s *nativeSource) PageText(index int) (string, error) {
	p := s.r.Page(index + 1)
	if p.V.IsNull() {
		return "", errors.New("page object missing")
	}
	return p.GetPlainText(nil)
}

// Close is a no-op; the reader does not own the file.
func (s *nativeSource) Close() error {
	return nil
}
