package extraction

import (
	"os"

	"github.com/gen2brain/go-fitz"
)

type fitzSource struct {
	doc *fitz.Document
}

func openFitzSource(f *os.File, _ int64) (PageSource, error) {
	doc, err := fitz.NewFromReader(f)
	if err != nil {
		return nil, err
	}
	return &fitzSource{doc: doc}, nil
}

func (s *fitzSource) NumPage() int {
	return s.doc.NumPage()
}

func (s *fitzSource) PageText(index int) (string, error) {
	return s.doc.Text(index)
}

func (s *fitzSource) Close() error {
	return s.doc.Close()
}
