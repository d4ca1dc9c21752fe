package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	wordMLNamespace       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	wordMLStrictNamespace = "http://purl.oclc.org/ooxml/wordprocessingml/main"

	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// oleSignature opens legacy binary .doc files.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// isOLEContainer reports whether the file starts with the OLE2 compound document signature.
func isOLEContainer(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, len(oleSignature))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, oleSignature)
}

// body is the text-bearing structure of word/document.xml.
type body struct {
	Paragraphs []string
	Sections   int
}

func isWordML(name xml.Name) bool {
	return name.Space == wordMLNamespace || name.Space == wordMLStrictNamespace
}

// parseBody walks document.xml and collects the text of each top-level body paragraph.
// Runs contribute w:t text, w:tab as a tab and w:br or w:cr as a newline.
// Paragraphs nested in tables, text boxes or content controls are skipped.
func parseBody(r io.Reader) (*body, error) {
	dec := xml.NewDecoder(r)
	out := &body{}

	var stack []string
	var current *strings.Builder
	paragraphDepth := -1

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := ""
			if isWordML(t.Name) {
				local = t.Name.Local
			}
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}

			switch {
			case local == "sectPr":
				out.Sections++
			case local == "p" && parent == "body" && current == nil:
				current = &strings.Builder{}
				paragraphDepth = len(stack)
			case current != nil && parent == "r" && runInParagraph(stack, paragraphDepth):
				switch local {
				case "tab":
					current.WriteString("\t")
				case "br", "cr":
					current.WriteString("\n")
				}
			}
			stack = append(stack, local)

		case xml.CharData:
			if current != nil && len(stack) > 0 && stack[len(stack)-1] == "t" &&
				len(stack) >= 2 && stack[len(stack)-2] == "r" && runInParagraph(stack[:len(stack)-1], paragraphDepth) {
				current.Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			stack = stack[:len(stack)-1]
			if current != nil && len(stack) == paragraphDepth {
				out.Paragraphs = append(out.Paragraphs, current.String())
				current = nil
				paragraphDepth = -1
			}
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("malformed document.xml: unexpected end of document")
	}
	return out, nil
}

// runContainers may sit between a paragraph and its runs.
var runContainers = map[string]bool{
	"hyperlink": true,
	"ins":       true,
	"smartTag":  true,
	"fldSimple": true,
}

// runInParagraph reports whether the run ending stack belongs directly to the
// top-level paragraph opened at paragraphDepth.
func runInParagraph(stack []string, paragraphDepth int) bool {
	if paragraphDepth < 0 || len(stack) <= paragraphDepth+1 {
		return false
	}
	// stack[paragraphDepth] is "p", the last element is "r".
	for _, name := range stack[paragraphDepth+1 : len(stack)-1] {
		if !runContainers[name] {
			return false
		}
	}
	return stack[len(stack)-1] == "r"
}

type coreProperties struct {
	Creator  string `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Title    string `xml:"http://purl.org/dc/elements/1.1/ title"`
	Subject  string `xml:"http://purl.org/dc/elements/1.1/ subject"`
	Keywords string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties keywords"`
	Category string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties category"`
	Created  string `xml:"http://purl.org/dc/terms/ created"`
	Modified string `xml:"http://purl.org/dc/terms/ modified"`
}

func parseCoreProperties(r io.Reader) (*coreProperties, error) {
	var props coreProperties
	if err := xml.NewDecoder(r).Decode(&props); err != nil {
		return nil, fmt.Errorf("malformed core.xml: %w", err)
	}
	return &props, nil
}

var coreTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseCoreTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range coreTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// openPart opens a named member of a zip container.
func openPart(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("%s not found", name)
}
