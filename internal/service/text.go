package service

import (
	"strings"
	"unicode/utf8"
)

// maxAnalysisRunes bounds the text sent to the model.
const maxAnalysisRunes = 120_000

// prepareForAnalysis cleans extracted text before it is sent to the model
// and stored. The result never contains NUL, other C0 control characters
// or invalid UTF-8, all of which PostgreSQL rejects in JSONB.
func prepareForAnalysis(text string) string {
	text = normalizeText(sanitizeText(text))
	if utf8.RuneCountInString(text) <= maxAnalysisRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxAnalysisRunes])
}

func sanitizeText(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		switch {
		case r == utf8.RuneError:
			// invalid byte sequence
		case r == '\t', r == '\n', r == '\r':
			result.WriteRune(r)
		case r < 0x20, r == 0x7F:
		case r >= 0xD800 && r <= 0xDFFF:
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}

// normalizeText unifies line endings, trims lines and collapses runs of more
// than two blank lines.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		t := strings.TrimRight(line, " \t")
		if strings.TrimSpace(t) == "" {
			blank++
			if blank <= 2 {
				out = append(out, "")
			}
			continue
		}
		blank = 0
		out = append(out, t)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
