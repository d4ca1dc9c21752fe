package service

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

var windowsDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true,
}

// NormalizeName turns a client supplied filename into a safe flat name.
// Accents are folded to ASCII, path separators become spaces, whitespace runs
// become underscores and anything outside [A-Za-z0-9_.-] is dropped.
// The result may be empty.
func NormalizeName(name string) string {
	var folded strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r <= unicode.MaxASCII {
			folded.WriteRune(r)
		}
	}
	name = folded.String()

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if name != "" {
		stem := strings.ToUpper(strings.SplitN(name, ".", 2)[0])
		if windowsDeviceNames[stem] {
			name = "_" + name
		}
	}
	return name
}

// storedName prefixes name with id so concurrent uploads of the same file
// never collide.
func storedName(id, name string) string {
	return id + "_" + filepath.Base(name)
}
