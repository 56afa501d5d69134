// Package fsx provides small filesystem helpers for download destinations.
package fsx

import (
	"os"
	"strings"
)

const (
	// invalidChars are stripped from titles before use as filenames; any of
	// them can break paths on at least one supported platform.
	invalidChars = `<>:"/\|?*`

	// maxFilenameLen bounds the sanitized name, well under common
	// filesystem limits once an extension is appended.
	maxFilenameLen = 200

	dirPerm = 0o755
)

// SanitizeFilename strips path-breaking characters from a resolved title and
// truncates it so it is safe to use as a filesystem name.
func SanitizeFilename(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	for _, r := range title {
		if strings.ContainsRune(invalidChars, r) {
			continue
		}

		b.WriteRune(r)
	}

	name := []rune(b.String())
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}

	return strings.TrimSpace(string(name))
}

// EnsureDir creates the directory if it does not exist. Safe to call
// repeatedly and from concurrent goroutines.
func EnsureDir(path string) error {
	return os.MkdirAll(path, dirPerm)
}
