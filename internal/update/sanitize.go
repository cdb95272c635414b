package update

import (
	"regexp"
	"strings"
)

const (
	// PackageExtension is appended to every downloaded file name.
	PackageExtension = ".apk"
	// DefaultFileName is used when no usable name was suggested.
	DefaultFileName = "update" + PackageExtension
	// LockSuffix names the lock file kept next to a package on unix hosts.
	LockSuffix = ".lock"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFileName turns an untrusted suggested name into a safe on-disk name.
// Only the last path segment survives, characters outside [A-Za-z0-9._-] become
// '_', and the package extension is appended when missing.
func SanitizeFileName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultFileName
	}

	normalized := unsafeNameChars.ReplaceAllString(baseName(trimmed), "_")
	if normalized == "" {
		return DefaultFileName
	}

	if !strings.HasSuffix(strings.ToLower(normalized), PackageExtension) {
		normalized += PackageExtension
	}
	return normalized
}

// baseName returns the last non-empty segment, treating both slash styles as
// separators regardless of the host OS.
func baseName(p string) string {
	segments := strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}
