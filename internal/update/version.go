package update

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// CanonicalVersion returns s in the "vMAJOR.MINOR.PATCH[-pre]" form, accepting
// versions with or without the 'v' prefix and short forms like "1.2".
func CanonicalVersion(s string) (string, error) {
	v := strings.TrimSpace(s)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("invalid version format: %q", s)
	}
	return semver.Canonical(v), nil
}

// CompareVersions compares two version strings
// Returns:
//   - 1 if v1 > v2
//   - 0 if v1 == v2
//   - -1 if v1 < v2
//   - error if either version is invalid
func CompareVersions(v1, v2 string) (int, error) {
	c1, err := CanonicalVersion(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version v1: %w", err)
	}
	c2, err := CanonicalVersion(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version v2: %w", err)
	}
	return semver.Compare(c1, c2), nil
}

// IsNewerVersion reports whether latest is newer than current. Builds without
// a valid version (dev, unknown) are always considered outdated.
func IsNewerVersion(current, latest string) bool {
	c, err := CanonicalVersion(latest)
	if err != nil {
		return false
	}
	cur, err := CanonicalVersion(current)
	if err != nil {
		return true
	}
	return semver.Compare(c, cur) > 0
}

// NormalizeVersion removes the 'v' prefix if present
func NormalizeVersion(s string) string {
	return strings.TrimPrefix(s, "v")
}
