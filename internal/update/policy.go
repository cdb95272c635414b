package update

import (
	"net/url"
	"strings"

	"github.com/adamancini/sideload/internal/types"
)

// PolicyReason says why a URL was refused.
type PolicyReason string

const (
	ReasonMissingURL        PolicyReason = "missing-url"
	ReasonInsecureTransport PolicyReason = "insecure-transport"
	ReasonUnsupportedScheme PolicyReason = "unsupported-scheme"
	ReasonMalformedURL      PolicyReason = "malformed-url"
)

// PolicyError is returned by Policy.Validate.
type PolicyError struct {
	Reason PolicyReason
	Err    error // parse error for ReasonMalformedURL
}

func (e *PolicyError) Error() string {
	switch e.Reason {
	case ReasonMissingURL:
		return "Missing url"
	case ReasonMalformedURL:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "malformed url"
	default:
		return "Only https URLs are allowed"
	}
}

func (e *PolicyError) Unwrap() error {
	return e.Err
}

// Policy decides which URLs may be downloaded.
type Policy struct {
	Build                types.BuildType
	AllowInsecureInDebug bool
}

// ValidateURL applies the default policy: https always, http only in debug builds.
func ValidateURL(raw string, debug bool) (*url.URL, error) {
	build := types.BuildRelease
	if debug {
		build = types.BuildDebug
	}
	return Policy{Build: build, AllowInsecureInDebug: true}.Validate(raw)
}

// Validate checks the scheme of raw and parses it.
func (p Policy) Validate(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &PolicyError{Reason: ReasonMissingURL}
	}

	lower := strings.ToLower(trimmed)
	isHTTPS := strings.HasPrefix(lower, types.SchemeHTTPS.String()+"://")
	isHTTP := strings.HasPrefix(lower, types.SchemeHTTP.String()+"://")

	switch {
	case isHTTPS:
	case isHTTP && p.allowsInsecure():
	case isHTTP:
		return nil, &PolicyError{Reason: ReasonInsecureTransport}
	default:
		return nil, &PolicyError{Reason: ReasonUnsupportedScheme}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, &PolicyError{Reason: ReasonMalformedURL, Err: err}
	}
	return u, nil
}

func (p Policy) allowsInsecure() bool {
	return p.AllowInsecureInDebug && p.Build.IsDebug()
}

// RedactURL keeps scheme, host and path so URLs can be logged without
// credentials or query tokens.
func RedactURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "<invalid-url>"
	}
	scheme, host := u.Scheme, u.Host
	if scheme == "" {
		scheme = "?"
	}
	if host == "" {
		host = "?"
	}
	return scheme + "://" + host + u.EscapedPath()
}
