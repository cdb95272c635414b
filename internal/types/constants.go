// Package types provides type-safe constants for the sideload configuration system.
//
// This package centralizes the enumerated values used throughout the codebase,
// replacing magic strings with typed constants that provide compile-time safety
// and validation methods.
//
// SYNC REQUIREMENT: These types must stay in sync with:
//   - internal/config/schema/config.schema.json (JSON Schema validation)
//   - internal/config/validate.go (runtime validation)
package types

import (
	"fmt"
	"strings"
)

// BuildType describes how the running host was built (release or debug).
type BuildType string

const (
	// BuildRelease is a production build. Only https downloads are accepted.
	BuildRelease BuildType = "release"
	// BuildDebug is a development build. Plain http may be accepted.
	BuildDebug BuildType = "debug"
)

// AllBuildTypes returns all valid build types.
func AllBuildTypes() []BuildType {
	return []BuildType{BuildRelease, BuildDebug}
}

// Validate checks if the BuildType is a valid value.
// An empty build type is valid and means release.
func (b BuildType) Validate() error {
	switch b {
	case BuildRelease, BuildDebug, "":
		return nil
	default:
		return fmt.Errorf("invalid build type '%s' (must be release or debug)", b)
	}
}

// String returns the string representation of the BuildType.
func (b BuildType) String() string {
	if b == "" {
		return string(BuildRelease)
	}
	return string(b)
}

// IsDebug returns true for debug builds.
func (b BuildType) IsDebug() bool {
	return b == BuildDebug
}

// ParseBuildType parses a string into a BuildType.
func ParseBuildType(s string) (BuildType, error) {
	bt := BuildType(strings.ToLower(strings.TrimSpace(s)))
	if err := bt.Validate(); err != nil {
		return "", err
	}
	if bt == "" {
		return BuildRelease, nil
	}
	return bt, nil
}

// Scheme is a URL scheme understood by the download policy.
type Scheme string

const (
	// SchemeHTTPS is always accepted.
	SchemeHTTPS Scheme = "https"
	// SchemeHTTP is accepted only in debug builds.
	SchemeHTTP Scheme = "http"
)

// String returns the string representation of the Scheme.
func (s Scheme) String() string {
	return string(s)
}

// IsSecure returns true if the scheme uses TLS.
func (s Scheme) IsSecure() bool {
	return s == SchemeHTTPS
}

// ResultCode is the machine readable code carried by a soft (non-error) result.
type ResultCode string

const (
	// ResultNeedsUnknownSourcesPermission means the user must allow installs from
	// unknown sources and the caller should try again afterwards.
	ResultNeedsUnknownSourcesPermission ResultCode = "NEEDS_UNKNOWN_SOURCES_PERMISSION"
)

// String returns the string representation of the ResultCode.
func (c ResultCode) String() string {
	return string(c)
}

// LogFormat selects the log encoder.
type LogFormat string

const (
	// LogFormatJSON writes one JSON object per line.
	LogFormatJSON LogFormat = "json"
	// LogFormatConsole writes human readable lines.
	LogFormatConsole LogFormat = "console"
)

// AllLogFormats returns all valid log formats.
func AllLogFormats() []LogFormat {
	return []LogFormat{LogFormatJSON, LogFormatConsole}
}

// Validate checks if the LogFormat is a valid value.
// Empty is valid and defaults to console.
func (f LogFormat) Validate() error {
	switch f {
	case LogFormatJSON, LogFormatConsole, "":
		return nil
	default:
		return fmt.Errorf("invalid log format '%s' (must be json or console)", f)
	}
}

// String returns the string representation of the LogFormat.
func (f LogFormat) String() string {
	if f == "" {
		return string(LogFormatConsole)
	}
	return string(f)
}

// LogLevel is a logger verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// AllLogLevels returns all valid log levels.
func AllLogLevels() []LogLevel {
	return []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}
}

// Validate checks if the LogLevel is a valid value.
// Empty is valid and defaults to info.
func (l LogLevel) Validate() error {
	switch LogLevel(strings.ToLower(string(l))) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, "":
		return nil
	default:
		return fmt.Errorf("invalid log level '%s' (must be debug, info, warn, or error)", l)
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	if l == "" {
		return string(LogLevelInfo)
	}
	return strings.ToLower(string(l))
}
