// Package config handles sideload configuration parsing and location resolution.
//
// SYNC REQUIREMENT: Validation rules in this file must stay in sync with
// the JSON Schema at schema/config.schema.json.
//
// Synced validation rules:
//   - Build types: release, debug (validateBuild)
//   - fetch.max_hops: 1..20 (validateFetch)
//   - Durations: Go duration strings, positive (validateFetch)
//   - Log formats: json, console (validateLog)
//   - Commands: non-empty argv with a non-empty program (validateCommand)
//
// Rules only enforced here:
//   - Log levels are case-insensitive (debug, info, warn, error)
//   - platform.package_name is a dotted identifier
//   - serve.addr is host:port
package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/adamancini/sideload/internal/types"
)

const maxHopsLimit = 20

// packageNamePattern matches dotted application identifiers like "com.example.app".
var packageNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)*$`)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for required fields and valid values.
func Validate(c *Config) error {
	var errs []ValidationError

	errs = append(errs, validateBuild(c.Build)...)
	if strings.TrimSpace(c.CacheDir) == "" {
		errs = append(errs, ValidationError{Field: "cache_dir", Message: "cache_dir is required"})
	}
	errs = append(errs, validateFetch(c.Fetch)...)
	errs = append(errs, validatePlatform(c.Platform)...)
	errs = append(errs, validateLog(c.Log)...)
	if _, _, err := net.SplitHostPort(c.Serve.Addr); err != nil {
		errs = append(errs, ValidationError{Field: "serve.addr", Message: fmt.Sprintf("invalid address '%s' (must be host:port)", c.Serve.Addr)})
	}

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
	}

	return nil
}

func validateBuild(b types.BuildType) []ValidationError {
	if err := b.Validate(); err != nil {
		return []ValidationError{{Field: "build", Message: err.Error()}}
	}
	return nil
}

func validateFetch(f FetchConfig) []ValidationError {
	var errs []ValidationError
	if f.MaxHops < 1 || f.MaxHops > maxHopsLimit {
		errs = append(errs, ValidationError{
			Field:   "fetch.max_hops",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", maxHopsLimit, f.MaxHops),
		})
	}
	if f.ConnectTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "fetch.connect_timeout", Message: "must be positive"})
	}
	if f.ReadTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "fetch.read_timeout", Message: "must be positive"})
	}
	return errs
}

func validatePlatform(p PlatformConfig) []ValidationError {
	var errs []ValidationError
	if !packageNamePattern.MatchString(p.PackageName) {
		errs = append(errs, ValidationError{
			Field:   "platform.package_name",
			Message: fmt.Sprintf("invalid package name '%s'", p.PackageName),
		})
	}
	errs = append(errs, validateCommand("platform.permission_command", p.PermissionCommand)...)
	errs = append(errs, validateCommand("platform.settings_command", p.SettingsCommand)...)
	errs = append(errs, validateCommand("platform.install_command", p.InstallCommand)...)
	return errs
}

// validateCommand accepts an unset command; a set one needs a program.
func validateCommand(field string, argv []string) []ValidationError {
	if argv == nil {
		return nil
	}
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return []ValidationError{{Field: field, Message: "command must name a program"}}
	}
	return nil
}

func validateLog(l LogConfig) []ValidationError {
	var errs []ValidationError
	if err := types.LogLevel(l.Level).Validate(); err != nil {
		errs = append(errs, ValidationError{Field: "log.level", Message: err.Error()})
	}
	if err := types.LogFormat(l.Format).Validate(); err != nil {
		errs = append(errs, ValidationError{Field: "log.format", Message: err.Error()})
	}
	return errs
}
