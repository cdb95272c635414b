package update

import (
	"github.com/adamancini/sideload/internal/types"
)

// Request is a caller's ask to download a package and hand it to the installer.
type Request struct {
	URL      string `json:"url" yaml:"url"`
	FileName string `json:"fileName,omitempty" yaml:"fileName,omitempty"`
}

// Result is the resolved (non-error) outcome of an invocation.
// OK is false only for a soft denial, in which case Code says what the caller
// has to do before trying again.
type Result struct {
	OK   bool             `json:"ok" yaml:"ok" toml:"ok"`
	Code types.ResultCode `json:"code,omitempty" yaml:"code,omitempty" toml:"code,omitempty"`
}

// NeedsPermission reports whether the result is the unknown-sources soft denial.
func (r Result) NeedsPermission() bool {
	return !r.OK && r.Code == types.ResultNeedsUnknownSourcesPermission
}

// PermissionState is the answer of the Gatekeeper for one invocation.
type PermissionState int

const (
	PermissionGranted PermissionState = iota
	PermissionNeedsRemediation
)

func (s PermissionState) String() string {
	if s == PermissionGranted {
		return "granted"
	}
	return "needs-remediation"
}
