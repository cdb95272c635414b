// Package platform is the boundary between sideload and the host that actually
// installs packages: the install permission, the settings screen used to grant it,
// content handles for downloaded files and the install request itself.
package platform

import (
	"context"
	"runtime"
)

const (
	// ActionView asks the host to open the attached data with its default handler.
	ActionView = "android.intent.action.VIEW"
	// ActionManageUnknownAppSources opens the screen where installs from unknown
	// sources are granted.
	ActionManageUnknownAppSources = "android.settings.MANAGE_UNKNOWN_APP_SOURCES"
	// MIMEPackageArchive is the content type of an installable package.
	MIMEPackageArchive = "application/vnd.android.package-archive"
)

// Flag modifies how an Intent is delivered.
type Flag uint32

const (
	// FlagGrantReadURIPermission grants the receiver read access to the intent data.
	FlagGrantReadURIPermission Flag = 1 << iota
	// FlagActivityNewTask runs the receiver as a new, independent task.
	FlagActivityNewTask
)

// Has reports whether all bits of other are set.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

// Handle is a capability-scoped reference to a local file. URI is what crosses
// the install boundary; Path never leaves this process.
type Handle struct {
	URI  string
	Path string
}

// Intent is a request for the host to act on a piece of data.
type Intent struct {
	Action   string
	Data     Handle
	MIMEType string
	Flags    Flag
}

// Platform is implemented by install hosts.
type Platform interface {
	// CanRequestPackageInstalls reports whether this process may install
	// packages from unknown sources.
	CanRequestPackageInstalls(ctx context.Context) (bool, error)
	// OpenInstallSettings launches the screen where the permission is granted.
	OpenInstallSettings(ctx context.Context) error
	// ContentHandle returns a shareable handle for a downloaded file.
	ContentHandle(path string) (Handle, error)
	// StartActivity hands the intent to the host without waiting for it to finish.
	StartActivity(ctx context.Context, intent Intent) error
}

// Host describes the operating system sideload runs on.
type Host struct {
	OS   string // Operating system (darwin, linux)
	Arch string // Architecture (amd64, arm64)
}

// Detect returns the current host (OS and architecture)
func Detect() Host {
	return Host{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

// IsSupported returns true if the exec platform has a default opener for this host.
func (h Host) IsSupported() bool {
	return len(h.DefaultOpener()) > 0
}

// DefaultOpener returns the command that opens a file with the desktop's
// default handler, with "{path}" left as a placeholder.
func (h Host) DefaultOpener() []string {
	switch h.OS {
	case "darwin":
		return []string{"open", "{path}"}
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"xdg-open", "{path}"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", "{path}"}
	default:
		return nil
	}
}
