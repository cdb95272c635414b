package update

import (
	"context"

	"github.com/adamancini/sideload/internal/logger"
	"github.com/adamancini/sideload/internal/platform"
)

// Dispatcher issues the platform install request for a downloaded package.
// It must run on the foreground Looper.
type Dispatcher struct {
	platform platform.Platform
	log      logger.Logger
}

// NewDispatcher creates a dispatcher for p.
func NewDispatcher(p platform.Platform, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{platform: p, log: log}
}

// Install shares path through a content handle and asks the host to open it as
// a package, granting read access and running the installer as its own task.
func (d *Dispatcher) Install(ctx context.Context, path string) error {
	handle, err := d.platform.ContentHandle(path)
	if err != nil {
		return &InstallError{Err: err}
	}

	intent := platform.Intent{
		Action:   platform.ActionView,
		Data:     handle,
		MIMEType: platform.MIMEPackageArchive,
		Flags:    platform.FlagGrantReadURIPermission | platform.FlagActivityNewTask,
	}

	d.log.Debugf("launching installer uri=%s", handle.URI)
	if err := d.platform.StartActivity(ctx, intent); err != nil {
		return &InstallError{Err: err}
	}
	return nil
}
