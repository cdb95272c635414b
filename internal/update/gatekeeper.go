package update

import (
	"context"

	"github.com/adamancini/sideload/internal/logger"
	"github.com/adamancini/sideload/internal/platform"
)

// Gatekeeper checks the unknown-sources install permission. It is asked once
// per invocation and never caches the answer.
type Gatekeeper struct {
	platform platform.Platform
	log      logger.Logger
}

// NewGatekeeper creates a gatekeeper for p.
func NewGatekeeper(p platform.Platform, log logger.Logger) *Gatekeeper {
	if log == nil {
		log = logger.Nop()
	}
	return &Gatekeeper{platform: p, log: log}
}

// Check queries the permission. When it is missing the settings screen is
// opened as a best effort and NeedsRemediation is returned. A failing query
// counts as not granted.
func (g *Gatekeeper) Check(ctx context.Context) PermissionState {
	granted, err := g.platform.CanRequestPackageInstalls(ctx)
	if err != nil {
		g.log.Warnf("permission query failed: %v", err)
	}
	if granted && err == nil {
		return PermissionGranted
	}

	g.log.Warnf("needs unknown sources permission")
	if opened := g.openSettings(ctx); !opened {
		g.log.Debugf("settings screen was not opened")
	}
	return PermissionNeedsRemediation
}

// openSettings never fails the caller; it only reports whether the screen opened.
func (g *Gatekeeper) openSettings(ctx context.Context) bool {
	if err := g.platform.OpenInstallSettings(ctx); err != nil {
		g.log.Debugf("open install settings: %v", err)
		return false
	}
	return true
}
