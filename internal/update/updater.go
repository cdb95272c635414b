package update

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/adamancini/sideload/internal/logger"
	"github.com/adamancini/sideload/internal/metrics"
	"github.com/adamancini/sideload/internal/platform"
	"github.com/adamancini/sideload/internal/types"
)

// Options configures an Updater.
type Options struct {
	CacheDir string
	Policy   Policy
	Fetch    FetchOptions
	Progress ProgressFunc
}

// Updater runs the download-and-install flow:
// validate, check permission, fetch and write in the background, then install
// on the foreground Looper. Every invocation ends in exactly one Outcome.
type Updater struct {
	cacheDir  string
	policy    Policy
	gate      *Gatekeeper
	fetcher   *Fetcher
	installer *Dispatcher
	looper    *Looper
	log       logger.Logger
	metrics   *metrics.Metrics
}

// New wires an updater. looper must be running for installs to happen.
func New(opts Options, p platform.Platform, looper *Looper, log logger.Logger, m *metrics.Metrics) *Updater {
	if log == nil {
		log = logger.Nop()
	}
	fetch := opts.Fetch
	if fetch.Policy == nil {
		policy := opts.Policy
		fetch.Policy = &policy
	}
	return &Updater{
		cacheDir:  opts.CacheDir,
		policy:    opts.Policy,
		gate:      NewGatekeeper(p, log),
		fetcher:   NewFetcher(fetch, NewStreamWriter(log, opts.Progress), log, m),
		installer: NewDispatcher(p, log),
		looper:    looper,
		log:       log,
		metrics:   m,
	}
}

// Fetcher exposes the fetcher, e.g. to swap its transport.
func (u *Updater) Fetcher() *Fetcher {
	return u.fetcher
}

// DownloadAndInstall runs one invocation and waits for its outcome.
// The error, when set, is a *Rejection.
func (u *Updater) DownloadAndInstall(ctx context.Context, req Request) (Result, error) {
	return u.Start(ctx, req).Wait()
}

// Start begins one invocation and returns the Call its outcome arrives on.
// Validation and the permission check happen before Start returns; network
// and disk work happen on a goroutine owned by this invocation.
func (u *Updater) Start(ctx context.Context, req Request) *Call {
	call := newCall(u.log, u.observe)
	fileName := SanitizeFileName(req.FileName)

	target, err := u.policy.Validate(req.URL)
	if err != nil {
		u.log.Warnf("rejected url=%s build=%s: %v", RedactURL(req.URL), u.policy.Build, err)
		call.Reject(Reject(err))
		return call
	}

	if u.gate.Check(ctx) == PermissionNeedsRemediation {
		call.Resolve(Result{OK: false, Code: types.ResultNeedsUnknownSourcesPermission})
		return call
	}

	dst := filepath.Join(u.cacheDir, fileName)
	u.log.Debugf("start url=%s fileName=%s cacheFile=%s", RedactURL(target.String()), fileName, dst)

	go u.run(ctx, call, target, dst)
	return call
}

func (u *Updater) run(ctx context.Context, call *Call, target *url.URL, dst string) {
	var unlock func()
	defer func() {
		if r := recover(); r != nil {
			if unlock != nil {
				unlock()
			}
			call.Reject(Reject(fmt.Errorf("unexpected failure: %v", r)))
		}
	}()

	if err := os.MkdirAll(u.cacheDir, 0700); err != nil {
		call.Reject(Reject(newTransportError(err)))
		return
	}

	var err error
	unlock, err = LockDestination(ctx, dst)
	if err != nil {
		u.log.Warnf("waiting for %s: %v", dst, err)
		call.Reject(Reject(newTransportError(err)))
		return
	}

	path, err := u.fetcher.Fetch(ctx, target, dst)
	if err != nil {
		unlock()
		u.log.Errorf("download failed: %v", err)
		call.Reject(Reject(err))
		return
	}

	// The lock is held until the install request is out so a concurrent
	// invocation cannot truncate the file underneath the installer.
	release := unlock
	posted := u.looper != nil && u.looper.Post(func() {
		defer release()
		u.install(ctx, call, path)
	})
	unlock = nil
	if !posted {
		release()
		u.log.Errorf("foreground context unavailable, cannot install %s", path)
		call.Reject(Reject(&InstallError{Err: fmt.Errorf("foreground context unavailable")}))
	}
}

func (u *Updater) install(ctx context.Context, call *Call, path string) {
	defer func() {
		if r := recover(); r != nil {
			call.Reject(Reject(&InstallError{Err: fmt.Errorf("panic: %v", r)}))
		}
	}()

	if err := u.installer.Install(ctx, path); err != nil {
		u.log.Errorf("install failed: %v", err)
		call.Reject(Reject(err))
		return
	}
	call.Resolve(Result{OK: true})
}

func (u *Updater) observe(o Outcome) {
	switch {
	case o.Err != nil:
		kind := ""
		if rej, ok := o.Err.(*Rejection); ok {
			kind = string(rej.Kind)
		}
		u.metrics.ObserveResult(metrics.ResultRejected, kind)
	case o.Result.OK:
		u.metrics.ObserveResult(metrics.ResultOK, "")
	default:
		u.metrics.ObserveResult(metrics.ResultNeedsPermission, "")
	}
}
