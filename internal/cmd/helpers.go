package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/adamancini/sideload/internal/config"
	"github.com/adamancini/sideload/internal/exitcodes"
	"github.com/adamancini/sideload/internal/logger"
	"github.com/adamancini/sideload/internal/metrics"
	"github.com/adamancini/sideload/internal/output"
	"github.com/adamancini/sideload/internal/platform"
	"github.com/adamancini/sideload/internal/types"
	"github.com/adamancini/sideload/internal/update"
)

// session holds what every download-and-install command needs.
type session struct {
	cfg     *config.Config
	cfgPath string
	log     logger.Logger
	metrics *metrics.Metrics
	looper  *update.Looper
}

// newSession loads the configuration and starts the foreground install loop.
// reg may be nil when metrics are not exported.
func newSession(reg prometheus.Registerer) (*session, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg)
	if path != "" {
		log.Debugf("loaded config from %s", path)
	}
	return &session{
		cfg:     cfg,
		cfgPath: path,
		log:     log,
		metrics: metrics.New(reg),
		looper:  update.NewLooper(log).Start(),
	}, nil
}

// close drains the install loop and flushes the logger.
func (r *session) close() {
	r.looper.Quit()
	<-r.looper.Stopped()
	_ = r.log.Sync()
}

func (r *session) newUpdater(progress update.ProgressFunc) *update.Updater {
	return update.New(updateOptions(r.cfg, progress), newPlatform(r.cfg), r.looper, r.log, r.metrics)
}

// loadConfig resolves the config file and applies the --build override.
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.Resolve(configPath)
	if err != nil {
		return nil, path, exitcodes.WrapError(exitcodes.InvalidArgs, err)
	}
	if buildFlag != "" {
		bt, err := types.ParseBuildType(buildFlag)
		if err != nil {
			return nil, path, exitcodes.WrapError(exitcodes.InvalidArgs, fmt.Errorf("--build: %w", err))
		}
		cfg.Build = bt
	}
	return cfg, path, nil
}

func newLogger(cfg *config.Config) logger.Logger {
	lc := logger.Configuration{
		LogLevel:    cfg.Log.Level,
		LogLocation: cfg.Log.File,
		Format:      cfg.Log.Format,
	}.ApplyEnv()
	switch {
	case verbose:
		lc.LogLevel = types.LogLevelDebug.String()
	case quiet:
		lc.LogLevel = types.LogLevelError.String()
	}
	return logger.New(lc)
}

func updateOptions(cfg *config.Config, progress update.ProgressFunc) update.Options {
	return update.Options{
		CacheDir: cfg.CacheDir,
		Policy: update.Policy{
			Build:                cfg.Build,
			AllowInsecureInDebug: cfg.Policy.AllowInsecureInDebug,
		},
		Fetch: update.FetchOptions{
			ConnectTimeout:          cfg.Fetch.ConnectTimeout.Std(),
			ReadTimeout:             cfg.Fetch.ReadTimeout.Std(),
			MaxHops:                 cfg.Fetch.MaxHops,
			FollowRedirectsManually: cfg.Fetch.FollowRedirectsManually,
			RevalidateRedirects:     cfg.Fetch.RevalidateRedirects,
			UserAgent:               cfg.Fetch.UserAgent,
		},
		Progress: progress,
	}
}

// newPlatform builds the exec host. Without an install command the desktop
// opener of the current OS is used.
func newPlatform(cfg *config.Config) *platform.ExecPlatform {
	install := cfg.Platform.InstallCommand
	if len(install) == 0 {
		install = platform.Detect().DefaultOpener()
	}
	return platform.NewExecPlatform(platform.ExecConfig{
		PackageName:       cfg.Platform.PackageName,
		Authority:         cfg.Platform.Authority,
		Root:              cfg.CacheDir,
		PermissionCommand: cfg.Platform.PermissionCommand,
		SettingsCommand:   cfg.Platform.SettingsCommand,
		InstallCommand:    install,
	})
}

func newOutputWriter(w io.Writer) (*output.Writer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, exitcodes.WrapError(exitcodes.InvalidArgs, err)
	}
	return output.NewWriter(w, format), nil
}

// newProgress returns a progress bar on w for text output, or nil.
func newProgress(w io.Writer, format output.Format, label string) *output.Progress {
	if quiet || format != output.FormatText {
		return nil
	}
	return output.NewProgress(w, label)
}

// reportedError is an error whose outcome was already written to the output.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}
