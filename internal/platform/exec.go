package platform

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	// ErrNoSettingsCommand is returned when no settings command is configured.
	ErrNoSettingsCommand = errors.New("no settings command configured")
	// ErrNoInstallCommand is returned when no install command is configured.
	ErrNoInstallCommand = errors.New("no install command configured")
	// ErrOutsideRoot is returned for files outside the shared cache root.
	ErrOutsideRoot = errors.New("file is outside the shared root")
)

// ExecConfig configures an ExecPlatform.
type ExecConfig struct {
	PackageName       string   // identity of the installing app
	Authority         string   // content handle authority, defaults to PackageName + ".fileprovider"
	Root              string   // only files below Root get content handles
	PermissionCommand []string // exit status 0 means granted; empty means implicitly granted
	SettingsCommand   []string // opens the remediation screen
	InstallCommand    []string // receives the install intent
}

// ExecPlatform implements Platform by running host commands.
// Command arguments may reference {uri}, {path}, {mime}, {action} and {package}.
type ExecPlatform struct {
	cfg ExecConfig
}

// NewExecPlatform creates an exec backed platform.
func NewExecPlatform(cfg ExecConfig) *ExecPlatform {
	if cfg.Authority == "" {
		cfg.Authority = cfg.PackageName + ".fileprovider"
	}
	return &ExecPlatform{cfg: cfg}
}

// CanRequestPackageInstalls runs the permission command.
// Without one the permission is implicitly granted, as on hosts that predate it.
func (p *ExecPlatform) CanRequestPackageInstalls(ctx context.Context) (bool, error) {
	if len(p.cfg.PermissionCommand) == 0 {
		return true, nil
	}
	args := p.expand(p.cfg.PermissionCommand, nil)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, fmt.Errorf("permission query failed: %w", err)
}

// OpenInstallSettings starts the settings command.
func (p *ExecPlatform) OpenInstallSettings(ctx context.Context) error {
	if len(p.cfg.SettingsCommand) == 0 {
		return ErrNoSettingsCommand
	}
	return p.start(p.expand(p.cfg.SettingsCommand, &Intent{Action: ActionManageUnknownAppSources}), nil)
}

// ContentHandle returns a content:// handle for a regular file below the root
// and makes the file readable by the installer.
func (p *ExecPlatform) ContentHandle(path string) (Handle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	root, err := filepath.Abs(p.cfg.Root)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to resolve root: %w", err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Handle{}, fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return Handle{}, fmt.Errorf("not a regular file: %s", path)
	}
	if err := os.Chmod(abs, 0644); err != nil {
		return Handle{}, fmt.Errorf("failed to grant read access: %w", err)
	}

	u := url.URL{Scheme: "content", Host: p.cfg.Authority, Path: "/" + filepath.ToSlash(rel)}
	return Handle{URI: u.String(), Path: abs}, nil
}

// StartActivity starts the install command for the intent. The command runs as
// its own task: it is not tied to ctx and is not waited for.
func (p *ExecPlatform) StartActivity(ctx context.Context, intent Intent) error {
	if len(p.cfg.InstallCommand) == 0 {
		return ErrNoInstallCommand
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	env := []string{
		"SIDELOAD_INTENT_ACTION=" + intent.Action,
		"SIDELOAD_INTENT_TYPE=" + intent.MIMEType,
		"SIDELOAD_CONTENT_URI=" + intent.Data.URI,
	}
	if intent.Flags.Has(FlagGrantReadURIPermission) {
		env = append(env, "SIDELOAD_GRANT_READ=1")
	}
	return p.start(p.expand(p.cfg.InstallCommand, &intent), env)
}

func (p *ExecPlatform) start(args []string, env []string) error {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Env = append(os.Environ(), env...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", args[0], err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func (p *ExecPlatform) expand(tmpl []string, intent *Intent) []string {
	pairs := []string{"{package}", p.cfg.PackageName}
	if intent != nil {
		pairs = append(pairs,
			"{uri}", intent.Data.URI,
			"{path}", intent.Data.Path,
			"{mime}", intent.MIMEType,
			"{action}", intent.Action,
		)
	}
	r := strings.NewReplacer(pairs...)
	out := make([]string, len(tmpl))
	for i, a := range tmpl {
		out[i] = r.Replace(a)
	}
	return out
}
