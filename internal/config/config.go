// Package config handles sideload configuration parsing and location resolution.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adamancini/sideload/internal/types"
)

// ErrNotFound is returned by Find when no configuration file exists in the
// standard locations.
var ErrNotFound = errors.New("no configuration file found in standard locations")

// Defaults.
const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultReadTimeout    = 120 * time.Second
	DefaultMaxHops        = 6
	DefaultPackageName    = "dev.sideload"
	DefaultServeAddr      = "127.0.0.1:8765"
)

// Duration is a time.Duration written as a Go duration string ("15s", "2m")
// in every config format.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(v)
	return nil
}

// Config is the parsed configuration file merged over the defaults.
type Config struct {
	Build    types.BuildType `yaml:"build" toml:"build" json:"build"`
	CacheDir string          `yaml:"cache_dir" toml:"cache_dir" json:"cache_dir"`
	Fetch    FetchConfig     `yaml:"fetch" toml:"fetch" json:"fetch"`
	Policy   PolicyConfig    `yaml:"policy" toml:"policy" json:"policy"`
	Platform PlatformConfig  `yaml:"platform" toml:"platform" json:"platform"`
	Log      LogConfig       `yaml:"log" toml:"log" json:"log"`
	Serve    ServeConfig     `yaml:"serve" toml:"serve" json:"serve"`
}

// FetchConfig tunes the downloader.
type FetchConfig struct {
	ConnectTimeout          Duration `yaml:"connect_timeout" toml:"connect_timeout" json:"connect_timeout"`
	ReadTimeout             Duration `yaml:"read_timeout" toml:"read_timeout" json:"read_timeout"`
	MaxHops                 int      `yaml:"max_hops" toml:"max_hops" json:"max_hops"`
	FollowRedirectsManually bool     `yaml:"follow_redirects_manually" toml:"follow_redirects_manually" json:"follow_redirects_manually"`
	RevalidateRedirects     bool     `yaml:"revalidate_redirects" toml:"revalidate_redirects" json:"revalidate_redirects"`
	UserAgent               string   `yaml:"user_agent,omitempty" toml:"user_agent,omitempty" json:"user_agent,omitempty"`
}

// PolicyConfig controls which URLs are accepted.
type PolicyConfig struct {
	AllowInsecureInDebug bool `yaml:"allow_insecure_in_debug" toml:"allow_insecure_in_debug" json:"allow_insecure_in_debug"`
}

// PlatformConfig configures the exec backed install host. Commands are argv
// lists; an empty install command means the host's default opener.
type PlatformConfig struct {
	PackageName       string   `yaml:"package_name" toml:"package_name" json:"package_name"`
	Authority         string   `yaml:"authority,omitempty" toml:"authority,omitempty" json:"authority,omitempty"`
	PermissionCommand []string `yaml:"permission_command,omitempty" toml:"permission_command,omitempty" json:"permission_command,omitempty"`
	SettingsCommand   []string `yaml:"settings_command,omitempty" toml:"settings_command,omitempty" json:"settings_command,omitempty"`
	InstallCommand    []string `yaml:"install_command,omitempty" toml:"install_command,omitempty" json:"install_command,omitempty"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	File   string `yaml:"file,omitempty" toml:"file,omitempty" json:"file,omitempty"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// ServeConfig configures the local HTTP bridge.
type ServeConfig struct {
	Addr string `yaml:"addr" toml:"addr" json:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Build:    types.BuildRelease,
		CacheDir: defaultCacheDir(),
		Fetch: FetchConfig{
			ConnectTimeout:          Duration(DefaultConnectTimeout),
			ReadTimeout:             Duration(DefaultReadTimeout),
			MaxHops:                 DefaultMaxHops,
			FollowRedirectsManually: true,
			RevalidateRedirects:     true,
		},
		Policy: PolicyConfig{
			AllowInsecureInDebug: true,
		},
		Platform: PlatformConfig{
			PackageName: DefaultPackageName,
		},
		Log: LogConfig{
			Level:  types.LogLevelInfo.String(),
			Format: types.LogFormatConsole.String(),
		},
		Serve: ServeConfig{
			Addr: DefaultServeAddr,
		},
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "sideload")
	}
	return filepath.Join(os.TempDir(), "sideload")
}

// ApplyEnv overrides values from the environment.
//   - SIDELOAD_BUILD: build type of the host (release, debug)
//   - SIDELOAD_CACHE_DIR: download directory
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("SIDELOAD_BUILD"); v != "" {
		bt, err := types.ParseBuildType(v)
		if err != nil {
			return fmt.Errorf("SIDELOAD_BUILD: %w", err)
		}
		c.Build = bt
	}
	if v := os.Getenv("SIDELOAD_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	return nil
}

// Find searches for a configuration file in the standard locations.
// Returns the path to the first file found, or ErrNotFound.
func Find(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Check SIDELOAD_CONFIG environment variable
	if envPath := os.Getenv("SIDELOAD_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	searchPaths := []string{
		filepath.Join(xdgConfig, "sideload"),
		filepath.Join(home, ".sideload"),
	}

	fileNames := []string{
		"config.yaml",
		"config.yml",
		"config.toml",
		"config.json",
	}

	for _, dir := range searchPaths {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", ErrNotFound
}

// Load reads and parses a configuration file from the given path. Values not
// present in the file keep their defaults.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	content = expandEnvVars(content)
	if err := validateSchema(content, format); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg, err := parse(content, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Resolve finds and loads the configuration, falling back to the defaults when
// no file exists, then applies environment overrides. The returned path is
// empty when the defaults were used.
func Resolve(explicitPath string) (*Config, string, error) {
	path, err := Find(explicitPath)
	var cfg *Config
	switch {
	case errors.Is(err, ErrNotFound):
		cfg, path = Default(), ""
	case err != nil:
		return nil, "", err
	default:
		if cfg, err = Load(path); err != nil {
			return nil, path, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, path, err
	}
	if err := Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
