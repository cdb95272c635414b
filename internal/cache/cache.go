// Package cache lists and prunes the packages downloaded into the cache directory.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adamancini/sideload/internal/update"
)

// DefaultKeepCount is the default number of packages to retain.
const DefaultKeepCount = 3

// Entry describes one cached package.
type Entry struct {
	Name       string    `json:"name" yaml:"name" toml:"name"`
	Size       int64     `json:"size" yaml:"size" toml:"size"`
	ModifiedAt time.Time `json:"modified_at" yaml:"modified_at" toml:"modified_at"`
}

// Manager handles cache operations.
type Manager struct {
	dir string
}

// NewManager creates a manager for dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Dir returns the cache directory path.
func (m *Manager) Dir() string {
	return m.dir
}

// List returns all cached packages sorted by modification time (newest first).
func (m *Manager) List() ([]Entry, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	pkgs := []Entry{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(entry.Name()), update.PackageExtension) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		pkgs = append(pkgs, Entry{
			Name:       entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(pkgs, func(i, j int) bool {
		if pkgs[i].ModifiedAt.Equal(pkgs[j].ModifiedAt) {
			return pkgs[i].Name < pkgs[j].Name
		}
		return pkgs[i].ModifiedAt.After(pkgs[j].ModifiedAt)
	})

	return pkgs, nil
}

// Delete removes a cached package by name together with its lock file. It
// waits for any invocation that is writing or installing the same package.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if name != update.SanitizeFileName(name) {
		return fmt.Errorf("invalid package name: %s", name)
	}
	path := filepath.Join(m.dir, name)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("package not found: %s", name)
	}

	unlock, err := update.LockDestination(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	removeLockFile(path)
	return nil
}

// removeLockFile unlinks the lock file of path. The caller holds the lock;
// later lockers notice the unlinked inode and create a fresh file.
func removeLockFile(path string) {
	_ = os.Remove(path + update.LockSuffix)
}
