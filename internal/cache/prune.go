package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adamancini/sideload/internal/update"
)

// PruneResult contains information about what was pruned.
type PruneResult struct {
	Deleted []Entry `json:"deleted" yaml:"deleted" toml:"deleted"`
	Kept    int     `json:"kept" yaml:"kept" toml:"kept"`
	// LocksRemoved counts lock files left behind by packages that no longer exist.
	LocksRemoved int `json:"locks_removed" yaml:"locks_removed" toml:"locks_removed"`
}

// Freed returns the number of bytes released.
func (r *PruneResult) Freed() int64 {
	var n int64
	for _, e := range r.Deleted {
		n += e.Size
	}
	return n
}

// Prune removes old packages, keeping only the most recent N, then removes
// orphaned lock files.
func (m *Manager) Prune(ctx context.Context, keep int) (*PruneResult, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep count must be non-negative")
	}

	pkgs, err := m.List()
	if err != nil {
		return nil, err
	}

	result := &PruneResult{Deleted: []Entry{}, Kept: len(pkgs)}

	// Packages are already sorted newest first
	if len(pkgs) > keep {
		result.Kept = keep
		for _, pkg := range pkgs[keep:] {
			if err := m.Delete(ctx, pkg.Name); err != nil {
				return nil, fmt.Errorf("failed to delete package %s: %w", pkg.Name, err)
			}
			result.Deleted = append(result.Deleted, pkg)
		}
	}

	result.LocksRemoved, err = m.pruneLocks(ctx)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// pruneLocks removes lock files whose package is gone. Locks held by a running
// invocation are skipped.
func (m *Manager) pruneLocks(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	// An already cancelled context turns LockDestination into a try-lock.
	tryCtx, cancel := context.WithCancel(ctx)
	cancel()

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasSuffix(name, update.PackageExtension+update.LockSuffix) {
			continue
		}
		path := filepath.Join(m.dir, strings.TrimSuffix(name, update.LockSuffix))
		if exists(path) {
			continue
		}

		unlock, err := update.LockDestination(tryCtx, path)
		if err != nil {
			continue
		}
		if !exists(path) {
			removeLockFile(path)
			removed++
		}
		unlock()
	}
	return removed, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
