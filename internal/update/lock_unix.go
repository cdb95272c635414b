//go:build unix

package update

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

const lockRetryInterval = 25 * time.Millisecond

// LockDestination takes an exclusive flock on dst + LockSuffix. flock
// conflicts between separate opens, so it serializes goroutines and processes
// alike. It gives up with ctx.Err() when ctx ends while another holder has
// the lock.
func LockDestination(ctx context.Context, dst string) (func(), error) {
	lockPath := dst + LockSuffix
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open lock file: %w", err)
		}
		if err := flockContext(ctx, f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to lock %s: %w", dst, err)
		}
		// A holder may have removed the lock file before releasing it; the
		// lock then guards an unlinked inode and has to be taken again.
		if sameFile(f, lockPath) {
			return func() {
				_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
				_ = f.Close()
			}, nil
		}
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
	}
}

func flockContext(ctx context.Context, f *os.File) error {
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

func sameFile(f *os.File, path string) bool {
	held, err := f.Stat()
	if err != nil {
		return false
	}
	current, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, current)
}
