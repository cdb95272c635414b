//go:build !unix

package update

import (
	"context"
	"sync"
)

var destinationLocks sync.Map // path -> chan struct{}

// LockDestination serializes writers of dst within this process. It gives up
// with ctx.Err() when ctx ends first.
func LockDestination(ctx context.Context, dst string) (func(), error) {
	v, _ := destinationLocks.LoadOrStore(dst, make(chan struct{}, 1))
	sem := v.(chan struct{})
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
