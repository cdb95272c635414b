package update

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/adamancini/sideload/internal/platform"
)

// fakePlatform records every host interaction.
type fakePlatform struct {
	mu sync.Mutex

	granted     bool
	queryErr    error
	settingsErr error
	handleErr   error
	startErr    error

	queries        int
	settingsOpened int
	intents        []platform.Intent
	panicOnStart   bool
}

func newFakePlatform(granted bool) *fakePlatform {
	return &fakePlatform{granted: granted}
}

func (f *fakePlatform) CanRequestPackageInstalls(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	return f.granted, f.queryErr
}

func (f *fakePlatform) OpenInstallSettings(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settingsOpened++
	return f.settingsErr
}

func (f *fakePlatform) ContentHandle(path string) (platform.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handleErr != nil {
		return platform.Handle{}, f.handleErr
	}
	return platform.Handle{URI: "content://test.fileprovider/" + filepath.Base(path), Path: path}, nil
}

func (f *fakePlatform) StartActivity(ctx context.Context, intent platform.Intent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnStart {
		panic("activity not found")
	}
	if f.startErr != nil {
		return f.startErr
	}
	f.intents = append(f.intents, intent)
	return nil
}

func (f *fakePlatform) snapshot() (queries, settings int, intents []platform.Intent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries, f.settingsOpened, append([]platform.Intent(nil), f.intents...)
}
