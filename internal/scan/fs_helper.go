package scan

import (
	"sync"

	"smellfix/internal/safeio"
)

var (
	fsOverrideMu sync.RWMutex
	fsOverride   *safeio.SafeFS
)

// SetSafeFS pins every read to fs instead of a per-root SafeFS (primarily
// for tests). Pass nil to restore the default.
func SetSafeFS(fs *safeio.SafeFS) {
	fsOverrideMu.Lock()
	fsOverride = fs
	fsOverrideMu.Unlock()
}

func newReader(root string) (*safeio.SafeFS, error) {
	fsOverrideMu.RLock()
	fs := fsOverride
	fsOverrideMu.RUnlock()
	if fs != nil {
		return fs, nil
	}
	return safeio.NewSafeFS(root)
}
