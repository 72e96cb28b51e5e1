package acquire

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// CrossLock wraps gofrs/flock to serialize acquisition across separate OS
// processes sharing one cache root. The in-process Registry (registry.go) is
// authoritative within one process; this is the optional, explicitly
// opt-in layer the spec calls out as a documented limitation rather than a
// default behavior.
type CrossLock struct {
	fl   *flock.Flock
	path string
}

// NewCrossLock builds a lock at path (typically {cache_root}/.lock),
// creating its parent directory if needed.
func NewCrossLock(path string) (*CrossLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &CrossLock{fl: flock.New(path), path: path}, nil
}

// Lock blocks until the cross-process lock is acquired.
func (c *CrossLock) Lock() error {
	return c.fl.Lock()
}

// Unlock releases the lock. The lockfile itself is left on disk (unlike a
// per-cluster lock, this one is shared and long-lived across runs).
func (c *CrossLock) Unlock() error {
	return c.fl.Unlock()
}
