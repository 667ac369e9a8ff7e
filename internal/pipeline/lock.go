package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock guards against two pipeline runs mutating the same result tree.
type Lock struct {
	flock *flock.Flock
}

// AcquireLock takes the run lock under logDir without blocking. A held lock
// means another chipseqpipe run (possibly on another machine sharing the
// filesystem) is active.
func AcquireLock(logDir string) (*Lock, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	lock := flock.New(filepath.Join(logDir, "chipseqpipe.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another chipseqpipe run is already in progress")
	}
	return &Lock{flock: lock}, nil
}

// Release drops the run lock.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil || l.flock == nil {
		return ""
	}
	return l.flock.Path()
}
