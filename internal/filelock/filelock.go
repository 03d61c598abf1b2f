// Package filelock provides a cross-process exclusive lock backed by a lock
// file. Where the OS has an advisory lock (flock on unix, LockFileEx on
// windows) it is tried without blocking; elsewhere the lock file is created
// exclusively. Either way a failed try is retried at an interval until a
// timeout.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrTimeout indicates the lock was not obtained before the timeout.
var ErrTimeout = errors.New("lock timeout")

// Defaults for Options fields left zero.
const (
	DefaultTimeout       = 5 * time.Second
	DefaultRetryInterval = 50 * time.Millisecond
)

// Options bounds lock acquisition.
type Options struct {
	// Timeout caps the total wait. Zero means DefaultTimeout.
	Timeout time.Duration
	// RetryInterval is the pause between tries. Zero means
	// DefaultRetryInterval.
	RetryInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = DefaultRetryInterval
	}
	return o
}

// Lock is a held lock. Release it exactly once; further calls are no-ops.
type Lock struct {
	path    string
	once    sync.Once
	release func() error
	err     error
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release gives the lock up.
func (l *Lock) Release() error {
	l.once.Do(func() {
		l.err = l.release()
	})
	return l.err
}

// Acquire blocks until the lock at path is held, the timeout elapses
// (ErrTimeout) or ctx is done. The lock file's directory is created if needed.
func Acquire(ctx context.Context, path string, opts Options) (*Lock, error) {
	opts = opts.withDefaults()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("filelock: creating directory: %w", err)
	}
	release, err := acquire(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return &Lock{path: path, release: release}, nil
}

func timeoutError(path string, d time.Duration) error {
	return fmt.Errorf("filelock: %s not acquired within %s: %w", path, d, ErrTimeout)
}
