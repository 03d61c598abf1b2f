//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || windows

package filelock

import (
	"context"
	"fmt"
	"os"
	"time"
)

// acquire opens the lock file and tries the OS lock without blocking,
// retrying every RetryInterval until it is granted, the timeout elapses or
// ctx is done. Nothing is left waiting in the kernel after a failed attempt.
func acquire(ctx context.Context, path string, opts Options) (func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("filelock: opening %s: %w", path, err)
	}

	deadline := time.Now().Add(opts.Timeout)
	ticker := time.NewTicker(opts.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := tryLockFile(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("filelock: locking %s: %w", path, err)
		}
		if ok {
			return func() error {
				uerr := unlockFile(f)
				cerr := f.Close()
				if uerr != nil {
					return fmt.Errorf("filelock: unlocking %s: %w", path, uerr)
				}
				return cerr
			}, nil
		}
		if time.Now().After(deadline) {
			f.Close()
			return nil, timeoutError(path, opts.Timeout)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			f.Close()
			return nil, ctx.Err()
		}
	}
}
