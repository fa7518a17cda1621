// Package lockwait blocks until pacman's database lock is released.
//
// libalpm takes the lock by creating db.lck exclusively and releases it by
// removing the file; a second process that needs the lock fails with
// alpm.ErrHandleLock. Wait watches the lock file's directory with fsnotify so
// callers can retry TransInit once the holder is done instead of polling.
package lockwait

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/pacwrap/alpm-go/pkg/alpm/logging"
)

// Options tunes Wait. The zero value is usable.
type Options struct {
	Logger logging.Logger
}

// Held reports whether the lock file exists.
func Held(lockfile string) (bool, error) {
	_, err := os.Lstat(lockfile)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	}
	return false, fmt.Errorf("lockwait: stat %s: %w", lockfile, err)
}

// Wait returns once lockfile does not exist, or with ctx.Err() when ctx ends
// first. It returns immediately when the lock is not held.
func Wait(ctx context.Context, lockfile string, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	lockfile = filepath.Clean(lockfile)
	dir := filepath.Dir(lockfile)

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("lockwait: create fsnotify watcher: %w", err)
	}
	defer func() {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn(ctx, "closing lock watcher", "error", closeErr)
		}
	}()

	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("lockwait: watch %s: %w", dir, err)
	}

	// The watch is in place, so a removal from here on produces an event.
	held, err := Held(lockfile)
	if err != nil || !held {
		return err
	}
	logger.Info(ctx, "waiting for database lock", "lockfile", lockfile)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case evt, ok := <-fsw.Events:
			if !ok {
				return errors.New("lockwait: fsnotify event channel closed unexpectedly")
			}
			if filepath.Clean(evt.Name) != lockfile || !(evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename)) {
				continue
			}
			held, err := Held(lockfile)
			if err != nil {
				return err
			}
			if !held {
				logger.Debug(ctx, "database lock released", "lockfile", lockfile)
				return nil
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("lockwait: fsnotify error channel closed unexpectedly")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// Events were dropped; the lock may already be gone.
				held, statErr := Held(lockfile)
				if statErr != nil {
					return statErr
				}
				if !held {
					return nil
				}
				continue
			}
			return fmt.Errorf("lockwait: fsnotify: %w", err)
		}
	}
}
