package pidlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ErrHeld is returned by Acquire when another live process holds the
// lock. The wrapped message names the holder's PID.
var ErrHeld = errors.New("pidlock: held by another process")

const (
	// pollInterval is how often AcquireTimeout re-checks a held lock.
	pollInterval = 50 * time.Millisecond

	// filePermissions is the mode for created lock files.
	filePermissions = 0600
)

// Lock is a PID-file based cross-process lock.
//
// Thread Safety: Lock methods are not synchronised against each other
// within a process; the lock serialises processes, not goroutines.
type Lock struct {
	name string
	path string
}

// New creates a lock named name whose file lives in dir.
// An empty dir selects the OS temporary directory.
func New(name, dir string) *Lock {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Lock{
		name: name,
		path: filepath.Join(dir, name+".lock"),
	}
}

// Name returns the lock's name.
func (l *Lock) Name() string { return l.name }

// Path returns the lock file's path.
func (l *Lock) Path() string { return l.path }

// Acquire takes the lock for the calling process.
//
// A missing lock file, a stale file (recorded process is dead) and a
// corrupt file (content does not parse as a PID) are all treated as
// free: the file is written with the caller's PID. A file recording a
// live process other than the caller yields ErrHeld, wrapped with the
// holder's PID.
func (l *Lock) Acquire() error {
	pid, ok := l.holder()
	if ok && pid != os.Getpid() {
		return fmt.Errorf("%w: pid %d (%s)", ErrHeld, pid, l.path)
	}
	return l.write()
}

// AcquireTimeout polls for the lock until it is acquired or the timeout
// elapses. Returns (false, nil) on timeout rather than an error, so
// callers can distinguish contention from failure. Context cancellation
// aborts the wait with the context's error.
func (l *Lock) AcquireTimeout(ctx context.Context, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		err := l.Acquire()
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, ErrHeld) {
			return false, err
		}
		if time.Now().After(deadline) {
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Release removes the lock file if it currently records the caller's
// own PID. A file held by another process is left untouched; releasing
// a lock we do not hold is not an error.
func (l *Lock) Release() error {
	pid, ok := l.holder()
	if !ok || pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// IsLocked reports whether the lock file exists, parses to a PID, and
// that process is alive. Discovering a stale or corrupt file removes it
// as a side effect.
func (l *Lock) IsLocked() bool {
	_, ok := l.holder()
	return ok
}

// HolderPID returns the live holder's PID, if any.
func (l *Lock) HolderPID() (int, bool) {
	return l.holder()
}

// holder reads the lock file and returns the recorded PID when it
// belongs to a live process. Stale and corrupt files are removed.
func (l *Lock) holder() (int, bool) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		// Corrupt content; reclaim the file.
		_ = os.Remove(l.path)
		return 0, false
	}

	if !processAlive(pid) {
		// Stale lock from a dead process.
		_ = os.Remove(l.path)
		return 0, false
	}

	return pid, true
}

func (l *Lock) write() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0750); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(l.path, []byte(pid), filePermissions); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}
	return nil
}

// processAlive reports whether a process with the given PID exists.
// Signal 0 performs the existence check without delivering anything;
// EPERM means the process exists but belongs to another user.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
