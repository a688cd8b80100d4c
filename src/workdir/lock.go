package workdir

import (
	"errors"
	"fmt"
)

// ErrLocked is returned when another invocation holds the working directory.
var ErrLocked = errors.New("working directory is in use by another invocation")

// Lock is an advisory lock on a working directory.
type Lock struct {
	path string
	fd   int
}

// Lock takes a non-blocking exclusive lock on the working directory.
// The directory must already exist. Release must be called when done.
func (d *Dir) Lock() (*Lock, error) {
	l, err := acquire(d.Join(lockFile))
	if err != nil {
		if errors.Is(err, ErrLocked) {
			return nil, fmt.Errorf("%s: %w", d.Path, ErrLocked)
		}
		return nil, fmt.Errorf("locking %s: %w", d.Path, err)
	}
	return l, nil
}

// Release drops the lock. Safe on a nil Lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return release(l)
}
