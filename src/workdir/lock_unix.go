//go:build !windows

package workdir

import (
	"os"

	"golang.org/x/sys/unix"
)

func acquire(path string) (*Lock, error) {
	fd, err := unix.Open(path, os.O_RDWR|os.O_CREATE|unix.O_CLOEXEC, 0o644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd)
		if err == unix.EWOULDBLOCK {
			return nil, ErrLocked
		}
		return nil, err
	}
	return &Lock{path: path, fd: fd}, nil
}

func release(l *Lock) error {
	defer unix.Close(l.fd)
	return unix.Flock(l.fd, unix.LOCK_UN)
}
