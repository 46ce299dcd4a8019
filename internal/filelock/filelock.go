// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package filelock provides non-blocking advisory file locks that keep a
// single bot instance writing to the state directory.
//
// The lock file also records who holds it, so a second instance (or the
// status command) can say what is running.
package filelock

import (
	"errors"
	"io"
	"os"
	"syscall"
)

// ErrAlreadyLocked is returned by [Acquire] when another open file holds the
// lock.
var ErrAlreadyLocked = errors.New("already locked")

// Lock is a held lock.
type Lock struct{ f *os.File }

// Acquire locks path, creating it if needed, and replaces its contents with
// holder. It never blocks.
func Acquire(path, holder string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := tryLock(f); err != nil {
		return nil, errors.Join(err, f.Close())
	}

	l := &Lock{f: f}
	if err := l.write(holder); err != nil {
		return nil, errors.Join(err, l.Release())
	}
	return l, nil
}

func (l *Lock) write(holder string) error {
	if err := l.f.Truncate(0); err != nil {
		return err
	}
	_, err := l.f.WriteAt([]byte(holder), 0)
	return err
}

// Release unlocks and closes the file. The holder text is left in place for
// [Holder] to report as the last holder. Releasing a nil Lock is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	return errors.Join(syscall.Flock(int(f.Fd()), syscall.LOCK_UN), f.Close())
}

// Holder reports whether path is locked by another open file and, if so, the
// text its holder wrote. A missing file is not locked.
func Holder(path string) (holder string, locked bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	switch err := tryLock(f); {
	case err == nil:
		return "", false, syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	case errors.Is(err, ErrAlreadyLocked):
	default:
		return "", false, err
	}

	b, err := io.ReadAll(f)
	if err != nil {
		return "", true, err
	}
	return string(b), true, nil
}

func tryLock(f *os.File) error {
	err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
		return ErrAlreadyLocked
	}
	return err
}
