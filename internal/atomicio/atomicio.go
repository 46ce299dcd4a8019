// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package atomicio provides atomic file writing with optional backups.
package atomicio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const backupTimeFormat = "20060102150405.999999999"

// WriteFile writes data to a file atomically: readers observe either the old or
// the new contents, never a partial write.
func WriteFile(name string, data []byte, perm fs.FileMode) error {
	return write(name, data, perm, 0)
}

// WriteFileBackup is like WriteFile, but moves the previous contents of the
// file aside as a timestamped backup, keeping at most keep backups.
func WriteFileBackup(name string, data []byte, perm fs.FileMode, keep int) error {
	return write(name, data, perm, keep)
}

func write(name string, data []byte, perm fs.FileMode, keep int) (err error) {
	// Create a temporary file in the same directory to ensure that it's on the
	// same filesystem, which is a requirement for an atomic os.Rename.
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if keep > 0 {
		if _, err := os.Stat(name); err == nil {
			backupName := name + "." + time.Now().UTC().Format(backupTimeFormat) + ".bak"
			if err := copyFile(name, backupName); err != nil {
				return err
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if err := os.Rename(f.Name(), name); err != nil {
		return err
	}

	if keep > 0 {
		return pruneBackups(name, keep)
	}
	return nil
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o600)
}

func pruneBackups(name string, keep int) error {
	backups, err := filepath.Glob(name + ".*.bak")
	if err != nil {
		return err
	}
	if len(backups) <= keep {
		return nil
	}

	slices.Sort(backups)
	for _, b := range backups[:len(backups)-keep] {
		if err := os.Remove(b); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
