// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logstore implements append-only logs of identifiers the bot has
// already acted upon, one identifier per line.
//
// Only newline-terminated lines count as records. A trailing record without a
// newline, left by an interrupted write, is treated as absent.
package logstore

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"go.astrophena.name/scibot/internal/atomicio"
)

// ErrInvalidID is returned by Append for identifiers that can't be stored as a
// single line.
var ErrInvalidID = errors.New("invalid identifier")

// trimBackups is the number of pre-trim copies kept next to the log.
const trimBackups = 1

// Config configures a Store.
type Config struct {
	// Path is the log file. It's created on first append.
	Path string
	// ReadOnly makes Append and Trim log what they would do without touching
	// the file.
	ReadOnly bool
	Logger   *slog.Logger
}

// Store is a newline-delimited identifier log. It assumes a single writer.
type Store struct {
	path     string
	readOnly bool
	slog     *slog.Logger
}

// New returns a Store for the file described by cfg.
func New(cfg Config) *Store {
	s := &Store{
		path:     cfg.Path,
		readOnly: cfg.ReadOnly,
		slog:     cfg.Logger,
	}
	if s.slog == nil {
		s.slog = slog.Default()
	}
	return s
}

// Path returns the path of the log file.
func (s *Store) Path() string { return s.path }

// Exists reports whether id is recorded in the log.
func (s *Store) Exists(id string) bool {
	lines, err := s.lines()
	if err != nil {
		s.slog.Warn("reading log failed", "log", s.path, "error", err)
		return false
	}
	for _, line := range lines {
		if line == id {
			return true
		}
	}
	return false
}

// Len returns the number of records in the log.
func (s *Store) Len() (int, error) {
	lines, err := s.lines()
	return len(lines), err
}

// lines returns complete records in file order.
func (s *Store) lines() ([]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	parts := strings.Split(string(b), "\n")
	// The last element is either empty or a truncated record.
	return parts[:len(parts)-1], nil
}

// Append records id as a new line. Failures are logged and returned; callers
// are expected to carry on, since the action the record describes has already
// happened.
func (s *Store) Append(id string) error {
	if err := s.append(id); err != nil {
		s.slog.Error("appending to log failed", "log", s.path, "id", id, "error", err)
		return err
	}
	return nil
}

func (s *Store) append(id string) error {
	if id == "" || strings.ContainsAny(id, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if s.readOnly {
		s.slog.Debug("read-only, not appending", "log", s.path, "id", id)
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if size := fi.Size(); size > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			return err
		}
		// Terminate a truncated record so it doesn't merge with id.
		if last[0] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.WriteString(id)
	buf.WriteByte('\n')

	if _, err := f.Write(buf.Bytes()); err != nil {
		return err
	}
	return f.Close()
}

// Trim rewrites the log keeping only the first half of its records (rounded
// down). A copy of the log before trimming is kept as a backup.
func (s *Store) Trim() error {
	lines, err := s.lines()
	if err != nil {
		return err
	}
	keep := lines[:len(lines)/2]

	s.slog.Info("trimming log", "log", s.path, "records", len(lines), "kept", len(keep))
	if s.readOnly {
		return nil
	}

	var buf bytes.Buffer
	for _, line := range keep {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := atomicio.WriteFileBackup(s.path, buf.Bytes(), 0o644, trimBackups); err != nil {
		s.slog.Error("trimming log failed", "log", s.path, "error", err)
		return err
	}
	return nil
}
