// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan enumerates HEIC candidates in a single directory.
// Entries are read lazily in batches; subdirectories are never descended.
package scan

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// heicExt is the only extension accepted, compared case-insensitively.
const heicExt = ".heic"

// batchSize is the number of directory entries requested per read.
const batchSize = 64

// HasHEICExtension reports whether name ends in ".heic" under ASCII
// case-insensitive comparison. The extension is everything from the last
// ".", so "photo.HEIC" and "x.Heic" match while "photo.heif", "photo.HEICX",
// and "heic" do not.
func HasHEICExtension(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return false
	}
	return strings.EqualFold(name[i:], heicExt)
}

// Scanner yields candidate paths from one directory. It is finite and
// cannot be restarted; open a new Scanner to scan again.
type Scanner struct {
	dir     string
	f       *os.File
	pending []fs.DirEntry
	done    bool
	err     error
}

// Open opens dir for scanning. The error wraps the underlying OS error so
// callers can report it verbatim.
func Open(dir string) (*Scanner, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("opening directory %s: %w", dir, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("opening directory %s: %w", dir, fs.ErrInvalid)
	}
	return &Scanner{dir: dir, f: f}, nil
}

// Next returns the next candidate path, joined with the scanned directory.
// ok is false once the directory is exhausted or a read error occurred;
// check Err to tell the two apart.
func (s *Scanner) Next() (path string, ok bool) {
	for {
		for len(s.pending) > 0 {
			entry := s.pending[0]
			s.pending = s.pending[1:]
			if s.accept(entry) {
				return filepath.Join(s.dir, entry.Name()), true
			}
		}
		if s.done {
			return "", false
		}
		s.fill()
	}
}

// All returns Next as a range-over-func sequence.
func (s *Scanner) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			path, ok := s.Next()
			if !ok || !yield(path) {
				return
			}
		}
	}
}

// Err returns the first error encountered while reading entries.
func (s *Scanner) Err() error {
	return s.err
}

// Close releases the directory handle.
func (s *Scanner) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	s.done = true
	s.pending = nil
	if err != nil {
		return fmt.Errorf("closing directory %s: %w", s.dir, err)
	}
	return nil
}

func (s *Scanner) fill() {
	if s.f == nil {
		s.done = true
		return
	}
	entries, err := s.f.ReadDir(batchSize)
	s.pending = entries
	if err != nil {
		s.done = true
		if !errors.Is(err, io.EOF) {
			s.err = fmt.Errorf("reading directory %s: %w", s.dir, err)
		}
	}
}

// accept applies the extension filter, then drops entries that cannot be
// regular files: directories, devices, sockets, pipes, and symlinks that
// do not resolve to a regular file.
func (s *Scanner) accept(entry fs.DirEntry) bool {
	if !HasHEICExtension(entry.Name()) {
		return false
	}
	mode := entry.Type()
	switch {
	case mode.IsRegular():
		return true
	case mode&fs.ModeSymlink != 0:
		info, err := os.Stat(filepath.Join(s.dir, entry.Name()))
		return err == nil && info.Mode().IsRegular()
	default:
		return false
	}
}
