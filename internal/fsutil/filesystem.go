// Package fsutil abstracts the filesystem operations used by the EDR
// persister and proximity logger so tests can run against an in-memory
// implementation and inject write failures.
package fsutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileSystem is the operation set needed to write session trees and
// append-only logs. Use OSFileSystem in production; MemoryFileSystem in tests.
type FileSystem interface {
	// MkdirAll creates a directory and all necessary parents.
	MkdirAll(path string, perm os.FileMode) error

	// WriteFile writes data to the named file, creating or truncating it.
	WriteFile(name string, data []byte, perm os.FileMode) error

	// Create creates or truncates the named file for streamed writing.
	Create(name string) (io.WriteCloser, error)

	// OpenAppend opens the named file for appending, creating it if absent.
	OpenAppend(name string) (io.WriteCloser, error)

	// ReadFile reads the named file and returns its contents.
	ReadFile(name string) ([]byte, error)

	// Exists reports whether a file or directory exists.
	Exists(name string) bool
}

// OSFileSystem implements FileSystem using the os package.
type OSFileSystem struct{}

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (OSFileSystem) Create(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

func (OSFileSystem) OpenAppend(name string) (io.WriteCloser, error) {
	return os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// MemoryFileSystem is an in-memory FileSystem for tests. Writes to any path
// containing a registered failure substring return the registered error,
// which lets tests simulate disk-full conditions mid-save.
type MemoryFileSystem struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
	fail  map[string]error
}

// NewMemoryFileSystem creates an empty in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
		fail:  make(map[string]error),
	}
}

// FailWrites makes every write whose path contains substr return err.
// Passing a nil err clears the rule.
func (m *MemoryFileSystem) FailWrites(substr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, substr)
		return
	}
	m.fail[substr] = err
}

func (m *MemoryFileSystem) failureFor(name string) error {
	for substr, err := range m.fail {
		if strings.Contains(name, substr) {
			return err
		}
	}
	return nil
}

func (m *MemoryFileSystem) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failureFor(path); err != nil {
		return err
	}
	clean := filepath.Clean(path)
	for clean != "." && clean != string(filepath.Separator) {
		m.dirs[clean] = true
		clean = filepath.Dir(clean)
	}
	return nil
}

func (m *MemoryFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failureFor(name); err != nil {
		return err
	}
	m.files[filepath.Clean(name)] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryFileSystem) Create(name string) (io.WriteCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failureFor(name); err != nil {
		return nil, err
	}
	clean := filepath.Clean(name)
	m.files[clean] = nil
	return &memFile{fs: m, name: clean}, nil
}

func (m *MemoryFileSystem) OpenAppend(name string) (io.WriteCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failureFor(name); err != nil {
		return nil, err
	}
	clean := filepath.Clean(name)
	f := &memFile{fs: m, name: clean}
	f.buf.Write(m.files[clean])
	return f, nil
}

func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(name)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryFileSystem) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	clean := filepath.Clean(name)
	if _, ok := m.files[clean]; ok {
		return true
	}
	return m.dirs[clean]
}

// Paths returns the sorted paths of all files written so far.
func (m *MemoryFileSystem) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// memFile buffers writes and commits them to the parent filesystem on Close.
type memFile struct {
	fs     *MemoryFileSystem
	name   string
	buf    bytes.Buffer
	closed bool
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, fmt.Errorf("write %s: file already closed", f.name)
	}
	f.fs.mu.Lock()
	err := f.fs.failureFor(f.name)
	f.fs.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return f.buf.Write(p)
}

func (f *memFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	f.fs.files[f.name] = append([]byte(nil), f.buf.Bytes()...)
	return nil
}
