// Package store persists named sequences, one JSON file per name.
//
// A Store keeps loaded sequences in memory and writes every change to disk
// atomically (temp file plus rename), so a crash never leaves a half-written
// sequence behind. Per-event edits are applied to the JSON text directly and
// then validated by decoding the result.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/logging"
)

// Extension is the file extension of sequence files.
const Extension = ".json"

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.logger = logging.Default(l).WithComponent("store") }
}

// Store is a directory of named sequences.
type Store struct {
	dir    string
	logger *logging.Logger
	rename func(oldpath, newpath string) error

	mu    sync.RWMutex
	cache map[string]macro.Sequence
}

// New opens the store in dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, opError("open", "", errors.New("directory is empty"))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, opError("open", "", err)
	}
	s := &Store{
		dir:    dir,
		logger: logging.NullLogger,
		rename: os.Rename,
		cache:  make(map[string]macro.Sequence),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the sequences directory.
func (s *Store) Dir() string {
	return s.dir
}

// ValidateName checks that name can be stored.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if name != strings.TrimSpace(name) {
		return fmt.Errorf("%w: leading or trailing space", ErrInvalidName)
	}
	if name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\:*?"<>|`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidName, name)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+Extension)
}

// Save writes seq under name, replacing any sequence with that name.
func (s *Store) Save(name string, seq macro.Sequence) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := seq.Validate(); err != nil {
		return opError("save", name, err)
	}
	data, err := macro.Encode(seq)
	if err != nil {
		return opError("save", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(s.path(name), data); err != nil {
		return opError("save", name, err)
	}
	s.cache[name] = seq.Clone()
	s.logger.Info("saved %q (%d events)", name, len(seq))
	return nil
}

// Load returns the sequence stored under name.
func (s *Store) Load(name string) (macro.Sequence, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	seq, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return seq.Clone(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	seq, err := s.readLocked(name)
	if err != nil {
		return nil, opError("load", name, err)
	}
	s.cache[name] = seq
	return seq.Clone(), nil
}

// readLocked decodes the file for name. s.mu must be held.
func (s *Store) readLocked(name string) (macro.Sequence, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return macro.Decode(data)
}

// Exists reports whether name is stored.
func (s *Store) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.existsLocked(name)
}

func (s *Store) existsLocked(name string) bool {
	if _, ok := s.cache[name]; ok {
		return true
	}
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Delete removes the sequence stored under name.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		delete(s.cache, name)
		return opError("delete", name, ErrNotFound)
	}
	if err != nil {
		return opError("delete", name, err)
	}
	delete(s.cache, name)
	s.logger.Info("deleted %q", name)
	return nil
}

// Rename moves a sequence to a new name. On failure the store is unchanged.
func (s *Store) Rename(oldName, newName string) error {
	if err := ValidateName(oldName); err != nil {
		return err
	}
	if err := ValidateName(newName); err != nil {
		return err
	}
	if oldName == newName {
		return ErrSameName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.existsLocked(oldName) {
		return opError("rename", oldName, ErrNotFound)
	}
	if s.existsLocked(newName) {
		return opError("rename", newName, ErrExists)
	}

	seq, cached := s.cache[oldName]
	if cached {
		delete(s.cache, oldName)
		s.cache[newName] = seq
	}

	if err := s.rename(s.path(oldName), s.path(newName)); err != nil {
		if cached {
			delete(s.cache, newName)
			s.cache[oldName] = seq
		}
		return opError("rename", oldName, err)
	}
	s.logger.Info("renamed %q to %q", oldName, newName)
	return nil
}

// List returns the stored names in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, opError("list", "", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := sequenceName(e); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadAll rescans the directory and replaces the in-memory cache.
// Files that fail to decode are skipped and reported in the joined error.
func (s *Store) LoadAll() (map[string]macro.Sequence, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cache := make(map[string]macro.Sequence, len(names))
	out := make(map[string]macro.Sequence, len(names))
	var errs []error
	for _, name := range names {
		seq, err := s.readLocked(name)
		if err != nil {
			s.logger.Warn("skipping %q: %v", name, err)
			errs = append(errs, opError("load", name, err))
			continue
		}
		cache[name] = seq
		out[name] = seq.Clone()
	}
	s.cache = cache
	s.logger.Debug("loaded %d sequences from %s", len(cache), s.dir)
	return out, errors.Join(errs...)
}

// forget drops a cached entry so the next Load reads the file.
func (s *Store) forget(name string) {
	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()
}

func sequenceName(e fs.DirEntry) (string, bool) {
	if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
		return "", false
	}
	name := strings.TrimSuffix(e.Name(), Extension)
	if ValidateName(name) != nil {
		return "", false
	}
	return name, true
}

// writeAtomic writes data to a temp file in the same directory and renames
// it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".keyloop-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
