// Package localstore is a directory-backed key/value store for client state.
// Each key lives in its own JSON file; writes are atomic.
package localstore

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// ErrNotFound is returned by Get when the key has never been written or
// was removed.
var ErrNotFound = errors.New("localstore: key not found")

const (
	fileExt    = ".json"
	tempPrefix = ".tmp-"
)

type Store struct {
	dir string
}

// DefaultDir returns $XDG_DATA_HOME/focusmate or ~/.local/share/focusmate.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "focusmate"), nil
}

// Open creates dir if needed and returns a store rooted there.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Sub returns a store rooted at a child directory.
func (s *Store) Sub(name string) (*Store, error) {
	return Open(filepath.Join(s.dir, url.PathEscape(name)))
}

// Path returns the file backing key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+fileExt)
}

func (s *Store) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Set replaces the value of key.
func (s *Store) Set(key string, value []byte) error {
	if err := writeFileAtomic(s.Path(key), value); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(key string) error {
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys currently stored, in no particular order.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if key, ok := s.keyFor(filepath.Join(s.dir, entry.Name())); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// keyFor maps a file name in the store directory back to its key.
func (s *Store) keyFor(path string) (string, bool) {
	if filepath.Dir(path) != filepath.Clean(s.dir) {
		return "", false
	}
	name := filepath.Base(path)
	if strings.HasPrefix(name, tempPrefix) || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
	if err != nil {
		return "", false
	}
	return key, true
}

// writeFileAtomic writes to a temp file in the same directory and renames
// it over path so readers never observe a partial value.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), tempPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Change describes a key written or removed by any process.
type Change struct {
	Key     string
	Removed bool
}

// Watch reports changes to keys in the store directory until the returned
// stop function is called. The watch is installed before Watch returns.
func (s *Store) Watch(fn func(Change)) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", s.dir, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				key, ok := s.keyFor(event.Name)
				if !ok {
					continue
				}
				switch {
				case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
					fn(Change{Key: key})
				case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
					fn(Change{Key: key, Removed: true})
				}
			case _, ok := <-watcher.Errors:
				// Overflow and similar errors only mean missed notifications.
				if !ok {
					return
				}
			}
		}
	}()

	return func() error {
		err := watcher.Close()
		<-done
		return err
	}, nil
}
