package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"coflow/internal/coro"
)

const snapshotExt = ".snap"

// Store keeps named instance snapshots in one directory.
// Thread-safe for concurrent access.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// OpenStore opens (creating if needed) a snapshot store at dir. An empty dir
// selects $XDG_STATE_HOME/<app>/snapshots, falling back to ~/.local/state.
func OpenStore(app, dir string) (*Store, error) {
	if dir == "" {
		base := os.Getenv("XDG_STATE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".local", "state")
		}
		dir = filepath.Join(base, app, "snapshots")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) pathFor(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("driver: invalid snapshot name %q", name)
	}
	return filepath.Join(s.dir, name+snapshotExt), nil
}

// Put writes snap under name, replacing an older snapshot atomically.
func (s *Store) Put(name string, snap *coro.Snapshot) error {
	p, err := s.pathFor(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return coro.WriteSnapshot(p, snap)
}

// Get reads the snapshot stored under name. A missing snapshot is reported
// with ok == false and a nil error.
func (s *Store) Get(name string) (snap *coro.Snapshot, ok bool, err error) {
	p, err := s.pathFor(name)
	if err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, err = coro.ReadSnapshot(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return snap, true, nil
}

// List returns the stored snapshot names in sorted order.
func (s *Store) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), snapshotExt))
	}
	sort.Strings(names)
	return names, nil
}

// Drop removes the snapshot stored under name. Dropping a missing snapshot
// is not an error.
func (s *Store) Drop(name string) error {
	p, err := s.pathFor(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
