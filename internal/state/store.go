package state

import (
	"crypto/sha256"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Store persists one AppState blob as a JSON file.
//
// The file is a cache, not the source of truth when a remote session
// exists, so Load fails soft and Save is best-effort. Concurrent
// processes writing the same file are resolved last-writer-wins; Watch
// reports an external write so the engine can reload it.
type Store struct {
	path string

	watcher *fsnotify.Watcher
	done    chan struct{}

	// lastSum is the hash of the blob this process last read or wrote,
	// used to tell our own saves apart from another process's. Guarded
	// by mu: the watcher goroutine reads it concurrently with saves.
	mu      sync.Mutex
	lastSum [sha256.Size]byte
}

// NewStore returns a store persisting to path. The file need not exist.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the persisted blob.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted state. Missing file, unreadable JSON, or a
// schema version other than the current one all yield the default empty
// state; none of these is an error the caller can act on.
func (s *Store) Load() *AppState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Empty()
	}
	s.setLastSum(sha256.Sum256(data))

	var st AppState
	if err := json.Unmarshal(data, &st); err != nil {
		return Empty()
	}
	if st.Version != SchemaVersion {
		// Incompatible blob: discard wholesale, no partial migration.
		return Empty()
	}

	// Maps may be null in a hand-edited or truncated blob.
	if st.SelectedTemplateByDate == nil {
		st.SelectedTemplateByDate = make(map[string]string)
	}
	if st.ExerciseProgressByDate == nil {
		st.ExerciseProgressByDate = make(map[string]map[string]ExerciseProgress)
	}
	if st.CheckInsByDate == nil {
		st.CheckInsByDate = make(map[string][]CheckIn)
	}
	return &st
}

// Save writes the state atomically using the write-rename pattern.
// Callers treat failures as best-effort; the in-memory state remains
// authoritative.
func (s *Store) Save(st *AppState) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	// Record the sum before the rename lands: the watcher may see the
	// event first and must not mistake our own write for an external one.
	s.setLastSum(sha256.Sum256(data))
	return os.Rename(tmpPath, s.path)
}

// Reset removes the persisted blob. Missing file is not an error.
func (s *Store) Reset() error {
	err := os.Remove(s.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Watch starts reporting external writes to the persisted blob.
// onChange runs on the watcher goroutine once per write that did not
// originate from this store. Call Close to stop watching.
func (s *Store) Watch(onChange func()) error {
	if s.watcher != nil {
		return nil
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory, not the file: atomic rename replaces the
	// inode, which would silently detach a file-level watch.
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return err
	}
	s.watcher = w
	s.done = make(chan struct{})

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if s.externallyChanged() {
					onChange()
				}
			case <-w.Errors:
				// Watch errors are non-fatal; the next explicit Load
				// still sees the latest blob.
			case <-s.done:
				return
			}
		}
	}()
	return nil
}

// externallyChanged reads the blob and reports whether its content
// differs from what this process last read or wrote.
func (s *Store) externallyChanged() bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if sum == s.lastSum {
		return false
	}
	s.lastSum = sum
	return true
}

func (s *Store) setLastSum(sum [sha256.Size]byte) {
	s.mu.Lock()
	s.lastSum = sum
	s.mu.Unlock()
}

// Close stops the external-change watcher, if started.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.watcher = nil
	return err
}
