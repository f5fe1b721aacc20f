package store

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opspulse/opspulse/internal/model"
)

// FileStore persists the event log as one JSON document per line. Appends
// are O(1) writes to the end of the file; retention triggers a compaction
// that rewrites the file atomically via a temp-file rename.
type FileStore struct {
	mu        sync.Mutex
	path      string
	retention int
	count     int // retained event count, -1 until first load
}

// NewFileStore creates a file-backed store at the given path, creating the
// parent directory if needed.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &FileStore{path: path, retention: DefaultRetention, count: -1}, nil
}

// NewFileStoreWithRetention creates a file-backed store with a custom cap.
func NewFileStoreWithRetention(path string, retention int) (*FileStore, error) {
	s, err := NewFileStore(path)
	if err != nil {
		return nil, err
	}
	if retention > 0 {
		s.retention = retention
	}
	return s, nil
}

// Path returns the log file path. The watcher uses it in serve mode.
func (s *FileStore) Path() string {
	return s.path
}

// Append implements EventStore.
func (s *FileStore) Append(_ context.Context, e model.Event) error {
	e.ID = uuid.NewString()
	e.Timestamp = time.Now().UTC()

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count < 0 {
		s.count = len(s.readLocked())
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	s.count++

	if s.count > s.retention {
		return s.compactLocked()
	}
	return nil
}

// LoadAll implements EventStore. Unreadable files and malformed lines are
// skipped silently; the contract is to degrade, not to fail.
func (s *FileStore) LoadAll(_ context.Context) []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.readLocked()
	s.count = len(events)
	return events
}

// Clear implements EventStore.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = 0
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Seed appends pre-built events verbatim, preserving IDs and timestamps.
// Intended for demo data generation and tests.
func (s *FileStore) Seed(events ...model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	s.count = len(s.readLocked())
	if s.count > s.retention {
		return s.compactLocked()
	}
	return nil
}

func (s *FileStore) readLocked() []model.Event {
	f, err := os.Open(s.path)
	if err != nil {
		return []model.Event{}
	}
	defer f.Close()

	events := []model.Event{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e model.Event
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	if len(events) > s.retention {
		events = events[len(events)-s.retention:]
	}
	return events
}

// compactLocked rewrites the file keeping only the newest retention events.
func (s *FileStore) compactLocked() error {
	events := s.readLocked()
	s.count = len(events)

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
