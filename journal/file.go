package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rustyeddy/riskcalc/pkg/id"
)

// FileStore keeps history as a JSON array in a single file. Content that
// is missing or cannot be decoded reads as an empty history.
type FileStore struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
}

func NewFileStore(path string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{path: path, log: log}
}

func (s *FileStore) load() []Entry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("history file unreadable, starting empty", zap.String("path", s.path), zap.Error(err))
		}
		return []Entry{}
	}
	if len(data) == 0 {
		return []Entry{}
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Warn("history file corrupted, starting empty", zap.String("path", s.path), zap.Error(err))
		return []Entry{}
	}
	if entries == nil {
		return []Entry{}
	}
	if len(entries) > Limit {
		entries = entries[:Limit]
	}
	for i := range entries {
		if !entries[i].Timestamp.IsZero() {
			continue
		}
		// Hand-edited files may drop the timestamp; the ID still carries it.
		if ts, err := id.Time(entries[i].ID); err == nil {
			entries[i].Timestamp = ts
		}
	}
	return entries
}

func (s *FileStore) save(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal history")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "create history dir")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp history file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write history")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp history file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replace history file")
}

func (s *FileStore) Push(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(capped(e, s.load()))
}

func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(), nil
}

func (s *FileStore) Get(ctx context.Context, index int) (Entry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return Entry{}, err
	}
	return pick(entries, index)
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove history file")
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
