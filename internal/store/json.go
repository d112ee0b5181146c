package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	apperrors "photo-album/internal/errors"
	"photo-album/internal/models"
)

// FileStore keeps every record in one JSON document that is read in full
// and rewritten in full. A mutex serializes load-modify-save cycles so
// concurrent uploads can't drop each other's records.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens the document at path, writing an empty mapping if it
// does not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create metadata directory: %w", err)
			}
		}
		if err := s.Save(map[string]*models.ImageRecord{}); err != nil {
			return nil, err
		}
		log.Printf("[Store] Created empty metadata document at %s", path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat metadata document: %w", err)
	}

	return s, nil
}

// Load reads the whole document. A document that doesn't decode to a
// mapping yields an error wrapping ErrStoreCorrupt.
func (s *FileStore) Load() (map[string]*models.ImageRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata document: %w", err)
	}

	records := map[string]*models.ImageRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrStoreCorrupt, s.path, err)
	}
	if records == nil {
		// "null" decodes without error but isn't a mapping.
		return nil, fmt.Errorf("%w: %s: document is not an object", apperrors.ErrStoreCorrupt, s.path)
	}

	for id, record := range records {
		if record == nil {
			record = &models.ImageRecord{}
			records[id] = record
		}
		record.ID = id
	}
	return records, nil
}

// Save overwrites the document with the full mapping. The file is
// truncated and rewritten in place, so a crash mid-write can leave it short.
func (s *FileStore) Save(records map[string]*models.ImageRecord) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata document: %w", err)
	}
	return nil
}

// Update runs fn against a freshly loaded snapshot and saves the result,
// holding the store lock for the whole cycle.
func (s *FileStore) Update(fn func(records map[string]*models.ImageRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(records); err != nil {
		return err
	}
	return s.Save(records)
}

func (s *FileStore) Get(_ context.Context, id string) (*models.ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.Load()
	if err != nil {
		return nil, err
	}

	record, ok := records[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return record, nil
}

func (s *FileStore) Put(_ context.Context, id string, record *models.ImageRecord) error {
	return s.Update(func(records map[string]*models.ImageRecord) error {
		stored := *record
		stored.ID = id
		records[id] = &stored
		return nil
	})
}

func (s *FileStore) List(_ context.Context) ([]*models.ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.Load()
	if err != nil {
		return nil, err
	}
	return sortedRecords(records), nil
}

func (s *FileStore) Close() error {
	return nil
}

func sortedRecords(records map[string]*models.ImageRecord) []*models.ImageRecord {
	out := make([]*models.ImageRecord, 0, len(records))
	for _, record := range records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
