package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "photo-album/internal/errors"
	"photo-album/internal/utils"
)

// LocalStore writes each upload as a file named after its identifier
// inside a single directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates root if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload folder: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(id string) (string, error) {
	if !utils.ValidIdentifier(id) {
		return "", fmt.Errorf("%w: identifier %q", apperrors.ErrInvalidInput, id)
	}
	return filepath.Join(s.root, id), nil
}

func (s *LocalStore) Save(_ context.Context, id string, data io.Reader, _ string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}

	file, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	return file.Close()
}

func (s *LocalStore) Open(_ context.Context, id string) (io.ReadCloser, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	file, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, apperrors.ErrNotFound
	}
	return file, nil
}
