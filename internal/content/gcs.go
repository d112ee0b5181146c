package content

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	apperrors "photo-album/internal/errors"
)

// GCSStore keeps uploads as objects in a Google Cloud Storage bucket.
type GCSStore struct {
	client     *storage.Client
	bucketName string
	prefix     string
}

func NewGCSStore(client *storage.Client, bucketName, prefix string) *GCSStore {
	return &GCSStore{
		client:     client,
		bucketName: bucketName,
		prefix:     prefix,
	}
}

func (s *GCSStore) object(id string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucketName).Object(s.prefix + id)
}

// Uploads data as the object for id, replacing any previous version.
func (s *GCSStore) Save(ctx context.Context, id string, data io.Reader, contentType string) error {
	w := s.object(id).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload %s: %w", id, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload %s: %w", id, err)
	}
	return nil
}

// Streams the object for id.
func (s *GCSStore) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	reader, err := s.object(id).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", id, err)
	}
	return reader, nil
}
