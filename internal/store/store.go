// Package store persists image metadata records keyed by identifier.
package store

import (
	"context"

	"photo-album/internal/models"
)

// MetadataStore is the key-value contract the gallery needs. Put inserts or
// overwrites; List returns every record ordered by identifier with ID set.
// Get returns errors.ErrNotFound for unknown identifiers.
type MetadataStore interface {
	Get(ctx context.Context, id string) (*models.ImageRecord, error)
	Put(ctx context.Context, id string, record *models.ImageRecord) error
	List(ctx context.Context) ([]*models.ImageRecord, error)
	Close() error
}
