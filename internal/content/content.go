// Package content stores the raw bytes of uploaded images by identifier.
package content

import (
	"context"
	"io"
)

// Store saves and streams uploaded image bytes. Open returns
// errors.ErrNotFound when nothing is stored under id.
type Store interface {
	Save(ctx context.Context, id string, data io.Reader, contentType string) error
	Open(ctx context.Context, id string) (io.ReadCloser, error)
}
