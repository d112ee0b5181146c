package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"photo-album/internal/content"
	apperrors "photo-album/internal/errors"
	"photo-album/internal/models"
	"photo-album/internal/store"
	"photo-album/internal/utils"
)

// GalleryOptions tune upload and thumbnail behaviour.
type GalleryOptions struct {
	ConvertHEIC   bool
	ThumbnailSize int
}

// GalleryService owns every read-modify-write against the metadata store
// and every read or write of image content.
type GalleryService struct {
	metadata store.MetadataStore
	files    content.Store
	cache    *CacheService
	opts     GalleryOptions
	now      func() time.Time
}

func NewGalleryService(metadata store.MetadataStore, files content.Store, cache *CacheService, opts GalleryOptions) *GalleryService {
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = 320
	}
	return &GalleryService{
		metadata: metadata,
		files:    files,
		cache:    cache,
		opts:     opts,
		now:      time.Now,
	}
}

// Upload stores the image bytes and writes its metadata record. A request
// whose filename is empty, or reduces to nothing usable, is a no-op and
// reports stored=false without error. Re-uploading an identifier replaces
// both the content and the record.
func (s *GalleryService) Upload(ctx context.Context, req models.UploadRequest) (id string, stored bool, err error) {
	if req.FileName == "" {
		return "", false, nil
	}

	// Capture time comes from the bytes as submitted; HEIC conversion drops EXIF.
	originalDate, ok := utils.ExtractCaptureTime(req.Data)
	if !ok {
		originalDate = models.UnknownDate
		if req.CaptureTime != "" {
			originalDate = req.CaptureTime
		}
	}

	if s.opts.ConvertHEIC {
		utils.ConvertIfHeic(&req)
	}

	id, ok = utils.CleanIdentifier(req.FileName)
	if !ok {
		log.Printf("[Upload] Ignoring unusable filename %q", req.FileName)
		return "", false, nil
	}

	contentType := req.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = ContentTypeFor(id)
	}

	if err := s.files.Save(ctx, id, bytes.NewReader(req.Data), contentType); err != nil {
		return "", false, fmt.Errorf("save content %s: %w", id, err)
	}

	name := req.Name
	if name == "" {
		name = models.DefaultName
	}

	record := &models.ImageRecord{
		Name:         name,
		Description:  req.Description,
		OriginalDate: originalDate,
		UploadDate:   s.now().Format(models.DateLayout),
	}
	if err := s.metadata.Put(ctx, id, record); err != nil {
		return "", false, fmt.Errorf("save metadata %s: %w", id, err)
	}

	if s.cache != nil {
		s.cache.Delete(id)
	}

	log.Printf("[Upload] Stored %s (%d bytes, captured %s)", id, len(req.Data), originalDate)
	return id, true, nil
}

// List returns the display projection of every record, keeping only those
// whose name or description contains query case-insensitively. An empty
// query keeps everything.
func (s *GalleryService) List(ctx context.Context, query string) ([]models.ImageView, error) {
	records, err := s.metadata.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]models.ImageView, 0, len(records))
	for _, record := range records {
		views = append(views, record.View())
	}
	return FilterViews(views, query), nil
}

// FilterViews keeps the views whose name or description contains query,
// ignoring case.
func FilterViews(views []models.ImageView, query string) []models.ImageView {
	if query == "" {
		return views
	}

	q := strings.ToLower(query)
	filtered := make([]models.ImageView, 0, len(views))
	for _, v := range views {
		if strings.Contains(strings.ToLower(v.Name), q) || strings.Contains(strings.ToLower(v.Description), q) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Open streams the stored bytes for id along with a content type derived
// from its extension. Unknown identifiers return errors.ErrNotFound.
func (s *GalleryService) Open(ctx context.Context, id string) (io.ReadCloser, string, error) {
	rc, err := s.files.Open(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return rc, ContentTypeFor(id), nil
}

// Exists reports whether a metadata record is stored for id.
func (s *GalleryService) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.metadata.Get(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Holds reports whether an upload of fileName would land on an identifier
// the gallery already stores. With HEIC conversion on, both the converted
// and the original name count, since a failed conversion keeps the latter.
func (s *GalleryService) Holds(ctx context.Context, fileName, contentType string) (bool, error) {
	candidates := []string{fileName}
	if s.opts.ConvertHEIC && utils.IsHeifLike(contentType, fileName) {
		candidates = append(candidates, utils.JPEGName(fileName))
	}

	for _, name := range candidates {
		id, ok := utils.CleanIdentifier(name)
		if !ok {
			continue
		}
		exists, err := s.Exists(ctx, id)
		if err != nil || exists {
			return exists, err
		}
	}
	return false, nil
}

// Thumbnail returns a JPEG preview of id, rendering and caching it on a miss.
func (s *GalleryService) Thumbnail(ctx context.Context, id string) ([]byte, error) {
	if s.cache != nil {
		if entry, ok := s.cache.Get(id); ok {
			return entry.Data, nil
		}
	}

	data, err := s.readAll(ctx, id)
	if err != nil {
		return nil, err
	}

	thumb, err := utils.MakeThumbnail(data, id, s.opts.ThumbnailSize)
	if err != nil {
		return nil, fmt.Errorf("thumbnail %s: %w", id, err)
	}

	if s.cache != nil {
		s.cache.Set(id, thumb, "image/jpeg", id)
	}
	return thumb, nil
}

func (s *GalleryService) readAll(ctx context.Context, id string) ([]byte, error) {
	rc, err := s.files.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", id, err)
	}
	return data, nil
}

// ContentTypeFor guesses a MIME type from the identifier's extension.
func ContentTypeFor(id string) string {
	ext := strings.ToLower(filepath.Ext(id))
	switch ext {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
