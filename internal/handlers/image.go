package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	apperrors "photo-album/internal/errors"
	"photo-album/internal/models"
	"photo-album/internal/utils"
)

// HandleUploadedFile streams the stored bytes of an uploaded image.
func (h *Handler) HandleUploadedFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("identifier")

	// Security: Prevent path traversal attacks
	if !utils.ValidIdentifier(id) {
		http.NotFound(w, r)
		return
	}

	rc, contentType, err := h.gallery.Open(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			http.NotFound(w, r)
		} else {
			log.Printf("[Image] Failed to open %s: %v", id, err)
			http.Error(w, apperrors.ErrInternal.Error(), http.StatusInternalServerError)
		}
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=300")

	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("[Image] Failed to stream %s: %v", id, err)
	}
}

// HandleThumbnail serves a cached JPEG preview of an uploaded image.
func (h *Handler) HandleThumbnail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("identifier")
	if !utils.ValidIdentifier(id) {
		http.NotFound(w, r)
		return
	}

	thumb, err := h.gallery.Thumbnail(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		// Content that isn't a decodable image has no preview; fall back
		// to the original bytes.
		log.Printf("[Thumbnail] %s: %v", id, err)
		http.Redirect(w, r, "/uploads/"+url.PathEscape(id), http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if _, err := w.Write(thumb); err != nil {
		log.Printf("[Thumbnail] Failed to write %s: %v", id, err)
	}
}

// HandleImagesList returns the gallery listing as JSON, filtered by q and
// optionally paginated with limit (0 = everything) and a 0-indexed page.
//
//	@Summary		List images
//	@Description	List image metadata, filtered by a case-insensitive match on name or description
//	@Tags			images
//	@Produce		json
//	@Param			q		query		string				false	"Search text"
//	@Param			limit	query		int					false	"Number of items to return (0 = all)"	default(0)
//	@Param			page	query		int					false	"Page number (0-indexed)"				default(0)
//	@Success		200		{array}		models.ImageView	"List of images"
//	@Failure		400		{string}	string				"Bad Request"
//	@Failure		500		{string}	string				"Internal Server Error"
//	@Router			/api/images [get]
func (h *Handler) HandleImagesList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := nonNegativeParam(query.Get("limit"))
	if err != nil {
		http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
		return
	}
	page, err := nonNegativeParam(query.Get("page"))
	if err != nil {
		http.Error(w, "Invalid page parameter", http.StatusBadRequest)
		return
	}

	images, err := h.gallery.List(r.Context(), query.Get("q"))
	if err != nil {
		log.Printf("[Images] Failed to list images: %v", err)
		http.Error(w, "Failed to retrieve images", http.StatusInternalServerError)
		return
	}

	images = paginate(images, limit, page)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(images); err != nil {
		log.Printf("[Images] Failed to encode response: %v", err)
	}
}

func nonNegativeParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.ErrInvalidInput
	}
	return n, nil
}

func paginate(images []models.ImageView, limit, page int) []models.ImageView {
	if limit == 0 {
		return images
	}
	// Compare by division so large page/limit values can't overflow.
	if len(images) == 0 || page > (len(images)-1)/limit {
		return []models.ImageView{}
	}
	start := page * limit
	end := len(images)
	if limit < end-start {
		end = start + limit
	}
	return images[start:end]
}
