package handlers

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	apperrors "photo-album/internal/errors"
	"photo-album/internal/models"
)

type indexPage struct {
	Images      []models.ImageView
	SearchQuery string
}

// HandleIndex renders the gallery, filtered by the optional q parameter.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	images, err := h.gallery.List(r.Context(), query)
	if err != nil {
		log.Printf("[Gallery] Failed to list images: %v", err)
		http.Error(w, apperrors.ErrInternal.Error(), http.StatusInternalServerError)
		return
	}

	// Render to a buffer so a template error doesn't leave a half-written page.
	var buf bytes.Buffer
	if err := h.index.Execute(&buf, indexPage{Images: images, SearchQuery: query}); err != nil {
		log.Printf("[Gallery] Failed to render index: %v", err)
		http.Error(w, apperrors.ErrInternal.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[Gallery] Failed to write response: %v", err)
	}
}

// HandleUpload accepts a multipart form with file, name and description and
// redirects back to the gallery. A request without a file part, or with an
// empty filename, redirects without changing anything.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			http.Redirect(w, r, "/", http.StatusFound)
		default:
			log.Printf("[Upload] Failed to parse form: %v", err)
			http.Error(w, "Bad request", http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("[Upload] Failed to read %s: %v", header.Filename, err)
		http.Error(w, apperrors.ErrInternal.Error(), http.StatusInternalServerError)
		return
	}

	req := models.UploadRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Data:        data,
	}

	id, stored, err := h.gallery.Upload(r.Context(), req)
	if err != nil {
		log.Printf("[Upload] Failed to store %s: %v", header.Filename, err)
		http.Error(w, apperrors.ErrInternal.Error(), http.StatusInternalServerError)
		return
	}

	if stored {
		log.Printf("[Upload] %s uploaded in %v", id, time.Since(start))
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
