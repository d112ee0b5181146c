package router

import (
	"net/http"

	"photo-album/internal/handlers"
)

// Setup configures and returns the HTTP router with all application routes.
// uploadGuards wrap only the upload endpoint, outermost first.
func Setup(h *handlers.Handler, uploadGuards ...func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Gallery
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.Handle("POST /upload", guard(http.HandlerFunc(h.HandleUpload), uploadGuards))

	// Image content
	mux.HandleFunc("GET /uploads/{identifier}", h.HandleUploadedFile)
	mux.HandleFunc("GET /thumbnails/{identifier}", h.HandleThumbnail)

	// JSON API
	mux.HandleFunc("GET /api/images", h.HandleImagesList)

	return mux
}

func guard(h http.Handler, guards []func(http.Handler) http.Handler) http.Handler {
	for i := len(guards) - 1; i >= 0; i-- {
		h = guards[i](h)
	}
	return h
}
