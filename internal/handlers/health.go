package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// HandleHealth reports whether the server can read its metadata store.
//
//	@Summary		Health check
//	@Description	Check if the gallery is running and its metadata store is readable
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string	"status: ok"
//	@Failure		503	{object}	map[string]string	"status: degraded"
//	@Router			/health [get]
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if _, err := h.gallery.List(r.Context(), ""); err != nil {
		log.Printf("[Health] Metadata store unavailable: %v", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": status,
	}); err != nil {
		log.Printf("[Health] Failed to encode response: %v", err)
	}
}
