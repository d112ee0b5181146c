package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	apperrors "photo-album/internal/errors"
)

// APIKeyAuth creates middleware that validates the X-API-Key header against
// apiKeys using constant-time comparison. With no keys configured every
// request passes, so the gallery stays open by default.
func APIKeyAuth(apiKeys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(apiKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				http.Error(w, fmt.Sprintf("%v: missing API key", apperrors.ErrUnauthorized), http.StatusUnauthorized)
				return
			}

			valid := false
			for _, validKey := range apiKeys {
				if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
					valid = true
					break
				}
			}

			if !valid {
				http.Error(w, fmt.Sprintf("%v: invalid API key", apperrors.ErrUnauthorized), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
