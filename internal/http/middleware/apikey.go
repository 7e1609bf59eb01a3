package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/quoteotter/lead-engine/internal/api/respond"
)

// APIKey gates partner endpoints behind an X-Api-Key allowlist. An empty
// allowlist leaves the endpoints open, which is only intended for local
// development.
func APIKey(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(keys) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			provided := r.Header.Get("X-Api-Key")
			if provided == "" {
				respond.Error(w, http.StatusUnauthorized, "missing API key")
				return
			}
			for _, k := range keys {
				if subtle.ConstantTimeCompare([]byte(provided), []byte(k)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			respond.Error(w, http.StatusUnauthorized, "invalid API key")
		})
	}
}
