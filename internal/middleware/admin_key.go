package middleware

import (
	"crypto/subtle"
	"net/http"

	pkghttp "github.com/mwarner/loginguard/pkg/http"
)

// RequireAdminKey guards the administrative surface with a shared key
// carried in the X-Admin-Key header. Comparison is constant time so the key
// cannot be probed byte by byte.
func RequireAdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-Admin-Key")
			if provided == "" {
				pkghttp.WriteUnauthorized(w, "Admin key required")
				return
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				pkghttp.WriteUnauthorized(w, "Invalid admin key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
