package middleware

import (
	"net/http"
)

// NoStore marks responses as uncacheable. API answers and partials depend on
// the caller's token and must not be served from a shared cache.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		w.Header().Add("Vary", "Authorization")
		next.ServeHTTP(w, r)
	})
}
