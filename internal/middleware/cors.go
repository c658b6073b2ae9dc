package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the configured origins. An empty list or "*" allows any origin
// without credentials. HX-* headers are allowed so htmx pages on another
// origin can call the partial endpoints, and HX-Trigger is exposed for the
// login fragments.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Requested-With",
			"HX-Request", "HX-Current-URL", "HX-Target", "HX-Trigger"},
		ExposedHeaders: []string{"HX-Trigger", "Content-Disposition"},
		MaxAge:         300,
	}
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	if wildcard {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowCredentials = true
	}
	return cors.Handler(opts)
}
