// Package middleware holds small, composable HTTP wrappers.  Each wrapper
// consumes resolved settings or correlation identifiers as read-only
// values; none of them call back into the resolver.
package middleware

import (
	"net/http"
	"strings"

	"github.com/yanizio/keel/internal/config"
)

// CORS returns a wrapper applying the resolved cross-origin policy.
// Preflight OPTIONS requests are answered directly with 204.
func CORS(policy config.CORS) func(http.Handler) http.Handler {
	origins := strings.Join(policy.AllowOrigins, ", ")
	methods := strings.Join(policy.AllowMethods, ", ")
	headers := strings.Join(policy.AllowHeaders, ", ")

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hdr := w.Header()
			if origins != "" {
				hdr.Set("Access-Control-Allow-Origin", origins)
			}
			if policy.AllowCredentials {
				hdr.Set("Access-Control-Allow-Credentials", "true")
			}
			if r.Method == http.MethodOptions {
				if methods != "" {
					hdr.Set("Access-Control-Allow-Methods", methods)
				}
				if headers != "" {
					hdr.Set("Access-Control-Allow-Headers", headers)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}
