// internal/middleware/correlation.go
//
// Correlation-ID propagation for request-scoped logging.
//
// Context
// -------
// Every request carries a correlation ID: the inbound X-Correlation-ID
// header when present, otherwise a fresh UUID.  The ID is stashed in the
// request context (explicit context-passing, no ambient task-local state)
// and echoed on the response so clients and logs line up.  Logging calls
// retrieve it with CorrelationID(ctx).

package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header is the correlation header name on requests and responses.
const Header = "X-Correlation-ID"

// notSet is returned by CorrelationID outside a request scope.
const notSet = "not-set"

type cidKey struct{} // unexported, collision-proof

// Correlation wraps h, assigning or propagating the request correlation ID.
func Correlation(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(Header)
		if cid == "" {
			cid = uuid.NewString()
		}
		w.Header().Set(Header, cid)
		ctx := context.WithValue(r.Context(), cidKey{}, cid)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CorrelationID returns the ID stored by Correlation, or "not-set" when
// the middleware has not run for this context.
func CorrelationID(ctx context.Context) string {
	if cid, ok := ctx.Value(cidKey{}).(string); ok {
		return cid
	}
	return notSet
}
