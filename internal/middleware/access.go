// internal/middleware/access.go
//
// Access logging with UA summary and request metrics.
//
// Context
// -------
// Logs one line per request with method, path, status, duration, client
// IP, a parsed user-agent summary, and the correlation ID, then bumps the
// Prometheus request counter.  The UA summary uses uasurfer so crawler
// traffic is flagged without logging the raw header at info level.

package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"go.uber.org/zap"

	"github.com/yanizio/keel/internal/metrics"
)

// statusRecorder captures the response code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// AccessLog wraps h with per-request logging and metrics.
func AccessLog(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		h.ServeHTTP(rec, r)

		ua := uasurfer.Parse(r.UserAgent())
		browser := strings.TrimPrefix(ua.Browser.Name.String(), "Browser")
		bot := ua.IsBot()

		zap.S().Infow("request",
			"cid", CorrelationID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start).Seconds(),
			"ip", clientIP(r),
			"browser", browser,
			"bot", bot,
		)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

// clientIP strips the port from RemoteAddr when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
