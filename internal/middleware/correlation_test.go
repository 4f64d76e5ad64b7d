// internal/middleware/correlation_test.go
//
// Tests for correlation-ID propagation and the CORS wrapper.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/keel/internal/config"
)

func TestCorrelationPropagatesInboundID(t *testing.T) {
	var seen string
	h := Correlation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(Header, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc-123" {
		t.Fatalf("handler saw cid %q, want abc-123", seen)
	}
	if got := rec.Header().Get(Header); got != "abc-123" {
		t.Fatalf("response echoes %q, want abc-123", got)
	}
}

func TestCorrelationGeneratesWhenAbsent(t *testing.T) {
	var seen string
	h := Correlation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" || seen == notSet {
		t.Fatalf("no correlation ID generated, got %q", seen)
	}
	if rec.Header().Get(Header) != seen {
		t.Fatal("response header does not match context value")
	}
}

func TestCorrelationIDOutsideRequestScope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := CorrelationID(req.Context()); got != notSet {
		t.Fatalf("CorrelationID = %q, want %q", got, notSet)
	}
}

func TestCORSPreflightAndHeaders(t *testing.T) {
	policy := config.CORS{
		AllowOrigins:     []string{"https://a.com"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"X-One"},
		AllowCredentials: true,
	}
	var reached bool
	h := CORS(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	if reached {
		t.Fatal("preflight reached the inner handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Fatalf("allow-methods = %q", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !reached {
		t.Fatal("GET did not reach the inner handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://a.com" {
		t.Fatalf("allow-origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("allow-credentials = %q", got)
	}
}
