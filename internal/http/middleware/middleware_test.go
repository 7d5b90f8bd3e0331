package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"musicatlas/internal/app/users"
	"musicatlas/internal/auth"
	"musicatlas/internal/logging"
	"musicatlas/internal/metrics"
	"musicatlas/internal/models"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSAllowedOrigin(t *testing.T) {
	handler := CORS([]string{"https://app.example.com"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/genres", nil)
	req.Header.Set("Origin", "https://APP.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://APP.example.com" {
		t.Fatalf("Allow-Origin = %q", got)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Fatalf("PATCH missing from allowed methods")
	}
}

func TestCORSUnknownOriginAndPreflight(t *testing.T) {
	handler := CORS([]string{"https://app.example.com"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/genres", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected Allow-Origin %q", got)
	}
}

func TestRequestLoggingSetsRequestIDAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	logging.SetGlobalLogger(zerolog.New(&buf))
	t.Cleanup(func() { logging.SetGlobalLogger(zerolog.Nop()) })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	var seen string
	handler := RequestLogging(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "req-123" {
		t.Fatalf("request id in context = %q", seen)
	}
	if rec.Header().Get("X-Request-ID") != "req-123" {
		t.Fatalf("response header = %q", rec.Header().Get("X-Request-ID"))
	}
	if !strings.Contains(buf.String(), `"request_id":"req-123"`) || !strings.Contains(buf.String(), `"status_code":418`) {
		t.Fatalf("log line missing fields: %s", buf.String())
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, family := range families {
		if family.GetName() == "musicatlas_http_requests_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("http request counter not recorded")
	}
}

func TestRecoveryReturns500(t *testing.T) {
	logging.SetGlobalLogger(zerolog.Nop())
	handler := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

type stubAuthenticator struct {
	sessions map[string]users.Session
	err      error
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (users.Session, error) {
	if s.err != nil {
		return users.Session{}, s.err
	}
	session, ok := s.sessions[token]
	if !ok {
		return users.Session{}, auth.ErrUnauthorized
	}
	return session, nil
}

func TestAuthenticateAndRequireAdmin(t *testing.T) {
	authn := stubAuthenticator{sessions: map[string]users.Session{
		"user-token":  {UserID: "u1", Role: models.RoleUser},
		"admin-token": {UserID: "u2", Role: models.RoleAdmin},
	}}
	handler := Authenticate(authn)(RequireAdmin(okHandler))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic admin-token", want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "regular user", header: "Bearer user-token", want: http.StatusForbidden},
		{name: "admin", header: "bearer admin-token", want: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/genres", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestAuthenticateStoreFailureIs500(t *testing.T) {
	logging.SetGlobalLogger(zerolog.Nop())
	handler := Authenticate(stubAuthenticator{err: errors.New("profiles unavailable")})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRateLimiterLimitsMutationsPerClient(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	handler := limiter.Middleware(okHandler)

	send := func(method, addr string) int {
		req := httptest.NewRequest(method, "/api/v1/songs", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send(http.MethodPost, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, code)
		}
	}
	if code := send(http.MethodPost, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d", code)
	}
	if code := send(http.MethodGet, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("reads must not be limited, got %d", code)
	}
	if code := send(http.MethodPost, "10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("other client status = %d", code)
	}

	now = now.Add(time.Second)
	if code := send(http.MethodPost, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("after refill status = %d", code)
	}
}
