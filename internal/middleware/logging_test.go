package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok is info", http.StatusOK, "level=INFO"},
		{"client error is warn", http.StatusForbidden, "level=WARN"},
		{"server error is error", http.StatusServiceUnavailable, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			h := chimiddleware.RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("hello"))
			})))

			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			req.Header.Set("Authorization", "Bearer secret-token")
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			out := buf.String()
			assert.Contains(t, out, tt.wantLevel)
			assert.Contains(t, out, "path=/api/users/me")
			assert.Contains(t, out, "bytes=5")
			assert.Contains(t, out, "requestID=")
			assert.NotContains(t, out, "secret-token")
		})
	}
}

func TestLogger_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Contains(t, buf.String(), "status=200")
}
