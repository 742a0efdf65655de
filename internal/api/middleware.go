package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
)

// requestLogger logs one line per request with a trace id that is also
// propagated through the context and echoed in the response headers.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			traceID := r.Header.Get("X-Request-ID")
			if traceID == "" {
				traceID = uuid.New().String()
			}
			ctx := logging.WithTraceID(r.Context(), traceID)

			// WebSocket upgrades need the raw ResponseWriter for hijacking.
			if strings.HasPrefix(r.URL.Path, "/ws") {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			w.Header().Set("X-Request-ID", traceID)

			wrapper := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapper, r.WithContext(ctx))

			if r.URL.Path == "/healthz" {
				return
			}
			logger.InfoContext(ctx, "Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapper.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
