package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Logging logs one line per request with the request scoped logger.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			// nothing written, or the connection was hijacked
			status = http.StatusOK
		}

		Logger(r).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"bytes", ww.BytesWritten(),
			"ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)
	})
}
