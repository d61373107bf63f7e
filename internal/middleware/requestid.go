package middleware

import (
	"net/http"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/rahul4469/code-scanner/context"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// RequestContext tags each request with an id and stores a logger carrying
// that id in the request context. A valid incoming X-Request-ID is reused.
// It does not block requests.
type RequestContext struct {
	logger logr.Logger
}

func NewRequestContext(logger logr.Logger) *RequestContext {
	return &RequestContext{logger: logger}
}

func (m *RequestContext) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.ContextSetRequestID(r.Context(), id)
		ctx = context.ContextSetLogger(ctx, m.logger.WithValues("request_id", id))
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}

// Logger is a helper to get the request scoped logger from any handler.
func Logger(r *http.Request) logr.Logger {
	return context.ContextGetLogger(r.Context())
}
