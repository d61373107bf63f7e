package context

import (
	"context"

	"github.com/go-logr/logr"
)

type contextkey string

const (
	requestIDKey contextkey = "request_id"
	loggerKey    contextkey = "logger"
)

// ContextSetRequestID binds the request id to ctx.
func ContextSetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextGetRequestID returns the request id, or "" if none was set.
func ContextGetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextSetLogger binds a request scoped logger to ctx.
func ContextSetLogger(ctx context.Context, logger logr.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// ContextGetLogger retrieves the request scoped logger.
// Returns a discarding logger if none is set.
func ContextGetLogger(ctx context.Context) logr.Logger {
	logger, ok := ctx.Value(loggerKey).(logr.Logger)
	if !ok {
		return logr.Discard()
	}
	return logger
}
