package logging

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	repositoryKey
	loggerKey
)

// maxIDLen bounds identifiers copied from request headers.
const maxIDLen = 128

// ContextFields extracts trace and request fields from ctx.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields := make([]zap.Field, 0, 4)

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request.id", id))
	}
	if repo := RepositoryFromContext(ctx); repo != "" {
		fields = append(fields, zap.String("repository", repo))
	}
	return fields
}

// WithRequestID stores a request ID. Empty IDs leave ctx unchanged and
// long or non-printable IDs are sanitized.
func WithRequestID(ctx context.Context, id string) context.Context {
	id = sanitizeID(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithRepository stores the "owner/name" being processed.
func WithRepository(ctx context.Context, fullName string) context.Context {
	if fullName == "" {
		return ctx
	}
	return context.WithValue(ctx, repositoryKey, fullName)
}

// RepositoryFromContext returns the repository name or "".
func RepositoryFromContext(ctx context.Context) string {
	repo, _ := ctx.Value(repositoryKey).(string)
	return repo
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the stored logger, or a no-op logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok && l != nil {
		return l
	}
	return Wrap(zap.NewNop())
}

func sanitizeID(id string) string {
	id = strings.Map(func(r rune) rune {
		if r < 0x21 || r > 0x7e {
			return -1
		}
		return r
	}, id)
	if len(id) > maxIDLen {
		id = id[:maxIDLen]
	}
	return id
}
