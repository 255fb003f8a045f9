// internal/logging/context.go
package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 8)

	// Trace correlation (from OpenTelemetry)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	// Ingest task context: which document/hash a worker is processing.
	if task := IngestTaskFromContext(ctx); task != nil {
		fields = append(fields,
			zap.String("ingest.source", task.Source),
			zap.String("ingest.hash", task.Hash),
			zap.String("ingest.stage", task.Stage),
		)
	}

	// Query/session context
	if sessionID := SessionIDFromContext(ctx); sessionID != "" {
		fields = append(fields, zap.String("session.id", sessionID))
	}

	// Request ID
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}

	return fields
}

// Context key types
type ingestTaskCtxKey struct{}
type sessionCtxKey struct{}
type requestCtxKey struct{}

// IngestTask identifies the document a worker goroutine is currently
// processing, for log correlation across the load -> summarize -> extract
// -> chunk -> embed -> write pipeline of a single ingest task.
type IngestTask struct {
	Source string
	Hash   string
	Stage  string
}

// Validation constants
const (
	maxIngestFieldLen = 1024
	maxIDLen          = 128
)

// idPattern allows alphanumeric, hyphen, underscore with optional prefix.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateID validates a session or request ID.
func validateID(id, name string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%s contains invalid UTF-8", name)
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("%s exceeds max length %d", name, maxIDLen)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (must be alphanumeric, hyphen, underscore)", name)
	}
	return nil
}

// IngestTaskFromContext extracts the ingest task from context.
func IngestTaskFromContext(ctx context.Context) *IngestTask {
	if t, ok := ctx.Value(ingestTaskCtxKey{}).(*IngestTask); ok {
		return t
	}
	return nil
}

// WithIngestTask adds an ingest task descriptor to context.
// Panics if task is nil or its Source/Hash exceed a sane length — these
// come from the document loader, not untrusted external input, so this
// guards against programmer error, not adversarial input.
func WithIngestTask(ctx context.Context, task *IngestTask) context.Context {
	if task == nil {
		panic("logging: ingest task cannot be nil")
	}
	if len(task.Source) > maxIngestFieldLen || len(task.Hash) > maxIngestFieldLen {
		panic("logging: ingest task field exceeds max length")
	}
	return context.WithValue(ctx, ingestTaskCtxKey{}, task)
}

// SessionIDFromContext extracts session ID from context.
func SessionIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(sessionCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithSessionID adds session ID to context.
// Panics if sessionID is empty or contains invalid characters.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if err := validateID(sessionID, "sessionID"); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, sessionCtxKey{}, sessionID)
}

// RequestIDFromContext extracts request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return r
	}
	return ""
}

// WithRequestID adds request ID to context.
// Panics if requestID is empty or contains invalid characters.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if err := validateID(requestID, "requestID"); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// loggerCtxKey is the context key for Logger.
type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a default nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zap: zap.NewNop(), config: NewDefaultConfig()}
}
