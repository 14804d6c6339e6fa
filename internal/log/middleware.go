package log

import (
	"context"
	"log/slog"
	"net/http"

	"workcal/internal/core"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts a logger from the request context, falling back to
// the slog default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger logs the application's domain events with consistent fields.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogAppointmentCreated logs a saved appointment.
func (sl *StructuredLogger) LogAppointmentCreated(ctx context.Context, a core.Appointment) {
	fields := NewFields().
		WithAppointment(a).
		WithOperation(OpCreate)
	sl.logger.WithComponent(ComponentStore).InfoContext(ctx, "Appointment saved", fields.ToSlice()...)
}

// LogValidationFailed logs which fields were rejected, without their values.
func (sl *StructuredLogger) LogValidationFailed(ctx context.Context, errs core.FieldErrors) {
	failed := make([]string, 0, len(errs))
	for f := range errs {
		failed = append(failed, string(f))
	}
	fields := NewFields().
		WithOperation(OpValidate)
	fields["fields"] = failed
	sl.logger.WithComponent(ComponentHTTP).WarnContext(ctx, "Appointment rejected", fields.ToSlice()...)
}

// LogBackup logs a finished export or import.
func (sl *StructuredLogger) LogBackup(ctx context.Context, op string, count int) {
	fields := NewFields().
		WithCount(count).
		WithOperation(op)
	sl.logger.WithComponent(ComponentBackup).InfoContext(ctx, "Backup "+op+" finished", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)
	sl.logger.WithComponent(component).ErrorContext(ctx, msg, allFields.ToSlice()...)
}
