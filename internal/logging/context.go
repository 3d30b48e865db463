package logging

import (
	"context"
	"log/slog"

	"apod/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. "cache_hit").
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldErrorKind carries the services.Kind classification of an error.
	FieldErrorKind = "error_kind"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldAPODDate is the date of the APOD entry being processed.
	FieldAPODDate = "apod_date"
	// FieldRecordID is the cache index record identifier.
	FieldRecordID = "record_id"
	// FieldContentHash is the hex digest of cached image bytes.
	FieldContentHash = "content_hash"
	// FieldPath is a filesystem path.
	FieldPath = "path"
)

// WithContext returns logger tagged with the correlation id and APOD date
// carried by ctx, when present.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldCorrelationID, rid))
	}
	if date, ok := services.APODDateFromContext(ctx); ok {
		args = append(args, slog.String(FieldAPODDate, date))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
