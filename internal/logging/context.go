package logging

import (
	"context"
	"log/slog"

	"issuegrid/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldProfile is the standardized key for organize profile names.
	FieldProfile = "profile"
	// FieldRepo is the standardized key for owner/name repository references.
	FieldRepo = "repo"
	// FieldRefreshID is the standardized key for refresh cycle identifiers.
	FieldRefreshID = "refresh_id"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering (e.g. refresh_failed).
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if profile, ok := services.ProfileFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldProfile, profile))
	}
	if repo, ok := services.RepoFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRepo, repo))
	}
	if id, ok := services.RefreshIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRefreshID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
