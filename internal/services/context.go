package services

import "context"

type contextKey string

const (
	profileKey   contextKey = "profile"
	repoKey      contextKey = "repo"
	refreshIDKey contextKey = "refresh_id"
	requestIDKey contextKey = "request_id"
)

// WithProfile annotates context with the organize profile name.
func WithProfile(ctx context.Context, profile string) context.Context {
	if profile == "" {
		return ctx
	}
	return context.WithValue(ctx, profileKey, profile)
}

// ProfileFromContext returns the profile name if present.
func ProfileFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, profileKey)
}

// WithRepo annotates context with an owner/name repository reference.
func WithRepo(ctx context.Context, repo string) context.Context {
	if repo == "" {
		return ctx
	}
	return context.WithValue(ctx, repoKey, repo)
}

// RepoFromContext returns the repository reference if present.
func RepoFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, repoKey)
}

// WithRefreshID annotates context with the identifier of a refresh cycle.
func WithRefreshID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, refreshIDKey, id)
}

// RefreshIDFromContext returns the refresh identifier if present.
func RefreshIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, refreshIDKey)
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
