// Package requestcontext carries request-scoped values (request ID, request
// time, verified pipeline caller) through context.Context.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey       struct{}
	requestTimeKey     struct{}
	pipelineSubjectKey struct{}
)

// WithRequestID stores the request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request correlation ID, or "" when unset.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithTime pins the request-scoped "now". Services read it through Now so a
// single login transaction uses one timestamp for every record it stamps.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the request-scoped time, falling back to time.Now() outside an
// HTTP request (tests, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithPipelineSubject records the verified subject of the calling
// authentication pipeline (the bearer token's "sub").
func WithPipelineSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, pipelineSubjectKey{}, subject)
}

// PipelineSubject returns the verified pipeline subject, or "" when the
// request was not authenticated.
func PipelineSubject(ctx context.Context) string {
	if v, ok := ctx.Value(pipelineSubjectKey{}).(string); ok {
		return v
	}
	return ""
}
