// Package tracer provides a lightweight tracing abstraction so decision code
// can emit spans without depending on OpenTelemetry APIs directly.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanPreLogin       = "progressive.pre_login"
	SpanPostSubmission = "progressive.post_submission"
)

// Attribute keys. User identifiers are only ever attached as pseudonyms.
const (
	AttrSubject      = "user.pseudonym"
	AttrClientID     = "client.id"
	AttrPolicyKey    = "pp.policy_key"
	AttrOutcome      = "pp.outcome"
	AttrDenyCode     = "pp.deny_code"
	AttrPendingCount = "pp.pending_screens"
	AttrScreen       = "pp.screen"
	AttrWritesIssued = "pp.writes"
)

// Event names.
const (
	EventScreenOverflow = "screen.overflow"
	EventValidation     = "validation.failed"
)
