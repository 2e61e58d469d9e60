/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import "context"

type ctxKey int

const (
	ctxKeyRequestType ctxKey = iota
	ctxKeyRequestID
	ctxKeyIdempotentHint
)

func getStringFromContext(ctx context.Context, key ctxKey) string {
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

// NewContextWithRequestType creates a new context with request type.
// The type is used as a label in metrics and as a field in logs.
func NewContextWithRequestType(ctx context.Context, requestType string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestType, requestType)
}

// GetRequestTypeFromContext extracts request type from the context.
func GetRequestTypeFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, ctxKeyRequestType)
}

// NewContextWithRequestID creates a new context with the request ID
// that RequestIDRoundTripper puts into the X-Request-ID header.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// GetRequestIDFromContext extracts request ID from the context.
func GetRequestIDFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, ctxKeyRequestID)
}

// NewContextWithIdempotentHint returns a derived context that carries an "idempotent request" hint.
// When set to true, the request is considered idempotent even if it's not a GET/HEAD/OPTIONS request,
// and RetryableRoundTripper may retry it on server errors.
func NewContextWithIdempotentHint(ctx context.Context, isIdempotent bool) context.Context {
	return context.WithValue(ctx, ctxKeyIdempotentHint, isIdempotent)
}

// GetIdempotentHintFromContext extracts the "idempotent request" hint from context.
// Returns false when the key is not present.
func GetIdempotentHintFromContext(ctx context.Context) bool {
	b, ok := ctx.Value(ctxKeyIdempotentHint).(bool)
	return ok && b
}
