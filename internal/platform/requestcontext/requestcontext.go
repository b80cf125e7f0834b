// Package requestcontext carries per-request values through context:
// the request id, the authenticated user and the client metadata recorded
// on certificate validations.
package requestcontext

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}
type userIDKey struct{}
type clientMetadataKey struct{}

// ClientMetadata holds request facts extracted by the metadata middleware.
type ClientMetadata struct {
	IPAddress string
	UserAgent string
}

// WithRequestID stores the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id, or "" when absent.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithUserID stores the authenticated user id.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID returns the authenticated user id. The second result is false when
// the request is unauthenticated.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return id, ok
}

// WithClientMetadata stores the client IP and User-Agent.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientMetadataKey{}, ClientMetadata{
		IPAddress: ip,
		UserAgent: userAgent,
	})
}

// Metadata returns the client metadata, zero-valued when absent.
func Metadata(ctx context.Context) ClientMetadata {
	if m, ok := ctx.Value(clientMetadataKey{}).(ClientMetadata); ok {
		return m
	}
	return ClientMetadata{}
}
