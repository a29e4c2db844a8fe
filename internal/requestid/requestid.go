// Package requestid provides request ID propagation via context.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header carries the request ID on HTTP requests and responses.
const Header = "X-Request-ID"

const maxInboundLength = 128

type ctxKey struct{}

// WithRequestID returns a context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the request ID from context, or generates a new one.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// New generates a new request ID and returns the enriched context and ID.
func New(ctx context.Context) (context.Context, string) {
	id := uuid.New().String()
	return WithRequestID(ctx, id), id
}

// Resolve keeps a caller-supplied ID when it is usable, otherwise it
// generates one.
func Resolve(inbound string) string {
	if inbound == "" || len(inbound) > maxInboundLength {
		return uuid.New().String()
	}
	for _, r := range inbound {
		if r < 0x21 || r > 0x7e {
			return uuid.New().String()
		}
	}
	return inbound
}
