// Package requestid carries the per-request correlation id through contexts.
package requestid

import (
	"context"
	"strings"

	"signup/cmd/identity/ids"
)

// Header is the HTTP header used to accept and echo request ids.
const Header = "X-Request-ID"

const maxInboundLen = 128

type ctxKey struct{}

// WithID returns a copy of ctx carrying id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request id stored in ctx, if any.
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Resolve returns inbound when it is a usable client-supplied id, otherwise a
// fresh ULID.
func Resolve(inbound string) string {
	inbound = strings.TrimSpace(inbound)
	if inbound == "" || len(inbound) > maxInboundLen || strings.ContainsAny(inbound, "\r\n\"") {
		return ids.NewRequestID()
	}
	return inbound
}
