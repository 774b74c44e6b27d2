// Package auth resolves the caller's identity from tokens issued by the
// external identity provider.
package auth

import "context"

// Identity is the caller as known to the identity provider.
type Identity struct {
	// Subject is the provider's opaque user ID.
	Subject string
	Name    string
	Email   string
}

// Verifier turns a bearer token into an identity.
type Verifier interface {
	Validate(token string) (Identity, error)
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the caller's identity, if one was resolved.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || id.Subject == "" {
		return Identity{}, false
	}
	return id, true
}
