package middleware

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/finova/internal/auth"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ResolveIdentity returns an interceptor that validates the bearer token, if
// any, and stores the caller's identity in the context. Requests without a
// valid token pass through anonymous; each service decides whether that is
// acceptable.
func ResolveIdentity(verifier auth.Verifier) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			header := req.Header().Get("Authorization")
			if header == "" {
				return next(ctx, req)
			}

			token, ok := bearerToken(header)
			if !ok {
				slog.Debug("Malformed authorization header", "procedure", req.Spec().Procedure)
				return next(ctx, req)
			}

			id, err := verifier.Validate(token)
			if err != nil {
				slog.Debug("Rejected bearer token", "procedure", req.Spec().Procedure, "error", err)
				return next(ctx, req)
			}

			return next(auth.WithIdentity(ctx, id), req)
		}
	}
}

// RequireIdentity returns an interceptor that rejects anonymous calls to the
// given procedures with CodeUnauthenticated. It must run after ResolveIdentity.
func RequireIdentity(procedures ...string) connect.UnaryInterceptorFunc {
	protected := make(map[string]bool, len(procedures))
	for _, p := range procedures {
		protected[p] = true
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if protected[req.Spec().Procedure] {
				if _, ok := auth.IdentityFromContext(ctx); !ok {
					return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
				}
			}
			return next(ctx, req)
		}
	}
}
