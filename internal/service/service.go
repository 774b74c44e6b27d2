// Package service implements Finova's Connect RPC services.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/finova/internal/auth"
	"github.com/mmynk/finova/internal/cache"
	"github.com/mmynk/finova/internal/metrics"
	"github.com/mmynk/finova/internal/models"
	"github.com/mmynk/finova/internal/protect"
	"github.com/mmynk/finova/internal/retry"
	"github.com/mmynk/finova/internal/storage"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Store storage.Store

	// Guard rate-limits mutations. Nil allows everything.
	Guard protect.Guard

	// Invalidator is told about views made stale by a mutation. Nil skips it.
	Invalidator cache.Invalidator

	// Metrics may be nil.
	Metrics *metrics.Metrics

	// Retry is the policy for store calls. IsTransient defaults to
	// Store.IsTransient and OnRetry is always replaced.
	Retry retry.Policy
}

type base struct {
	Deps
}

// identity returns the caller's identity or ErrUnauthorized.
func (b *base) identity(ctx context.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return auth.Identity{}, ErrUnauthorized
	}
	return id, nil
}

// protect asks the guard whether the caller may perform a mutation costing weight.
func (b *base) protect(ctx context.Context, req connect.AnyRequest, id auth.Identity, weight int) error {
	if b.Guard == nil {
		return nil
	}

	decision, err := b.Guard.Evaluate(ctx, protect.Request{
		Path:       req.Spec().Procedure,
		UserAgent:  req.Header().Get("User-Agent"),
		RemoteAddr: req.Peer().Addr,
	}, id.Subject, weight)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Error("Protection check failed", "identity", id.Subject, "error", err)
		return ErrBlocked
	}
	if !decision.IsDenied() {
		return nil
	}

	b.Metrics.GuardDenial(decision.Reason.String())
	if decision.IsRateLimit() {
		slog.Warn("Rate limit exceeded",
			"identity", id.Subject,
			"procedure", req.Spec().Procedure,
			"remaining", decision.Remaining,
			"reset", decision.Reset,
		)
		return ErrRateLimited
	}
	slog.Warn("Request blocked", "identity", id.Subject, "reason", decision.Reason.String())
	return ErrBlocked
}

// policy returns the retry policy for the named store operation.
func (b *base) policy(op string) retry.Policy {
	p := b.Retry
	if p.IsTransient == nil {
		p.IsTransient = b.Store.IsTransient
	}
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		slog.Warn("Retrying store operation",
			"operation", op,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		b.Metrics.StoreRetry(op)
	}
	return p
}

// user resolves the caller's user row. It is meant to run inside a retried operation.
func (b *base) user(ctx context.Context, id auth.Identity) (*models.User, error) {
	user, err := b.Store.GetUserByIdentity(ctx, id.Subject)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	return user, err
}

func (b *base) invalidate(ctx context.Context, paths ...string) {
	if b.Invalidator == nil {
		return
	}
	for _, p := range paths {
		b.Invalidator.Invalidate(ctx, p)
	}
}

// withStore runs op under the retry policy and classifies its error.
func withStore[T any](ctx context.Context, b *base, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	p := b.policy(op)
	v, err := retry.Do(ctx, p, fn)
	if err != nil {
		return v, storeError(p.IsTransient, op, err)
	}
	return v, nil
}
