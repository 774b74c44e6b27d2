package storage

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Pinger is anything that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker pings a store periodically and remembers the last result.
// database/sql re-dials broken connections on demand, so the checker only
// observes; it never reconnects by itself.
type HealthChecker struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	healthy  atomic.Bool

	// OnStatus is called after every check with its outcome.
	OnStatus func(healthy bool)
}

// NewHealthChecker creates a checker that pings every interval.
// Each ping is given half the interval to complete.
func NewHealthChecker(p Pinger, interval time.Duration) *HealthChecker {
	return &HealthChecker{
		pinger:   p,
		interval: interval,
		timeout:  interval / 2,
	}
}

// Healthy returns the outcome of the most recent check.
func (h *HealthChecker) Healthy() bool {
	return h.healthy.Load()
}

// Check pings once and records the result.
func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := h.pinger.Ping(ctx)
	was := h.healthy.Swap(err == nil)
	switch {
	case err != nil && was:
		slog.Warn("Store became unhealthy", "error", err)
	case err != nil:
		slog.Debug("Store still unhealthy", "error", err)
	case !was:
		slog.Info("Store is healthy")
	}
	if h.OnStatus != nil {
		h.OnStatus(err == nil)
	}
	return err
}

// Run checks immediately and then on every tick until ctx is cancelled.
func (h *HealthChecker) Run(ctx context.Context) {
	_ = h.Check(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = h.Check(ctx)
		}
	}
}
