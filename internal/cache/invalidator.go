// Package cache tells the rendering layer which cached views are stale.
package cache

import (
	"context"
	"log/slog"

	"github.com/mmynk/finova/internal/metrics"
)

// Invalidator marks the cached view for a path as stale. It is best effort:
// failures are logged, never returned.
type Invalidator interface {
	Invalidate(ctx context.Context, path string)
}

// Notifier is an Invalidator that records invalidations and forwards them
// to any subscribed listeners (for example, a server-sent events hub or a
// CDN purge client).
type Notifier struct {
	metrics   *metrics.Metrics
	listeners []func(ctx context.Context, path string) error
}

// NewNotifier creates a Notifier. m may be nil.
func NewNotifier(m *metrics.Metrics) *Notifier {
	return &Notifier{metrics: m}
}

// Subscribe registers a listener. It must be called before the notifier is
// shared between goroutines.
func (n *Notifier) Subscribe(fn func(ctx context.Context, path string) error) {
	n.listeners = append(n.listeners, fn)
}

// Invalidate notifies every listener about path.
func (n *Notifier) Invalidate(ctx context.Context, path string) {
	n.metrics.Invalidation(path)
	slog.Debug("View invalidated", "path", path)
	for _, fn := range n.listeners {
		if err := fn(ctx, path); err != nil {
			slog.Warn("View invalidation listener failed", "path", path, "error", err)
		}
	}
}
