package protect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/finova/internal/metrics"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 Safari/605.1.15"

func newTestGuard(perMinute, burst int) (*LocalGuard, *time.Time) {
	g := NewLocalGuard(Config{PerMinute: perMinute, Burst: burst})
	now := time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	return g, &now
}

func TestLocalGuard_RateLimit(t *testing.T) {
	g, now := newTestGuard(60, 2) // one token per second
	ctx := context.Background()
	req := Request{Path: "/finova.v1.AccountService/CreateAccount", UserAgent: browserUA}

	d, err := g.Evaluate(ctx, req, "idp|alice", 1)
	require.NoError(t, err)
	assert.False(t, d.IsDenied())
	assert.Equal(t, 1, d.Remaining)

	d, _ = g.Evaluate(ctx, req, "idp|alice", 1)
	assert.False(t, d.IsDenied())
	assert.Equal(t, 0, d.Remaining)

	d, _ = g.Evaluate(ctx, req, "idp|alice", 1)
	assert.True(t, d.IsDenied())
	assert.True(t, d.IsRateLimit())
	assert.Equal(t, time.Second, d.Reset)

	// other identities have their own bucket
	d, _ = g.Evaluate(ctx, req, "idp|bob", 1)
	assert.False(t, d.IsDenied())

	*now = now.Add(time.Second)
	d, _ = g.Evaluate(ctx, req, "idp|alice", 1)
	assert.False(t, d.IsDenied(), "a token refills after a second")
}

func TestLocalGuard_WeightZeroSkipsRateLimit(t *testing.T) {
	g, _ := newTestGuard(60, 1)
	for i := 0; i < 5; i++ {
		d, err := g.Evaluate(context.Background(), Request{UserAgent: browserUA}, "idp|alice", 0)
		require.NoError(t, err)
		assert.False(t, d.IsDenied())
	}
}

func TestLocalGuard_WeightAboveBurst(t *testing.T) {
	g, _ := newTestGuard(60, 1)
	_, err := g.Evaluate(context.Background(), Request{UserAgent: browserUA}, "idp|alice", 2)
	assert.Error(t, err)
}

func TestLocalGuard_Bots(t *testing.T) {
	g, _ := newTestGuard(60, 5)
	tests := []struct {
		ua      string
		blocked bool
	}{
		{browserUA, false},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", false},
		{"Go-http-client/1.1", false},
		{"", true},
		{"curl/8.4.0", true},
		{"python-requests/2.31", true},
		{"SomeRandomCrawler/1.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.ua, func(t *testing.T) {
			d, err := g.Evaluate(context.Background(), Request{UserAgent: tt.ua}, "", 0)
			require.NoError(t, err)
			assert.Equal(t, tt.blocked, d.IsDenied())
			if tt.blocked {
				assert.Equal(t, ReasonBot, d.Reason)
			}
		})
	}
}

func TestLocalGuard_Shield(t *testing.T) {
	g, _ := newTestGuard(60, 5)
	d, _ := g.Evaluate(context.Background(), Request{Path: "/static/../../etc/passwd", UserAgent: browserUA}, "", 0)
	assert.Equal(t, ReasonShield, d.Reason)

	d, _ = g.Evaluate(context.Background(), Request{Path: "/dashboard", Query: "q=1 UNION SELECT password", UserAgent: browserUA}, "", 0)
	assert.Equal(t, ReasonShield, d.Reason)
}

func TestLocalGuard_Sweep(t *testing.T) {
	g, now := newTestGuard(60, 5)
	_, _ = g.Evaluate(context.Background(), Request{UserAgent: browserUA}, "idp|alice", 1)
	require.Len(t, g.limiters, 1)

	*now = now.Add(idleTTL + time.Second)
	g.Sweep()
	assert.Empty(t, g.limiters)
}

func TestLocalGuard_CancelledContext(t *testing.T) {
	g, _ := newTestGuard(60, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Evaluate(ctx, Request{UserAgent: browserUA}, "idp|alice", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMiddleware(t *testing.T) {
	g, _ := newTestGuard(60, 5)
	reg := prometheus.NewRegistry()
	h := Middleware(g, metrics.New(reg), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name string
		path string
		ua   string
		want int
	}{
		{"browser", "/dashboard", browserUA, http.StatusNoContent},
		{"curl", "/dashboard", "curl/8.4.0", http.StatusForbidden},
		{"favicon is never checked", "/favicon.ico", "curl/8.4.0", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("User-Agent", tt.ua)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	denials, err := testutil.GatherAndCount(reg, "finova_guard_denials_total")
	require.NoError(t, err)
	assert.Equal(t, 1, denials)
}
