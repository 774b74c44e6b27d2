// Package protect decides whether a request may proceed: it rate-limits each
// identity and turns away automated clients and obvious attack payloads.
package protect

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Reason explains a denial.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonRateLimit
	ReasonBot
	ReasonShield
)

func (r Reason) String() string {
	switch r {
	case ReasonRateLimit:
		return "rate_limit"
	case ReasonBot:
		return "bot"
	case ReasonShield:
		return "shield"
	}
	return "none"
}

// Decision is the outcome of Evaluate.
type Decision struct {
	Reason Reason

	// Remaining is how many requests the identity may still make right now.
	Remaining int

	// Reset is how long until the next request would be allowed.
	Reset time.Duration
}

// IsDenied reports whether the request must not proceed.
func (d Decision) IsDenied() bool { return d.Reason != ReasonNone }

// IsRateLimit reports whether the request was denied for exceeding the rate limit.
func (d Decision) IsRateLimit() bool { return d.Reason == ReasonRateLimit }

// Request is what the guard needs to know about an incoming request.
type Request struct {
	Path       string
	Query      string
	UserAgent  string
	RemoteAddr string
}

// Guard evaluates requests. weight is the number of rate-limit tokens the
// request costs; zero skips rate limiting.
type Guard interface {
	Evaluate(ctx context.Context, req Request, identity string, weight int) (Decision, error)
}

// Config configures a LocalGuard.
type Config struct {
	// PerMinute is the sustained number of weighted requests per identity.
	PerMinute int
	// Burst is how many requests may arrive at once.
	Burst int
	// AllowBots lists user-agent substrings that are never treated as bots.
	AllowBots []string
}

// DefaultAllowedBots lets search engines and Go HTTP clients through.
var DefaultAllowedBots = []string{
	"googlebot", "bingbot", "duckduckbot", "yandexbot", "baiduspider", "applebot",
	"go-http-client",
}

var botMarkers = []string{
	"bot", "crawler", "spider", "scrapy", "curl/", "wget/", "python-requests",
	"python-urllib", "headlesschrome", "phantomjs", "httpclient", "libwww",
}

var shieldMarkers = []string{
	"../", "..%2f", "<script", "%3cscript", "union select", "union+select",
	"' or '1'='1", "/etc/passwd", "${jndi:",
}

const idleTTL = 10 * time.Minute

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// LocalGuard is an in-process Guard keeping one token bucket per identity.
type LocalGuard struct {
	limit     rate.Limit
	burst     int
	allowBots []string

	mu       sync.Mutex
	limiters map[string]*limiterEntry
	now      func() time.Time
}

// NewLocalGuard creates a guard from cfg.
func NewLocalGuard(cfg Config) *LocalGuard {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.AllowBots == nil {
		cfg.AllowBots = DefaultAllowedBots
	}
	return &LocalGuard{
		limit:     rate.Limit(float64(cfg.PerMinute) / 60),
		burst:     cfg.Burst,
		allowBots: cfg.AllowBots,
		limiters:  make(map[string]*limiterEntry),
		now:       time.Now,
	}
}

// Evaluate applies the shield, bot and rate-limit rules in that order.
func (g *LocalGuard) Evaluate(ctx context.Context, req Request, identity string, weight int) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	if isAttack(req) {
		return Decision{Reason: ReasonShield}, nil
	}
	if g.isBot(req.UserAgent) {
		return Decision{Reason: ReasonBot}, nil
	}
	if weight <= 0 {
		return Decision{}, nil
	}
	if weight > g.burst {
		return Decision{}, fmt.Errorf("request weight %d exceeds burst %d", weight, g.burst)
	}

	key := identity
	if key == "" {
		key = "ip:" + req.RemoteAddr
	}
	now := g.now()
	lim := g.limiter(key, now)

	if lim.AllowN(now, weight) {
		return Decision{Remaining: int(math.Floor(lim.TokensAt(now)))}, nil
	}
	missing := float64(weight) - lim.TokensAt(now)
	reset := time.Duration(missing / float64(g.limit) * float64(time.Second))
	return Decision{Reason: ReasonRateLimit, Reset: reset}, nil
}

func (g *LocalGuard) limiter(key string, now time.Time) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.limiters[key]
	if !ok {
		if len(g.limiters) >= 10000 {
			g.sweepLocked(now)
		}
		e = &limiterEntry{lim: rate.NewLimiter(g.limit, g.burst)}
		g.limiters[key] = e
	}
	e.lastSeen = now
	return e.lim
}

// Sweep drops limiters that have been idle for a while.
func (g *LocalGuard) Sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweepLocked(g.now())
}

func (g *LocalGuard) sweepLocked(now time.Time) {
	for key, e := range g.limiters {
		if now.Sub(e.lastSeen) > idleTTL {
			delete(g.limiters, key)
		}
	}
}

func (g *LocalGuard) isBot(userAgent string) bool {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return true
	}
	for _, allowed := range g.allowBots {
		if strings.Contains(ua, allowed) {
			return false
		}
	}
	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

func isAttack(req Request) bool {
	target := strings.ToLower(req.Path + "?" + req.Query)
	for _, marker := range shieldMarkers {
		if strings.Contains(target, marker) {
			return true
		}
	}
	return false
}
