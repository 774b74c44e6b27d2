package protect

import (
	"log/slog"
	"net/http"

	"github.com/mmynk/finova/internal/metrics"
)

// Middleware runs the shield and bot rules on every request before it
// reaches next. Rate limiting happens later, once the caller is known.
// m may be nil.
func Middleware(g Guard, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/favicon.ico" {
			next.ServeHTTP(w, r)
			return
		}

		decision, err := g.Evaluate(r.Context(), RequestFromHTTP(r), "", 0)
		if err != nil {
			slog.Error("Protection check failed", "path", r.URL.Path, "error", err)
			http.Error(w, "request could not be verified", http.StatusServiceUnavailable)
			return
		}
		if decision.IsDenied() {
			slog.Warn("Request blocked",
				"path", r.URL.Path,
				"reason", decision.Reason.String(),
				"user_agent", r.UserAgent(),
				"remote_addr", r.RemoteAddr,
			)
			m.GuardDenial(decision.Reason.String())
			http.Error(w, "request blocked", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestFromHTTP extracts the fields the guard looks at.
func RequestFromHTTP(r *http.Request) Request {
	return Request{
		Path:       r.URL.Path,
		Query:      r.URL.RawQuery,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
	}
}
