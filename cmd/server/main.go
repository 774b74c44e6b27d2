package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/finova/internal/auth"
	"github.com/mmynk/finova/internal/cache"
	"github.com/mmynk/finova/internal/config"
	"github.com/mmynk/finova/internal/metrics"
	"github.com/mmynk/finova/internal/middleware"
	"github.com/mmynk/finova/internal/protect"
	"github.com/mmynk/finova/internal/retry"
	"github.com/mmynk/finova/internal/service"
	"github.com/mmynk/finova/internal/storage"
	"github.com/mmynk/finova/internal/storage/stores"
	"github.com/mmynk/finova/pkg/logging"
)

func main() {
	logger := logging.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load(ctx, logger)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	store, err := stores.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	health := storage.NewHealthChecker(store, cfg.DBHealthInterval)
	health.OnStatus = m.StoreHealthy
	go health.Run(ctx)

	guard := protect.NewLocalGuard(protect.Config{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})
	go sweep(ctx, guard)

	deps := service.Deps{
		Store:       store,
		Guard:       guard,
		Invalidator: cache.NewNotifier(m),
		Metrics:     m,
		Retry:       retry.Policy{MaxAttempts: cfg.DBRetryAttempts},
	}

	verifier := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, 0)
	interceptors := connect.WithInterceptors(
		middleware.LoggingInterceptor(),
		middleware.MetricsInterceptor(m),
		middleware.ResolveIdentity(verifier),
		middleware.RequireIdentity(service.Procedures()...),
	)

	mux := http.NewServeMux()
	mux.Handle(service.NewAccountServiceHandler(service.NewAccountService(deps), interceptors))
	mux.Handle(service.NewTransactionServiceHandler(service.NewTransactionService(deps), interceptors))
	mux.Handle(service.NewUserServiceHandler(service.NewUserService(deps), interceptors))
	mux.Handle(service.NewBudgetServiceHandler(service.NewBudgetService(deps), interceptors))
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !health.Healthy() {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ok")
	})

	handler := loggingMiddleware(corsMiddleware(cfg.AllowedOrigin, protect.Middleware(guard, m, mux)))

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		// h2c serves HTTP/2 without TLS, which Connect clients use.
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// sweep drops idle rate limiters until ctx is cancelled.
func sweep(ctx context.Context, g *protect.LocalGuard) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Sweep()
		}
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
