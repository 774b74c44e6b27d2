// Command reporter queues the periodic emails: monthly financial reports and
// budget alerts. It is meant to be run from a scheduler.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finova/internal/config"
	"github.com/mmynk/finova/internal/outbox"
	"github.com/mmynk/finova/internal/report"
	"github.com/mmynk/finova/internal/retry"
	"github.com/mmynk/finova/internal/storage/stores"
	"github.com/mmynk/finova/pkg/logging"
)

const (
	jobMonthly = "monthly"
	jobAlerts  = "alerts"
	jobAll     = "all"
)

func main() {
	logger := logging.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("Reporter failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("reporter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	job := fs.String("job", jobAll, "Job to run: monthly, alerts or all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch *job {
	case jobMonthly, jobAlerts, jobAll:
	default:
		return fmt.Errorf("unknown job %q", *job)
	}

	cfg, err := config.Load(ctx, logger)
	if err != nil {
		return err
	}

	store, err := stores.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	var out report.Outbox = outbox.LogOutbox{Logger: logger}
	if cfg.MongoURI != "" {
		client, err := outbox.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Warn("Failed to disconnect from MongoDB", "error", err)
			}
		}()
		out = outbox.NewMongoOutbox(outbox.NewMongoProvider(client))
	}

	runner := report.NewRunner(report.Config{
		Store:          store,
		Outbox:         out,
		AlertThreshold: decimal.NewFromInt(int64(cfg.BudgetAlertThreshold)),
		Retry:          retry.Policy{MaxAttempts: cfg.DBRetryAttempts},
	})

	var errs []error
	if *job == jobMonthly || *job == jobAll {
		if _, err := runner.MonthlyReports(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if *job == jobAlerts || *job == jobAll {
		if _, err := runner.BudgetAlerts(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
