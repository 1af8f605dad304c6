package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/observability"
)

var (
	watchSchedule  string
	watchImmediate bool
)

// watchCmd creates the "watch" subcommand.
func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Scan on a schedule until interrupted",
		Long: `Run a scan on a cron schedule (default "@every 30m").

Scheduled scans never overlap: a tick that fires while a scan is still
running is skipped. When metrics are enabled, counters are served in
Prometheus text format on metrics.port.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron spec (overrides schedule.spec)")
	cmd.Flags().BoolVar(&watchImmediate, "now", true, "run a scan immediately on start")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchSchedule != "" {
		cfg.Schedule.Spec = watchSchedule
	}
	logger := setupLogger(cfg)

	if err := config.RequireWebhook(cfg); err != nil {
		logger.Error("cannot send alerts", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	eng, cleanup, err := newEngine(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	scan := func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := eng.Run(ctx); err != nil {
			logger.Error("scan failed", "error", err)
		}
	}

	cl := cronLogger{logger: logger.With("component", "cron")}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(cfg.Schedule.Spec, scan); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule.Spec, err)
	}

	logger.Info("watching for new titles", "schedule", cfg.Schedule.Spec, "immediate", watchImmediate)
	c.Start()

	if watchImmediate {
		// Through the job chain so the first tick cannot overlap it.
		for _, entry := range c.Entries() {
			go entry.WrappedJob.Run()
		}
	}

	<-ctx.Done()
	logger.Info("received signal, waiting for the current scan to finish")
	<-c.Stop().Done()
	return nil
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
