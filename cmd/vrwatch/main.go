package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/engine"
	"github.com/IshaanNene/vrwatch/internal/fetcher"
	"github.com/IshaanNene/vrwatch/internal/observability"
	"github.com/IshaanNene/vrwatch/internal/storage"
	"github.com/IshaanNene/vrwatch/internal/types"
)

var (
	cfgFile   string
	verbose   bool
	pages     int
	statePath string
	dryRun    bool
)

// Exit statuses.
const (
	exitOK             = 0
	exitFailure        = 1
	exitMissingWebhook = 2
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vrwatch",
		Short: "vrwatch: VR release watcher with Discord alerts",
		Long: `vrwatch scans the VR listing for new releases, enriches each new title
with its rating and detail page tags, translates the title, and posts one
Discord alert per title it has not announced before.

Running without a subcommand performs a single pass (same as "vrwatch run").`,
		SilenceUsage: true,
		RunE:         runOnce,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&pages, "pages", 0, "number of listing pages to scan (0 = config value)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "processed titles file (overrides storage.path)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "build alerts but do not send them or save state")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, types.ErrMissingWebhook) {
		return exitMissingWebhook
	}
	return exitFailure
}

// runCmd creates the "run" subcommand.
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scan once and send alerts for new titles",
		Args:  cobra.NoArgs,
		RunE:  runOnce,
	}
}

// runOnce executes a single scan.
func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	if err := config.RequireWebhook(cfg); err != nil {
		logger.Error("cannot send alerts", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)
	eng, cleanup, err := newEngine(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	sum, err := eng.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(sum, cfg)
	return nil
}

// newEngine creates the fetcher, the title store and the engine. The
// returned cleanup releases the fetcher and store.
func newEngine(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*engine.Engine, func(), error) {
	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create fetcher: %w", err)
	}

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("create storage: %w", err)
	}

	eng, err := engine.Build(cfg, f, store, metrics, logger)
	if err != nil {
		f.Close()
		store.Close()
		return nil, nil, fmt.Errorf("create engine: %w", err)
	}

	cleanup := func() {
		if err := f.Close(); err != nil {
			logger.Error("fetcher close error", "error", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("storage close error", "error", err)
		}
	}
	return eng, cleanup, nil
}

func printSummary(sum *engine.Summary, cfg *config.Config) {
	fmt.Printf("\n✅ Scan complete in %s\n", sum.Elapsed.Round(time.Millisecond))

	t := newTable()
	t.AppendHeader(table.Row{"", "Count", "Failed"})
	t.AppendRow(table.Row{"Pages", sum.PagesFetched, sum.PagesFailed})
	t.AppendRow(table.Row{"Titles seen", sum.RecordsSeen, sum.RecordsSkipped})
	t.AppendRow(table.Row{"New titles", sum.RecordsNew, ""})
	t.AppendRow(table.Row{"Alerts", sum.NotificationsSent, sum.NotificationsFailed})
	t.Render()

	if sum.Saved {
		fmt.Printf("   State: %s (%s)\n", cfg.Storage.Path, cfg.Storage.Type)
	}
	if sum.Interrupted {
		fmt.Println("\n⚠️  Scan was interrupted before all pages were checked.")
	}
	if sum.NotificationsFailed > 0 {
		fmt.Println("\n💡 Failed alerts were not recorded and will be retried on the next run.")
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	return t
}

// stateCmd creates the "state" subcommand for inspecting processed titles.
func stateCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the processed titles store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := storage.New(ctx, cfg.Storage, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			titles, err := store.Load(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%d processed titles (%s)\n", titles.Len(), store.Name())
			if list {
				t := newTable()
				t.AppendHeader(table.Row{"#", "Title"})
				for i, title := range titles.Sorted() {
					t.AppendRow(table.Row{i + 1, title})
				}
				t.Render()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print every processed title")
	return cmd
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vrwatch %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration (secrets redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(config.Redacted(cfg))
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

// loadConfig loads, overrides and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if pages > 0 {
		cfg.Listing.Pages = pages
	}
	if statePath != "" {
		cfg.Storage.Type = "file"
		cfg.Storage.Path = statePath
	}
	if dryRun {
		cfg.Notify.DryRun = true
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
}
