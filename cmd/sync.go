package cmd

import (
	"context"
	"fmt"

	"license-manager/core/config"
	"license-manager/core/database"
	"license-manager/core/logger"
	"license-manager/core/storage"
	"license-manager/feature/license/store"
	licsync "license-manager/feature/license/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for sync commands
	maxOperations int
	maxPages      int
	dryRun        bool
)

// syncCmd is the parent command for all reconciliation runs.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile internal licenses against the partner mirror",
	Long: `Reconcile the internally-owned license store against the external
partner mirror. Updates stale internal fields and creates internal records
for external licenses that have no match.`,
}

// comprehensiveSyncCmd runs the full two-pass reconciliation.
var comprehensiveSyncCmd = &cobra.Command{
	Use:   "comprehensive",
	Short: "Run the full two-pass reconciliation",
	Long: `Run the full two-pass reconciliation.

Pass one scans every internal license, matches it against the external
mirror and plans field updates. Pass two scans the mirror for licenses
with no internal counterpart and plans creations.

Examples:
  # Full run with configured limits
  sync comprehensive

  # Cap the run at 500 operations
  sync comprehensive --max-operations 500

  # Report what would change without writing anything
  sync comprehensive --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(func(ctx context.Context, e *licsync.Engine) (*licsync.Summary, error) {
			return e.RunComprehensiveSync(ctx)
		})
	},
}

// legacySyncCmd runs the single-pass variant.
var legacySyncCmd = &cobra.Command{
	Use:   "legacy",
	Short: "Run the single-pass reconciliation for small datasets",
	Long: `Run the single-pass reconciliation. Only external records still
waiting for a sync are considered, each resolved with a keyed lookup. Cheaper
than a comprehensive run but blind to internal-side staleness.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(func(ctx context.Context, e *licsync.Engine) (*licsync.Summary, error) {
			return e.RunLegacySync(ctx)
		})
	},
}

func init() {
	syncCmd.AddCommand(comprehensiveSyncCmd)
	syncCmd.AddCommand(legacySyncCmd)

	syncCmd.PersistentFlags().IntVar(&maxOperations, "max-operations", 0, "Override the per-run operation cap (0 = configured value)")
	syncCmd.PersistentFlags().IntVar(&maxPages, "max-pages", 0, "Override the pagination ceiling (0 = configured value)")
	syncCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Plan and report without writing any records")

	RootCmd.AddCommand(syncCmd)
}

func runSync(run func(context.Context, *licsync.Engine) (*licsync.Summary, error)) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.VerifyLicenseSchema(db); err != nil {
		return fmt.Errorf("license schema verification failed: %w", err)
	}

	var archiver *licsync.ReportArchiver
	if cfg.Sync.ArchiveReports {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			return fmt.Errorf("failed to prepare report bucket: %w", err)
		}
		archiver = licsync.NewReportArchiver(client, cfg.Storage.Bucket, cfg.Sync.ReportPrefix)
	}

	opts := cfg.Sync.Options()
	if maxOperations > 0 {
		opts.MaxOperations = maxOperations
	}
	if maxPages > 0 {
		opts.MaxPages = maxPages
	}
	opts.DryRun = dryRun

	engine := licsync.NewEngine(store.NewExternalStore(db), store.NewInternalStore(db), archiver, l, opts)

	l.Info("Starting reconciliation run")
	summary, err := run(ctx, engine)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	printSyncSummary(l, summary)
	if summary.DryRun {
		l.Info("Dry run, no changes were made")
	}
	return nil
}

// printSyncSummary prints a formatted run summary using logger.
func printSyncSummary(l *zap.Logger, s *licsync.Summary) {
	l.Info("Reconciliation report",
		zap.String("run_id", s.RunID),
		zap.Int("synced", s.SyncedCount),
		zap.Int("updated", s.UpdatedCount),
		zap.Int("created", s.CreatedCount),
		zap.Int("errors", len(s.Errors)),
		zap.Bool("truncated", s.Truncated),
		zap.Duration("duration", s.Duration),
	)

	if len(s.Errors) > 0 {
		// Show a sample of item errors (max 5 for logger)
		maxShow := 5
		if len(s.Errors) < maxShow {
			maxShow = len(s.Errors)
		}
		for i := 0; i < maxShow; i++ {
			e := s.Errors[i]
			l.Warn("Item error",
				zap.String("ref", e.Ref),
				zap.String("operation", e.Operation),
				zap.String("error", e.Message),
			)
		}
		if len(s.Errors) > maxShow {
			l.Warn("Additional item errors not shown", zap.Int("count", len(s.Errors)-maxShow))
		}
	}
}
