package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"license-manager/feature/license/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Engine is the license reconciliation engine. One engine serves the whole
// process; concurrent triggers of the same run collapse onto a single
// in-flight reconciliation via singleflight, so a run is never parallelized
// against itself.
type Engine struct {
	external store.ExternalStore
	internal store.InternalStore
	tracker  *StatusTracker
	executor *Executor
	archiver *ReportArchiver
	logger   *zap.Logger
	opts     Options

	mu gosync.Mutex // guards last
	g  singleflight.Group

	last *Summary
}

// NewEngine wires the engine from its collaborators. archiver may be nil when
// report archiving is disabled.
func NewEngine(external store.ExternalStore, internal store.InternalStore, archiver *ReportArchiver, logger *zap.Logger, opts Options) *Engine {
	opts = opts.normalized()
	tracker := NewStatusTracker(external, internal, logger)
	return &Engine{
		external: external,
		internal: internal,
		tracker:  tracker,
		executor: NewExecutor(internal, tracker, logger, opts),
		archiver: archiver,
		logger:   logger,
		opts:     opts,
	}
}

// RunComprehensiveSync performs the full two-pass reconciliation: build the
// external lookup index, plan update operations from the internal gap scan
// and create operations from the external orphan scan, then execute the plan
// in batches.
//
// Per-item failures land in the summary's error list. Only a wholesale
// planning failure, such as the first external page being unreadable,
// propagates as an error.
func (e *Engine) RunComprehensiveSync(ctx context.Context) (*Summary, error) {
	v, err, _ := e.g.Do("comprehensive", func() (any, error) {
		return e.runComprehensive(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Summary), nil
}

func (e *Engine) runComprehensive(ctx context.Context) (*Summary, error) {
	summary := e.newSummary()
	e.logger.Info("Starting comprehensive license sync", zap.String("run_id", summary.RunID))

	idx, err := BuildLookupIndex(ctx, e.external, e.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build external lookup index: %w", err)
	}
	e.logger.Info("External lookup index built",
		zap.Int("records", idx.Scanned),
		zap.Int("by_appid", len(idx.ByAppID)),
		zap.Int("by_countid", len(idx.ByCountID)))

	plan, err := BuildPlan(ctx, e.internal, e.external, idx, e.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to plan sync operations: %w", err)
	}
	if plan.Truncated {
		summary.Truncated = true
		e.logger.Warn("Pagination safety ceiling reached, reporting partial results",
			zap.Int("max_pages", e.opts.MaxPages),
			zap.Int("max_operations", e.opts.MaxOperations))
	}
	e.logger.Info("Sync plan ready",
		zap.Int("operations", len(plan.Operations)),
		zap.Int("internal_scanned", plan.InternalScanned),
		zap.Int("external_scanned", plan.ExternalScanned))

	if e.opts.DryRun {
		e.tallyPlanned(summary, plan.Operations)
		e.finish(ctx, summary)
		return summary, nil
	}

	e.executor.Execute(ctx, plan.Operations, summary)
	e.finish(ctx, summary)
	return summary, nil
}

// RunLegacySync is the single-pass, non-chunked variant retained for small
// datasets. It walks the external records still needing sync and resolves
// each against the internal store with keyed lookups instead of a resident
// index.
func (e *Engine) RunLegacySync(ctx context.Context) (*Summary, error) {
	v, err, _ := e.g.Do("legacy", func() (any, error) {
		return e.runLegacy(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Summary), nil
}

func (e *Engine) runLegacy(ctx context.Context) (*Summary, error) {
	summary := e.newSummary()
	e.logger.Info("Starting legacy license sync", zap.String("run_id", summary.RunID))

	recs, total, err := e.external.Page(ctx, 1, e.opts.MaxOperations, store.ExternalFilter{NeedsSync: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read external records needing sync: %w", err)
	}
	if int(total) > len(recs) {
		summary.Truncated = true
		e.logger.Warn("Legacy sync capped, use comprehensive sync for datasets this size",
			zap.Int64("needing_sync", total), zap.Int("processed", len(recs)))
	}

	var ops []Operation
	targeted := make(map[uint]struct{}, len(recs))
	for i := range recs {
		external := &recs[i]

		internal, err := e.internal.FindByAppID(ctx, string(external.AppID))
		if err != nil {
			return nil, err
		}
		matchedBy := MatchByAppID
		if internal == nil {
			if internal, err = e.internal.FindByCountID(ctx, external.CountID); err != nil {
				return nil, err
			}
			matchedBy = MatchByCountID
		}

		if internal == nil {
			ops = append(ops, Operation{
				Type:     OpCreate,
				External: external,
				Reason:   CreateReasonNoMatch,
			})
			continue
		}

		fields := FieldGaps(internal, external)
		if len(fields) == 0 {
			// Nothing to merge; the record is already consistent.
			if !e.opts.DryRun {
				e.tracker.Synced(ctx, external.ID, 0, time.Now().UTC())
			}
			summary.SyncedCount++
			continue
		}
		if _, claimed := targeted[internal.ID]; claimed {
			// A second external record resolved to the same internal row,
			// one matching by appid and one by countid. Each internal row
			// takes at most one write per run; this record stays in the
			// needs-sync pool and is picked up on the next run.
			e.logger.Debug("Internal license already targeted this run, deferring",
				zap.Uint("internal_id", internal.ID),
				zap.String("appid", string(external.AppID)))
			continue
		}
		targeted[internal.ID] = struct{}{}
		ops = append(ops, Operation{
			Type:      OpUpdate,
			Internal:  internal,
			External:  external,
			Fields:    fields,
			MatchedBy: matchedBy,
		})
	}

	if e.opts.DryRun {
		e.tallyPlanned(summary, ops)
		e.finish(ctx, summary)
		return summary, nil
	}

	e.executor.Execute(ctx, ops, summary)
	e.finish(ctx, summary)
	return summary, nil
}

// LastSummary returns the most recent run's summary, or nil before any run.
func (e *Engine) LastSummary() *Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Engine) newSummary() *Summary {
	return &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Errors:    []ItemError{},
		DryRun:    e.opts.DryRun,
	}
}

// tallyPlanned folds a plan into the summary without executing it. The
// counts then describe what a real run would write.
func (e *Engine) tallyPlanned(summary *Summary, ops []Operation) {
	for _, op := range ops {
		switch op.Type {
		case OpUpdate:
			summary.UpdatedCount++
		case OpCreate:
			summary.CreatedCount++
		}
	}
	e.logger.Info("Dry run, no writes performed", zap.Int("planned", len(ops)))
}

// finish closes out a run: duration, last-summary bookkeeping, report
// archiving and the final log line.
func (e *Engine) finish(ctx context.Context, summary *Summary) {
	summary.Duration = time.Since(summary.StartedAt)

	e.mu.Lock()
	e.last = summary
	e.mu.Unlock()

	if e.archiver != nil && !summary.DryRun {
		if object, err := e.archiver.Archive(ctx, summary); err != nil {
			e.logger.Warn("Failed to archive run report", zap.Error(err))
		} else {
			e.logger.Info("Run report archived", zap.String("object", object))
		}
	}

	e.logger.Info("License sync finished",
		zap.String("run_id", summary.RunID),
		zap.Int("synced", summary.SyncedCount),
		zap.Int("updated", summary.UpdatedCount),
		zap.Int("created", summary.CreatedCount),
		zap.Int("errors", len(summary.Errors)),
		zap.Bool("truncated", summary.Truncated),
		zap.Duration("duration", summary.Duration))
}
