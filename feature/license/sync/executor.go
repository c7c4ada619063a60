package sync

import (
	"context"
	"sync"
	"time"

	"license-manager/feature/license/models"
	"license-manager/feature/license/store"

	"go.uber.org/zap"
)

// Executor applies a planned operation list in fixed-size batches.
//
// Failure isolation policy: every item runs in its own write, so one item's
// failure never rolls back its siblings. A partner-side data problem on one
// license must not block the rest of a batch.
type Executor struct {
	internal store.InternalStore
	tracker  *StatusTracker
	logger   *zap.Logger
	opts     Options
}

// NewExecutor creates a batch executor.
func NewExecutor(internal store.InternalStore, tracker *StatusTracker, logger *zap.Logger, opts Options) *Executor {
	return &Executor{
		internal: internal,
		tracker:  tracker,
		logger:   logger,
		opts:     opts.normalized(),
	}
}

// execResult is the outcome of one applied operation, threaded back to the
// accumulator instead of mutating shared state from workers.
type execResult struct {
	op  Operation
	err error
}

// Execute applies all operations and folds the per-item outcomes into the
// summary. Per-item failures are recorded and skipped over; nothing here
// aborts remaining items or later batches.
func (x *Executor) Execute(ctx context.Context, ops []Operation, summary *Summary) {
	for start := 0; start < len(ops); start += x.opts.BatchSize {
		end := start + x.opts.BatchSize
		if end > len(ops) {
			end = len(ops)
		}
		batch := DedupeOperations(ops[start:end])
		for _, res := range x.runBatch(ctx, batch) {
			x.accumulate(ctx, res, summary)
		}
	}
}

// runBatch issues the batch's writes concurrently and awaits them all. The
// planner emits at most one operation per record per run, so items in a batch
// never target the same row.
func (x *Executor) runBatch(ctx context.Context, batch []Operation) []execResult {
	workers := x.opts.BatchWorkers
	if workers > len(batch) {
		workers = len(batch)
	}
	if workers < 1 {
		return nil
	}

	opsCh := make(chan Operation, len(batch))
	resCh := make(chan execResult, len(batch))
	for _, op := range batch {
		opsCh <- op
	}
	close(opsCh)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for op := range opsCh {
				resCh <- execResult{op: op, err: x.apply(ctx, op)}
			}
		}()
	}
	wg.Wait()
	close(resCh)

	results := make([]execResult, 0, len(batch))
	for res := range resCh {
		results = append(results, res)
	}
	return results
}

// apply performs one operation's write plus its status bookkeeping.
func (x *Executor) apply(ctx context.Context, op Operation) error {
	now := time.Now().UTC()
	switch op.Type {
	case OpUpdate:
		patch := BuildPatch(op, now)
		if err := x.internal.Update(ctx, op.Internal.ID, patch); err != nil {
			return err
		}
		x.tracker.Synced(ctx, op.External.ID, 0, now)
		return nil
	case OpCreate:
		rec := newInternalFromExternal(op.External, now)
		if err := x.internal.Create(ctx, rec); err != nil {
			return err
		}
		x.tracker.Synced(ctx, op.External.ID, 0, now)
		return nil
	default:
		return nil
	}
}

// accumulate folds one result into the summary and drives the failure side
// of the status tracker.
func (x *Executor) accumulate(ctx context.Context, res execResult, summary *Summary) {
	if res.err != nil {
		summary.Errors = append(summary.Errors, ItemError{
			Operation: string(res.op.Type),
			Ref:       res.op.Ref(),
			Message:   res.err.Error(),
		})
		var externalID, internalID uint
		if res.op.External != nil {
			externalID = res.op.External.ID
		}
		if res.op.Internal != nil {
			internalID = res.op.Internal.ID
		}
		x.tracker.Failed(ctx, externalID, internalID, res.err.Error())
		x.logger.Warn("Sync operation failed",
			zap.String("operation", string(res.op.Type)),
			zap.String("ref", res.op.Ref()),
			zap.Error(res.err))
		return
	}

	switch res.op.Type {
	case OpUpdate:
		summary.UpdatedCount++
	case OpCreate:
		summary.CreatedCount++
	}
	summary.SyncedCount++
}

// DedupeOperations keeps the first operation per external app_id inside one
// batch. Two operations sharing a conflict key inside one write step is not a
// well-defined store operation, so the duplicate is dropped before any write
// is attempted. Operations without an external app_id pass through.
func DedupeOperations(ops []Operation) []Operation {
	seen := make(map[string]struct{}, len(ops))
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		key := ""
		if op.External != nil {
			key = op.External.NormalizedAppID()
		}
		if key == "" {
			out = append(out, op)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, op)
	}
	return out
}

// newInternalFromExternal synthesizes a full internal record for an
// external-only license, key included.
func newInternalFromExternal(e *models.ExternalLicense, now time.Time) *models.InternalLicense {
	status := models.StatusPending
	if e.HasStatus() {
		status = externalStatusToInternal(e)
	}
	return &models.InternalLicense{
		Key:          GenerateKey(string(e.AppID), e.CountID),
		DBA:          e.DBA,
		Zip:          e.Zip,
		StartsAt:     e.ActivateDate,
		Status:       status,
		LastPayment:  e.MonthlyFee,
		LastActive:   e.LastActive,
		SMSPurchased: e.SMSBalance,
		SMSBalance:   e.SMSBalance,
		Notes:        e.Note,

		AppID:            e.NormalizedAppID(),
		CountID:          e.CountID,
		MID:              e.MID,
		LicenseType:      e.LicenseType,
		PackageData:      e.Package,
		SendbatWorkspace: e.SendbatWorkspace,
		ComingExpired:    e.ComingExpired,

		ExternalSyncStatus: models.SyncStatusSynced,
		LastExternalSync:   &now,
	}
}
