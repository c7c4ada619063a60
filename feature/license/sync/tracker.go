package sync

import (
	"context"
	"time"

	"license-manager/feature/license/store"

	"go.uber.org/zap"
)

// StatusTracker drives the per-external-record sync state machine:
// pending -> synced on a successful write, pending/synced -> failed on that
// record's own write failure. Failed records remain selectable by the
// needs-sync query, so retry is implicit on the next run.
type StatusTracker struct {
	external store.ExternalStore
	internal store.InternalStore
	logger   *zap.Logger
}

// NewStatusTracker creates a tracker over both stores.
func NewStatusTracker(external store.ExternalStore, internal store.InternalStore, logger *zap.Logger) *StatusTracker {
	return &StatusTracker{external: external, internal: internal, logger: logger}
}

// Synced records a successful write: the external record moves to synced
// with last_synced_at set and sync_error cleared, and the internal mirror
// bookkeeping follows. internalID may be zero for create flows where the
// internal row was just written with its bookkeeping inline.
func (t *StatusTracker) Synced(ctx context.Context, externalID, internalID uint, ts time.Time) {
	if err := t.external.MarkSynced(ctx, externalID, ts); err != nil {
		t.logger.Warn("Failed to mark external record synced",
			zap.Uint("external_id", externalID), zap.Error(err))
	}
	if internalID == 0 {
		return
	}
	if err := t.internal.MarkSynced(ctx, internalID, ts); err != nil {
		t.logger.Warn("Failed to mark internal record synced",
			zap.Uint("internal_id", internalID), zap.Error(err))
	}
}

// Failed records one item's write failure: sync_error is set and the record
// returns to the needs-sync pool. last_synced_at is left untouched so the
// last good sync stays visible.
func (t *StatusTracker) Failed(ctx context.Context, externalID, internalID uint, errMsg string) {
	if externalID != 0 {
		if err := t.external.MarkFailed(ctx, externalID, errMsg); err != nil {
			t.logger.Warn("Failed to mark external record failed",
				zap.Uint("external_id", externalID), zap.Error(err))
		}
	}
	if internalID != 0 {
		if err := t.internal.MarkFailed(ctx, internalID, errMsg); err != nil {
			t.logger.Warn("Failed to mark internal record failed",
				zap.Uint("internal_id", internalID), zap.Error(err))
		}
	}
}
