package store

import (
	"context"
	"time"

	"license-manager/feature/license/models"
)

// ExternalFilter narrows external store pages.
type ExternalFilter struct {
	// NeedsSync selects records whose sync status is pending or failed.
	// Failed records stay selectable so retry is implicit on the next run.
	NeedsSync bool
}

// ExternalStore provides paginated reads and keyed writes against the
// mirrored partner license table. Page numbers are 1-based; an empty slice
// signals the end of the table.
type ExternalStore interface {
	Page(ctx context.Context, page, pageSize int, filter ExternalFilter) ([]models.ExternalLicense, int64, error)
	FindByAppID(ctx context.Context, appid string) (*models.ExternalLicense, error)
	FindByCountID(ctx context.Context, countid int) (*models.ExternalLicense, error)
	FindByEmail(ctx context.Context, email string) (*models.ExternalLicense, error)

	// Upsert writes one record, conflict-resolving on app_id.
	Upsert(ctx context.Context, rec *models.ExternalLicense) error
	// UpsertBatch writes many records in one multi-row statement.
	// Implementations must deduplicate by app_id first: a multi-row insert
	// with a repeated conflict key is not a well-defined operation.
	UpsertBatch(ctx context.Context, recs []models.ExternalLicense) (int, error)
	Update(ctx context.Context, id uint, patch map[string]any) error

	MarkSynced(ctx context.Context, id uint, ts time.Time) error
	MarkFailed(ctx context.Context, id uint, errMsg string) error
}

// InternalStore provides paginated reads and keyed writes against the
// internally-owned license table. The sync engine creates and updates rows
// here; it never deletes them.
type InternalStore interface {
	Page(ctx context.Context, page, pageSize int) ([]models.InternalLicense, int64, error)
	FindByKey(ctx context.Context, key string) (*models.InternalLicense, error)
	FindByAppID(ctx context.Context, appid string) (*models.InternalLicense, error)
	FindByCountID(ctx context.Context, countid int) (*models.InternalLicense, error)

	Create(ctx context.Context, rec *models.InternalLicense) error
	Update(ctx context.Context, id uint, patch map[string]any) error

	MarkSynced(ctx context.Context, id uint, ts time.Time) error
	MarkFailed(ctx context.Context, id uint, errMsg string) error
}
