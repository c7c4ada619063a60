package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"license-manager/feature/license/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// externalStore implements ExternalStore on top of GORM.
type externalStore struct {
	db *gorm.DB
}

// NewExternalStore creates the GORM-backed external license store.
func NewExternalStore(db *gorm.DB) ExternalStore {
	return &externalStore{db: db}
}

func (s *externalStore) Page(ctx context.Context, page, pageSize int, filter ExternalFilter) ([]models.ExternalLicense, int64, error) {
	if page < 1 {
		page = 1
	}

	q := s.db.WithContext(ctx).Model(&models.ExternalLicense{})
	if filter.NeedsSync {
		q = q.Where("sync_status IN ?", []string{models.SyncStatusPending, models.SyncStatusFailed})
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count external licenses: %w", err)
	}

	var recs []models.ExternalLicense
	err := q.Order("id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to page external licenses: %w", err)
	}
	return recs, total, nil
}

func (s *externalStore) FindByAppID(ctx context.Context, appid string) (*models.ExternalLicense, error) {
	normalized := models.NormalizeAppID(appid)
	if normalized == "" {
		return nil, nil
	}
	var rec models.ExternalLicense
	err := s.db.WithContext(ctx).Where("app_id = ?", normalized).First(&rec).Error
	return oneOrNil(&rec, err, "external license by app_id")
}

func (s *externalStore) FindByCountID(ctx context.Context, countid int) (*models.ExternalLicense, error) {
	if countid == 0 {
		return nil, nil
	}
	var rec models.ExternalLicense
	// count_id is a reused legacy key; take the newest record when ambiguous.
	err := s.db.WithContext(ctx).Where("count_id = ?", countid).Order("id DESC").First(&rec).Error
	return oneOrNil(&rec, err, "external license by count_id")
}

func (s *externalStore) FindByEmail(ctx context.Context, email string) (*models.ExternalLicense, error) {
	if email == "" {
		return nil, nil
	}
	var rec models.ExternalLicense
	err := s.db.WithContext(ctx).Where("email_license = ?", email).First(&rec).Error
	return oneOrNil(&rec, err, "external license by email")
}

// upsertAssignments lists the columns refreshed when an import hits an
// existing app_id. Sync bookkeeping columns are deliberately absent: only the
// status tracker writes those.
var upsertAssignments = []string{
	"count_id", "email_license", "dba", "zip", "mid", "license_type",
	"status", "activate_date", "coming_expired", "monthly_fee",
	"sms_balance", "package", "note", "sendbat_workspace", "last_active",
	"updated_at",
}

func (s *externalStore) Upsert(ctx context.Context, rec *models.ExternalLicense) error {
	rec.AppID = models.AppID(rec.NormalizedAppID())
	if rec.SyncStatus == "" {
		rec.SyncStatus = models.SyncStatusPending
	}
	tx := s.db.WithContext(ctx)
	if rec.AppID != "" {
		// Records without an app_id store NULL and cannot conflict, so
		// they insert as new rows.
		tx = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "app_id"}},
			DoUpdates: clause.AssignmentColumns(upsertAssignments),
		})
	}
	if err := tx.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to upsert external license %q: %w", rec.AppID, err)
	}
	return nil
}

func (s *externalStore) UpsertBatch(ctx context.Context, recs []models.ExternalLicense) (int, error) {
	deduped := DedupeByAppID(recs)
	if len(deduped) == 0 {
		return 0, nil
	}
	keyed := make([]models.ExternalLicense, 0, len(deduped))
	var unkeyed []models.ExternalLicense
	for i := range deduped {
		if deduped[i].SyncStatus == "" {
			deduped[i].SyncStatus = models.SyncStatusPending
		}
		if deduped[i].AppID == "" {
			unkeyed = append(unkeyed, deduped[i])
		} else {
			keyed = append(keyed, deduped[i])
		}
	}
	if len(keyed) > 0 {
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "app_id"}},
			DoUpdates: clause.AssignmentColumns(upsertAssignments),
		}).CreateInBatches(keyed, 100).Error
		if err != nil {
			return 0, fmt.Errorf("failed to batch upsert external licenses: %w", err)
		}
	}
	if len(unkeyed) > 0 {
		if err := s.db.WithContext(ctx).CreateInBatches(unkeyed, 100).Error; err != nil {
			return len(keyed), fmt.Errorf("failed to insert external licenses without app_id: %w", err)
		}
	}
	return len(deduped), nil
}

func (s *externalStore) Update(ctx context.Context, id uint, patch map[string]any) error {
	result := s.db.WithContext(ctx).Model(&models.ExternalLicense{}).Where("id = ?", id).Updates(patch)
	if result.Error != nil {
		return fmt.Errorf("failed to update external license %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("external license %d not found", id)
	}
	return nil
}

func (s *externalStore) MarkSynced(ctx context.Context, id uint, ts time.Time) error {
	return s.Update(ctx, id, map[string]any{
		"sync_status":    models.SyncStatusSynced,
		"last_synced_at": ts,
		"sync_error":     "",
	})
}

// MarkFailed records the failure but leaves last_synced_at untouched so the
// last successful sync remains visible.
func (s *externalStore) MarkFailed(ctx context.Context, id uint, errMsg string) error {
	return s.Update(ctx, id, map[string]any{
		"sync_status": models.SyncStatusFailed,
		"sync_error":  errMsg,
	})
}

// DedupeByAppID keeps the first record for each normalized app_id.
// Records with no app_id pass through untouched; they cannot collide on the
// conflict target.
func DedupeByAppID(recs []models.ExternalLicense) []models.ExternalLicense {
	seen := make(map[string]struct{}, len(recs))
	out := make([]models.ExternalLicense, 0, len(recs))
	for _, rec := range recs {
		key := rec.NormalizedAppID()
		if key == "" {
			out = append(out, rec)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rec.AppID = models.AppID(key)
		out = append(out, rec)
	}
	return out
}

// oneOrNil maps gorm's not-found to a nil record so callers can treat absence
// as a normal lookup miss instead of an error.
func oneOrNil[T any](rec *T, err error, what string) (*T, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find %s: %w", what, err)
	}
	return rec, nil
}
