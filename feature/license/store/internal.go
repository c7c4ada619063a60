package store

import (
	"context"
	"fmt"
	"time"

	"license-manager/feature/license/models"

	"gorm.io/gorm"
)

// internalStore implements InternalStore on top of GORM.
type internalStore struct {
	db *gorm.DB
}

// NewInternalStore creates the GORM-backed internal license store.
func NewInternalStore(db *gorm.DB) InternalStore {
	return &internalStore{db: db}
}

func (s *internalStore) Page(ctx context.Context, page, pageSize int) ([]models.InternalLicense, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.InternalLicense{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count internal licenses: %w", err)
	}

	var recs []models.InternalLicense
	err := s.db.WithContext(ctx).
		Order("id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to page internal licenses: %w", err)
	}
	return recs, total, nil
}

func (s *internalStore) FindByKey(ctx context.Context, key string) (*models.InternalLicense, error) {
	if key == "" {
		return nil, nil
	}
	var rec models.InternalLicense
	err := s.db.WithContext(ctx).Where("license_key = ?", key).First(&rec).Error
	return oneOrNil(&rec, err, "internal license by key")
}

func (s *internalStore) FindByAppID(ctx context.Context, appid string) (*models.InternalLicense, error) {
	normalized := models.NormalizeAppID(appid)
	if normalized == "" {
		return nil, nil
	}
	var rec models.InternalLicense
	err := s.db.WithContext(ctx).Where("app_id = ?", normalized).First(&rec).Error
	return oneOrNil(&rec, err, "internal license by app_id")
}

func (s *internalStore) FindByCountID(ctx context.Context, countid int) (*models.InternalLicense, error) {
	if countid == 0 {
		return nil, nil
	}
	var rec models.InternalLicense
	err := s.db.WithContext(ctx).Where("count_id = ?", countid).Order("id DESC").First(&rec).Error
	return oneOrNil(&rec, err, "internal license by count_id")
}

func (s *internalStore) Create(ctx context.Context, rec *models.InternalLicense) error {
	rec.AppID = rec.NormalizedAppID()
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create internal license %q: %w", rec.Key, err)
	}
	return nil
}

func (s *internalStore) Update(ctx context.Context, id uint, patch map[string]any) error {
	result := s.db.WithContext(ctx).Model(&models.InternalLicense{}).Where("id = ?", id).Updates(patch)
	if result.Error != nil {
		return fmt.Errorf("failed to update internal license %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("internal license %d not found", id)
	}
	return nil
}

func (s *internalStore) MarkSynced(ctx context.Context, id uint, ts time.Time) error {
	return s.Update(ctx, id, map[string]any{
		"external_sync_status": models.SyncStatusSynced,
		"last_external_sync":   ts,
	})
}

func (s *internalStore) MarkFailed(ctx context.Context, id uint, errMsg string) error {
	_ = errMsg // failure detail lives on the external record
	return s.Update(ctx, id, map[string]any{
		"external_sync_status": models.SyncStatusFailed,
	})
}
