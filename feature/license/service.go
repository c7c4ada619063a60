package license

import (
	"context"
	"errors"
	"strconv"
	"time"

	"license-manager/feature/license/models"
	"license-manager/feature/license/store"
	"license-manager/feature/license/sync"

	"go.uber.org/zap"
)

// ErrArchivingDisabled is returned by the report endpoints when no archiver
// is configured.
var ErrArchivingDisabled = errors.New("report archiving is disabled")

// Service orchestrates the license feature: reconciliation runs, targeted
// license checks, the external import path and archived report browsing.
type Service struct {
	engine   *sync.Engine
	external store.ExternalStore
	internal store.InternalStore
	archiver *sync.ReportArchiver
	logger   *zap.Logger
}

// NewService creates a new license service. archiver may be nil when report
// archiving is disabled.
func NewService(engine *sync.Engine, external store.ExternalStore, internal store.InternalStore, archiver *sync.ReportArchiver, logger *zap.Logger) *Service {
	return &Service{
		engine:   engine,
		external: external,
		internal: internal,
		archiver: archiver,
		logger:   logger,
	}
}

// RunComprehensiveSync triggers the full two-pass reconciliation.
func (s *Service) RunComprehensiveSync(ctx context.Context) (*sync.Summary, error) {
	return s.engine.RunComprehensiveSync(ctx)
}

// RunLegacySync triggers the single-pass variant for small datasets.
func (s *Service) RunLegacySync(ctx context.Context) (*sync.Summary, error) {
	return s.engine.RunLegacySync(ctx)
}

// LastRun returns the most recent run summary, or nil before any run.
func (s *Service) LastRun() *sync.Summary {
	return s.engine.LastSummary()
}

// ListReports returns the archived run reports.
func (s *Service) ListReports(ctx context.Context) ([]sync.ReportInfo, error) {
	if s.archiver == nil {
		return nil, ErrArchivingDisabled
	}
	return s.archiver.List(ctx)
}

// FetchReport returns the raw JSON of one archived run report.
func (s *Service) FetchReport(ctx context.Context, runID string) ([]byte, error) {
	if s.archiver == nil {
		return nil, ErrArchivingDisabled
	}
	return s.archiver.Fetch(ctx, runID)
}

// PruneReports deletes archived reports older than the retention window and
// returns how many were removed.
func (s *Service) PruneReports(ctx context.Context, olderThan time.Duration) (int, error) {
	if s.archiver == nil {
		return 0, ErrArchivingDisabled
	}
	return s.archiver.Prune(ctx, time.Now().UTC().Add(-olderThan))
}

// ImportExternal upserts a batch of partner records into the mirror table,
// conflict-resolving on app_id. Returns how many records were written after
// deduplication.
func (s *Service) ImportExternal(ctx context.Context, recs []models.ExternalLicense) (int, error) {
	written, err := s.external.UpsertBatch(ctx, recs)
	if err != nil {
		return 0, err
	}
	if written < len(recs) {
		s.logger.Info("Import batch contained duplicate app_ids",
			zap.Int("received", len(recs)), zap.Int("written", written))
	}
	return written, nil
}

// LicenseDetail reports one license's presence on each side and its
// outstanding gap fields, resolved with targeted lookups.
type LicenseDetail struct {
	Identifier      string   `json:"identifier"`
	ExternalPresent bool     `json:"external_present"`
	InternalPresent bool     `json:"internal_present"`
	MatchedBy       string   `json:"matched_by,omitempty"`
	MissingFields   []string `json:"missing_fields"`
	SyncStatus      string   `json:"sync_status,omitempty"`
}

// CheckLicense resolves an identifier (app_id, numeric count_id, or internal
// key) against both stores and reports presence plus the fields a sync run
// would merge. MatchedBy names the lookup that resolved the internal side:
// "appid", "key" or "countid".
func (s *Service) CheckLicense(ctx context.Context, identifier string) (*LicenseDetail, error) {
	detail := &LicenseDetail{Identifier: identifier, MissingFields: []string{}}

	external, err := s.external.FindByAppID(ctx, identifier)
	if err != nil {
		return nil, err
	}
	internal, err := s.internal.FindByAppID(ctx, identifier)
	if err != nil {
		return nil, err
	}
	internalBy := ""
	if internal != nil {
		internalBy = string(sync.MatchByAppID)
	} else {
		if internal, err = s.internal.FindByKey(ctx, identifier); err != nil {
			return nil, err
		}
		if internal != nil {
			internalBy = "key"
		}
	}

	if countid, convErr := strconv.Atoi(identifier); convErr == nil {
		if external == nil {
			if external, err = s.external.FindByCountID(ctx, countid); err != nil {
				return nil, err
			}
		}
		if internal == nil {
			if internal, err = s.internal.FindByCountID(ctx, countid); err != nil {
				return nil, err
			}
			if internal != nil {
				internalBy = string(sync.MatchByCountID)
			}
		}
	}

	detail.ExternalPresent = external != nil
	detail.InternalPresent = internal != nil
	if external != nil {
		detail.SyncStatus = external.SyncStatus
	}
	if external != nil && internal != nil {
		detail.MatchedBy = internalBy
		detail.MissingFields = sync.FieldGaps(internal, external)
		if detail.MissingFields == nil {
			detail.MissingFields = []string{}
		}
	}
	return detail, nil
}
