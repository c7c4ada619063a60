package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"license-manager/core/storage"

	"github.com/minio/minio-go/v7"
)

// ErrReportNotFound is returned by Fetch when no archived report exists for
// the run ID.
var ErrReportNotFound = errors.New("run report not found")

// ReportArchiver persists run summaries to object storage so operators can
// audit past reconciliation runs. Archiving is best effort: a storage outage
// must not fail a completed run.
type ReportArchiver struct {
	client storage.Client
	bucket string
	prefix string
}

// NewReportArchiver creates an archiver writing under prefix (default
// "reports/sync") in the given bucket.
func NewReportArchiver(client storage.Client, bucket, prefix string) *ReportArchiver {
	if prefix == "" {
		prefix = "reports/sync"
	}
	return &ReportArchiver{client: client, bucket: bucket, prefix: prefix}
}

// Archive uploads the summary as JSON keyed by run ID and returns the object
// name written.
func (a *ReportArchiver) Archive(ctx context.Context, summary *Summary) (string, error) {
	type archivedReport struct {
		*Summary
		DurationHuman string    `json:"duration_human"`
		ArchivedAt    time.Time `json:"archived_at"`
	}

	data, err := json.MarshalIndent(archivedReport{
		Summary:       summary,
		DurationHuman: summary.Duration.String(),
		ArchivedAt:    time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run report: %w", err)
	}

	objectName := a.objectName(summary.RunID)
	_, err = a.client.PutObject(ctx, a.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to upload run report %s: %w", objectName, err)
	}
	return objectName, nil
}

// ReportInfo describes one archived run report.
type ReportInfo struct {
	RunID      string    `json:"run_id"`
	Object     string    `json:"object"`
	Size       int64     `json:"size"`
	ArchivedAt time.Time `json:"archived_at"`
}

// List returns the archived run reports, newest last (object-store listing
// order is lexical by run ID).
func (a *ReportArchiver) List(ctx context.Context) ([]ReportInfo, error) {
	reports := []ReportInfo{}
	objects := a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    a.prefix + "/",
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list run reports: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		reports = append(reports, ReportInfo{
			RunID:      strings.TrimSuffix(path.Base(obj.Key), ".json"),
			Object:     obj.Key,
			Size:       obj.Size,
			ArchivedAt: obj.LastModified,
		})
	}
	return reports, nil
}

// Fetch returns the raw JSON of one archived run report.
func (a *ReportArchiver) Fetch(ctx context.Context, runID string) ([]byte, error) {
	objectName := a.objectName(runID)
	rc, err := a.client.GetObject(ctx, a.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open run report %s: %w", objectName, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		// minio surfaces missing objects on first read, not on open.
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to read run report %s: %w", objectName, err)
	}
	return data, nil
}

// Prune deletes archived reports older than the cutoff and returns how many
// were removed.
func (a *ReportArchiver) Prune(ctx context.Context, before time.Time) (int, error) {
	reports, err := a.List(ctx)
	if err != nil {
		return 0, err
	}
	var stale []ReportInfo
	for _, r := range reports {
		if r.ArchivedAt.Before(before) {
			stale = append(stale, r)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(stale))
	for _, r := range stale {
		objectsCh <- minio.ObjectInfo{Key: r.Object}
	}
	close(objectsCh)

	removed := len(stale)
	for rerr := range a.client.RemoveObjects(ctx, a.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			removed--
		}
	}
	if removed < len(stale) {
		return removed, fmt.Errorf("failed to remove %d of %d run reports", len(stale)-removed, len(stale))
	}
	return removed, nil
}

func (a *ReportArchiver) objectName(runID string) string {
	return fmt.Sprintf("%s/%s.json", a.prefix, runID)
}
