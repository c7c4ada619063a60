package sync_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"license-manager/core/storage/mocks"
	"license-manager/feature/license/sync"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReportArchiver_Archive(t *testing.T) {
	ctx := context.Background()
	summary := &sync.Summary{
		RunID:       "run-1",
		SyncedCount: 3,
		StartedAt:   time.Now().UTC(),
		Duration:    2 * time.Second,
	}

	t.Run("Uploads Under Run ID", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("PutObject", mock.Anything, "license-reports", "reports/sync/run-1.json",
			mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, nil)

		archiver := sync.NewReportArchiver(mockClient, "license-reports", "")

		object, err := archiver.Archive(ctx, summary)
		require.NoError(t, err)
		assert.Equal(t, "reports/sync/run-1.json", object)
		mockClient.AssertExpectations(t)
	})

	t.Run("Custom Prefix", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("PutObject", mock.Anything, "license-reports", "audit/run-1.json",
			mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, nil)

		archiver := sync.NewReportArchiver(mockClient, "license-reports", "audit")

		object, err := archiver.Archive(ctx, summary)
		require.NoError(t, err)
		assert.Equal(t, "audit/run-1.json", object)
	})

	t.Run("Upload Failure", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("PutObject", mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, errors.New("storage unavailable"))

		archiver := sync.NewReportArchiver(mockClient, "license-reports", "")

		_, err := archiver.Archive(ctx, summary)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "storage unavailable")
	})
}

func reportChan(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func TestReportArchiver_List(t *testing.T) {
	ctx := context.Background()
	old := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	mockClient := new(mocks.Client)
	mockClient.On("ListObjects", mock.Anything, "license-reports", mock.Anything).
		Return(reportChan(
			minio.ObjectInfo{Key: "reports/sync/run-a.json", Size: 120, LastModified: old},
			minio.ObjectInfo{Key: "reports/sync/run-b.json", Size: 130, LastModified: recent},
			minio.ObjectInfo{Key: "reports/sync/notes.txt"},
		))

	archiver := sync.NewReportArchiver(mockClient, "license-reports", "")

	reports, err := archiver.List(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "run-a", reports[0].RunID)
	assert.Equal(t, "reports/sync/run-a.json", reports[0].Object)
	assert.Equal(t, old, reports[0].ArchivedAt)
	assert.Equal(t, "run-b", reports[1].RunID)
}

func TestReportArchiver_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns Raw JSON", func(t *testing.T) {
		body := `{"run_id":"run-a","synced_count":3}`
		mockClient := new(mocks.Client)
		mockClient.On("GetObject", mock.Anything, "license-reports", "reports/sync/run-a.json", mock.Anything).
			Return(io.NopCloser(strings.NewReader(body)), nil)

		archiver := sync.NewReportArchiver(mockClient, "license-reports", "")

		data, err := archiver.Fetch(ctx, "run-a")
		require.NoError(t, err)
		assert.JSONEq(t, body, string(data))
	})

	t.Run("Open Failure", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("GetObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("storage unavailable"))

		archiver := sync.NewReportArchiver(mockClient, "license-reports", "")

		_, err := archiver.Fetch(ctx, "run-a")
		assert.Error(t, err)
	})
}

func TestReportArchiver_Prune(t *testing.T) {
	ctx := context.Background()
	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	mockClient := new(mocks.Client)
	mockClient.On("ListObjects", mock.Anything, "license-reports", mock.Anything).
		Return(reportChan(
			minio.ObjectInfo{Key: "reports/sync/run-old.json", LastModified: cutoff.AddDate(0, -2, 0)},
			minio.ObjectInfo{Key: "reports/sync/run-new.json", LastModified: cutoff.AddDate(0, 0, 3)},
		))
	mockClient.On("RemoveObjects", mock.Anything, "license-reports", mock.Anything, mock.Anything).
		Return(nil)

	archiver := sync.NewReportArchiver(mockClient, "license-reports", "")

	removed, err := archiver.Prune(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	mockClient.AssertExpectations(t)
}
