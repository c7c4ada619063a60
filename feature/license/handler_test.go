package license_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"license-manager/core/database"
	"license-manager/core/storage/mocks"
	"license-manager/feature/license"
	"license-manager/feature/license/models"
	"license-manager/feature/license/store"
	licsync "license-manager/feature/license/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	return setupAppWithArchiver(t, nil)
}

func setupAppWithArchiver(t *testing.T, archiver *licsync.ReportArchiver) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ExternalLicense{}, &models.InternalLicense{}))

	logger := zap.NewNop()
	external := store.NewExternalStore(db)
	internal := store.NewInternalStore(db)
	engine := licsync.NewEngine(external, internal, archiver, logger, licsync.Options{})

	app := fiber.New()
	feature := license.NewFeature(engine, external, internal, archiver, logger)
	require.NoError(t, feature.Load(app))

	return app, db
}

func TestHandleSyncStatus_NoRunYet(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/sync/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleImport(t *testing.T) {
	app, db := setupApp(t)

	t.Run("Upserts And Reports Dedupe", func(t *testing.T) {
		body := `[{"app_id":"A1","dba":"Acme"},{"app_id":"a1","dba":"Duplicate"},{"app_id":"b2"}]`
		req := httptest.NewRequest("POST", "/licenses/import", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var result map[string]int
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, 3, result["received"])
		assert.Equal(t, 2, result["written"])

		var count int64
		require.NoError(t, db.Model(&models.ExternalLicense{}).Count(&count).Error)
		assert.EqualValues(t, 2, count)
	})

	t.Run("Invalid Body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/licenses/import", strings.NewReader("not json"))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandleRunComprehensive(t *testing.T) {
	app, db := setupApp(t)

	require.NoError(t, db.Create(&models.ExternalLicense{AppID: "a1", DBA: "Acme", SyncStatus: models.SyncStatusPending}).Error)

	req := httptest.NewRequest("POST", "/sync/run", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary licsync.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.CreatedCount)
	assert.Empty(t, summary.Errors)

	// The run is now visible on the status endpoint.
	statusResp, err := app.Test(httptest.NewRequest("GET", "/sync/status", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, statusResp.StatusCode)

	var last licsync.Summary
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&last))
	assert.Equal(t, summary.RunID, last.RunID)
}

func TestHandleRunLegacy(t *testing.T) {
	app, db := setupApp(t)

	require.NoError(t, db.Create(&models.ExternalLicense{AppID: "l1", SyncStatus: models.SyncStatusPending}).Error)

	req := httptest.NewRequest("POST", "/sync/legacy", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary licsync.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 1, summary.CreatedCount)
}

func TestHandleCheckLicense(t *testing.T) {
	app, db := setupApp(t)

	require.NoError(t, db.Create(&models.ExternalLicense{AppID: "a1", DBA: "Acme", CountID: 42, SyncStatus: models.SyncStatusPending}).Error)
	require.NoError(t, db.Create(&models.InternalLicense{Key: "K-1", AppID: "a1", CountID: 42}).Error)

	t.Run("Matched Pair With Gaps", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/license/a1", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var detail license.LicenseDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
		assert.True(t, detail.ExternalPresent)
		assert.True(t, detail.InternalPresent)
		assert.Equal(t, "appid", detail.MatchedBy)
		assert.Contains(t, detail.MissingFields, "dba")
		assert.Equal(t, models.SyncStatusPending, detail.SyncStatus)
	})

	t.Run("Numeric Identifier Falls Back To CountID", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/license/42", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var detail license.LicenseDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
		assert.True(t, detail.ExternalPresent)
		assert.True(t, detail.InternalPresent)
		assert.Equal(t, "countid", detail.MatchedBy)
	})

	t.Run("Key Lookup Reports Key Match", func(t *testing.T) {
		// The external side resolves by app_id, the internal side only by
		// its license key.
		require.NoError(t, db.Create(&models.ExternalLicense{AppID: "ext-9", SyncStatus: models.SyncStatusPending}).Error)
		require.NoError(t, db.Create(&models.InternalLicense{Key: "EXT-9", AppID: "zz9"}).Error)

		resp, err := app.Test(httptest.NewRequest("GET", "/license/EXT-9", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var detail license.LicenseDetail
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
		assert.True(t, detail.ExternalPresent)
		assert.True(t, detail.InternalPresent)
		assert.Equal(t, "key", detail.MatchedBy)
	})

	t.Run("Unknown Identifier", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/license/missing", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var detail license.LicenseDetail
		require.NoError(t, json.Unmarshal(body, &detail))
		assert.False(t, detail.ExternalPresent)
		assert.False(t, detail.InternalPresent)
		assert.Empty(t, detail.MissingFields)
	})
}

func TestHandleReports(t *testing.T) {
	listing := func(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
		ch := make(chan minio.ObjectInfo, len(infos))
		for _, info := range infos {
			ch <- info
		}
		close(ch)
		return ch
	}

	t.Run("List", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("ListObjects", mock.Anything, "license-reports", mock.Anything).
			Return(listing(
				minio.ObjectInfo{Key: "reports/sync/run-a.json", Size: 120, LastModified: time.Now().UTC()},
			))
		archiver := licsync.NewReportArchiver(mockClient, "license-reports", "")
		app, _ := setupAppWithArchiver(t, archiver)

		resp, err := app.Test(httptest.NewRequest("GET", "/sync/reports", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var reports []licsync.ReportInfo
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&reports))
		require.Len(t, reports, 1)
		assert.Equal(t, "run-a", reports[0].RunID)
	})

	t.Run("Fetch", func(t *testing.T) {
		body := `{"run_id":"run-a"}`
		mockClient := new(mocks.Client)
		mockClient.On("GetObject", mock.Anything, "license-reports", "reports/sync/run-a.json", mock.Anything).
			Return(io.NopCloser(strings.NewReader(body)), nil)
		archiver := licsync.NewReportArchiver(mockClient, "license-reports", "")
		app, _ := setupAppWithArchiver(t, archiver)

		resp, err := app.Test(httptest.NewRequest("GET", "/sync/reports/run-a", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, body, string(data))
	})

	t.Run("Prune", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("ListObjects", mock.Anything, "license-reports", mock.Anything).
			Return(listing(
				minio.ObjectInfo{Key: "reports/sync/run-old.json", LastModified: time.Now().UTC().AddDate(0, -3, 0)},
				minio.ObjectInfo{Key: "reports/sync/run-new.json", LastModified: time.Now().UTC()},
			))
		mockClient.On("RemoveObjects", mock.Anything, "license-reports", mock.Anything, mock.Anything).
			Return(nil)
		archiver := licsync.NewReportArchiver(mockClient, "license-reports", "")
		app, _ := setupAppWithArchiver(t, archiver)

		resp, err := app.Test(httptest.NewRequest("DELETE", "/sync/reports?days=30", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var result map[string]int
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, 1, result["removed"])
	})

	t.Run("Archiving Disabled", func(t *testing.T) {
		app, _ := setupApp(t)

		resp, err := app.Test(httptest.NewRequest("GET", "/sync/reports", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}
