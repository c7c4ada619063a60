package store_test

import (
	"context"
	"testing"
	"time"

	"license-manager/feature/license/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

// The sqlite-backed tests cover behavior; these pin the SQL shapes the MySQL
// deployment actually runs.

func TestExternalStore_Page_NeedsSyncSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	ext := store.NewExternalStore(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `external_licenses` WHERE sync_status IN \\(\\?,\\?\\)").
		WithArgs("pending", "failed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("SELECT \\* FROM `external_licenses` WHERE sync_status IN \\(\\?,\\?\\) ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "app_id", "sync_status"}).AddRow(1, "a1", "pending"))

	recs, total, err := ext.Page(context.Background(), 1, 10, store.ExternalFilter{NeedsSync: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, recs, 1)
	assert.EqualValues(t, "a1", recs[0].AppID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExternalStore_MarkFailedSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	ext := store.NewExternalStore(db)

	// The column list must not include last_synced_at; a failure keeps the
	// last successful sync timestamp intact.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `external_licenses` SET `sync_error`=\\?,`sync_status`=\\?,`updated_at`=\\? WHERE id = \\?").
		WithArgs("partner rejected", "failed", sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := ext.MarkFailed(context.Background(), 3, "partner rejected")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExternalStore_MarkSyncedSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	ext := store.NewExternalStore(db)

	ts := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `external_licenses` SET `last_synced_at`=\\?,`sync_error`=\\?,`sync_status`=\\?,`updated_at`=\\? WHERE id = \\?").
		WithArgs(ts, "", "synced", sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := ext.MarkSynced(context.Background(), 3, ts)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
