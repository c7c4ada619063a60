package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	return db
}

func TestGetTableColumns(t *testing.T) {
	db := setupMemoryDB(t)

	err := db.Exec("CREATE TABLE licenses (id INTEGER PRIMARY KEY, app_id TEXT, note TEXT)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "licenses")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}
	assert.Equal(t, "integer", colMap["id"])
	assert.Equal(t, "text", colMap["app_id"])

	// PRAGMA table_info returns an empty result for a missing table.
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestVerifyLicenseSchema(t *testing.T) {
	t.Run("Missing Tables", func(t *testing.T) {
		db := setupMemoryDB(t)
		err := VerifyLicenseSchema(db)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("Missing Column", func(t *testing.T) {
		db := setupMemoryDB(t)
		require.NoError(t, db.Exec("CREATE TABLE external_licenses (id INTEGER PRIMARY KEY, app_id TEXT, count_id INTEGER, sync_status TEXT)").Error)
		require.NoError(t, db.Exec("CREATE TABLE internal_licenses (id INTEGER PRIMARY KEY, license_key TEXT, app_id TEXT)").Error)

		err := VerifyLicenseSchema(db)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "internal_licenses")
	})

	t.Run("Complete Schema", func(t *testing.T) {
		db := setupMemoryDB(t)
		require.NoError(t, db.Exec("CREATE TABLE external_licenses (id INTEGER PRIMARY KEY, app_id TEXT, count_id INTEGER, sync_status TEXT)").Error)
		require.NoError(t, db.Exec("CREATE TABLE internal_licenses (id INTEGER PRIMARY KEY, license_key TEXT, app_id TEXT, count_id INTEGER, external_sync_status TEXT)").Error)

		assert.NoError(t, VerifyLicenseSchema(db))
	})
}
