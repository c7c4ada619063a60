package sync_test

import (
	"context"
	"errors"
	"testing"

	"license-manager/core/database"
	"license-manager/feature/license/models"
	"license-manager/feature/license/store"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupStores opens an in-memory database with both license tables migrated.
func setupStores(t *testing.T) (*gorm.DB, store.ExternalStore, store.InternalStore) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ExternalLicense{}, &models.InternalLicense{}))
	return db, store.NewExternalStore(db), store.NewInternalStore(db)
}

// failingInternalStore rejects creates for one app_id to simulate a per-item
// write failure inside a batch.
type failingInternalStore struct {
	store.InternalStore
	failAppID string
}

func (f *failingInternalStore) Create(ctx context.Context, rec *models.InternalLicense) error {
	if rec.NormalizedAppID() == f.failAppID {
		return errors.New("simulated write failure")
	}
	return f.InternalStore.Create(ctx, rec)
}
