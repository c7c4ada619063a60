package sync_test

import (
	"context"
	"testing"

	"license-manager/feature/license/models"
	"license-manager/feature/license/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLookupIndex(t *testing.T) {
	ctx := context.Background()
	db, ext, _ := setupStores(t)

	require.NoError(t, db.Create(&[]models.ExternalLicense{
		{AppID: "a1", CountID: 10},
		{AppID: "b2", CountID: 0},
		{AppID: "c3", CountID: 30},
	}).Error)

	idx, err := sync.BuildLookupIndex(ctx, ext, sync.Options{ExternalChunkSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Scanned)
	assert.False(t, idx.Truncated)
	assert.Len(t, idx.ByAppID, 3)
	// Records without a count_id only land in the app_id map.
	assert.Len(t, idx.ByCountID, 2)

	rec, ok := idx.ByAppID["a1"]
	require.True(t, ok)
	assert.Equal(t, 10, rec.CountID)
	assert.Same(t, rec, idx.ByCountID[10])
}

func TestBuildLookupIndex_PageCeiling(t *testing.T) {
	ctx := context.Background()
	db, ext, _ := setupStores(t)

	require.NoError(t, db.Create(&[]models.ExternalLicense{
		{AppID: "a1"}, {AppID: "b2"}, {AppID: "c3"},
	}).Error)

	idx, err := sync.BuildLookupIndex(ctx, ext, sync.Options{ExternalChunkSize: 2, MaxPages: 1})
	require.NoError(t, err)

	assert.True(t, idx.Truncated)
	assert.Equal(t, 2, idx.Scanned)
}

func TestLookupIndex_Match(t *testing.T) {
	extA := &models.ExternalLicense{ID: 1, AppID: "a1", CountID: 10}
	idx := &sync.LookupIndex{
		ByAppID:   map[string]*models.ExternalLicense{"a1": extA},
		ByCountID: map[int]*models.ExternalLicense{10: extA},
	}

	t.Run("By AppID Is Case Insensitive", func(t *testing.T) {
		rec, matchedBy := idx.Match(&models.InternalLicense{AppID: " A1 "})
		assert.Same(t, extA, rec)
		assert.Equal(t, sync.MatchByAppID, matchedBy)
	})

	t.Run("Zero CountID Never Matches", func(t *testing.T) {
		rec, matchedBy := idx.Match(&models.InternalLicense{AppID: "zz", CountID: 0})
		assert.Nil(t, rec)
		assert.Empty(t, string(matchedBy))
	})
}
