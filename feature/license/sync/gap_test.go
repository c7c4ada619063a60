package sync_test

import (
	"testing"
	"time"

	"license-manager/feature/license/models"
	"license-manager/feature/license/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldGaps(t *testing.T) {
	t.Run("Missing DBA", func(t *testing.T) {
		internal := &models.InternalLicense{}
		external := &models.ExternalLicense{DBA: "Acme"}
		assert.Contains(t, sync.FieldGaps(internal, external), "dba")
	})

	t.Run("Equal Records Have No Gaps", func(t *testing.T) {
		internal := &models.InternalLicense{DBA: "Acme", Zip: "90210", LastPayment: 99.5, Status: models.StatusActive}
		external := &models.ExternalLicense{DBA: "Acme", Zip: "90210", MonthlyFee: 99.5, Status: "active"}
		assert.Empty(t, sync.FieldGaps(internal, external))
	})

	t.Run("Stale Last Payment", func(t *testing.T) {
		internal := &models.InternalLicense{LastPayment: 50}
		external := &models.ExternalLicense{MonthlyFee: 99.5}
		assert.Contains(t, sync.FieldGaps(internal, external), "lastPayment")
	})

	t.Run("Zero External Fee Is Not A Gap", func(t *testing.T) {
		internal := &models.InternalLicense{LastPayment: 50}
		external := &models.ExternalLicense{MonthlyFee: 0}
		assert.NotContains(t, sync.FieldGaps(internal, external), "lastPayment")
	})

	t.Run("Status Compared Across Representations", func(t *testing.T) {
		// The partner reports numeric status; "1" means active.
		internal := &models.InternalLicense{Status: models.StatusActive}
		external := &models.ExternalLicense{Status: "1"}
		assert.NotContains(t, sync.FieldGaps(internal, external), "status")

		external.Status = "0"
		assert.Contains(t, sync.FieldGaps(internal, external), "status")
	})

	t.Run("Absent External Status Is Not A Gap", func(t *testing.T) {
		internal := &models.InternalLicense{Status: models.StatusActive}
		external := &models.ExternalLicense{Status: ""}
		assert.NotContains(t, sync.FieldGaps(internal, external), "status")
	})

	t.Run("Package Compared By Value", func(t *testing.T) {
		internal := &models.InternalLicense{PackageData: []byte(`{"a":1,"b":2}`)}
		external := &models.ExternalLicense{Package: []byte(`{"b":2,"a":1}`)}
		assert.NotContains(t, sync.FieldGaps(internal, external), "package")

		external.Package = []byte(`{"a":1,"b":3}`)
		assert.Contains(t, sync.FieldGaps(internal, external), "package")
	})

	t.Run("SMS Purchased Seeds From External Balance", func(t *testing.T) {
		internal := &models.InternalLicense{}
		external := &models.ExternalLicense{SMSBalance: 120}
		fields := sync.FieldGaps(internal, external)
		assert.Contains(t, fields, "smsBalance")
		assert.Contains(t, fields, "smsPurchased")
	})

	t.Run("Rule Order Is Stable", func(t *testing.T) {
		internal := &models.InternalLicense{MID: "m-old"}
		external := &models.ExternalLicense{DBA: "Acme", Zip: "90210", MID: "m-new"}
		assert.Equal(t, []string{"dba", "zip", "mid"}, sync.FieldGaps(internal, external))
	})
}

func TestBuildPatch(t *testing.T) {
	now := time.Now().UTC()
	external := &models.ExternalLicense{DBA: "Acme", MonthlyFee: 99.5, Status: "1", Zip: "90210"}

	op := sync.Operation{
		Type:     sync.OpUpdate,
		External: external,
		Fields:   []string{"dba", "lastPayment"},
	}

	patch := sync.BuildPatch(op, now)
	require.Len(t, patch, 4)
	assert.Equal(t, "Acme", patch["dba"])
	assert.Equal(t, 99.5, patch["last_payment"])
	assert.Equal(t, models.SyncStatusSynced, patch["external_sync_status"])
	assert.Equal(t, now, patch["last_external_sync"])

	// Fields outside the operation are never written.
	assert.NotContains(t, patch, "zip")
	assert.NotContains(t, patch, "status")
}

func TestBuildPatch_StatusMapping(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		status   string
		expected string
	}{
		{"Active Numeric", "1", models.StatusActive},
		{"Active Textual", "Active", models.StatusActive},
		{"Anything Else Cancels", "suspended", models.StatusCancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := sync.Operation{
				Type:     sync.OpUpdate,
				External: &models.ExternalLicense{Status: tt.status},
				Fields:   []string{"status"},
			}
			assert.Equal(t, tt.expected, sync.BuildPatch(op, now)["status"])
		})
	}
}

func TestAnalyze(t *testing.T) {
	extA := &models.ExternalLicense{ID: 1, AppID: "a1", CountID: 10, DBA: "Acme"}
	extB := &models.ExternalLicense{ID: 2, AppID: "b2", CountID: 20, DBA: "Beta"}

	idx := &sync.LookupIndex{
		ByAppID:   map[string]*models.ExternalLicense{"a1": extA, "b2": extB},
		ByCountID: map[int]*models.ExternalLicense{10: extA, 20: extB},
	}

	t.Run("AppID Takes Priority Over CountID", func(t *testing.T) {
		internal := &models.InternalLicense{AppID: "a1", CountID: 20}
		res := sync.Analyze(internal, idx)
		require.NotNil(t, res.External)
		assert.Equal(t, extA, res.External)
		assert.Equal(t, sync.MatchByAppID, res.MatchedBy)
		assert.True(t, res.NeedsSync)
		assert.Equal(t, []string{"dba"}, res.Fields)
	})

	t.Run("CountID Fallback", func(t *testing.T) {
		internal := &models.InternalLicense{AppID: "zz", CountID: 20, DBA: "Beta"}
		res := sync.Analyze(internal, idx)
		require.NotNil(t, res.External)
		assert.Equal(t, extB, res.External)
		assert.Equal(t, sync.MatchByCountID, res.MatchedBy)
		assert.False(t, res.NeedsSync)
	})

	t.Run("No Match", func(t *testing.T) {
		internal := &models.InternalLicense{AppID: "zz", CountID: 99}
		res := sync.Analyze(internal, idx)
		assert.Nil(t, res.External)
		assert.False(t, res.NeedsSync)
	})
}
