package sync

import (
	"bytes"
	"encoding/json"
	"time"

	"license-manager/feature/license/models"
)

// GapResult is the Gap Analyzer's verdict for one internal record.
type GapResult struct {
	NeedsSync bool
	// External is the matched partner record, nil when no match exists.
	External *models.ExternalLicense
	// Fields lists the missing or stale field names, in rule order.
	Fields []string
	// MatchedBy records which key paired the records.
	MatchedBy MatchStrategy
}

// fieldRule declares when one logical field needs a merge. Missing fires when
// the internal side is absent and the external side carries a value; Stale
// fires when both sides carry values that differ. Either predicate may be
// nil.
type fieldRule struct {
	Name    string
	Missing func(i *models.InternalLicense, e *models.ExternalLicense) bool
	Stale   func(i *models.InternalLicense, e *models.ExternalLicense) bool
}

// fieldRules is the single declarative table driving gap analysis. Order is
// significant: Fields in results and patches follows it.
var fieldRules = []fieldRule{
	{
		Name:    "dba",
		Missing: func(i *models.InternalLicense, e *models.ExternalLicense) bool { return i.DBA == "" && e.DBA != "" },
	},
	{
		Name:    "zip",
		Missing: func(i *models.InternalLicense, e *models.ExternalLicense) bool { return i.Zip == "" && e.Zip != "" },
	},
	{
		Name: "lastPayment",
		Missing: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			return i.LastPayment == 0 && e.MonthlyFee != 0
		},
		Stale: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			return i.LastPayment != 0 && e.MonthlyFee != 0 && i.LastPayment != e.MonthlyFee
		},
	},
	{
		Name: "lastActive",
		Missing: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			return i.LastActive == nil && e.LastActive != nil
		},
	},
	{
		Name: "smsBalance",
		Missing: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			return i.SMSBalance == 0 && e.SMSBalance != 0
		},
		Stale: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			return i.SMSBalance != 0 && e.SMSBalance != 0 && i.SMSBalance != e.SMSBalance
		},
	},
	{
		Name: "smsPurchased",
		Missing: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			return i.SMSPurchased == 0 && e.SMSBalance != 0
		},
	},
	{
		Name: "startsAt",
		Missing: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			return i.StartsAt == nil && e.ActivateDate != nil
		},
	},
	{
		Name:    "notes",
		Missing: func(i *models.InternalLicense, e *models.ExternalLicense) bool { return i.Notes == "" && e.Note != "" },
	},
	{
		Name: "status",
		Stale: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			if i.Status == "" || !e.HasStatus() {
				return false
			}
			return normalizeInternalStatus(i.Status) != e.NormalizedStatus()
		},
	},
	{
		Name: "mid",
		Stale: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			return i.MID != "" && e.MID != "" && i.MID != e.MID
		},
	},
	{
		Name: "licenseType",
		Stale: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			return i.LicenseType != "" && e.LicenseType != "" && i.LicenseType != e.LicenseType
		},
	},
	{
		Name: "package",
		Stale: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			if len(i.PackageData) == 0 || len(e.Package) == 0 {
				return false
			}
			return !canonicalJSONEqual(i.PackageData, e.Package)
		},
	},
	{
		Name: "sendbatWorkspace",
		Stale: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			return i.SendbatWorkspace != "" && e.SendbatWorkspace != "" && i.SendbatWorkspace != e.SendbatWorkspace
		},
	},
	{
		Name: "comingExpired",
		Stale: func(i *models.InternalLicense, e *models.ExternalLicense) bool {
			return i.ComingExpired != nil && e.ComingExpired != nil && !i.ComingExpired.Equal(*e.ComingExpired)
		},
	},
}

// Analyze compares one internal record against the lookup index. Pure and
// deterministic: no I/O, no mutation of either record.
func Analyze(internal *models.InternalLicense, idx *LookupIndex) GapResult {
	external, matchedBy := idx.Match(internal)
	if external == nil {
		return GapResult{}
	}
	fields := FieldGaps(internal, external)
	return GapResult{
		NeedsSync: len(fields) > 0,
		External:  external,
		Fields:    fields,
		MatchedBy: matchedBy,
	}
}

// FieldGaps runs the rule table once over a matched pair and returns the
// field names needing a merge, in table order.
func FieldGaps(internal *models.InternalLicense, external *models.ExternalLicense) []string {
	var fields []string
	for _, rule := range fieldRules {
		if rule.Missing != nil && rule.Missing(internal, external) {
			fields = append(fields, rule.Name)
			continue
		}
		if rule.Stale != nil && rule.Stale(internal, external) {
			fields = append(fields, rule.Name)
		}
	}
	return fields
}

// normalizeInternalStatus maps the internal lifecycle vocabulary onto the
// partner's active/inactive axis for comparison.
func normalizeInternalStatus(status string) string {
	if status == models.StatusActive {
		return "active"
	}
	return "inactive"
}

// externalStatusToInternal maps a partner record's normalized status into the
// internal vocabulary when the status field is merged.
func externalStatusToInternal(e *models.ExternalLicense) string {
	if e.NormalizedStatus() == "active" {
		return models.StatusActive
	}
	return models.StatusCancel
}

// canonicalJSONEqual compares two json blobs by value, not by byte layout.
// The partner serializes package data with unstable key order.
func canonicalJSONEqual(a, b []byte) bool {
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return bytes.Equal(a, b)
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return bytes.Equal(a, b)
	}
	ca, errA := json.Marshal(av)
	cb, errB := json.Marshal(bv)
	if errA != nil || errB != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca, cb)
}

// patchValue resolves the internal column and value for one gap field.
// Only fields named in the operation are written; everything else on the
// internal record stays untouched.
func patchValue(field string, e *models.ExternalLicense) (column string, value any, ok bool) {
	switch field {
	case "dba":
		return "dba", e.DBA, true
	case "zip":
		return "zip", e.Zip, true
	case "lastPayment":
		return "last_payment", e.MonthlyFee, true
	case "lastActive":
		return "last_active", e.LastActive, true
	case "smsBalance":
		return "sms_balance", e.SMSBalance, true
	case "smsPurchased":
		return "sms_purchased", e.SMSBalance, true
	case "startsAt":
		return "starts_at", e.ActivateDate, true
	case "notes":
		return "notes", e.Note, true
	case "status":
		return "status", externalStatusToInternal(e), true
	case "mid":
		return "mid", e.MID, true
	case "licenseType":
		return "license_type", e.LicenseType, true
	case "package":
		return "package_data", e.Package, true
	case "sendbatWorkspace":
		return "sendbat_workspace", e.SendbatWorkspace, true
	case "comingExpired":
		return "coming_expired", e.ComingExpired, true
	default:
		return "", nil, false
	}
}

// BuildPatch materializes the selective-merge column map for an update
// operation, plus the sync bookkeeping columns.
func BuildPatch(op Operation, now time.Time) map[string]any {
	patch := make(map[string]any, len(op.Fields)+2)
	for _, field := range op.Fields {
		if column, value, ok := patchValue(field, op.External); ok {
			patch[column] = value
		}
	}
	patch["external_sync_status"] = models.SyncStatusSynced
	patch["last_external_sync"] = now
	return patch
}
