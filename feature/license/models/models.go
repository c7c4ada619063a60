package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"license-manager/core/utils"
)

// Sync status values for the external mirror table.
const (
	SyncStatusPending = "pending"
	SyncStatusSynced  = "synced"
	SyncStatusFailed  = "failed"
)

// Internal license lifecycle status values.
const (
	StatusActive  = "active"
	StatusPending = "pending"
	StatusCancel  = "cancel"
)

// MaxAppIDLen bounds the app_id column. Partner exports occasionally carry
// garbage in this field, so writes must not exceed the column width.
const MaxAppIDLen = 64

// AppID is a partner app_id column value. The empty value serializes as
// NULL so that records lacking an app_id never collide on the unique index.
type AppID string

// Value implements driver.Valuer.
func (a AppID) Value() (driver.Value, error) {
	if a == "" {
		return nil, nil
	}
	return string(a), nil
}

// Scan implements sql.Scanner.
func (a *AppID) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*a = ""
	case string:
		*a = AppID(v)
	case []byte:
		*a = AppID(v)
	default:
		return fmt.Errorf("unsupported app_id column type %T", value)
	}
	return nil
}

// ExternalLicense mirrors one license record from the partner system.
// Rows are refreshed by the import path (upsert on app_id) and mutated in
// place only by the sync status tracker.
type ExternalLicense struct {
	ID               uint       `gorm:"column:id;primaryKey" json:"id"`
	AppID            AppID      `gorm:"column:app_id;size:64;uniqueIndex" json:"app_id"`
	CountID          int        `gorm:"column:count_id;index" json:"count_id"`
	EmailLicense     string     `gorm:"column:email_license;size:255" json:"email_license"`
	DBA              string     `gorm:"column:dba;size:255" json:"dba"`
	Zip              string     `gorm:"column:zip;size:20" json:"zip"`
	MID              string     `gorm:"column:mid;size:64" json:"mid"`
	LicenseType      string     `gorm:"column:license_type;size:64" json:"license_type"`
	Status           string     `gorm:"column:status;size:32" json:"status"`
	ActivateDate     *time.Time `gorm:"column:activate_date" json:"activate_date"`
	ComingExpired    *time.Time `gorm:"column:coming_expired" json:"coming_expired"`
	MonthlyFee       float64    `gorm:"column:monthly_fee" json:"monthly_fee"`
	SMSBalance       float64    `gorm:"column:sms_balance" json:"sms_balance"`
	Package          []byte     `gorm:"column:package;type:json" json:"package"`
	Note             string     `gorm:"column:note;type:text" json:"note"`
	SendbatWorkspace string     `gorm:"column:sendbat_workspace;size:128" json:"sendbat_workspace"`
	LastActive       *time.Time `gorm:"column:last_active" json:"last_active"`
	LastSyncedAt     *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
	SyncStatus       string     `gorm:"column:sync_status;size:16;default:pending;index" json:"sync_status"`
	SyncError        string     `gorm:"column:sync_error;type:text" json:"sync_error"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name for the external mirror.
func (ExternalLicense) TableName() string {
	return "external_licenses"
}

// NormalizedAppID returns the app_id in canonical form: trimmed, lower-cased
// and truncated to the column bound. Empty means the record has no app_id.
func (e *ExternalLicense) NormalizedAppID() string {
	return NormalizeAppID(string(e.AppID))
}

// NormalizedStatus collapses the partner's dual status representation
// (numeric 1/0 and textual "active"/other) into "active" or "inactive".
func (e *ExternalLicense) NormalizedStatus() string {
	if utils.ToBool(e.Status) || strings.EqualFold(strings.TrimSpace(e.Status), StatusActive) {
		return "active"
	}
	return "inactive"
}

// HasStatus reports whether the partner supplied any status value at all.
func (e *ExternalLicense) HasStatus() bool {
	return strings.TrimSpace(e.Status) != ""
}

// InternalLicense is the internally-owned license record. The sync engine
// creates rows for external-only licenses and patches gap fields on matched
// rows; it never deletes.
type InternalLicense struct {
	ID           uint       `gorm:"column:id;primaryKey" json:"id"`
	Key          string     `gorm:"column:license_key;size:64;uniqueIndex" json:"license_key"`
	DBA          string     `gorm:"column:dba;size:255" json:"dba"`
	Zip          string     `gorm:"column:zip;size:20" json:"zip"`
	StartsAt     *time.Time `gorm:"column:starts_at" json:"starts_at"`
	Status       string     `gorm:"column:status;size:16;default:pending" json:"status"`
	Plan         string     `gorm:"column:plan;size:64" json:"plan"`
	Term         string     `gorm:"column:term;size:32" json:"term"`
	CancelDate   *time.Time `gorm:"column:cancel_date" json:"cancel_date"`
	LastPayment  float64    `gorm:"column:last_payment" json:"last_payment"`
	LastActive   *time.Time `gorm:"column:last_active" json:"last_active"`
	SMSPurchased float64    `gorm:"column:sms_purchased" json:"sms_purchased"`
	SMSSent      float64    `gorm:"column:sms_sent" json:"sms_sent"`
	SMSBalance   float64    `gorm:"column:sms_balance" json:"sms_balance"`
	AgentsCount  int        `gorm:"column:agents_count" json:"agents_count"`
	AgentsOnline int        `gorm:"column:agents_online" json:"agents_online"`
	Notes        string     `gorm:"column:notes;type:text" json:"notes"`

	// Linkage back to the partner record.
	AppID            string     `gorm:"column:app_id;size:64;index" json:"app_id"`
	CountID          int        `gorm:"column:count_id;index" json:"count_id"`
	MID              string     `gorm:"column:mid;size:64" json:"mid"`
	LicenseType      string     `gorm:"column:license_type;size:64" json:"license_type"`
	PackageData      []byte     `gorm:"column:package_data;type:json" json:"package_data"`
	SendbatWorkspace string     `gorm:"column:sendbat_workspace;size:128" json:"sendbat_workspace"`
	ComingExpired    *time.Time `gorm:"column:coming_expired" json:"coming_expired"`

	ExternalSyncStatus string     `gorm:"column:external_sync_status;size:16;default:pending" json:"external_sync_status"`
	LastExternalSync   *time.Time `gorm:"column:last_external_sync" json:"last_external_sync"`
	CreatedAt          time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name for internal licenses.
func (InternalLicense) TableName() string {
	return "internal_licenses"
}

// NormalizedAppID returns the linkage app_id in canonical form.
func (i *InternalLicense) NormalizedAppID() string {
	return NormalizeAppID(i.AppID)
}

// NormalizeAppID canonicalizes a partner app_id for matching and for the
// upsert conflict target. Matching is case-insensitive.
func NormalizeAppID(appid string) string {
	s := strings.ToLower(strings.TrimSpace(appid))
	if len(s) > MaxAppIDLen {
		s = s[:MaxAppIDLen]
	}
	return s
}
