package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo matches the output of SHOW COLUMNS.
type ColumnInfo struct {
	Field   string
	Type    string
	Null    string
	Key     string
	Default *string // NULL default is possible
	Extra   string
}

// GetTableColumns retrieves the column definitions for a given table.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo

	if db.Dialector.Name() == "sqlite" {
		// SQLite uses PRAGMA table_info
		type sqliteColumn struct {
			Cid        int
			Name       string
			Type       string
			Notnull    int
			DefaultVal *string
			Pk         int
		}
		var sqliteCols []sqliteColumn
		if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", tableName)).Scan(&sqliteCols).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		for _, col := range sqliteCols {
			columns = append(columns, ColumnInfo{
				Field: strings.ToLower(col.Name),
				Type:  strings.ToLower(col.Type),
			})
		}
		return columns, nil
	}

	err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", tableName)).Scan(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
	}
	for i := range columns {
		columns[i].Type = strings.ToLower(columns[i].Type)
		columns[i].Field = strings.ToLower(columns[i].Field)
	}
	return columns, nil
}

// requiredColumns lists the columns each license table must carry before a
// reconciliation run makes sense. Matching and bookkeeping break without
// these.
var requiredColumns = map[string][]string{
	"external_licenses": {"app_id", "count_id", "sync_status"},
	"internal_licenses": {"license_key", "app_id", "count_id", "external_sync_status"},
}

// VerifyLicenseSchema checks that both license tables exist and carry the
// columns the sync engine depends on. It is a preflight check, not a
// migration: missing pieces are reported, never created.
func VerifyLicenseSchema(db *gorm.DB) error {
	for table, required := range requiredColumns {
		if !db.Migrator().HasTable(table) {
			return fmt.Errorf("required table %s does not exist", table)
		}

		columns, err := GetTableColumns(db, table)
		if err != nil {
			return err
		}
		present := make(map[string]struct{}, len(columns))
		for _, col := range columns {
			present[col.Field] = struct{}{}
		}
		for _, name := range required {
			if _, ok := present[name]; !ok {
				return fmt.Errorf("table %s is missing required column %s", table, name)
			}
		}
	}
	return nil
}
