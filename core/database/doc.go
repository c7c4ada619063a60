// Package database handles database connections and schema verification.
//
// It provides a wrapper around GORM to configure MySQL connections (sqlite
// for local runs and tests) based on the application's configuration.
//
// # Schema Verification
//
// Before a reconciliation run the engine's callers verify that both license
// tables exist and carry the key and bookkeeping columns the sync engine
// depends on. The check only reports problems; it never migrates.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	if err := database.VerifyLicenseSchema(db); err != nil {
//	    log.Fatal("Schema verification failed", err)
//	}
package database
