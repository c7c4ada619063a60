// Package store provides the paginated store collaborators consumed by the
// sync engine: one over the mirrored partner table, one over the
// internally-owned license table.
//
// Both stores expose page-based reads (1-based pages, empty page = end of
// table) and keyed writes. The external store's write path conflict-resolves
// on app_id; its batch upsert deduplicates by app_id before sending the
// multi-row statement, since a repeated conflict key inside one insert is not
// a well-defined operation for MySQL.
//
// Lookup misses return (nil, nil) rather than an error so callers can treat
// absence as a normal reconciliation signal.
package store
