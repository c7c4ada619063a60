// Package sync implements the license reconciliation and synchronization
// engine. It keeps the internally-owned license table consistent with the
// mirrored partner table when both can be independently mutated, identifiers
// only partially overlap, and neither table fits in memory.
//
// # Pipeline
//
// A comprehensive run flows through four stages:
//
//  1. Lookup index: the external table is streamed in bounded chunks into two
//     in-memory maps (by normalized app_id, by legacy count_id). This index
//     stays resident for the whole run and is the dominant memory cost,
//     bounded by the external table size.
//  2. Planning, pass 1: the internal table is streamed in chunks; the gap
//     analyzer compares each record against the index and emits an update
//     operation per record with missing or stale fields.
//  3. Planning, pass 2: the external table is streamed again; records no
//     internal license matched by either key become create operations. An
//     operation cap halts this pass early against pathological datasets.
//  4. Execution: operations run in fixed-size batches, deduplicated by
//     app_id, each item in its own write so failures stay isolated.
//
// Every pagination loop is guarded by a hard page ceiling; hitting it ends
// the run early with partial results and a warning rather than looping
// forever against a misbehaving source.
//
// # Matching
//
// app_id is the partner's canonical key and always wins. count_id is a
// legacy key the partner reuses across records, so it only decides when no
// app_id match exists.
//
// # Failure model
//
// Per-item failures are caught, recorded in the run summary and reflected in
// the external record's sync status (pending -> synced -> failed); failed
// records remain selectable by the needs-sync query, making retry implicit on
// the next run. Only a wholesale planning failure propagates as an error.
package sync
