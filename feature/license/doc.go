// Package license implements the license reconciliation feature.
//
// It keeps the internally-owned license table consistent with a mirrored copy
// of the partner system's license data. The heavy lifting lives in the sync
// subpackage (lookup index, gap analyzer, planner, batch executor, status
// tracker); this package wires it behind a service and HTTP handlers.
//
// # Components
//
//   - Service: runs reconciliations, targeted license checks and the external
//     import path.
//   - Handler: exposes the HTTP endpoints.
//   - Feature: registers the feature with the application loader.
//
// # HTTP Endpoints
//
//   - POST /sync/run : full two-pass reconciliation
//   - POST /sync/legacy : single-pass variant for small datasets
//   - GET  /sync/status : summary of the most recent run
//   - GET  /license/:identifier : presence and gap fields for one license
//   - POST /licenses/import : upsert a batch of partner records
package license
