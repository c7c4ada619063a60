// Package models defines the database models for the license feature.
//
// Two record shapes exist:
//  1. ExternalLicense: a mirrored copy of the partner system's license data,
//     refreshed by the import path and tracked through a sync state machine.
//  2. InternalLicense: the internally-owned license record, the destination
//     of the reconciliation engine's selective merges.
//
// The package also holds the normalization helpers (app_id canonical form,
// dual status representation) shared by the stores and the sync engine.
package models
