package sync

import (
	"strconv"
	"time"

	"license-manager/feature/license/models"
)

// MatchStrategy identifies which key matched an internal record to an
// external one.
type MatchStrategy string

const (
	// MatchByAppID is the partner's canonical per-license key.
	MatchByAppID MatchStrategy = "appid"
	// MatchByCountID is the secondary legacy key; it may be reused across
	// records, so it only applies when no app_id match exists.
	MatchByCountID MatchStrategy = "countid"
)

// OperationType classifies a planned sync operation.
type OperationType string

const (
	// OpUpdate patches gap fields onto an existing internal record.
	OpUpdate OperationType = "update"
	// OpCreate materializes an internal record for an external-only license.
	OpCreate OperationType = "create"
)

// CreateReasonNoMatch is the reason attached to create operations planned for
// external records with no internal counterpart.
const CreateReasonNoMatch = "No internal license match found"

// Operation is one planned write. Operations are transient; they are never
// persisted.
type Operation struct {
	Type OperationType

	// Internal is the target record for update operations.
	Internal *models.InternalLicense
	// External is the matched (update) or source (create) partner record.
	External *models.ExternalLicense

	// Fields lists the missing or stale field names to merge, in rule order.
	// Only these fields are written; internally-authored data stays untouched.
	Fields []string
	// MatchedBy records the strategy that paired the two records.
	MatchedBy MatchStrategy

	// Reason explains a create operation.
	Reason string
}

// Ref returns a short human-readable reference for error reporting.
func (op Operation) Ref() string {
	switch {
	case op.External != nil && op.External.AppID != "":
		return "appid=" + string(op.External.AppID)
	case op.Internal != nil && op.Internal.Key != "":
		return "key=" + op.Internal.Key
	case op.External != nil:
		return "external_id=" + strconv.FormatUint(uint64(op.External.ID), 10)
	default:
		return "unknown"
	}
}

// ItemError records one isolated per-operation failure.
type ItemError struct {
	Operation string `json:"operation"`
	Ref       string `json:"ref"`
	Message   string `json:"message"`
}

// Summary is the run report returned by both sync entry points. Per-item
// failures land in Errors; they are never re-raised to the caller.
type Summary struct {
	RunID        string      `json:"run_id"`
	SyncedCount  int         `json:"synced_count"`
	UpdatedCount int         `json:"updated_count"`
	CreatedCount int         `json:"created_count"`
	Errors       []ItemError `json:"errors"`

	// Truncated is set when a pagination safety ceiling or the operation cap
	// stopped a pass early; counts then cover a partial run.
	Truncated bool `json:"truncated"`

	// DryRun marks a planning-only run; the counts are planned operations
	// and nothing was written.
	DryRun bool `json:"dry_run,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Options carries the engine tunables. Chunk sizes, batch size and the
// safety ceilings are all overridable from configuration.
type Options struct {
	// InternalChunkSize pages the internal table during the gap-scan pass.
	InternalChunkSize int
	// ExternalChunkSize pages the external table during index building and
	// the orphan-scan pass.
	ExternalChunkSize int
	// BatchSize bounds how many operations one executor batch holds.
	BatchSize int
	// MaxPages is the hard page-count ceiling guarding every pagination loop
	// against a misbehaving source.
	MaxPages int
	// MaxOperations halts planning early to prevent a pathological external
	// dataset from producing an unbounded create-storm.
	MaxOperations int
	// BatchWorkers bounds concurrent per-item writes inside one batch. The
	// planner guarantees at most one operation per record per run, so items
	// in a batch never contend on the same row.
	BatchWorkers int
	// DryRun plans a run and reports what it would do without executing any
	// writes.
	DryRun bool
}

// DefaultOptions returns the production tunables.
func DefaultOptions() Options {
	return Options{
		InternalChunkSize: 1000,
		ExternalChunkSize: 500,
		BatchSize:         50,
		MaxPages:          1000,
		MaxOperations:     10000,
		BatchWorkers:      10,
	}
}

// normalized fills zero values with defaults so a partially-populated Options
// never disables a safety ceiling.
func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.InternalChunkSize <= 0 {
		o.InternalChunkSize = def.InternalChunkSize
	}
	if o.ExternalChunkSize <= 0 {
		o.ExternalChunkSize = def.ExternalChunkSize
	}
	if o.BatchSize <= 0 {
		o.BatchSize = def.BatchSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = def.MaxPages
	}
	if o.MaxOperations <= 0 {
		o.MaxOperations = def.MaxOperations
	}
	if o.BatchWorkers <= 0 {
		o.BatchWorkers = def.BatchWorkers
	}
	return o
}
