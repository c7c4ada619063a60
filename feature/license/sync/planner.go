package sync

import (
	"context"
	"fmt"

	"license-manager/feature/license/models"
	"license-manager/feature/license/store"
)

// Plan is the planner's output: the ordered operation list plus the
// accumulators gathered while producing it. Counters are threaded through
// explicitly rather than captured by chunk-loop closures, keeping the planner
// pure and independently testable.
type Plan struct {
	Operations []Operation

	// InternalScanned and ExternalScanned count records visited per pass.
	InternalScanned int
	ExternalScanned int

	// Truncated is set when a page ceiling or the operation cap stopped a
	// pass early.
	Truncated bool
}

// internalKeySet accumulates the identifiers seen while streaming the
// internal table in pass 1. Pass 2 consults it to detect external-only
// records without a second scan of the internal table. Memory is bounded by
// the number of distinct identifiers, not record width.
type internalKeySet struct {
	appids   map[string]struct{}
	countids map[int]struct{}
}

func newInternalKeySet() *internalKeySet {
	return &internalKeySet{
		appids:   make(map[string]struct{}),
		countids: make(map[int]struct{}),
	}
}

func (s *internalKeySet) add(rec *models.InternalLicense) {
	if appid := rec.NormalizedAppID(); appid != "" {
		s.appids[appid] = struct{}{}
	}
	if rec.CountID != 0 {
		s.countids[rec.CountID] = struct{}{}
	}
}

func (s *internalKeySet) matches(rec *models.ExternalLicense) bool {
	if appid := rec.NormalizedAppID(); appid != "" {
		if _, ok := s.appids[appid]; ok {
			return true
		}
	}
	if rec.CountID != 0 {
		if _, ok := s.countids[rec.CountID]; ok {
			return true
		}
	}
	return false
}

// BuildPlan runs both planning passes against the resident lookup index.
//
// Pass 1 streams the internal table in chunks and emits one update operation
// per record with outstanding gaps. Pass 2 streams the external table and
// emits a create operation for every record no internal license matched by
// either key. Both passes honor the page ceiling; the overall operation cap
// halts pass 2 early.
func BuildPlan(ctx context.Context, internal store.InternalStore, external store.ExternalStore, idx *LookupIndex, opts Options) (*Plan, error) {
	opts = opts.normalized()
	plan := &Plan{Truncated: idx.Truncated}

	seen := newInternalKeySet()
	if err := planUpdates(ctx, internal, idx, opts, plan, seen); err != nil {
		return nil, err
	}
	if err := planCreates(ctx, external, opts, plan, seen); err != nil {
		return nil, err
	}
	return plan, nil
}

// planUpdates is pass 1: the internal gap scan.
func planUpdates(ctx context.Context, internal store.InternalStore, idx *LookupIndex, opts Options, plan *Plan, seen *internalKeySet) error {
	for page := 1; ; page++ {
		if page > opts.MaxPages {
			plan.Truncated = true
			return nil
		}

		recs, _, err := internal.Page(ctx, page, opts.InternalChunkSize)
		if err != nil {
			return fmt.Errorf("failed to read internal page %d: %w", page, err)
		}
		if len(recs) == 0 {
			return nil
		}

		for i := range recs {
			rec := &recs[i]
			plan.InternalScanned++
			seen.add(rec)

			gap := Analyze(rec, idx)
			if !gap.NeedsSync {
				continue
			}
			plan.Operations = append(plan.Operations, Operation{
				Type:      OpUpdate,
				Internal:  rec,
				External:  gap.External,
				Fields:    gap.Fields,
				MatchedBy: gap.MatchedBy,
			})
		}

		if len(recs) < opts.InternalChunkSize {
			return nil
		}
	}
}

// planCreates is pass 2: the external orphan scan.
func planCreates(ctx context.Context, external store.ExternalStore, opts Options, plan *Plan, seen *internalKeySet) error {
	for page := 1; ; page++ {
		if page > opts.MaxPages {
			plan.Truncated = true
			return nil
		}

		recs, _, err := external.Page(ctx, page, opts.ExternalChunkSize, store.ExternalFilter{})
		if err != nil {
			return fmt.Errorf("failed to read external page %d: %w", page, err)
		}
		if len(recs) == 0 {
			return nil
		}

		for i := range recs {
			plan.ExternalScanned++
			if seen.matches(&recs[i]) {
				continue
			}
			if len(plan.Operations) >= opts.MaxOperations {
				plan.Truncated = true
				return nil
			}
			plan.Operations = append(plan.Operations, Operation{
				Type:     OpCreate,
				External: &recs[i],
				Reason:   CreateReasonNoMatch,
			})
		}

		if len(recs) < opts.ExternalChunkSize {
			return nil
		}
	}
}
