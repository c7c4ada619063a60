package sync

import (
	"context"
	"fmt"

	"license-manager/feature/license/models"
	"license-manager/feature/license/store"
)

// LookupIndex holds the full external table indexed by both keys. Building it
// is one pass over the external store; keeping it resident for the whole run
// is the engine's dominant memory cost, bounded by the external table size
// and independent of the internal table size.
type LookupIndex struct {
	// ByAppID maps normalized app_id to the external record.
	ByAppID map[string]*models.ExternalLicense
	// ByCountID maps the legacy count_id to the external record. When the
	// partner reused a count_id the later page wins; app_id matches always
	// take priority over this map anyway.
	ByCountID map[int]*models.ExternalLicense
	// Truncated is set when the page ceiling stopped the scan early.
	Truncated bool
	// Scanned is the number of external records indexed.
	Scanned int
}

// BuildLookupIndex streams the external store page by page until an empty
// page is returned, inserting each record into both maps. Records missing a
// key are skipped for that map only. The page ceiling guarantees termination
// against a source that keeps returning rows.
func BuildLookupIndex(ctx context.Context, ext store.ExternalStore, opts Options) (*LookupIndex, error) {
	opts = opts.normalized()

	idx := &LookupIndex{
		ByAppID:   make(map[string]*models.ExternalLicense),
		ByCountID: make(map[int]*models.ExternalLicense),
	}

	for page := 1; ; page++ {
		if page > opts.MaxPages {
			idx.Truncated = true
			break
		}

		recs, _, err := ext.Page(ctx, page, opts.ExternalChunkSize, store.ExternalFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to read external page %d: %w", page, err)
		}
		if len(recs) == 0 {
			break
		}

		for i := range recs {
			rec := &recs[i]
			idx.Scanned++
			if appid := rec.NormalizedAppID(); appid != "" {
				idx.ByAppID[appid] = rec
			}
			if rec.CountID != 0 {
				idx.ByCountID[rec.CountID] = rec
			}
		}

		if len(recs) < opts.ExternalChunkSize {
			break
		}
	}

	return idx, nil
}

// Match resolves the external record for one internal license. The canonical
// app_id is tried first; the ambiguous legacy count_id only decides when no
// app_id match exists.
func (idx *LookupIndex) Match(internal *models.InternalLicense) (*models.ExternalLicense, MatchStrategy) {
	if appid := internal.NormalizedAppID(); appid != "" {
		if ext, ok := idx.ByAppID[appid]; ok {
			return ext, MatchByAppID
		}
	}
	if internal.CountID != 0 {
		if ext, ok := idx.ByCountID[internal.CountID]; ok {
			return ext, MatchByCountID
		}
	}
	return nil, ""
}
