// Package service holds the catalog sync and embedding refresh flows.
package service

import (
	"context"
	"fmt"

	"github.com/yudswin/nettube/internal/api"
	"github.com/yudswin/nettube/internal/models"
	"github.com/yudswin/nettube/internal/store"
)

// syncPageSize is the browse page size used while pulling the catalog.
const syncPageSize = 200

// Stats summarises one sync run.
type Stats struct {
	Contents           int   `json:"contents"`
	Collections        int   `json:"collections"`
	Persons            int   `json:"persons"`
	RemovedContents    int64 `json:"removed_contents"`
	RemovedCollections int64 `json:"removed_collections"`
}

// Sync pulls the public catalog from the upstream API into the local
// mirror. Existing rows are updated in place; rows that no longer
// exist upstream are pruned afterwards, so a completed sync leaves the
// mirror with exactly the upstream membership.
func Sync(ctx context.Context, upstream *api.Client, s store.Store) (Stats, error) {
	var stats Stats

	genres, err := upstream.ListGenres(ctx)
	if err != nil {
		return stats, fmt.Errorf("list genres: %w", err)
	}
	for i := range genres {
		if err := s.UpsertGenre(ctx, &genres[i]); err != nil {
			return stats, err
		}
	}

	countries, err := upstream.ListCountries(ctx)
	if err != nil {
		return stats, fmt.Errorf("list countries: %w", err)
	}
	for i := range countries {
		if err := s.UpsertCountry(ctx, &countries[i]); err != nil {
			return stats, err
		}
	}

	keepContents, err := syncContents(ctx, upstream, s, &stats)
	if err != nil {
		return stats, err
	}

	persons, err := upstream.ListPersons(ctx)
	if err != nil {
		return stats, fmt.Errorf("list persons: %w", err)
	}
	for i := range persons {
		if err := s.UpsertPerson(ctx, &persons[i]); err != nil {
			return stats, err
		}
		stats.Persons++
	}

	keepCollections, err := syncCollections(ctx, upstream, s, &stats)
	if err != nil {
		return stats, err
	}

	// Prune only after everything upstream was walked; a partial sync
	// must never delete rows it did not get around to confirming.
	stats.RemovedContents, err = s.RemoveStaleContents(ctx, keepContents)
	if err != nil {
		return stats, err
	}
	stats.RemovedCollections, err = s.RemoveStaleCollections(ctx, keepCollections)
	if err != nil {
		return stats, err
	}

	if err := s.SetLastSynced(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

// syncContents pages through the upstream browse endpoint and upserts
// every content, returning the ids seen.
func syncContents(ctx context.Context, upstream *api.Client, s store.Store, stats *Stats) ([]string, error) {
	var keep []string
	for page := 1; ; page++ {
		// Check for cancellation between pages so shutdown does not
		// wait for a full catalog walk.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sync cancelled: %w", err)
		}

		res, err := upstream.BrowseContents(ctx, models.BrowseFilter{Page: page, Limit: syncPageSize})
		if err != nil {
			return nil, fmt.Errorf("browse page %d: %w", page, err)
		}
		for i := range res.Items {
			if err := s.UpsertContent(ctx, &res.Items[i]); err != nil {
				return nil, err
			}
			keep = append(keep, res.Items[i].ID)
			stats.Contents++
		}
		if len(res.Items) < syncPageSize || len(keep) >= res.Total {
			return keep, nil
		}
	}
}

// syncCollections mirrors collections and their ordered membership.
func syncCollections(ctx context.Context, upstream *api.Client, s store.Store, stats *Stats) ([]string, error) {
	cols, err := upstream.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	keep := make([]string, 0, len(cols))
	for i := range cols {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sync cancelled: %w", err)
		}

		if err := s.UpsertCollection(ctx, &cols[i]); err != nil {
			return nil, err
		}
		keep = append(keep, cols[i].ID)
		stats.Collections++

		contents, err := upstream.CollectionContents(ctx, cols[i].ID)
		if err != nil {
			return nil, fmt.Errorf("collection %s contents: %w", cols[i].ID, err)
		}
		entries := make([]store.RankedContent, 0, len(contents))
		for j := range contents {
			rank := j
			if contents[j].Rank != nil {
				rank = *contents[j].Rank
			}
			// Membership rows reference contents; make sure the row
			// exists even when browse pagination missed it.
			if err := s.UpsertContent(ctx, &contents[j]); err != nil {
				return nil, err
			}
			entries = append(entries, store.RankedContent{ContentID: contents[j].ID, Rank: rank})
		}
		if err := s.ReplaceCollectionContents(ctx, cols[i].ID, entries); err != nil {
			return nil, err
		}
	}
	return keep, nil
}
