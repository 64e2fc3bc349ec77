package source

import (
	"context"
	"fmt"
	"time"

	"github.com/openmined/netcdfpub/internal/store"
)

// Stats summarizes the data objects of one collection.
type Stats struct {
	Files    int
	Matching int
	Bytes    int64
	Latest   time.Time
}

// LatestTimestamp returns Latest, or ErrNoDataObjects when nothing was walked.
func (s *Stats) LatestTimestamp() (time.Time, error) {
	if s.Files == 0 {
		return time.Time{}, ErrNoDataObjects
	}
	return s.Latest, nil
}

func collectStats(ctx context.Context, session store.Session, collectionPath string, rules Rules) (*Stats, error) {
	stats := &Stats{}
	err := session.Walk(ctx, collectionPath, func(obj *store.DataObject) error {
		stats.Files++
		stats.Bytes += obj.Size
		if rules.Matches(obj.Name) {
			stats.Matching++
		}
		if obj.ModifyTime.After(stats.Latest) {
			stats.Latest = obj.ModifyTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Resolver answers per-collection questions, each in its own session.
type Resolver struct {
	store store.Store
	rules Rules
}

func NewResolver(st store.Store, rules Rules) *Resolver {
	return &Resolver{store: st, rules: rules}
}

func (r *Resolver) Stats(ctx context.Context, collectionPath string) (*Stats, error) {
	session, err := r.store.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	return collectStats(ctx, session, collectionPath, r.rules)
}

// LatestTimestamp returns the newest modify time among the collection's data
// objects. A collection without data objects has no latest timestamp.
func (r *Resolver) LatestTimestamp(ctx context.Context, collectionPath string) (time.Time, error) {
	stats, err := r.Stats(ctx, collectionPath)
	if err != nil {
		return time.Time{}, err
	}
	latest, err := stats.LatestTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", err, collectionPath)
	}
	return latest, nil
}
