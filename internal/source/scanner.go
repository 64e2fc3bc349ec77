package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openmined/netcdfpub/internal/inventory"
	"github.com/openmined/netcdfpub/internal/store"
)

// Scanner builds the source inventory: every public, non-excluded collection
// under the proxy root holding at least one data object with the target
// extension, stamped with its latest modify time.
type Scanner struct {
	store  store.Store
	root   string
	rules  Rules
	logger *slog.Logger
}

func NewScanner(st store.Store, root string, rules Rules, logger *slog.Logger) *Scanner {
	return &Scanner{
		store:  st,
		root:   root,
		rules:  rules,
		logger: logger.With("component", "source"),
	}
}

// Scan is all-or-nothing: any store error aborts it with a *ScanError.
func (s *Scanner) Scan(ctx context.Context) (inventory.Inventory, error) {
	inv, err := s.scan(ctx)
	if err != nil {
		return nil, &ScanError{Root: s.root, Err: err}
	}
	return inv, nil
}

func (s *Scanner) scan(ctx context.Context) (inventory.Inventory, error) {
	session, err := s.store.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	collections, err := session.ListCollections(ctx, s.root)
	if err != nil {
		return nil, err
	}

	included := make([]*store.Collection, 0, len(collections))
	for _, coll := range collections {
		if !s.rules.IsExcluded(coll.Name) {
			included = append(included, coll)
		}
	}
	s.logger.Info("included collections", "count", len(included))

	public := make([]*store.Collection, 0, len(included))
	for _, coll := range included {
		if s.rules.IsPublic(coll.Metadata) {
			public = append(public, coll)
		}
	}
	s.logger.Info("public included collections", "count", len(public))

	// one walk per collection serves both the content filter and the timestamp
	inv := make(inventory.Inventory, 0, len(public))
	for _, coll := range public {
		stats, err := collectStats(ctx, session, coll.Path, s.rules)
		if err != nil {
			return nil, err
		}
		if stats.Matching == 0 {
			continue
		}
		s.logger.Info("collection", "name", coll.Name, "matching", stats.Matching, "files", stats.Files)
		inv = append(inv, inventory.Item{ID: coll.Name, LastModified: stats.Latest})
	}
	s.logger.Info("public collections with matching content", "count", len(inv), "extension", s.rules.Extension)

	return inv, nil
}
