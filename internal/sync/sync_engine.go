package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/openmined/netcdfpub/internal/inventory"
	"github.com/openmined/netcdfpub/internal/publish"
)

var (
	ErrSyncAlreadyRunning = errors.New("sync already running")
	ErrInvalidResourceID  = errors.New("invalid resource id")
)

type SourceScanner interface {
	Scan(ctx context.Context) (inventory.Inventory, error)
}

type Catalog interface {
	Scan() (inventory.Inventory, error)
	Remove(id string) error
	IsResourceID(name string) bool
}

type Publisher interface {
	Publish(ctx context.Context, id string) (*publish.Result, error)
}

// SyncEngine reconciles the catalog with the content store. Every run is a
// fresh full reconciliation; nothing is carried over between runs.
type SyncEngine struct {
	source    SourceScanner
	catalog   Catalog
	publisher Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
	muSync    sync.Mutex
}

func NewSyncEngine(source SourceScanner, catalog Catalog, publisher Publisher, logger *slog.Logger) *SyncEngine {
	return &SyncEngine{
		source:    source,
		catalog:   catalog,
		publisher: publisher,
		clock:     clockwork.NewRealClock(),
		logger:    logger.With("component", "sync"),
	}
}

// SetClock replaces the clock used for durations and the watch timer.
func (se *SyncEngine) SetClock(clock clockwork.Clock) {
	se.clock = clock
}

// Plan computes the actions a sync would take without taking any of them.
func (se *SyncEngine) Plan(ctx context.Context) (*ReconcileOperations, error) {
	sourceState, destState, err := se.scan(ctx, se.logger)
	if err != nil {
		return nil, err
	}

	ops := reconcile(sourceState, destState)
	ops.Removes = removals(sourceState, destState)
	return ops, nil
}

// RunSync publishes new and stale resources and removes orphaned ones.
// A failed publish is recorded in the report and the run moves on; scan and
// removal failures abort the run.
func (se *SyncEngine) RunSync(ctx context.Context) (*SyncReport, error) {
	if !se.muSync.TryLock() {
		return nil, ErrSyncAlreadyRunning
	}
	defer se.muSync.Unlock()

	report := &SyncReport{RunID: uuid.NewString()}
	logger := se.logger.With("run", report.RunID)
	tStart := se.clock.Now()
	logger.Info("sync start")

	sourceState, destState, err := se.scan(ctx, logger)
	if err != nil {
		return report, err
	}

	ops := reconcile(sourceState, destState)
	report.Unchanged = len(ops.Unchanged)

	for _, op := range ops.Publishes {
		if op.IsNew() {
			logger.Info("resource not in destination", "id", op.ID)
		} else {
			logger.Info("resource out of date", "id", op.ID,
				"sourceTimestamp", op.Source.LastModified,
				"destinationTimestamp", op.Destination.LastModified,
			)
		}

		result, err := se.publisher.Publish(ctx, op.ID)
		if err != nil {
			return report, fmt.Errorf("publish %s: %w", op.ID, err)
		}
		if !result.OK() {
			report.Failed = append(report.Failed, result)
			logger.Warn("sync incomplete", "id", op.ID, "error", result.Err)
			continue
		}
		report.Published = append(report.Published, op.ID)
	}

	// publishing may have changed the catalog, so removals work off a fresh
	// destination scan against the original source scan
	destState, err = se.catalog.Scan()
	if err != nil {
		return report, fmt.Errorf("scan destination: %w", err)
	}

	for _, op := range removals(sourceState, destState) {
		logger.Info("resource no longer in source", "id", op.ID)
		if err := se.catalog.Remove(op.ID); err != nil {
			return report, err
		}
		report.Removed = append(report.Removed, op.ID)
	}

	report.Duration = se.clock.Since(tStart)
	logger.Info("sync complete",
		"published", len(report.Published),
		"failed", len(report.Failed),
		"removed", len(report.Removed),
		"unchanged", report.Unchanged,
		"duration", report.Duration,
	)

	return report, nil
}

// PublishOne publishes a single resource regardless of its catalog state.
// The id must have the catalog's resource shape; anything else could resolve
// outside the catalog root and would never show up in a later scan.
func (se *SyncEngine) PublishOne(ctx context.Context, id string) (*publish.Result, error) {
	if !se.catalog.IsResourceID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResourceID, id)
	}

	if !se.muSync.TryLock() {
		return nil, ErrSyncAlreadyRunning
	}
	defer se.muSync.Unlock()

	result, err := se.publisher.Publish(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("publish %s: %w", id, err)
	}
	if !result.OK() {
		se.logger.Warn("publish incomplete", "id", id, "error", result.Err)
	}
	return result, nil
}

func (se *SyncEngine) scan(ctx context.Context, logger *slog.Logger) (inventory.Inventory, inventory.Inventory, error) {
	sourceState, err := se.source.Scan(ctx)
	if err != nil {
		return nil, nil, err
	}

	destState, err := se.catalog.Scan()
	if err != nil {
		return nil, nil, fmt.Errorf("scan destination: %w", err)
	}

	logger.Debug("scanned", "source", len(sourceState), "destination", len(destState))
	return sourceState, destState, nil
}
