package sync

import (
	"time"

	"github.com/openmined/netcdfpub/internal/publish"
)

// ReconcileOperations is the action set of one sync pass, in source order.
type ReconcileOperations struct {
	Publishes []*SyncOperation
	Removes   []*SyncOperation
	Unchanged []string
}

func NewReconcileOperations() *ReconcileOperations {
	return &ReconcileOperations{
		Publishes: []*SyncOperation{},
		Removes:   []*SyncOperation{},
		Unchanged: []string{},
	}
}

// HasChanges returns true if there are any pending publish or remove operations.
func (r *ReconcileOperations) HasChanges() bool {
	return len(r.Publishes) > 0 || len(r.Removes) > 0
}

// SyncReport summarizes a completed (or aborted) sync run.
type SyncReport struct {
	RunID     string
	Published []string
	Failed    []*publish.Result
	Removed   []string
	Unchanged int
	Duration  time.Duration
}

// Incomplete reports whether any publish failed during the run.
func (r *SyncReport) Incomplete() bool {
	return len(r.Failed) > 0
}
