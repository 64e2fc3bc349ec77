package sync

import (
	"github.com/openmined/netcdfpub/internal/inventory"
)

// reconcile decides which source resources need publishing. A resource is
// published when it is missing from the catalog or strictly newer in the
// source; equal or older timestamps leave it alone.
func reconcile(source, dest inventory.Inventory) *ReconcileOperations {
	ops := NewReconcileOperations()
	destIndex := dest.Index()

	for i := range source {
		src := source[i]
		dst, exists := destIndex[src.ID]

		switch {
		case !exists:
			ops.Publishes = append(ops.Publishes, &SyncOperation{Type: OpPublish, ID: src.ID, Source: &src})
		case src.LastModified.After(dst.LastModified):
			ops.Publishes = append(ops.Publishes, &SyncOperation{Type: OpPublish, ID: src.ID, Source: &src, Destination: &dst})
		default:
			ops.Unchanged = append(ops.Unchanged, src.ID)
		}
	}

	return ops
}

// removals lists catalog resources that are not in the source inventory:
// deleted, excluded, no longer public or without matching content.
func removals(source, dest inventory.Inventory) []*SyncOperation {
	sourceIDs := source.IDs()
	ops := []*SyncOperation{}

	for i := range dest {
		dst := dest[i]
		if !sourceIDs.Contains(dst.ID) {
			ops = append(ops, &SyncOperation{Type: OpRemove, ID: dst.ID, Destination: &dst})
		}
	}

	return ops
}
