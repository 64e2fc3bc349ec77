package sync

import "github.com/openmined/netcdfpub/internal/inventory"

type OpType string

const (
	OpPublish OpType = "Publish"
	OpRemove  OpType = "Remove"
)

type SyncOperation struct {
	Type        OpType
	ID          string
	Source      *inventory.Item
	Destination *inventory.Item
}

// IsNew reports whether a publish targets a resource absent from the catalog.
func (op *SyncOperation) IsNew() bool {
	return op.Type == OpPublish && op.Destination == nil
}
