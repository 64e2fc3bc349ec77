package inventory

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Item is one publishable resource as seen by a single scan.
type Item struct {
	ID           string
	LastModified time.Time
}

// Inventory is the ordered result of a scan. IDs are unique within one scan.
type Inventory []Item

// IDs returns the set of identifiers in the inventory.
func (inv Inventory) IDs() mapset.Set[string] {
	ids := mapset.NewThreadUnsafeSetWithSize[string](len(inv))
	for _, item := range inv {
		ids.Add(item.ID)
	}
	return ids
}

// Index returns the inventory keyed by identifier.
func (inv Inventory) Index() map[string]Item {
	index := make(map[string]Item, len(inv))
	for _, item := range inv {
		index[item.ID] = item
	}
	return index
}

// Get returns the item with the given identifier, if present.
func (inv Inventory) Get(id string) (Item, bool) {
	for _, item := range inv {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}
