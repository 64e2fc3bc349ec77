package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInventoryLookups(t *testing.T) {
	t1 := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	inv := Inventory{
		{ID: "a", LastModified: t1},
		{ID: "b", LastModified: t1.Add(time.Hour)},
	}

	ids := inv.IDs()
	assert.Equal(t, 2, ids.Cardinality())
	assert.True(t, ids.Contains("a"))
	assert.False(t, ids.Contains("c"))

	index := inv.Index()
	assert.Equal(t, t1.Add(time.Hour), index["b"].LastModified)

	item, ok := inv.Get("a")
	assert.True(t, ok)
	assert.Equal(t, t1, item.LastModified)

	_, ok = inv.Get("missing")
	assert.False(t, ok)
}

func TestInventoryEmpty(t *testing.T) {
	var inv Inventory
	assert.Equal(t, 0, inv.IDs().Cardinality())
	assert.Empty(t, inv.Index())
}
