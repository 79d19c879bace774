package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_StartsStale(t *testing.T) {
	v := NewView()
	assert.True(t, v.Stale())
	assert.Empty(t, v.Products())
}

func TestView_ReplaceClearsStaleness(t *testing.T) {
	v := NewView()
	v.Replace([]Product{{ID: "p1"}, {ID: "p2"}})

	assert.False(t, v.Stale())
	require.Len(t, v.Products(), 2)
	assert.True(t, v.Contains("p1"))
}

func TestView_ApplyInsertsAndReplaces(t *testing.T) {
	v := NewView()
	v.Replace([]Product{{ID: "p1", Name: "Torta"}})

	v.Apply(Product{ID: "p2", Name: "Pan"})
	require.Len(t, v.Products(), 2)
	assert.True(t, v.Contains("p2"))

	v.Apply(Product{ID: "p1", Name: "Torta de chocolate"})
	require.Len(t, v.Products(), 2)
	assert.Equal(t, "Torta de chocolate", v.Products()[0].Name)
}

func TestView_RemoveIsLocalOnly(t *testing.T) {
	v := NewView()
	v.Replace([]Product{{ID: "p1"}, {ID: "p2"}})

	v.Remove("p1")

	assert.False(t, v.Contains("p1"))
	assert.True(t, v.Contains("p2"))
	assert.False(t, v.Stale(), "an optimistic removal alone does not invalidate the view")
}

func TestView_MarkStale(t *testing.T) {
	v := NewView()
	v.Replace([]Product{{ID: "p1"}})

	v.MarkStale()
	assert.True(t, v.Stale())

	v.Replace([]Product{{ID: "p1"}})
	assert.False(t, v.Stale())
}

func TestView_ProductsReturnsCopy(t *testing.T) {
	v := NewView()
	v.Replace([]Product{{ID: "p1", Name: "Torta"}})

	snapshot := v.Products()
	snapshot[0].Name = "mutated"

	assert.Equal(t, "Torta", v.Products()[0].Name)
}
