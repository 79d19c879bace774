package catalog

import "sync"

// View is a caller-owned, session-scoped snapshot of the product list. It
// exists to keep optimistic state mutation out of the Synchronizer: the
// synchronizer returns typed results, and the view reacts to them. A view
// starts stale and becomes fresh on Replace; any failed remote mutation
// marks it stale again so the next reader refetches.
type View struct {
	mu       sync.RWMutex
	products []Product
	fresh    bool
}

// NewView returns an empty, stale view.
func NewView() *View {
	return &View{}
}

// Replace installs a freshly fetched product list and clears staleness.
func (v *View) Replace(products []Product) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.products = append([]Product(nil), products...)
	v.fresh = true
}

// Products returns a copy of the current snapshot.
func (v *View) Products() []Product {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Product(nil), v.products...)
}

// Contains reports whether the snapshot holds a product with the given id.
func (v *View) Contains(id string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for i := range v.products {
		if v.products[i].ID == id {
			return true
		}
	}
	return false
}

// Apply inserts the product into the snapshot, replacing an existing entry
// with the same id. It is the optimistic half of a confirmed create or
// update.
func (v *View) Apply(p Product) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.products {
		if v.products[i].ID == p.ID {
			v.products[i] = p
			return
		}
	}
	v.products = append(v.products, p)
}

// Remove drops the product with the given id from the snapshot. It is the
// optimistic half of a delete and runs before the remote delete confirms.
func (v *View) Remove(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.products {
		if v.products[i].ID == id {
			v.products = append(v.products[:i], v.products[i+1:]...)
			return
		}
	}
}

// MarkStale flags the snapshot as out of sync with the remote store.
func (v *View) MarkStale() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fresh = false
}

// Stale reports whether the snapshot needs a refetch before use.
func (v *View) Stale() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return !v.fresh
}
