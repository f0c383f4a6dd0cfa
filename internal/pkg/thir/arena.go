package thir

import "zinc-compiler/internal/pkg/common"

// Arena is an append-only store. Ids are 1-based, so the zero id is never valid.
type Arena[I ~uint32, T any] struct {
	items []*T
}

func (a *Arena[I, T]) Insert(value T) I {
	a.items = append(a.items, &value)
	return I(len(a.items))
}

func (a *Arena[I, T]) Get(id I) (*T, bool) {
	if id == 0 || int(id) > len(a.items) {
		return nil, false
	}
	return a.items[id-1], true
}

// At returns the value for id and panics when id does not belong to the arena.
func (a *Arena[I, T]) At(id I) *T {
	v, ok := a.Get(id)
	common.Assert(ok, "arena index %d out of range (len %d)", id, len(a.items))
	return v
}

func (a *Arena[I, T]) Len() int {
	return len(a.items)
}

// Ids lists every id in insertion order.
func (a *Arena[I, T]) Ids() []I {
	ids := make([]I, len(a.items))
	for i := range ids {
		ids[i] = I(i + 1)
	}
	return ids
}

// ArenaMap associates values with a subset of the ids of an arena.
type ArenaMap[I ~uint32, V any] struct {
	values map[I]V
}

func (m *ArenaMap[I, V]) Insert(id I, value V) {
	if m.values == nil {
		m.values = map[I]V{}
	}
	m.values[id] = value
}

func (m *ArenaMap[I, V]) Get(id I) (V, bool) {
	v, ok := m.values[id]
	return v, ok
}

func (m *ArenaMap[I, V]) Has(id I) bool {
	_, ok := m.values[id]
	return ok
}

func (m *ArenaMap[I, V]) Len() int {
	return len(m.values)
}
