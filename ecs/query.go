package ecs

import "iter"

// Row2 is one entity that has components in both joined systems.
type Row2[A, B Component] struct {
	Entity EntityId
	A      A
	B      B
}

// Row3 is one entity that has components in all three joined systems.
type Row3[A, B, C Component] struct {
	Entity EntityId
	A      A
	B      B
	C      C
}

// Join2 iterates over the entities that have a component in both a and b.
// It walks the smaller system and probes the other. Rows come in the storage
// order of the walked system.
func Join2[A, B Component](a *ComponentSystem[A], b *ComponentSystem[B]) iter.Seq[Row2[A, B]] {
	return func(yield func(Row2[A, B]) bool) {
		if a.ComponentCount() <= b.ComponentCount() {
			for eid, ca := range a.All() {
				cb, ok := b.Get(eid)
				if !ok {
					continue
				}
				if !yield(Row2[A, B]{Entity: eid, A: ca, B: cb}) {
					return
				}
			}
			return
		}
		for eid, cb := range b.All() {
			ca, ok := a.Get(eid)
			if !ok {
				continue
			}
			if !yield(Row2[A, B]{Entity: eid, A: ca, B: cb}) {
				return
			}
		}
	}
}

// Join3 iterates over the entities that have a component in a, b and c.
func Join3[A, B, C Component](a *ComponentSystem[A], b *ComponentSystem[B], c *ComponentSystem[C]) iter.Seq[Row3[A, B, C]] {
	return func(yield func(Row3[A, B, C]) bool) {
		for row := range Join2(a, b) {
			cc, ok := c.Get(row.Entity)
			if !ok {
				continue
			}
			if !yield(Row3[A, B, C]{Entity: row.Entity, A: row.A, B: row.B, C: cc}) {
				return
			}
		}
	}
}

// Count returns the number of rows seq yields.
func Count[T any](seq iter.Seq[T]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}
