package ecs

import "slices"

// TypeHierarchy records which component types derive from which. Every pair is
// stored transitively: if C derives from B and B from A, C derives from A no
// matter in which order the two relations were added. Lists keep insertion
// order so lookups over derived types are deterministic.
type TypeHierarchy struct {
	bases   map[ComponentType][]ComponentType
	derived map[ComponentType][]ComponentType
}

func NewTypeHierarchy() *TypeHierarchy {
	return &TypeHierarchy{
		bases:   make(map[ComponentType][]ComponentType),
		derived: make(map[ComponentType][]ComponentType),
	}
}

// Add records that derived inherits from base.
func (h *TypeHierarchy) Add(derived, base ComponentType) {
	if derived == base || derived == 0 || base == 0 {
		return
	}
	lower := append([]ComponentType{derived}, h.derived[derived]...)
	upper := append([]ComponentType{base}, h.bases[base]...)
	for _, d := range lower {
		for _, b := range upper {
			h.link(d, b)
		}
	}
}

func (h *TypeHierarchy) link(derived, base ComponentType) {
	if derived == base || slices.Contains(h.bases[derived], base) {
		return
	}
	h.bases[derived] = append(h.bases[derived], base)
	h.derived[base] = append(h.derived[base], derived)
}

// Bases returns every type t derives from, in the order they were recorded.
func (h *TypeHierarchy) Bases(t ComponentType) []ComponentType {
	return slices.Clone(h.bases[t])
}

// Derived returns every type that derives from t, in the order the relations
// were recorded.
func (h *TypeHierarchy) Derived(t ComponentType) []ComponentType {
	return slices.Clone(h.derived[t])
}

// IsA reports whether t is base or derives from it.
func (h *TypeHierarchy) IsA(t, base ComponentType) bool {
	return t == base || slices.Contains(h.bases[t], base)
}

// Len returns the number of types that have at least one base.
func (h *TypeHierarchy) Len() int {
	return len(h.bases)
}
