package inspect

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/plus3/simcore/ecs"
)

// TypeQuery finds the entities that have a component of every selected type.
// With derived matching enabled a selected type is also satisfied by a
// component of a type derived from it.
type TypeQuery struct {
	selected      map[ecs.ComponentType]bool
	searchDerived bool
}

func NewTypeQuery() *TypeQuery {
	return &TypeQuery{selected: make(map[ecs.ComponentType]bool)}
}

func (q *TypeQuery) Toggle(t ecs.ComponentType) {
	if q.selected[t] {
		delete(q.selected, t)
		return
	}
	q.selected[t] = true
}

func (q *TypeQuery) Clear()                   { clear(q.selected) }
func (q *TypeQuery) SetSearchDerived(on bool) { q.searchDerived = on }

// Selected returns the selected types in ascending id order.
func (q *TypeQuery) Selected() []ecs.ComponentType {
	out := make([]ecs.ComponentType, 0, len(q.selected))
	for t := range q.selected {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Matches returns the matching entities in ascending order. Nothing matches
// an empty selection.
func (q *TypeQuery) Matches(em *ecs.EntityManager) []ecs.EntityId {
	types := q.Selected()
	if len(types) == 0 {
		return nil
	}
	var out []ecs.EntityId
	for _, eid := range em.EntityIds() {
		if q.matches(em, eid, types) {
			out = append(out, eid)
		}
	}
	return out
}

func (q *TypeQuery) matches(em *ecs.EntityManager, eid ecs.EntityId, types []ecs.ComponentType) bool {
	for _, t := range types {
		if !em.HasComponent(eid, t, q.searchDerived) {
			return false
		}
	}
	return true
}

// AvailableTypes lists the component types of all registered systems by name.
func AvailableTypes(em *ecs.EntityManager) []string {
	systems := em.EntitySystems()
	names := make([]string, len(systems))
	for i, s := range systems {
		names[i] = typeName(em, s.ComponentType())
	}
	slices.Sort(names)
	return names
}

func (q *TypeQuery) Render(w io.Writer, em *ecs.EntityManager) error {
	ew := &errWriter{w: w}
	header(ew, "Type Query")

	types := q.Selected()
	if len(types) == 0 {
		ew.printf("No component types selected (available: %s)\n", strings.Join(AvailableTypes(em), ", "))
		return ew.err
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = typeName(em, t)
	}
	ew.printf("Types: %s (derived: %t)\n", strings.Join(names, ", "), q.searchDerived)

	matches := q.Matches(em)
	ew.printf("Matching Entities: %d\n", len(matches))
	if len(matches) > 0 {
		ids := make([]string, len(matches))
		for i, eid := range matches {
			ids[i] = fmt.Sprintf("%d", eid)
		}
		ew.printf("%s\n", strings.Join(ids, " "))
	}
	return ew.err
}
