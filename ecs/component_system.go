package ecs

import (
	"fmt"
	"iter"
	"slices"

	"github.com/kamstrup/intmap"
)

const defaultSystemCapacity = 64

// ComponentSystem stores the components of one type in a dense slice with an
// EntityId to slot index. Deleting a component moves the last one into its
// slot, so component pointers stay valid but slot order is not stable.
//
// The system must not be mutated while one of its iterators is running; queue
// structural changes through Commands instead.
type ComponentSystem[C Component] struct {
	SystemBase
	newComponent func() C
	components   []C
	owners       []EntityId
	slots        *intmap.Map[EntityId, int]
}

// SystemOption configures a ComponentSystem.
type SystemOption func(*systemConfig)

type systemConfig struct {
	baseType ComponentType
	capacity int
}

// WithBaseType declares that the system's components derive from base.
func WithBaseType(base ComponentType) SystemOption {
	return func(c *systemConfig) { c.baseType = base }
}

// WithCapacity presizes the storage.
func WithCapacity(n int) SystemOption {
	return func(c *systemConfig) { c.capacity = n }
}

// NewComponentSystem returns a system for type t that builds components with
// newComponent.
func NewComponentSystem[C Component](t ComponentType, newComponent func() C, opts ...SystemOption) *ComponentSystem[C] {
	cfg := systemConfig{capacity: defaultSystemCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &ComponentSystem[C]{
		SystemBase:   NewSystemBase(t, cfg.baseType),
		newComponent: newComponent,
		components:   make([]C, 0, cfg.capacity),
		owners:       make([]EntityId, 0, cfg.capacity),
		slots:        intmap.New[EntityId, int](cfg.capacity),
	}
}

// Create builds and stores a component for eid.
func (s *ComponentSystem[C]) Create(eid EntityId) (C, error) {
	var zero C
	if eid == 0 {
		return zero, fmt.Errorf("%w: zero entity id", ErrEntityNotFound)
	}
	if s.slots.Has(eid) {
		return zero, fmt.Errorf("%w: %s on entity %d", ErrComponentExists, s.ctype, eid)
	}

	c := s.newComponent()
	c.componentBase().bind(s.ctype, s.instanceBases(), eid)

	s.slots.Put(eid, len(s.components))
	s.components = append(s.components, c)
	s.owners = append(s.owners, eid)
	return c, nil
}

func (s *ComponentSystem[C]) instanceBases() []ComponentType {
	if s.manager != nil {
		return s.manager.hierarchy.Bases(s.ctype)
	}
	if s.baseType != 0 {
		return []ComponentType{s.baseType}
	}
	return nil
}

// Get returns the component of eid.
func (s *ComponentSystem[C]) Get(eid EntityId) (C, bool) {
	slot, ok := s.slots.Get(eid)
	if !ok {
		var zero C
		return zero, false
	}
	return s.components[slot], true
}

// Delete removes the component of eid. It reports false if there was none.
func (s *ComponentSystem[C]) Delete(eid EntityId) bool {
	slot, ok := s.slots.Get(eid)
	if !ok {
		return false
	}
	last := len(s.components) - 1
	if slot != last {
		s.components[slot] = s.components[last]
		s.owners[slot] = s.owners[last]
		s.slots.Put(s.owners[slot], slot)
	}
	var zero C
	s.components[last] = zero
	s.components = s.components[:last]
	s.owners = s.owners[:last]
	s.slots.Del(eid)
	return true
}

// All iterates over every component with its entity.
func (s *ComponentSystem[C]) All() iter.Seq2[EntityId, C] {
	return func(yield func(EntityId, C) bool) {
		for i, c := range s.components {
			if !yield(s.owners[i], c) {
				return
			}
		}
	}
}

// Values iterates over the components only.
func (s *ComponentSystem[C]) Values() iter.Seq[C] {
	return func(yield func(C) bool) {
		for _, c := range s.components {
			if !yield(c) {
				return
			}
		}
	}
}

func (s *ComponentSystem[C]) CreateComponent(eid EntityId) (Component, error) {
	c, err := s.Create(eid)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ComponentSystem[C]) GetComponent(eid EntityId) (Component, bool) {
	c, ok := s.Get(eid)
	if !ok {
		return nil, false
	}
	return c, true
}

func (s *ComponentSystem[C]) HasComponent(eid EntityId) bool { return s.slots.Has(eid) }

func (s *ComponentSystem[C]) DeleteComponent(eid EntityId) bool { return s.Delete(eid) }

func (s *ComponentSystem[C]) ComponentCount() int { return len(s.components) }

// EntityIds returns the owners of every component in storage order.
func (s *ComponentSystem[C]) EntityIds() []EntityId {
	return slices.Clone(s.owners)
}
