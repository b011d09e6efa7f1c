package ecs

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// ComponentDescriptor describes a component type that can be instantiated on
// demand.
type ComponentDescriptor struct {
	Type     ComponentType
	BaseType ComponentType
	// NewSystem builds the entity system for Type.
	NewSystem func() EntitySystem
}

// ComponentRegistry maps component types to the factories of their entity
// systems. Installed on an EntityManager as an EntitySystemRequestCallback it
// creates systems lazily the first time a component of their type is
// requested. Several managers may share one registry.
type ComponentRegistry struct {
	descriptors map[ComponentType]ComponentDescriptor
	order       []ComponentType
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		descriptors: make(map[ComponentType]ComponentDescriptor),
	}
}

// Register adds d. A descriptor for the same type replaces the previous one.
func (r *ComponentRegistry) Register(d ComponentDescriptor) error {
	if d.Type == 0 {
		return fmt.Errorf("component descriptor without a type")
	}
	if d.NewSystem == nil {
		return fmt.Errorf("component descriptor %s has no system factory", d.Type)
	}
	if _, exists := r.descriptors[d.Type]; !exists {
		r.order = append(r.order, d.Type)
	}
	r.descriptors[d.Type] = d
	return nil
}

// RegisterComponent registers a ComponentSystem[C] for type t built from
// newComponent. This is the common case; Register covers custom systems.
func RegisterComponent[C Component](r *ComponentRegistry, t ComponentType, newComponent func() C, opts ...SystemOption) {
	cfg := systemConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	err := r.Register(ComponentDescriptor{
		Type:     t,
		BaseType: cfg.baseType,
		NewSystem: func() EntitySystem {
			return NewComponentSystem(t, newComponent, opts...)
		},
	})
	if err != nil {
		panic(err)
	}
}

// Descriptor returns the descriptor registered for t.
func (r *ComponentRegistry) Descriptor(t ComponentType) (ComponentDescriptor, bool) {
	d, ok := r.descriptors[t]
	return d, ok
}

// Types returns the registered types in registration order.
func (r *ComponentRegistry) Types() []ComponentType {
	return slices.Clone(r.order)
}

// RecordHierarchy adds every registered base relation to h, whether or not
// the systems exist yet.
func (r *ComponentRegistry) RecordHierarchy(h *TypeHierarchy) {
	for _, t := range r.order {
		if d := r.descriptors[t]; d.BaseType != 0 {
			h.Add(t, d.BaseType)
		}
	}
}

// CreateEntitySystem implements EntitySystemRequestCallback.
func (r *ComponentRegistry) CreateEntitySystem(em *EntityManager, t ComponentType) bool {
	d, ok := r.descriptors[t]
	if !ok {
		return false
	}
	if err := em.AddEntitySystem(d.NewSystem()); err != nil {
		em.log.Warn("lazy entity system creation failed",
			zap.String("type", em.name(t)),
			zap.Error(err))
		return false
	}
	return true
}

// CreateAll adds a system for every registered type em does not have yet.
func (r *ComponentRegistry) CreateAll(em *EntityManager) error {
	for _, t := range r.order {
		if em.HasEntitySystem(t) {
			continue
		}
		if err := em.AddEntitySystem(r.descriptors[t].NewSystem()); err != nil {
			return err
		}
	}
	return nil
}
