package ecs

import (
	"fmt"
	"slices"
)

// EntitySystem owns every component of one ComponentType.
// Implementations embed SystemBase; ComponentSystem is the stock implementation.
type EntitySystem interface {
	ComponentType() ComponentType
	// BaseType is the type this system's components derive from, or 0.
	BaseType() ComponentType

	CreateComponent(eid EntityId) (Component, error)
	GetComponent(eid EntityId) (Component, bool)
	HasComponent(eid EntityId) bool
	DeleteComponent(eid EntityId) bool
	ComponentCount() int
	EntityIds() []EntityId

	Properties() *PropertyContainer
	CallScriptedMethod(name StringId, args PropertyArray) (Property, error)
	ScriptedMethodNames() []StringId

	systemBase() *SystemBase
}

// ManagerListener is implemented by systems that need to know when they are
// added to or removed from an EntityManager, typically to register for
// messages.
type ManagerListener interface {
	OnAddedToManager(em *EntityManager)
	OnRemovedFromManager(em *EntityManager)
}

// ScriptedMethod is a native function exposed by name to scripting bridges.
type ScriptedMethod func(args PropertyArray) (Property, error)

// SystemBase holds the parts of an entity system that do not depend on the
// component type: its identity, system properties and scripted methods.
type SystemBase struct {
	ctype    ComponentType
	baseType ComponentType
	manager  *EntityManager
	props    PropertyContainer
	methods  map[StringId]ScriptedMethod
	order    []StringId
}

// NewSystemBase returns a base for a system owning type t. base may be 0.
func NewSystemBase(t, base ComponentType) SystemBase {
	return SystemBase{ctype: t, baseType: base}
}

func (s *SystemBase) ComponentType() ComponentType { return s.ctype }
func (s *SystemBase) BaseType() ComponentType      { return s.baseType }

// Manager returns the manager the system was added to, or nil.
func (s *SystemBase) Manager() *EntityManager { return s.manager }

// Properties returns the system-level properties.
func (s *SystemBase) Properties() *PropertyContainer { return &s.props }

// Register adds a system property. It panics on a duplicate name.
func (s *SystemBase) Register(name StringId, p Property) {
	s.props.MustRegister(name, p)
}

// AddScriptedMethod exposes fn under name, replacing a previous method of the
// same name.
func (s *SystemBase) AddScriptedMethod(name StringId, fn ScriptedMethod) {
	if s.methods == nil {
		s.methods = make(map[StringId]ScriptedMethod)
	}
	if _, exists := s.methods[name]; !exists {
		s.order = append(s.order, name)
	}
	s.methods[name] = fn
}

func (s *SystemBase) HasScriptedMethod(name StringId) bool {
	_, ok := s.methods[name]
	return ok
}

// CallScriptedMethod invokes the method registered under name.
func (s *SystemBase) CallScriptedMethod(name StringId, args PropertyArray) (Property, error) {
	fn, ok := s.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrMethodNotFound, name, s.ctype)
	}
	return fn(args)
}

// ScriptedMethodNames lists the methods in the order they were added.
func (s *SystemBase) ScriptedMethodNames() []StringId {
	return slices.Clone(s.order)
}

func (s *SystemBase) systemBase() *SystemBase { return s }
