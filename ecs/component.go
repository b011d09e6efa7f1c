package ecs

import "slices"

// Component is a typed bag of properties attached to one entity and owned by
// the entity system of its type. Implementations embed BaseComponent.
type Component interface {
	Type() ComponentType
	// IsInstanceOf reports whether the component's type is t or derives from t.
	IsInstanceOf(t ComponentType) bool
	EntityId() EntityId
	Properties() *PropertyContainer

	OnAddedToEntity(e *Entity)
	OnRemovedFromEntity(e *Entity)
	// Finished is called once all properties of a creation or spawn are set.
	Finished()

	componentBase() *BaseComponent
}

// BaseComponent carries the bookkeeping every component needs. Embed it and
// register fields from the component constructor:
//
//	type Transform struct {
//		ecs.BaseComponent
//		Translation ecs.Vec3Property
//	}
//
//	func NewTransform() *Transform {
//		t := &Transform{}
//		t.Register(ecs.SID("Translation"), &t.Translation)
//		return t
//	}
type BaseComponent struct {
	ctype ComponentType
	bases []ComponentType
	owner EntityId
	props PropertyContainer
}

func (c *BaseComponent) Type() ComponentType { return c.ctype }

func (c *BaseComponent) EntityId() EntityId { return c.owner }

func (c *BaseComponent) IsInstanceOf(t ComponentType) bool {
	return t == c.ctype || slices.Contains(c.bases, t)
}

// Properties returns the registered fields.
func (c *BaseComponent) Properties() *PropertyContainer { return &c.props }

// Register adds a field. It panics on a duplicate name, which is always a
// bug in the component constructor.
func (c *BaseComponent) Register(name StringId, p Property) {
	c.props.MustRegister(name, p)
}

// Property returns the field registered under name.
func (c *BaseComponent) Property(name StringId) (Property, bool) {
	return c.props.Get(name)
}

func (c *BaseComponent) OnAddedToEntity(*Entity)     {}
func (c *BaseComponent) OnRemovedFromEntity(*Entity) {}
func (c *BaseComponent) Finished()                   {}

func (c *BaseComponent) componentBase() *BaseComponent { return c }

func (c *BaseComponent) bind(t ComponentType, bases []ComponentType, owner EntityId) {
	c.ctype = t
	c.bases = bases
	c.owner = owner
}
