package ecs

import "strconv"

// EntityId identifies an entity within its manager. Ids are nonzero and are
// never reused while the manager lives.
type EntityId uint32

func (id EntityId) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Entity is an id paired with the manager that created it. It owns no
// components; they live in the entity systems.
type Entity struct {
	id      EntityId
	manager *EntityManager
}

func (e *Entity) Id() EntityId { return e.id }

func (e *Entity) Manager() *EntityManager { return e.manager }

// CreateComponent creates a component of type t on the entity.
func (e *Entity) CreateComponent(t ComponentType) (Component, error) {
	return e.manager.CreateComponent(e.id, t)
}

// GetComponent returns the component of type t, or with searchDerived of a
// type derived from t.
func (e *Entity) GetComponent(t ComponentType, searchDerived bool) (Component, bool) {
	return e.manager.GetComponent(e.id, t, searchDerived)
}

func (e *Entity) HasComponent(t ComponentType, searchDerived bool) bool {
	return e.manager.HasComponent(e.id, t, searchDerived)
}

func (e *Entity) DeleteComponent(t ComponentType) bool {
	return e.manager.DeleteComponent(e.id, t)
}

// Components returns every component of the entity in system registration order.
func (e *Entity) Components() []Component {
	return e.manager.GetComponents(e.id)
}

// Kill removes the entity and all its components.
func (e *Entity) Kill() bool {
	return e.manager.KillEntity(e.id)
}

// ComponentOf returns e's component of type t as a C.
func ComponentOf[C Component](e *Entity, t ComponentType) (C, bool) {
	return GetComponentOf[C](e.manager, e.id, t)
}
