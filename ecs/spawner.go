package ecs

import (
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// Spawner is a named template of component types and the property values to
// assign when an entity is spawned from it. A spawner inherits every entry of
// its parent chain; its own entries win per (component type, property name).
//
// Parent chains must be acyclic. Cycles are not detected.
type Spawner struct {
	name              string
	mapName           string
	addToSpawnerStore bool
	guiCategory       string
	iconPath          string
	parent            *Spawner

	components map[ComponentType]PropertyGroup
	order      []ComponentType
}

// NewSpawner returns an empty spawner. parent may be nil.
func NewSpawner(name string, parent *Spawner) *Spawner {
	return &Spawner{
		name:       name,
		parent:     parent,
		components: make(map[ComponentType]PropertyGroup),
	}
}

func (s *Spawner) Name() string        { return s.name }
func (s *Spawner) SetName(name string) { s.name = name }

// MapName is the name of the map the spawner was loaded from.
func (s *Spawner) MapName() string        { return s.mapName }
func (s *Spawner) SetMapName(name string) { s.mapName = name }

func (s *Spawner) AddToSpawnerStore() bool     { return s.addToSpawnerStore }
func (s *Spawner) SetAddToSpawnerStore(v bool) { s.addToSpawnerStore = v }

func (s *Spawner) GUICategory() string       { return s.guiCategory }
func (s *Spawner) SetGUICategory(cat string) { s.guiCategory = cat }
func (s *Spawner) IconPath() string          { return s.iconPath }
func (s *Spawner) SetIconPath(path string)   { s.iconPath = path }
func (s *Spawner) Parent() *Spawner          { return s.parent }
func (s *Spawner) SetParent(parent *Spawner) { s.parent = parent }

// ComponentTypes returns the types of the spawner's own entries in the order
// they were added.
func (s *Spawner) ComponentTypes() []ComponentType {
	return slices.Clone(s.order)
}

// HasComponent reports whether the spawner itself has an entry for t.
func (s *Spawner) HasComponent(t ComponentType) bool {
	_, ok := s.components[t]
	return ok
}

// HasComponentRecursive reports whether the spawner or any ancestor has an
// entry for t.
func (s *Spawner) HasComponentRecursive(t ComponentType) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.HasComponent(t) {
			return true
		}
	}
	return false
}

// AddComponent stores a clone of props as the entry for t, replacing any
// previous entry.
func (s *Spawner) AddComponent(t ComponentType, props PropertyGroup) {
	if _, exists := s.components[t]; !exists {
		s.order = append(s.order, t)
	}
	if props == nil {
		s.components[t] = PropertyGroup{}
		return
	}
	s.components[t] = props.Clone()
}

// RemoveComponent drops the entry for t.
func (s *Spawner) RemoveComponent(t ComponentType) bool {
	if _, ok := s.components[t]; !ok {
		return false
	}
	delete(s.components, t)
	s.order = slices.DeleteFunc(s.order, func(x ComponentType) bool { return x == t })
	return true
}

// GetComponentValues returns a clone of the spawner's own entry for t.
func (s *Spawner) GetComponentValues(t ComponentType) (PropertyGroup, bool) {
	g, ok := s.components[t]
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// SetComponentValues replaces the entry for t. It is AddComponent under the
// name the rest of the API uses.
func (s *Spawner) SetComponentValues(t ComponentType, props PropertyGroup) {
	s.AddComponent(t, props)
}

// SetValue stores a clone of v as property name of the entry for t. It does
// nothing and reports false when the spawner has no entry for t.
func (s *Spawner) SetValue(t ComponentType, name StringId, v Property) bool {
	g, ok := s.components[t]
	if !ok {
		return false
	}
	g[name] = v.Clone()
	return true
}

// GetAllComponentProperties returns clones of the spawner's own entries.
func (s *Spawner) GetAllComponentProperties() map[ComponentType]PropertyGroup {
	out := make(map[ComponentType]PropertyGroup, len(s.components))
	for t, g := range s.components {
		out[t] = g.Clone()
	}
	return out
}

// GetAllComponentPropertiesRecursive merges the entries of the whole parent
// chain, root first, so that the most specific spawner wins per property.
func (s *Spawner) GetAllComponentPropertiesRecursive() map[ComponentType]PropertyGroup {
	out, _ := s.resolve()
	return out
}

// resolve merges the chain and also returns the component types in spawn
// order: ancestors' types first, each spawner's types in the order added.
func (s *Spawner) resolve() (map[ComponentType]PropertyGroup, []ComponentType) {
	if s.parent == nil {
		return s.GetAllComponentProperties(), slices.Clone(s.order)
	}
	merged, order := s.parent.resolve()
	for _, t := range s.order {
		own := s.components[t]
		base, ok := merged[t]
		if !ok {
			merged[t] = own.Clone()
			order = append(order, t)
			continue
		}
		merged[t] = base.Overlay(own)
	}
	return merged, order
}

// InitFromEntity replaces the spawner's entries with a snapshot of every
// component e currently has.
func (s *Spawner) InitFromEntity(e *Entity) {
	s.components = make(map[ComponentType]PropertyGroup)
	s.order = s.order[:0]
	for _, c := range e.Components() {
		s.components[c.Type()] = c.Properties().Snapshot()
		s.order = append(s.order, c.Type())
	}
}

// Spawn creates the spawner's components on e, reusing components e already
// has, and applies the merged property values. Finished is called once per
// touched component after all of its values are applied. It fails if the
// system of some component type cannot be resolved; components touched up to
// that point keep their values.
func (s *Spawner) Spawn(e *Entity) error {
	em := e.manager
	props, order := s.resolve()

	touched := make([]Component, 0, len(order))
	var spawnErr error
	for _, t := range order {
		c, ok := em.GetComponent(e.id, t, false)
		if !ok {
			var err error
			c, err = em.CreateComponent(e.id, t)
			if err != nil {
				spawnErr = fmt.Errorf("spawn %q: %w", s.name, err)
				break
			}
		}
		if err := applyProperties(c, props[t]); err != nil {
			em.log.Warn("spawner property not applied",
				zap.String("spawner", s.name),
				zap.String("component", em.name(t)),
				zap.Error(err))
		}
		touched = append(touched, c)
	}
	for _, c := range touched {
		c.Finished()
	}
	return spawnErr
}

func applyProperties(c Component, g PropertyGroup) error {
	var listener PropertyChangeListener
	if l, ok := c.(PropertyChangeListener); ok {
		listener = l
	}
	return c.Properties().Apply(g, listener)
}

// Fingerprint hashes the merged property map. Two spawners that would spawn
// identical values have the same fingerprint.
func (s *Spawner) Fingerprint() uint64 {
	props, _ := s.resolve()
	types := make([]ComponentType, 0, len(props))
	for t := range props {
		types = append(types, t)
	}
	slices.Sort(types)

	d := xxhash.New()
	for _, t := range types {
		fmt.Fprintf(d, "%d{", uint32(t))
		g := props[t]
		for _, name := range g.Names() {
			p := g[name]
			fmt.Fprintf(d, "%d:%d=%s;", uint32(name), uint8(p.Type()), p)
		}
		_, _ = d.WriteString("}")
	}
	return d.Sum64()
}

// SpawnEntity creates an entity on em and spawns s onto it. The entity is
// killed again if spawning fails.
func (s *Spawner) SpawnEntity(em *EntityManager) (*Entity, error) {
	e, err := em.CreateEntity()
	if err != nil {
		return nil, err
	}
	if err := s.Spawn(e); err != nil {
		em.KillEntity(e.id)
		return nil, err
	}
	return e, nil
}
