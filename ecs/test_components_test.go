package ecs_test

import "github.com/plus3/simcore/ecs"

// Common test component types
var (
	TransformType = ecs.SID("Transform")
	PATType       = ecs.SID("PositionAttitudeTransform")
	HealthType    = ecs.SID("Health")
	NameType      = ecs.SID("Name")

	Translation = ecs.SID("Translation")
	Attitude    = ecs.SID("Attitude")
	Scale       = ecs.SID("Scale")
	Current     = ecs.SID("Current")
	Max         = ecs.SID("Max")
	Label       = ecs.SID("Label")
)

type Transform struct {
	ecs.BaseComponent
	Translation ecs.Vec3Property

	added    int
	removed  int
	finished int
}

func NewTransform() *Transform {
	t := &Transform{}
	t.Register(Translation, &t.Translation)
	return t
}

func (t *Transform) OnAddedToEntity(*ecs.Entity)     { t.added++ }
func (t *Transform) OnRemovedFromEntity(*ecs.Entity) { t.removed++ }
func (t *Transform) Finished()                       { t.finished++ }

// PositionAttitudeTransform derives from Transform.
type PositionAttitudeTransform struct {
	ecs.BaseComponent
	Translation ecs.Vec3Property
	Attitude    ecs.QuatProperty
	Scale       ecs.Vec3Property
}

func NewPositionAttitudeTransform() *PositionAttitudeTransform {
	t := &PositionAttitudeTransform{}
	t.Attitude.Set(ecs.IdentityQuat())
	t.Scale.Set(ecs.Vec3{1, 1, 1})
	t.Register(Translation, &t.Translation)
	t.Register(Attitude, &t.Attitude)
	t.Register(Scale, &t.Scale)
	return t
}

type Health struct {
	ecs.BaseComponent
	Current ecs.IntProperty
	Max     ecs.IntProperty

	finished int
	changed  []ecs.StringId
}

func NewHealth() *Health {
	h := &Health{}
	h.Max.Set(100)
	h.Current.Set(100)
	h.Register(Current, &h.Current)
	h.Register(Max, &h.Max)
	return h
}

func (h *Health) Finished() { h.finished++ }

func (h *Health) OnPropertyChanged(name ecs.StringId, _ ecs.Property) {
	h.changed = append(h.changed, name)
}

type Name struct {
	ecs.BaseComponent
	Label ecs.StringProperty
}

func NewName() *Name {
	n := &Name{}
	n.Register(Label, &n.Label)
	return n
}

type testWorld struct {
	em         *ecs.EntityManager
	transforms *ecs.ComponentSystem[*Transform]
	pats       *ecs.ComponentSystem[*PositionAttitudeTransform]
	healths    *ecs.ComponentSystem[*Health]
	names      *ecs.ComponentSystem[*Name]
}

func newTestWorld() *testWorld {
	w := &testWorld{
		em:         ecs.NewEntityManager(),
		transforms: ecs.NewComponentSystem(TransformType, NewTransform),
		pats:       ecs.NewComponentSystem(PATType, NewPositionAttitudeTransform, ecs.WithBaseType(TransformType)),
		healths:    ecs.NewComponentSystem(HealthType, NewHealth),
		names:      ecs.NewComponentSystem(NameType, NewName),
	}
	for _, s := range []ecs.EntitySystem{w.transforms, w.pats, w.healths, w.names} {
		if err := w.em.AddEntitySystem(s); err != nil {
			panic(err)
		}
	}
	return w
}

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent(registry, TransformType, NewTransform)
	ecs.RegisterComponent(registry, PATType, NewPositionAttitudeTransform, ecs.WithBaseType(TransformType))
	ecs.RegisterComponent(registry, HealthType, NewHealth)
	ecs.RegisterComponent(registry, NameType, NewName)
	return registry
}

func mustEntity(em *ecs.EntityManager) *ecs.Entity {
	e, err := em.CreateEntity()
	if err != nil {
		panic(err)
	}
	return e
}
