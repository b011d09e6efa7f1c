package main

import "github.com/plus3/simcore/ecs"

var (
	TransformType = ecs.SID("Transform")
	PositionType  = ecs.SID("Position")
	VelocityType  = ecs.SID("Velocity")
	HealthType    = ecs.SID("Health")
	LifetimeType  = ecs.SID("Lifetime")
	TagType       = ecs.SID("Tag")

	PingMessageType = ecs.SID("StressPing")

	fieldTranslation = ecs.SID("Translation")
	fieldLinear      = ecs.SID("Linear")
	fieldCurrent     = ecs.SID("Current")
	fieldMax         = ecs.SID("Max")
	fieldRemaining   = ecs.SID("Remaining")
	fieldLabel       = ecs.SID("Label")
	fieldSentAt      = ecs.SID("SentAt")
)

// Position is the only concrete Transform of the stress world.
type Position struct {
	ecs.BaseComponent
	Translation ecs.Vec3Property
}

func NewPosition() *Position {
	p := &Position{}
	p.Register(fieldTranslation, &p.Translation)
	return p
}

type Velocity struct {
	ecs.BaseComponent
	Linear ecs.Vec3Property
}

func NewVelocity() *Velocity {
	v := &Velocity{}
	v.Register(fieldLinear, &v.Linear)
	return v
}

type Health struct {
	ecs.BaseComponent
	Current ecs.IntProperty
	Max     ecs.IntProperty
}

func NewHealth() *Health {
	h := &Health{}
	h.Register(fieldCurrent, &h.Current)
	h.Register(fieldMax, &h.Max)
	return h
}

// Finished clamps the spawned health to its maximum.
func (h *Health) Finished() {
	if h.Current.Get() > h.Max.Get() {
		h.Current.Set(h.Max.Get())
	}
}

// Lifetime counts down simulated seconds until the entity expires.
type Lifetime struct {
	ecs.BaseComponent
	Remaining ecs.DoubleProperty
}

func NewLifetime() *Lifetime {
	l := &Lifetime{}
	l.Register(fieldRemaining, &l.Remaining)
	return l
}

type Tag struct {
	ecs.BaseComponent
	Label ecs.StringProperty
}

func NewTag() *Tag {
	t := &Tag{}
	t.Register(fieldLabel, &t.Label)
	return t
}

func registerComponents(r *ecs.ComponentRegistry, capacity int) {
	ecs.RegisterComponent(r, PositionType, NewPosition, ecs.WithBaseType(TransformType), ecs.WithCapacity(capacity))
	ecs.RegisterComponent(r, VelocityType, NewVelocity, ecs.WithCapacity(capacity))
	ecs.RegisterComponent(r, HealthType, NewHealth, ecs.WithCapacity(capacity))
	ecs.RegisterComponent(r, LifetimeType, NewLifetime, ecs.WithCapacity(capacity))
	ecs.RegisterComponent(r, TagType, NewTag)
}
