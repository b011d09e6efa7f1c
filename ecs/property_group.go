package ecs

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// PropertyArray is an ordered list of properties.
type PropertyArray []Property

// Clone copies every element.
func (a PropertyArray) Clone() PropertyArray {
	if a == nil {
		return nil
	}
	out := make(PropertyArray, len(a))
	for i, p := range a {
		out[i] = p.Clone()
	}
	return out
}

func (a PropertyArray) equals(b PropertyArray) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

// PropertyGroup maps names to properties. Iteration order carries no meaning;
// use Names for a stable order.
type PropertyGroup map[StringId]Property

// Get returns the property stored under name.
func (g PropertyGroup) Get(name StringId) (Property, bool) {
	p, ok := g[name]
	return p, ok
}

// Set stores p under name.
func (g PropertyGroup) Set(name StringId, p Property) {
	g[name] = p
}

func (g PropertyGroup) Has(name StringId) bool {
	_, ok := g[name]
	return ok
}

func (g PropertyGroup) Delete(name StringId) {
	delete(g, name)
}

// Clone deep-copies the group.
func (g PropertyGroup) Clone() PropertyGroup {
	out := make(PropertyGroup, len(g))
	for k, p := range g {
		out[k] = p.Clone()
	}
	return out
}

// Overlay returns a new group holding every key of g and overlay. Keys present
// in both take overlay's value.
func (g PropertyGroup) Overlay(overlay PropertyGroup) PropertyGroup {
	out := g.Clone()
	for k, p := range overlay {
		out[k] = p.Clone()
	}
	return out
}

// Names returns the keys sorted by their resolved names.
func (g PropertyGroup) Names() []StringId {
	names := make([]StringId, 0, len(g))
	for k := range g {
		names = append(names, k)
	}
	slices.SortFunc(names, func(a, b StringId) int {
		if c := strings.Compare(a.String(), b.String()); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return names
}

// Equals compares keys and values.
func (g PropertyGroup) Equals(other PropertyGroup) bool {
	if len(g) != len(other) {
		return false
	}
	for k, p := range g {
		o, ok := other[k]
		if !ok || !p.Equals(o) {
			return false
		}
	}
	return true
}

// scalarDefaults provides the zero-valued scalar getters for container properties.
type scalarDefaults struct{}

func (scalarDefaults) BoolValue() bool         { return false }
func (scalarDefaults) IntValue() int32         { return 0 }
func (scalarDefaults) UIntValue() uint32       { return 0 }
func (scalarDefaults) FloatValue() float32     { return 0 }
func (scalarDefaults) DoubleValue() float64    { return 0 }
func (scalarDefaults) StringValue() string     { return "" }
func (scalarDefaults) StringIdValue() StringId { return 0 }
func (scalarDefaults) Vec2Value() Vec2         { return Vec2{} }
func (scalarDefaults) Vec3Value() Vec3         { return Vec3{} }
func (scalarDefaults) Vec4Value() Vec4         { return Vec4{} }
func (scalarDefaults) Vec2dValue() Vec2d       { return Vec2d{} }
func (scalarDefaults) Vec3dValue() Vec3d       { return Vec3d{} }
func (scalarDefaults) Vec4dValue() Vec4d       { return Vec4d{} }
func (scalarDefaults) QuatValue() Quat         { return Quat{} }
func (scalarDefaults) MatrixValue() Matrix     { return Matrix{} }

// ArrayProperty holds a PropertyArray.
type ArrayProperty struct {
	scalarDefaults
	value PropertyArray
}

// NewArrayProperty returns an array property holding the given elements.
// The elements are not copied.
func NewArrayProperty(items ...Property) *ArrayProperty {
	return &ArrayProperty{value: PropertyArray(items)}
}

func (p *ArrayProperty) Get() PropertyArray  { return p.value }
func (p *ArrayProperty) Set(v PropertyArray) { p.value = v }
func (p *ArrayProperty) Add(item Property)   { p.value = append(p.value, item) }
func (p *ArrayProperty) Len() int            { return len(p.value) }
func (p *ArrayProperty) Type() DataType      { return DataTypeArray }
func (p *ArrayProperty) Value() any          { return p.value }
func (p *ArrayProperty) Clone() Property     { return &ArrayProperty{value: p.value.Clone()} }

func (p *ArrayProperty) ArrayValue() PropertyArray { return p.value }
func (p *ArrayProperty) GroupValue() PropertyGroup { return nil }

func (p *ArrayProperty) Equals(other Property) bool {
	o, ok := other.(*ArrayProperty)
	return ok && p.value.equals(o.value)
}

func (p *ArrayProperty) SetFrom(other Property) bool {
	if other == nil || other.Type() != DataTypeArray {
		return false
	}
	p.value = other.ArrayValue().Clone()
	return true
}

func (p *ArrayProperty) String() string {
	parts := make([]string, len(p.value))
	for i, item := range p.value {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// GroupProperty holds a PropertyGroup.
type GroupProperty struct {
	scalarDefaults
	value PropertyGroup
}

// NewGroupProperty wraps g. A nil group is replaced by an empty one.
func NewGroupProperty(g PropertyGroup) *GroupProperty {
	if g == nil {
		g = PropertyGroup{}
	}
	return &GroupProperty{value: g}
}

func (p *GroupProperty) Get() PropertyGroup  { return p.value }
func (p *GroupProperty) Set(v PropertyGroup) { p.value = v }
func (p *GroupProperty) Type() DataType      { return DataTypeGroup }
func (p *GroupProperty) Value() any          { return p.value }
func (p *GroupProperty) Clone() Property     { return &GroupProperty{value: p.value.Clone()} }

func (p *GroupProperty) ArrayValue() PropertyArray { return nil }
func (p *GroupProperty) GroupValue() PropertyGroup { return p.value }

func (p *GroupProperty) Equals(other Property) bool {
	o, ok := other.(*GroupProperty)
	return ok && p.value.Equals(o.value)
}

func (p *GroupProperty) SetFrom(other Property) bool {
	if other == nil || other.Type() != DataTypeGroup {
		return false
	}
	p.value = other.GroupValue().Clone()
	return true
}

func (p *GroupProperty) String() string {
	names := p.value.Names()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.String() + ": " + p.value[n].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// PropertyChangeListener is implemented by property owners that want to know
// when Apply changed one of their values.
type PropertyChangeListener interface {
	OnPropertyChanged(name StringId, p Property)
}

// PropertyContainer keeps properties in registration order. Components,
// entity systems and messages use it to expose their fields by name.
type PropertyContainer struct {
	names []StringId
	props map[StringId]Property
}

// Register adds p under name. Registering the same name twice is an error.
func (c *PropertyContainer) Register(name StringId, p Property) error {
	if c.props == nil {
		c.props = make(map[StringId]Property)
	}
	if _, exists := c.props[name]; exists {
		return fmt.Errorf("property %s already registered", name)
	}
	c.props[name] = p
	c.names = append(c.names, name)
	return nil
}

// MustRegister is Register that panics on a duplicate name. Intended for
// constructors that register a fixed field list.
func (c *PropertyContainer) MustRegister(name StringId, p Property) {
	if err := c.Register(name, p); err != nil {
		panic(err)
	}
}

func (c *PropertyContainer) Get(name StringId) (Property, bool) {
	p, ok := c.props[name]
	return p, ok
}

func (c *PropertyContainer) Has(name StringId) bool {
	_, ok := c.props[name]
	return ok
}

// Names returns the registered names in registration order.
func (c *PropertyContainer) Names() []StringId {
	return slices.Clone(c.names)
}

func (c *PropertyContainer) Len() int { return len(c.names) }

// Each calls fn for every property in registration order.
func (c *PropertyContainer) Each(fn func(name StringId, p Property)) {
	for _, name := range c.names {
		fn(name, c.props[name])
	}
}

// Snapshot clones every registered property into a new group.
func (c *PropertyContainer) Snapshot() PropertyGroup {
	g := make(PropertyGroup, len(c.names))
	for _, name := range c.names {
		g[name] = c.props[name].Clone()
	}
	return g
}

// Apply copies every value of g onto the property registered under the same
// name. Keys that are unknown or carry the wrong type are reported in the
// returned error; all other keys are still applied. listener may be nil.
func (c *PropertyContainer) Apply(g PropertyGroup, listener PropertyChangeListener) error {
	var errs []error
	for _, name := range g.Names() {
		src := g[name]
		dst, ok := c.props[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrPropertyNotFound, name))
			continue
		}
		if !dst.SetFrom(src) {
			errs = append(errs, fmt.Errorf("%w: %s is %s, got %s", ErrTypeMismatch, name, dst.Type(), src.Type()))
			continue
		}
		if listener != nil {
			listener.OnPropertyChanged(name, dst)
		}
	}
	return errors.Join(errs...)
}

// CopyFrom sets every property of c that also exists in other.
func (c *PropertyContainer) CopyFrom(other *PropertyContainer) {
	for _, name := range c.names {
		if src, ok := other.props[name]; ok {
			c.props[name].SetFrom(src)
		}
	}
}
