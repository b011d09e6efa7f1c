package ecs

import (
	"fmt"
	"strings"
)

// Vector, quaternion and matrix value types carried by properties.
type (
	Vec2  [2]float32
	Vec3  [3]float32
	Vec4  [4]float32
	Vec2d [2]float64
	Vec3d [3]float64
	Vec4d [4]float64
	// Quat is stored as x, y, z, w.
	Quat [4]float64
	// Matrix is a row-major 4x4 matrix.
	Matrix [16]float64
)

// IdentityQuat returns the rotation that does nothing.
func IdentityQuat() Quat { return Quat{0, 0, 0, 1} }

// IdentityMatrix returns the 4x4 identity matrix.
func IdentityMatrix() Matrix {
	return Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// DataType tags the value held by a Property.
type DataType uint8

const (
	DataTypeNone DataType = iota
	DataTypeBool
	DataTypeInt
	DataTypeUInt
	DataTypeFloat
	DataTypeDouble
	DataTypeString
	DataTypeStringId
	DataTypeVec2
	DataTypeVec3
	DataTypeVec4
	DataTypeVec2d
	DataTypeVec3d
	DataTypeVec4d
	DataTypeQuat
	DataTypeMatrix
	DataTypeArray
	DataTypeGroup
)

var dataTypeNames = [...]string{
	DataTypeNone:     "none",
	DataTypeBool:     "bool",
	DataTypeInt:      "int",
	DataTypeUInt:     "uint",
	DataTypeFloat:    "float",
	DataTypeDouble:   "double",
	DataTypeString:   "string",
	DataTypeStringId: "stringid",
	DataTypeVec2:     "vec2",
	DataTypeVec3:     "vec3",
	DataTypeVec4:     "vec4",
	DataTypeVec2d:    "vec2d",
	DataTypeVec3d:    "vec3d",
	DataTypeVec4d:    "vec4d",
	DataTypeQuat:     "quat",
	DataTypeMatrix:   "matrix",
	DataTypeArray:    "array",
	DataTypeGroup:    "group",
}

func (t DataType) String() string {
	if int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return fmt.Sprintf("datatype(%d)", uint8(t))
}

// ParseDataType is the inverse of DataType.String.
func ParseDataType(s string) (DataType, bool) {
	for i, name := range dataTypeNames {
		if name == s {
			return DataType(i), true
		}
	}
	return DataTypeNone, false
}

// Property is a typed value used for every component, system and message field.
//
// The typed getters return the zero value when called against a property of a
// different DataType. Callers are expected to know the declared type of the
// field they read.
type Property interface {
	Type() DataType
	// Clone returns an independent copy. Dynamic properties clone into a
	// static snapshot of their current value.
	Clone() Property
	Equals(other Property) bool
	// SetFrom copies the value of other. It reports false if other holds a
	// different DataType.
	SetFrom(other Property) bool
	// Value returns the current value boxed.
	Value() any
	String() string

	BoolValue() bool
	IntValue() int32
	UIntValue() uint32
	FloatValue() float32
	DoubleValue() float64
	StringValue() string
	StringIdValue() StringId
	Vec2Value() Vec2
	Vec3Value() Vec3
	Vec4Value() Vec4
	Vec2dValue() Vec2d
	Vec3dValue() Vec3d
	Vec4dValue() Vec4d
	QuatValue() Quat
	MatrixValue() Matrix
	ArrayValue() PropertyArray
	GroupValue() PropertyGroup
}

// Scalar lists the value types a Typed property can carry.
type Scalar interface {
	bool | int32 | uint32 | float32 | float64 | string | StringId |
		Vec2 | Vec3 | Vec4 | Vec2d | Vec3d | Vec4d | Quat | Matrix
}

// Typed is a single-valued property. A static Typed stores its value; a
// dynamic one forwards every Get and Set to the functions it was built with.
type Typed[T Scalar] struct {
	value  T
	getter func() T
	setter func(T)
}

// Aliases for the concrete property flavours.
type (
	BoolProperty     = Typed[bool]
	IntProperty      = Typed[int32]
	UIntProperty     = Typed[uint32]
	FloatProperty    = Typed[float32]
	DoubleProperty   = Typed[float64]
	StringProperty   = Typed[string]
	StringIdProperty = Typed[StringId]
	Vec2Property     = Typed[Vec2]
	Vec3Property     = Typed[Vec3]
	Vec4Property     = Typed[Vec4]
	Vec2dProperty    = Typed[Vec2d]
	Vec3dProperty    = Typed[Vec3d]
	Vec4dProperty    = Typed[Vec4d]
	QuatProperty     = Typed[Quat]
	MatrixProperty   = Typed[Matrix]
)

// NewProperty returns a static property holding v.
func NewProperty[T Scalar](v T) *Typed[T] {
	return &Typed[T]{value: v}
}

// NewDynamicProperty returns a property that stores nothing: Get calls get and
// Set calls set. Both functions are required and fixed for the property's life.
func NewDynamicProperty[T Scalar](get func() T, set func(T)) *Typed[T] {
	if get == nil || set == nil {
		panic("ecs: dynamic property needs both a getter and a setter")
	}
	return &Typed[T]{getter: get, setter: set}
}

// Get returns the current value.
func (p *Typed[T]) Get() T {
	if p.getter != nil {
		return p.getter()
	}
	return p.value
}

// Set stores v, or passes it straight to the setter of a dynamic property.
func (p *Typed[T]) Set(v T) {
	if p.setter != nil {
		p.setter(v)
		return
	}
	p.value = v
}

// IsDynamic reports whether the property is backed by callbacks.
func (p *Typed[T]) IsDynamic() bool { return p.getter != nil }

func (p *Typed[T]) Type() DataType { return dataTypeOf[T]() }

func (p *Typed[T]) Clone() Property { return &Typed[T]{value: p.Get()} }

func (p *Typed[T]) Equals(other Property) bool {
	o, ok := other.(*Typed[T])
	return ok && o.Get() == p.Get()
}

func (p *Typed[T]) SetFrom(other Property) bool {
	if other == nil {
		return false
	}
	v, ok := other.Value().(T)
	if !ok {
		return false
	}
	p.Set(v)
	return true
}

func (p *Typed[T]) Value() any { return p.Get() }

func (p *Typed[T]) String() string {
	switch v := any(p.Get()).(type) {
	case string:
		return v
	case StringId:
		return v.String()
	default:
		return strings.Trim(fmt.Sprint(v), "[]")
	}
}

func (p *Typed[T]) BoolValue() bool           { return as[bool](p.Get()) }
func (p *Typed[T]) IntValue() int32           { return as[int32](p.Get()) }
func (p *Typed[T]) UIntValue() uint32         { return as[uint32](p.Get()) }
func (p *Typed[T]) FloatValue() float32       { return as[float32](p.Get()) }
func (p *Typed[T]) DoubleValue() float64      { return as[float64](p.Get()) }
func (p *Typed[T]) StringValue() string       { return as[string](p.Get()) }
func (p *Typed[T]) StringIdValue() StringId   { return as[StringId](p.Get()) }
func (p *Typed[T]) Vec2Value() Vec2           { return as[Vec2](p.Get()) }
func (p *Typed[T]) Vec3Value() Vec3           { return as[Vec3](p.Get()) }
func (p *Typed[T]) Vec4Value() Vec4           { return as[Vec4](p.Get()) }
func (p *Typed[T]) Vec2dValue() Vec2d         { return as[Vec2d](p.Get()) }
func (p *Typed[T]) Vec3dValue() Vec3d         { return as[Vec3d](p.Get()) }
func (p *Typed[T]) Vec4dValue() Vec4d         { return as[Vec4d](p.Get()) }
func (p *Typed[T]) QuatValue() Quat           { return as[Quat](p.Get()) }
func (p *Typed[T]) MatrixValue() Matrix       { return as[Matrix](p.Get()) }
func (p *Typed[T]) ArrayValue() PropertyArray { return nil }
func (p *Typed[T]) GroupValue() PropertyGroup { return nil }

func as[V any](v any) V {
	r, _ := v.(V)
	return r
}

func dataTypeOf[T Scalar]() DataType {
	var zero T
	switch any(zero).(type) {
	case bool:
		return DataTypeBool
	case int32:
		return DataTypeInt
	case uint32:
		return DataTypeUInt
	case float32:
		return DataTypeFloat
	case float64:
		return DataTypeDouble
	case string:
		return DataTypeString
	case StringId:
		return DataTypeStringId
	case Vec2:
		return DataTypeVec2
	case Vec3:
		return DataTypeVec3
	case Vec4:
		return DataTypeVec4
	case Vec2d:
		return DataTypeVec2d
	case Vec3d:
		return DataTypeVec3d
	case Vec4d:
		return DataTypeVec4d
	case Quat:
		return DataTypeQuat
	case Matrix:
		return DataTypeMatrix
	}
	return DataTypeNone
}

// NewPropertyOfType returns a static property of type t holding its zero value.
func NewPropertyOfType(t DataType) (Property, bool) {
	switch t {
	case DataTypeBool:
		return NewProperty(false), true
	case DataTypeInt:
		return NewProperty(int32(0)), true
	case DataTypeUInt:
		return NewProperty(uint32(0)), true
	case DataTypeFloat:
		return NewProperty(float32(0)), true
	case DataTypeDouble:
		return NewProperty(float64(0)), true
	case DataTypeString:
		return NewProperty(""), true
	case DataTypeStringId:
		return NewProperty(StringId(0)), true
	case DataTypeVec2:
		return NewProperty(Vec2{}), true
	case DataTypeVec3:
		return NewProperty(Vec3{}), true
	case DataTypeVec4:
		return NewProperty(Vec4{}), true
	case DataTypeVec2d:
		return NewProperty(Vec2d{}), true
	case DataTypeVec3d:
		return NewProperty(Vec3d{}), true
	case DataTypeVec4d:
		return NewProperty(Vec4d{}), true
	case DataTypeQuat:
		return NewProperty(IdentityQuat()), true
	case DataTypeMatrix:
		return NewProperty(IdentityMatrix()), true
	case DataTypeArray:
		return NewArrayProperty(), true
	case DataTypeGroup:
		return NewGroupProperty(nil), true
	}
	return nil, false
}
