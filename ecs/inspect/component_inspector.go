package inspect

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/plus3/simcore/ecs"
)

// ComponentInspector shows the properties of every component of one entity
// and edits them from text.
type ComponentInspector struct {
	selected ecs.EntityId
}

func NewComponentInspector() *ComponentInspector {
	return &ComponentInspector{}
}

func (ci *ComponentInspector) Render(w io.Writer, em *ecs.EntityManager, selected ecs.EntityId) error {
	ci.selected = selected
	ew := &errWriter{w: w}
	header(ew, "Component Inspector")

	if ci.selected == 0 {
		ew.printf("No entity selected\n")
		return ew.err
	}
	if !em.EntityExists(ci.selected) {
		ew.printf("Entity %d not found\n", ci.selected)
		return ew.err
	}

	ew.printf("Entity ID: %d\n", ci.selected)
	for _, c := range em.GetComponents(ci.selected) {
		ew.printf("[%s]\n", typeName(em, c.Type()))
		ci.renderComponent(ew, em, c)
	}
	return ew.err
}

func (ci *ComponentInspector) renderComponent(ew *errWriter, em *ecs.EntityManager, c ecs.Component) {
	tw := newTable(ew.w)
	c.Properties().Each(func(name ecs.StringId, p ecs.Property) {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", typeName(em, name), p.Type(), formatValue(em, p))
	})
	ew.flush(tw)
}

func formatValue(em *ecs.EntityManager, p ecs.Property) string {
	if p.Type() == ecs.DataTypeStringId {
		return typeName(em, p.StringIdValue())
	}
	return p.String()
}

// SetProperty parses text as the declared type of the named property of the
// component of type t on eid, stores it and calls the component's Finished.
func (ci *ComponentInspector) SetProperty(em *ecs.EntityManager, eid ecs.EntityId, t ecs.ComponentType, name, text string) error {
	c, ok := em.GetComponent(eid, t, false)
	if !ok {
		return fmt.Errorf("%w: %s on entity %d", ecs.ErrComponentNotFound, typeName(em, t), eid)
	}
	id, ok := em.StringTable().Find(name)
	if !ok {
		return fmt.Errorf("%w: %s", ecs.ErrPropertyNotFound, name)
	}
	p, ok := c.Properties().Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ecs.ErrPropertyNotFound, name)
	}
	v, err := ParseValue(em.StringTable(), p.Type(), text)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if !p.SetFrom(v) {
		return fmt.Errorf("%s: %w", name, ecs.ErrTypeMismatch)
	}
	if l, ok := c.(ecs.PropertyChangeListener); ok {
		l.OnPropertyChanged(id, p)
	}
	c.Finished()
	return nil
}

// ParseValue reads text as a value of type dt. Vectors, quaternions and
// matrices are whitespace or comma separated numbers.
func ParseValue(table *ecs.StringTable, dt ecs.DataType, text string) (ecs.Property, error) {
	text = strings.TrimSpace(text)
	switch dt {
	case ecs.DataTypeBool:
		v, err := strconv.ParseBool(text)
		return ecs.NewProperty(v), err
	case ecs.DataTypeInt:
		v, err := strconv.ParseInt(text, 10, 32)
		return ecs.NewProperty(int32(v)), err
	case ecs.DataTypeUInt:
		v, err := strconv.ParseUint(text, 10, 32)
		return ecs.NewProperty(uint32(v)), err
	case ecs.DataTypeFloat:
		v, err := strconv.ParseFloat(text, 32)
		return ecs.NewProperty(float32(v)), err
	case ecs.DataTypeDouble:
		v, err := strconv.ParseFloat(text, 64)
		return ecs.NewProperty(v), err
	case ecs.DataTypeString:
		return ecs.NewProperty(text), nil
	case ecs.DataTypeStringId:
		return ecs.NewProperty(table.Intern(text)), nil
	case ecs.DataTypeVec2:
		return parseVector[ecs.Vec2](text, 32)
	case ecs.DataTypeVec3:
		return parseVector[ecs.Vec3](text, 32)
	case ecs.DataTypeVec4:
		return parseVector[ecs.Vec4](text, 32)
	case ecs.DataTypeVec2d:
		return parseVector[ecs.Vec2d](text, 64)
	case ecs.DataTypeVec3d:
		return parseVector[ecs.Vec3d](text, 64)
	case ecs.DataTypeVec4d:
		return parseVector[ecs.Vec4d](text, 64)
	case ecs.DataTypeQuat:
		return parseVector[ecs.Quat](text, 64)
	case ecs.DataTypeMatrix:
		return parseVector[ecs.Matrix](text, 64)
	}
	return nil, fmt.Errorf("%s values cannot be edited as text", dt)
}

type floatArray interface {
	ecs.Vec2 | ecs.Vec3 | ecs.Vec4 | ecs.Vec2d | ecs.Vec3d | ecs.Vec4d | ecs.Quat | ecs.Matrix
}

func parseVector[V floatArray](text string, bits int) (ecs.Property, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	var v V
	if len(fields) != len(v) {
		return nil, fmt.Errorf("expected %d numbers, got %d", len(v), len(fields))
	}
	values := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, bits)
		if err != nil {
			return nil, err
		}
		values[i] = x
	}
	return ecs.NewProperty(fill[V](values)), nil
}

func fill[V floatArray](values []float64) V {
	var v V
	switch a := any(&v).(type) {
	case *ecs.Vec2:
		for i := range a {
			a[i] = float32(values[i])
		}
	case *ecs.Vec3:
		for i := range a {
			a[i] = float32(values[i])
		}
	case *ecs.Vec4:
		for i := range a {
			a[i] = float32(values[i])
		}
	case *ecs.Vec2d:
		copy(a[:], values)
	case *ecs.Vec3d:
		copy(a[:], values)
	case *ecs.Vec4d:
		copy(a[:], values)
	case *ecs.Quat:
		copy(a[:], values)
	case *ecs.Matrix:
		copy(a[:], values)
	}
	return v
}
