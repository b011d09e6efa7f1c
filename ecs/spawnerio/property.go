package spawnerio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/plus3/simcore/ecs"
	"gopkg.in/yaml.v3"
)

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func floatNode[F float32 | float64](v F, bits int) *yaml.Node {
	s := strconv.FormatFloat(float64(v), 'g', -1, bits)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return scalarNode("!!float", s)
}

func vectorNode[F float32 | float64](values []F, bits int) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, v := range values {
		n.Content = append(n.Content, floatNode(v, bits))
	}
	return n
}

// describe converts p into its document form. The caller sets the name.
func describe(table *ecs.StringTable, p ecs.Property) (PropertyDoc, error) {
	pd := PropertyDoc{Type: p.Type().String()}
	switch v := p.Value().(type) {
	case bool:
		pd.Value = *scalarNode("!!bool", strconv.FormatBool(v))
	case int32:
		pd.Value = *scalarNode("!!int", strconv.FormatInt(int64(v), 10))
	case uint32:
		pd.Value = *scalarNode("!!int", strconv.FormatUint(uint64(v), 10))
	case float32:
		pd.Value = *floatNode(v, 32)
	case float64:
		pd.Value = *floatNode(v, 64)
	case string:
		pd.Value = *scalarNode("!!str", v)
	case ecs.StringId:
		pd.Value = *scalarNode("!!str", name(table, v))
	case ecs.Vec2:
		pd.Value = *vectorNode(v[:], 32)
	case ecs.Vec3:
		pd.Value = *vectorNode(v[:], 32)
	case ecs.Vec4:
		pd.Value = *vectorNode(v[:], 32)
	case ecs.Vec2d:
		pd.Value = *vectorNode(v[:], 64)
	case ecs.Vec3d:
		pd.Value = *vectorNode(v[:], 64)
	case ecs.Vec4d:
		pd.Value = *vectorNode(v[:], 64)
	case ecs.Quat:
		pd.Value = *vectorNode(v[:], 64)
	case ecs.Matrix:
		pd.Value = *vectorNode(v[:], 64)
	case ecs.PropertyArray:
		for _, item := range v {
			id, err := describe(table, item)
			if err != nil {
				return pd, err
			}
			pd.Items = append(pd.Items, id)
		}
	case ecs.PropertyGroup:
		for _, n := range v.Names() {
			id, err := describe(table, v[n])
			if err != nil {
				return pd, err
			}
			id.Name = name(table, n)
			pd.Items = append(pd.Items, id)
		}
	default:
		return pd, fmt.Errorf("property of type %s cannot be written", p.Type())
	}
	return pd, nil
}

// property builds the property described by pd.
func (pd *PropertyDoc) property(table *ecs.StringTable) (ecs.Property, error) {
	dt, ok := ecs.ParseDataType(pd.Type)
	if !ok || dt == ecs.DataTypeNone {
		return nil, fmt.Errorf("property %q: unknown type %q", pd.Name, pd.Type)
	}

	switch dt {
	case ecs.DataTypeArray:
		arr := ecs.NewArrayProperty()
		for _, item := range pd.Items {
			p, err := item.property(table)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", pd.Name, err)
			}
			arr.Add(p)
		}
		return arr, nil
	case ecs.DataTypeGroup:
		g := make(ecs.PropertyGroup, len(pd.Items))
		for _, item := range pd.Items {
			p, err := item.property(table)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", pd.Name, err)
			}
			g[table.Intern(item.Name)] = p
		}
		return ecs.NewGroupProperty(g), nil
	}

	if pd.Value.Kind == 0 {
		p, _ := ecs.NewPropertyOfType(dt)
		return p, nil
	}
	p, err := decodeScalar(table, dt, &pd.Value)
	if err != nil {
		return nil, fmt.Errorf("property %q: %w", pd.Name, err)
	}
	return p, nil
}

func decodeScalar(table *ecs.StringTable, dt ecs.DataType, n *yaml.Node) (ecs.Property, error) {
	switch dt {
	case ecs.DataTypeBool:
		return decodeAs[bool](n)
	case ecs.DataTypeInt:
		return decodeAs[int32](n)
	case ecs.DataTypeUInt:
		return decodeAs[uint32](n)
	case ecs.DataTypeFloat:
		return decodeAs[float32](n)
	case ecs.DataTypeDouble:
		return decodeAs[float64](n)
	case ecs.DataTypeString:
		return decodeAs[string](n)
	case ecs.DataTypeStringId:
		var s string
		if err := n.Decode(&s); err != nil {
			return nil, err
		}
		return ecs.NewProperty(table.Intern(s)), nil
	case ecs.DataTypeVec2:
		return decodeVector[ecs.Vec2](n)
	case ecs.DataTypeVec3:
		return decodeVector[ecs.Vec3](n)
	case ecs.DataTypeVec4:
		return decodeVector[ecs.Vec4](n)
	case ecs.DataTypeVec2d:
		return decodeVector[ecs.Vec2d](n)
	case ecs.DataTypeVec3d:
		return decodeVector[ecs.Vec3d](n)
	case ecs.DataTypeVec4d:
		return decodeVector[ecs.Vec4d](n)
	case ecs.DataTypeQuat:
		return decodeVector[ecs.Quat](n)
	case ecs.DataTypeMatrix:
		return decodeVector[ecs.Matrix](n)
	}
	return nil, fmt.Errorf("type %s has no scalar value", dt)
}

func decodeAs[T ecs.Scalar](n *yaml.Node) (ecs.Property, error) {
	var v T
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return ecs.NewProperty(v), nil
}

type vector interface {
	ecs.Vec2 | ecs.Vec3 | ecs.Vec4 | ecs.Vec2d | ecs.Vec3d | ecs.Vec4d | ecs.Quat | ecs.Matrix
}

// decodeVector reads a fixed-size array given as a flat list of numbers.
func decodeVector[V vector](n *yaml.Node) (ecs.Property, error) {
	var v V
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list of numbers", n.Line)
	}
	if want := len(v); len(n.Content) != want {
		return nil, fmt.Errorf("line %d: expected %d numbers, got %d", n.Line, want, len(n.Content))
	}
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return ecs.NewProperty(v), nil
}
