// Package spawnerio reads and writes spawner templates as YAML documents.
//
// A document lists spawners with their metadata and their component entries:
//
//	spawners:
//	  - name: soldier
//	    parent: unit
//	    category: Units
//	    add_to_store: true
//	    components:
//	      - type: Health
//	        properties:
//	          - {name: Max, type: int, value: 80}
//	          - {name: Offset, type: vec3, value: [0, 1.5, 0]}
//
// Parents are resolved by name, first within the document and then through
// an optional lookup, so a document may list a child before its parent.
package spawnerio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/plus3/simcore/ecs"
	"gopkg.in/yaml.v3"
)

// Document is the top level of a spawner file.
type Document struct {
	Spawners []SpawnerDoc `yaml:"spawners"`
}

type SpawnerDoc struct {
	Name       string         `yaml:"name"`
	Parent     string         `yaml:"parent,omitempty"`
	MapName    string         `yaml:"map,omitempty"`
	Category   string         `yaml:"category,omitempty"`
	Icon       string         `yaml:"icon,omitempty"`
	AddToStore bool           `yaml:"add_to_store,omitempty"`
	Components []ComponentDoc `yaml:"components,omitempty"`
}

type ComponentDoc struct {
	Type       string        `yaml:"type"`
	Properties []PropertyDoc `yaml:"properties,omitempty"`
}

// PropertyDoc is one typed value. Scalars and vectors use Value; arrays and
// groups use Items. Array items carry no name. A Value of kind 0 is absent
// and yields the type's zero value.
type PropertyDoc struct {
	Name  string        `yaml:"name,omitempty"`
	Type  string        `yaml:"type"`
	Value yaml.Node     `yaml:"value,omitempty"`
	Items []PropertyDoc `yaml:"items,omitempty"`
}

var (
	ErrDuplicateSpawner = errors.New("duplicate spawner")
	ErrUnknownParent    = errors.New("unknown parent spawner")
)

type options struct {
	strings *ecs.StringTable
	parents func(name string) (*ecs.Spawner, bool)
	mapName string
}

type Option func(*options)

// WithStringTable interns type and property names in t instead of the
// process-wide table.
func WithStringTable(t *ecs.StringTable) Option {
	return func(o *options) { o.strings = t }
}

// WithParents resolves parent names that the document does not define.
func WithParents(lookup func(name string) (*ecs.Spawner, bool)) Option {
	return func(o *options) { o.parents = lookup }
}

// WithMapName sets the map name of decoded spawners that do not declare one.
func WithMapName(name string) Option {
	return func(o *options) { o.mapName = name }
}

func newOptions(opts []Option) options {
	o := options{strings: ecs.Strings}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Decode reads a document from r and builds its spawners in document order.
func Decode(r io.Reader, opts ...Option) ([]*ecs.Spawner, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse spawners: %w", err)
	}
	return doc.Build(opts...)
}

// Build turns the document into spawners.
func (d *Document) Build(opts ...Option) ([]*ecs.Spawner, error) {
	o := newOptions(opts)
	out := make([]*ecs.Spawner, 0, len(d.Spawners))
	byName := make(map[string]*ecs.Spawner, len(d.Spawners))

	for _, sd := range d.Spawners {
		if _, dup := byName[sd.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSpawner, sd.Name)
		}
		s, err := sd.build(o)
		if err != nil {
			return nil, fmt.Errorf("spawner %q: %w", sd.Name, err)
		}
		byName[sd.Name] = s
		out = append(out, s)
	}

	for i, sd := range d.Spawners {
		if sd.Parent == "" {
			continue
		}
		parent, ok := byName[sd.Parent]
		if !ok && o.parents != nil {
			parent, ok = o.parents(sd.Parent)
		}
		if !ok {
			return nil, fmt.Errorf("spawner %q: %w %q", sd.Name, ErrUnknownParent, sd.Parent)
		}
		out[i].SetParent(parent)
	}
	return out, nil
}

func (sd *SpawnerDoc) build(o options) (*ecs.Spawner, error) {
	s := ecs.NewSpawner(sd.Name, nil)
	s.SetMapName(sd.MapName)
	if sd.MapName == "" {
		s.SetMapName(o.mapName)
	}
	s.SetGUICategory(sd.Category)
	s.SetIconPath(sd.Icon)
	s.SetAddToSpawnerStore(sd.AddToStore)

	for _, cd := range sd.Components {
		g := make(ecs.PropertyGroup, len(cd.Properties))
		for _, pd := range cd.Properties {
			p, err := pd.property(o.strings)
			if err != nil {
				return nil, fmt.Errorf("component %s: %w", cd.Type, err)
			}
			g[o.strings.Intern(pd.Name)] = p
		}
		s.AddComponent(o.strings.Intern(cd.Type), g)
	}
	return s, nil
}

// Encode writes spawners to w as one document.
func Encode(w io.Writer, spawners []*ecs.Spawner, opts ...Option) error {
	doc, err := NewDocument(spawners, opts...)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode spawners: %w", err)
	}
	return enc.Close()
}

// NewDocument describes spawners. Only each spawner's own entries are
// written; inherited values stay with the parent.
func NewDocument(spawners []*ecs.Spawner, opts ...Option) (*Document, error) {
	o := newOptions(opts)
	doc := &Document{Spawners: make([]SpawnerDoc, 0, len(spawners))}
	for _, s := range spawners {
		sd := SpawnerDoc{
			Name:       s.Name(),
			MapName:    s.MapName(),
			Category:   s.GUICategory(),
			Icon:       s.IconPath(),
			AddToStore: s.AddToSpawnerStore(),
		}
		if p := s.Parent(); p != nil {
			sd.Parent = p.Name()
		}
		for _, t := range s.ComponentTypes() {
			g, _ := s.GetComponentValues(t)
			cd := ComponentDoc{Type: name(o.strings, t)}
			for _, pn := range g.Names() {
				pd, err := describe(o.strings, g[pn])
				if err != nil {
					return nil, fmt.Errorf("spawner %q component %s: %w", s.Name(), cd.Type, err)
				}
				pd.Name = name(o.strings, pn)
				cd.Properties = append(cd.Properties, pd)
			}
			sd.Components = append(sd.Components, cd)
		}
		doc.Spawners = append(doc.Spawners, sd)
	}
	return doc, nil
}

// LoadFile decodes the spawner file at path. Spawners without a map name get
// the file path as theirs.
func LoadFile(path string, opts ...Option) ([]*ecs.Spawner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read spawners: %w", err)
	}
	defer f.Close()
	return Decode(f, append([]Option{WithMapName(path)}, opts...)...)
}

// SaveFile writes spawners to path, replacing the file.
func SaveFile(path string, spawners []*ecs.Spawner, opts ...Option) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write spawners: %w", err)
	}
	if err := Encode(f, spawners, opts...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadIntoStore decodes the file at path and adds every spawner to store.
// Parents missing from the file are looked up in the store.
func LoadIntoStore(path string, store *ecs.SpawnerStore, opts ...Option) (int, error) {
	spawners, err := LoadFile(path, append([]Option{WithParents(store.Get)}, opts...)...)
	if err != nil {
		return 0, err
	}
	var errs []error
	added := 0
	for _, s := range spawners {
		if err := store.Add(s); err != nil {
			errs = append(errs, err)
			continue
		}
		added++
	}
	return added, errors.Join(errs...)
}

func name(t *ecs.StringTable, id ecs.StringId) string {
	if s, ok := t.Resolve(id); ok {
		return s
	}
	return id.String()
}
