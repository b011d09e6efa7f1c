package ecs

import (
	"fmt"
	"strings"
)

// Message is a named event carrying a bag of properties.
type Message struct {
	mtype MessageType
	props PropertyContainer
}

// NewMessage returns an empty message of type t.
func NewMessage(t MessageType) *Message {
	return &Message{mtype: t}
}

func (m *Message) Type() MessageType { return m.mtype }

// Properties exposes the message fields.
func (m *Message) Properties() *PropertyContainer { return &m.props }

// Register adds a field. Message constructors use it to declare their fields.
func (m *Message) Register(name StringId, p Property) *Message {
	m.props.MustRegister(name, p)
	return m
}

// Get returns the field registered under name.
func (m *Message) Get(name StringId) (Property, bool) {
	return m.props.Get(name)
}

// Value returns the field registered under name, or nil.
func (m *Message) Value(name StringId) Property {
	p, _ := m.props.Get(name)
	return p
}

// Set copies v into the field name, registering a clone of v if the message
// does not have that field yet.
func (m *Message) Set(name StringId, v Property) error {
	if dst, ok := m.props.Get(name); ok {
		if !dst.SetFrom(v) {
			return fmt.Errorf("%w: %s is %s, got %s", ErrTypeMismatch, name, dst.Type(), v.Type())
		}
		return nil
	}
	return m.props.Register(name, v.Clone())
}

// Clone deep-copies the message. Dynamic fields become static snapshots.
func (m *Message) Clone() *Message {
	c := &Message{mtype: m.mtype}
	m.props.Each(func(name StringId, p Property) {
		c.props.MustRegister(name, p.Clone())
	})
	return c
}

func (m *Message) String() string {
	var b strings.Builder
	b.WriteString(m.mtype.String())
	b.WriteByte('{')
	for i, name := range m.props.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		p, _ := m.props.Get(name)
		fmt.Fprintf(&b, "%s: %s", name, p)
	}
	b.WriteByte('}')
	return b.String()
}

// MessageFactory creates messages by type. It lets collaborators that only
// know a message's name build a message with the right field set.
type MessageFactory struct {
	ctors map[MessageType]func() *Message
}

func NewMessageFactory() *MessageFactory {
	return &MessageFactory{ctors: make(map[MessageType]func() *Message)}
}

// Register installs the constructor for t, replacing any previous one.
func (f *MessageFactory) Register(t MessageType, ctor func() *Message) {
	f.ctors[t] = ctor
}

// Create builds a fresh message of type t.
func (f *MessageFactory) Create(t MessageType) (*Message, bool) {
	ctor, ok := f.ctors[t]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// IsRegistered reports whether Create knows t.
func (f *MessageFactory) IsRegistered(t MessageType) bool {
	_, ok := f.ctors[t]
	return ok
}

// Types returns every registered message type.
func (f *MessageFactory) Types() []MessageType {
	out := make([]MessageType, 0, len(f.ctors))
	for t := range f.ctors {
		out = append(out, t)
	}
	return out
}
