// Package ecs implements an entity/component/system runtime: an entity manager,
// per-type entity systems with inheritance-aware lookup, spawner templates and a
// message pump with ordered and time-deferred delivery.
package ecs

import "sync"

// StringId is an interned handle for a human-readable name.
// Zero is the id of the empty string.
type StringId uint32

// ComponentType identifies an entity system and the components it owns.
type ComponentType = StringId

// MessageType identifies a kind of message.
type MessageType = StringId

// StringTable maps strings to small ids and back. It is append-only and safe
// for concurrent use.
type StringTable struct {
	mu    sync.RWMutex
	ids   map[string]StringId
	names []string
}

// NewStringTable creates a table that already knows the empty string.
func NewStringTable() *StringTable {
	return &StringTable{
		ids:   map[string]StringId{"": 0},
		names: []string{""},
	}
}

// Intern returns the id of s, allocating the next id if s is new.
func (t *StringTable) Intern(s string) StringId {
	t.mu.RLock()
	id, ok := t.ids[s]
	t.mu.RUnlock()
	if ok {
		return id
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.ids[s]; ok {
		return id
	}
	id = StringId(len(t.names))
	t.ids[s] = id
	t.names = append(t.names, s)
	return id
}

// Resolve returns the string for id. ok is false for ids this table never issued.
func (t *StringTable) Resolve(id StringId) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.names) {
		return "", false
	}
	return t.names[id], true
}

// Find returns the id of s without interning it.
func (t *StringTable) Find(s string) (StringId, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.ids[s]
	return id, ok
}

// Len returns the number of interned strings, the empty string included.
func (t *StringTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names)
}

// Strings is the process-wide table used by SID and Lookup.
var Strings = NewStringTable()

// SID interns s in the process-wide table.
func SID(s string) StringId {
	return Strings.Intern(s)
}

// Lookup returns the name behind id, or "" if the id is unknown.
func Lookup(id StringId) string {
	s, _ := Strings.Resolve(id)
	return s
}

// String implements fmt.Stringer using the process-wide table.
func (id StringId) String() string {
	if s, ok := Strings.Resolve(id); ok {
		return s
	}
	return "<unknown>"
}
