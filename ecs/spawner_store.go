package ecs

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// SpawnerStore is the named collection of spawners available to a scene. It
// announces additions, removals and effective modifications through the
// manager's message pump.
type SpawnerStore struct {
	em       *EntityManager
	spawners map[string]*Spawner
	prints   map[string]uint64
	log      *zap.Logger
}

func NewSpawnerStore(em *EntityManager) *SpawnerStore {
	return &SpawnerStore{
		em:       em,
		spawners: make(map[string]*Spawner),
		prints:   make(map[string]uint64),
		log:      em.log.Named("spawners"),
	}
}

// Add stores s under its name and emits SpawnerAdded.
func (st *SpawnerStore) Add(s *Spawner) error {
	if _, exists := st.spawners[s.Name()]; exists {
		return fmt.Errorf("%w: %q", ErrSpawnerExists, s.Name())
	}
	st.spawners[s.Name()] = s
	st.prints[s.Name()] = s.Fingerprint()
	st.log.Debug("spawner added", zap.String("spawner", s.Name()))
	return st.em.EmitMessage(newSpawnerMessage(SpawnerAddedMessageType, s))
}

// Remove drops the spawner called name and emits SpawnerRemoved. Spawners
// that use it as parent keep their pointer to it.
func (st *SpawnerStore) Remove(name string) bool {
	s, ok := st.spawners[name]
	if !ok {
		return false
	}
	delete(st.spawners, name)
	delete(st.prints, name)
	if err := st.em.EmitMessage(newSpawnerMessage(SpawnerRemovedMessageType, s)); err != nil {
		st.log.Warn("spawner removal listener failed", zap.String("spawner", name), zap.Error(err))
	}
	return true
}

// Get returns the spawner called name.
func (st *SpawnerStore) Get(name string) (*Spawner, bool) {
	s, ok := st.spawners[name]
	return s, ok
}

// Update runs fn on the spawner called name. SpawnerModified is emitted for
// it and for every stored spawner that inherits from it, but only for those
// whose merged values actually changed. Renaming to a name that is already
// stored fails with ErrSpawnerExists and keeps the old name; the other
// changes fn made stay.
func (st *SpawnerStore) Update(name string, fn func(*Spawner)) error {
	s, ok := st.spawners[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSpawnerNotFound, name)
	}
	fn(s)
	var renameErr error
	if renamed := s.Name(); renamed != name {
		if _, taken := st.spawners[renamed]; taken {
			s.SetName(name)
			renameErr = fmt.Errorf("%w: %q", ErrSpawnerExists, renamed)
		} else {
			delete(st.spawners, name)
			delete(st.prints, name)
			st.spawners[renamed] = s
		}
	}

	var changed []*Spawner
	for _, n := range st.Names() {
		sp := st.spawners[n]
		fp := sp.Fingerprint()
		if old, ok := st.prints[n]; ok && old == fp {
			continue
		}
		st.prints[n] = fp
		changed = append(changed, sp)
	}

	var err error
	for _, sp := range changed {
		st.log.Debug("spawner modified", zap.String("spawner", sp.Name()))
		if e := st.em.EmitMessage(newSpawnerMessage(SpawnerModifiedMessageType, sp)); e != nil {
			err = e
		}
	}
	return errors.Join(renameErr, err)
}

// Names returns the stored spawner names sorted.
func (st *SpawnerStore) Names() []string {
	names := make([]string, 0, len(st.spawners))
	for n := range st.spawners {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Categories returns the distinct GUI categories of spawners flagged for the
// spawner store, sorted.
func (st *SpawnerStore) Categories() []string {
	var cats []string
	for _, s := range st.spawners {
		if !s.AddToSpawnerStore() || s.GUICategory() == "" {
			continue
		}
		if !slices.Contains(cats, s.GUICategory()) {
			cats = append(cats, s.GUICategory())
		}
	}
	slices.Sort(cats)
	return cats
}

func (st *SpawnerStore) Len() int { return len(st.spawners) }

// Spawn applies the spawner called name to e.
func (st *SpawnerStore) Spawn(name string, e *Entity) error {
	s, ok := st.spawners[name]
	if !ok {
		st.log.Warn("cannot spawn: spawner not found", zap.String("spawner", name))
		return fmt.Errorf("%w: %q", ErrSpawnerNotFound, name)
	}
	return s.Spawn(e)
}
