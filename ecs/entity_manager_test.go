package ecs_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/plus3/simcore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCreateAndKillEntity(t *testing.T) {
	w := newTestWorld()

	e, err := w.em.CreateEntity()
	require.NoError(t, err)
	assert.NotZero(t, e.Id())
	assert.Same(t, w.em, e.Manager())
	assert.True(t, w.em.EntityExists(e.Id()))
	assert.True(t, w.em.HasEntities())

	assert.True(t, w.em.KillEntity(e.Id()))
	assert.False(t, w.em.EntityExists(e.Id()))
	assert.False(t, w.em.HasEntities())
}

func TestEntityIdsAreMonotonicAndNeverReused(t *testing.T) {
	em := ecs.NewEntityManager()

	a := mustEntity(em)
	b := mustEntity(em)
	em.KillEntity(a.Id())
	c := mustEntity(em)

	assert.Less(t, a.Id(), b.Id())
	assert.Less(t, b.Id(), c.Id())
	assert.Equal(t, []ecs.EntityId{b.Id(), c.Id()}, em.EntityIds())
}

func TestKillUnknownEntity(t *testing.T) {
	w := newTestWorld()
	e := mustEntity(w.em)
	_, err := w.em.CreateComponent(e.Id(), TransformType)
	require.NoError(t, err)

	deleted := 0
	w.em.AddDeletedCallback(func(ecs.EntityId, ecs.Component) { deleted++ })

	assert.False(t, w.em.KillEntity(e.Id()+100))
	assert.False(t, w.em.KillEntity(0))

	assert.Equal(t, 0, deleted)
	assert.Equal(t, 1, w.em.EntityCount())
	assert.Equal(t, 1, w.transforms.ComponentCount())
}

func TestKillEntityRemovesComponents(t *testing.T) {
	w := newTestWorld()
	e := mustEntity(w.em)

	tr, err := ecs.CreateComponentOf[*Transform](w.em, e.Id(), TransformType)
	require.NoError(t, err)
	_, err = w.em.CreateComponent(e.Id(), HealthType)
	require.NoError(t, err)

	var deleted []ecs.ComponentType
	w.em.AddDeletedCallback(func(eid ecs.EntityId, c ecs.Component) {
		assert.Equal(t, e.Id(), eid)
		deleted = append(deleted, c.Type())
	})

	require.True(t, e.Kill())

	assert.Equal(t, 1, tr.removed)
	assert.Equal(t, []ecs.ComponentType{TransformType, HealthType}, deleted)
	assert.Equal(t, 0, w.transforms.ComponentCount())
	assert.Equal(t, 0, w.healths.ComponentCount())
}

func TestCreateComponent(t *testing.T) {
	w := newTestWorld()
	e := mustEntity(w.em)

	c, err := e.CreateComponent(TransformType)
	require.NoError(t, err)
	tr := c.(*Transform)

	assert.Equal(t, TransformType, tr.Type())
	assert.Equal(t, e.Id(), tr.EntityId())
	assert.Equal(t, 1, tr.added)

	got, ok := e.GetComponent(TransformType, false)
	require.True(t, ok)
	assert.Same(t, tr, got)
}

func TestCreateComponentTwiceFails(t *testing.T) {
	w := newTestWorld()
	e := mustEntity(w.em)

	_, err := w.em.CreateComponent(e.Id(), HealthType)
	require.NoError(t, err)

	_, err = w.em.CreateComponent(e.Id(), HealthType)
	assert.ErrorIs(t, err, ecs.ErrComponentExists)
	assert.Equal(t, 1, w.healths.ComponentCount())
}

func TestCreateComponentErrors(t *testing.T) {
	w := newTestWorld()
	e := mustEntity(w.em)

	tests := []struct {
		name   string
		entity ecs.EntityId
		ctype  ecs.ComponentType
		want   error
	}{
		{"zero entity", 0, TransformType, ecs.ErrEntityNotFound},
		{"unknown entity", e.Id() + 1, TransformType, ecs.ErrEntityNotFound},
		{"unknown system", e.Id(), ecs.SID("NoSuchComponent"), ecs.ErrSystemNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.em.CreateComponent(tt.entity, tt.ctype)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetComponentSearchDerived(t *testing.T) {
	w := newTestWorld()
	e := mustEntity(w.em)

	pat, err := w.em.CreateComponent(e.Id(), PATType)
	require.NoError(t, err)

	_, ok := w.em.GetComponent(e.Id(), TransformType, false)
	assert.False(t, ok, "exact lookup ignores derived types")

	got, ok := w.em.GetComponent(e.Id(), TransformType, true)
	require.True(t, ok)
	assert.Same(t, pat, got)
	assert.True(t, got.IsInstanceOf(TransformType))
	assert.True(t, got.IsInstanceOf(PATType))
	assert.False(t, got.IsInstanceOf(HealthType))

	assert.True(t, e.HasComponent(TransformType, true))
}

func TestGetComponentPrefersExactType(t *testing.T) {
	w := newTestWorld()
	e := mustEntity(w.em)

	_, err := w.em.CreateComponent(e.Id(), PATType)
	require.NoError(t, err)
	tr, err := w.em.CreateComponent(e.Id(), TransformType)
	require.NoError(t, err)

	got, ok := w.em.GetComponent(e.Id(), TransformType, true)
	require.True(t, ok)
	assert.Same(t, tr, got)
}

func TestLazySystemCreation(t *testing.T) {
	registry := newTestRegistry()
	em := ecs.NewEntityManager(ecs.WithRegistry(registry))
	e := mustEntity(em)

	assert.False(t, em.HasEntitySystem(HealthType))

	h, err := ecs.CreateComponentOf[*Health](em, e.Id(), HealthType)
	require.NoError(t, err)
	assert.Equal(t, int32(100), h.Current.Get())
	assert.True(t, em.HasEntitySystem(HealthType))

	sys, ok := ecs.GetSystem[*ecs.ComponentSystem[*Health]](em, HealthType)
	require.True(t, ok)
	assert.Equal(t, 1, sys.ComponentCount())
}

func TestRequestCallbacksRunInOrderUntilOneSucceeds(t *testing.T) {
	em := ecs.NewEntityManager()
	e := mustEntity(em)
	var calls []string

	em.AddEntitySystemRequestCallback(ecs.EntitySystemRequestFunc(func(*ecs.EntityManager, ecs.ComponentType) bool {
		calls = append(calls, "decline")
		return false
	}))
	em.AddEntitySystemRequestCallback(ecs.EntitySystemRequestFunc(func(em *ecs.EntityManager, t ecs.ComponentType) bool {
		calls = append(calls, "create")
		return em.AddEntitySystem(ecs.NewComponentSystem(t, NewName)) == nil
	}))
	never := em.AddEntitySystemRequestCallback(ecs.EntitySystemRequestFunc(func(*ecs.EntityManager, ecs.ComponentType) bool {
		calls = append(calls, "never")
		return false
	}))

	_, err := em.CreateComponent(e.Id(), NameType)
	require.NoError(t, err)
	assert.Equal(t, []string{"decline", "create"}, calls)
	assert.True(t, em.RemoveEntitySystemRequestCallback(never))
	assert.False(t, em.RemoveEntitySystemRequestCallback(never))
}

func TestAddEntitySystemTwiceFails(t *testing.T) {
	w := newTestWorld()

	err := w.em.AddEntitySystem(ecs.NewComponentSystem(TransformType, NewTransform))
	assert.ErrorIs(t, err, ecs.ErrSystemExists)

	got, ok := w.em.GetEntitySystem(TransformType)
	require.True(t, ok)
	assert.Same(t, w.transforms, got, "existing system is not replaced")
}

func TestRemoveEntitySystem(t *testing.T) {
	w := newTestWorld()

	assert.True(t, w.em.RemoveEntitySystem(w.names))
	assert.False(t, w.em.RemoveEntitySystem(w.names))
	assert.False(t, w.em.HasEntitySystem(NameType))
	assert.Nil(t, w.names.Manager())
	assert.Len(t, w.em.EntitySystems(), 3)
}

func TestDeleteComponent(t *testing.T) {
	w := newTestWorld()
	e := mustEntity(w.em)
	c, err := w.em.CreateComponent(e.Id(), TransformType)
	require.NoError(t, err)

	var deleted int
	h := w.em.AddDeletedCallback(func(ecs.EntityId, ecs.Component) { deleted++ })

	assert.True(t, w.em.DeleteComponent(e.Id(), TransformType))
	assert.False(t, w.em.DeleteComponent(e.Id(), TransformType))
	assert.Equal(t, 1, c.(*Transform).removed)
	assert.Equal(t, 1, deleted)
	assert.True(t, w.em.EntityExists(e.Id()), "deleting components keeps the entity")

	assert.True(t, w.em.RemoveDeletedCallback(h))
	_, err = w.em.CreateComponent(e.Id(), TransformType)
	require.NoError(t, err)
	assert.True(t, w.em.DeleteComponent(e.Id(), TransformType))
	assert.Equal(t, 1, deleted)
}

func TestDeleteComponentInstance(t *testing.T) {
	w := newTestWorld()
	a := mustEntity(w.em)
	b := mustEntity(w.em)
	ca, _ := w.em.CreateComponent(a.Id(), NameType)
	_, _ = w.em.CreateComponent(b.Id(), NameType)

	assert.False(t, w.em.DeleteComponentInstance(b.Id(), ca), "instance belongs to another entity")
	assert.True(t, w.em.DeleteComponentInstance(a.Id(), ca))
	assert.Equal(t, 1, w.names.ComponentCount())
}

func TestGetComponentsInSystemOrder(t *testing.T) {
	w := newTestWorld()
	e := mustEntity(w.em)
	_, _ = w.em.CreateComponent(e.Id(), NameType)
	_, _ = w.em.CreateComponent(e.Id(), TransformType)

	var types []ecs.ComponentType
	for _, c := range e.Components() {
		types = append(types, c.Type())
	}
	assert.Equal(t, []ecs.ComponentType{TransformType, NameType}, types)
}

func TestCloneEntity(t *testing.T) {
	w := newTestWorld()
	origin := mustEntity(w.em)
	target := mustEntity(w.em)

	tr, _ := ecs.CreateComponentOf[*Transform](w.em, origin.Id(), TransformType)
	tr.Translation.Set(ecs.Vec3{1, 2, 3})
	h, _ := ecs.CreateComponentOf[*Health](w.em, origin.Id(), HealthType)
	h.Current.Set(42)

	require.NoError(t, w.em.CloneEntity(target.Id(), origin.Id()))

	ctr, ok := ecs.ComponentOf[*Transform](target, TransformType)
	require.True(t, ok)
	assert.Equal(t, ecs.Vec3{1, 2, 3}, ctr.Translation.Get())
	assert.Equal(t, 1, ctr.finished)

	ch, ok := ecs.ComponentOf[*Health](target, HealthType)
	require.True(t, ok)
	assert.Equal(t, int32(42), ch.Current.Get())

	ch.Current.Set(1)
	assert.Equal(t, int32(42), h.Current.Get(), "clone is independent")
}

func TestCloneEntityFailures(t *testing.T) {
	w := newTestWorld()
	origin := mustEntity(w.em)
	target := mustEntity(w.em)
	_, _ = w.em.CreateComponent(origin.Id(), NameType)
	_, _ = w.em.CreateComponent(target.Id(), HealthType)

	assert.ErrorIs(t, w.em.CloneEntity(target.Id(), origin.Id()), ecs.ErrTargetNotEmpty)
	assert.ErrorIs(t, w.em.CloneEntity(target.Id()+10, origin.Id()), ecs.ErrEntityNotFound)
	assert.ErrorIs(t, w.em.CloneEntity(target.Id(), origin.Id()+10), ecs.ErrEntityNotFound)
}

// sealedSystem refuses to create a component for one entity.
type sealedSystem struct {
	*ecs.ComponentSystem[*Name]
	refuse ecs.EntityId
}

func (s *sealedSystem) CreateComponent(eid ecs.EntityId) (ecs.Component, error) {
	if eid == s.refuse {
		return nil, errors.New("sealed")
	}
	return s.ComponentSystem.CreateComponent(eid)
}

func TestCloneEntityRollsBackOnFailure(t *testing.T) {
	em := ecs.NewEntityManager()
	sealedType := ecs.SID("Sealed")
	sealed := &sealedSystem{ComponentSystem: ecs.NewComponentSystem(sealedType, NewName)}
	for _, s := range []ecs.EntitySystem{
		ecs.NewComponentSystem(TransformType, NewTransform),
		ecs.NewComponentSystem(HealthType, NewHealth),
		sealed,
	} {
		require.NoError(t, em.AddEntitySystem(s))
	}

	origin := mustEntity(em)
	target := mustEntity(em)
	for _, ct := range []ecs.ComponentType{TransformType, HealthType, sealedType} {
		_, err := em.CreateComponent(origin.Id(), ct)
		require.NoError(t, err)
	}

	var deleted []ecs.ComponentType
	em.AddDeletedCallback(func(eid ecs.EntityId, c ecs.Component) {
		assert.Equal(t, target.Id(), eid)
		deleted = append(deleted, c.Type())
	})

	sealed.refuse = target.Id()
	err := em.CloneEntity(target.Id(), origin.Id())
	assert.ErrorContains(t, err, "sealed")
	assert.Empty(t, em.GetComponents(target.Id()), "partial copies are removed")
	assert.ElementsMatch(t, []ecs.ComponentType{TransformType, HealthType}, deleted)
	assert.Len(t, em.GetComponents(origin.Id()), 3)

	sealed.refuse = 0
	require.NoError(t, em.CloneEntity(target.Id(), origin.Id()))
	assert.Len(t, em.GetComponents(target.Id()), 3)
}

func TestConcurrentCreateEntity(t *testing.T) {
	em := ecs.NewEntityManager()

	const workers = 8
	const perWorker = 500

	var mu sync.Mutex
	seen := make(map[ecs.EntityId]bool, workers*perWorker)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			ids := make([]ecs.EntityId, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				e, err := em.CreateEntity()
				if err != nil {
					return err
				}
				if !em.EntityExists(e.Id()) {
					return errors.New("created entity does not exist")
				}
				ids = append(ids, e.Id())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if id == 0 || seen[id] {
					return errors.New("entity id repeated")
				}
				seen[id] = true
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, workers*perWorker, em.EntityCount())
}

func TestScriptedMethods(t *testing.T) {
	w := newTestWorld()
	add := ecs.SID("Add")
	w.healths.AddScriptedMethod(add, func(args ecs.PropertyArray) (ecs.Property, error) {
		var sum int32
		for _, a := range args {
			sum += a.IntValue()
		}
		return ecs.NewProperty(sum), nil
	})

	s, _ := w.em.GetEntitySystem(HealthType)
	res, err := s.CallScriptedMethod(add, ecs.PropertyArray{ecs.NewProperty(int32(2)), ecs.NewProperty(int32(3))})
	require.NoError(t, err)
	assert.Equal(t, int32(5), res.IntValue())
	assert.Equal(t, []ecs.StringId{add}, s.ScriptedMethodNames())

	_, err = s.CallScriptedMethod(ecs.SID("Missing"), nil)
	assert.ErrorIs(t, err, ecs.ErrMethodNotFound)
}

type countingManagerObserver struct {
	created, killed, compCreated, compDeleted int
}

func (o *countingManagerObserver) OnEntityCreated(ecs.EntityId)         { o.created++ }
func (o *countingManagerObserver) OnEntityKilled(ecs.EntityId)          { o.killed++ }
func (o *countingManagerObserver) OnComponentCreated(ecs.ComponentType) { o.compCreated++ }
func (o *countingManagerObserver) OnComponentDeleted(ecs.ComponentType) { o.compDeleted++ }

func TestManagerObserver(t *testing.T) {
	obs := &countingManagerObserver{}
	em := ecs.NewEntityManager(ecs.WithObserver(obs), ecs.WithRegistry(newTestRegistry()))

	e := mustEntity(em)
	_, _ = em.CreateComponent(e.Id(), NameType)
	_, _ = em.CreateComponent(e.Id(), HealthType)
	em.KillEntity(e.Id())

	assert.Equal(t, &countingManagerObserver{created: 1, killed: 1, compCreated: 2, compDeleted: 2}, obs)
}
