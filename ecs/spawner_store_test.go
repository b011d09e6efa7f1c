package ecs_test

import (
	"testing"

	"github.com/plus3/simcore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spawnerEvents struct {
	added, removed, modified []string
}

func watchSpawners(em *ecs.EntityManager) *spawnerEvents {
	ev := &spawnerEvents{}
	collect := func(dst *[]string) ecs.MessageFunc {
		return func(m *ecs.Message) error {
			*dst = append(*dst, ecs.ViewSpawner(m).Name)
			return nil
		}
	}
	em.RegisterForMessages(ecs.SpawnerAddedMessageType, collect(&ev.added), ecs.OrderDefault, "added")
	em.RegisterForMessages(ecs.SpawnerRemovedMessageType, collect(&ev.removed), ecs.OrderDefault, "removed")
	em.RegisterForMessages(ecs.SpawnerModifiedMessageType, collect(&ev.modified), ecs.OrderDefault, "modified")
	return ev
}

func TestSpawnerStoreAddRemove(t *testing.T) {
	w := newTestWorld()
	ev := watchSpawners(w.em)
	store := ecs.NewSpawnerStore(w.em)

	require.NoError(t, store.Add(ecs.NewSpawner("tree", nil)))
	require.NoError(t, store.Add(ecs.NewSpawner("rock", nil)))
	assert.ErrorIs(t, store.Add(ecs.NewSpawner("rock", nil)), ecs.ErrSpawnerExists)

	assert.Equal(t, []string{"rock", "tree"}, store.Names())
	assert.Equal(t, []string{"tree", "rock"}, ev.added)

	assert.True(t, store.Remove("tree"))
	assert.False(t, store.Remove("tree"))
	assert.Equal(t, []string{"tree"}, ev.removed)
	assert.Equal(t, 1, store.Len())
}

func TestSpawnerStoreModifiedOnlyOnChange(t *testing.T) {
	w := newTestWorld()
	ev := watchSpawners(w.em)
	store := ecs.NewSpawnerStore(w.em)

	base := ecs.NewSpawner("base", nil)
	base.AddComponent(HealthType, ecs.PropertyGroup{Max: ecs.NewProperty(int32(10))})
	child := ecs.NewSpawner("child", base)
	require.NoError(t, store.Add(base))
	require.NoError(t, store.Add(child))

	require.NoError(t, store.Update("base", func(s *ecs.Spawner) {
		s.SetValue(HealthType, Max, ecs.NewProperty(int32(10)))
	}))
	assert.Empty(t, ev.modified, "same values, no event")

	require.NoError(t, store.Update("base", func(s *ecs.Spawner) {
		s.SetValue(HealthType, Max, ecs.NewProperty(int32(20)))
	}))
	assert.Equal(t, []string{"base", "child"}, ev.modified, "inheriting spawners are modified too")

	assert.ErrorIs(t, store.Update("missing", func(*ecs.Spawner) {}), ecs.ErrSpawnerNotFound)
}

func TestSpawnerStoreRenameRejectsTakenName(t *testing.T) {
	w := newTestWorld()
	store := ecs.NewSpawnerStore(w.em)

	a := ecs.NewSpawner("a", nil)
	b := ecs.NewSpawner("b", nil)
	require.NoError(t, store.Add(a))
	require.NoError(t, store.Add(b))

	err := store.Update("a", func(s *ecs.Spawner) { s.SetName("b") })
	assert.ErrorIs(t, err, ecs.ErrSpawnerExists)
	assert.Equal(t, "a", a.Name())

	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Same(t, a, got)
	got, ok = store.Get("b")
	require.True(t, ok)
	assert.Same(t, b, got)

	require.NoError(t, store.Update("a", func(s *ecs.Spawner) { s.SetName("c") }))
	assert.Equal(t, []string{"b", "c"}, store.Names())
	got, ok = store.Get("c")
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestSpawnerStoreSpawnAndCategories(t *testing.T) {
	w := newTestWorld()
	store := ecs.NewSpawnerStore(w.em)

	tree := ecs.NewSpawner("tree", nil)
	tree.SetAddToSpawnerStore(true)
	tree.SetGUICategory("Nature")
	tree.AddComponent(NameType, ecs.PropertyGroup{Label: ecs.NewProperty("oak")})
	hidden := ecs.NewSpawner("hidden", nil)
	hidden.SetGUICategory("Internal")
	rock := ecs.NewSpawner("rock", nil)
	rock.SetAddToSpawnerStore(true)
	rock.SetGUICategory("Nature")
	for _, s := range []*ecs.Spawner{tree, hidden, rock} {
		require.NoError(t, store.Add(s))
	}

	assert.Equal(t, []string{"Nature"}, store.Categories())

	e := mustEntity(w.em)
	require.NoError(t, store.Spawn("tree", e))
	n, ok := ecs.ComponentOf[*Name](e, NameType)
	require.True(t, ok)
	assert.Equal(t, "oak", n.Label.Get())

	assert.ErrorIs(t, store.Spawn("birch", e), ecs.ErrSpawnerNotFound)
}
