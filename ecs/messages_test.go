package ecs_test

import (
	"testing"

	"github.com/plus3/simcore/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardMessageFactory(t *testing.T) {
	f := ecs.NewMessageFactory()
	ecs.RegisterStandardMessages(f)

	standard := []ecs.MessageType{
		ecs.DeleteEntityMessageType,
		ecs.SceneLoadedMessageType,
		ecs.ResetSystemMessageType,
		ecs.TickMessageType,
		ecs.EndOfFrameMessageType,
		ecs.PostUpdateMessageType,
		ecs.TimeChangedMessageType,
		ecs.SpawnerAddedMessageType,
		ecs.SpawnerRemovedMessageType,
		ecs.SpawnerModifiedMessageType,
		ecs.RequestEntitySelectMessageType,
		ecs.RequestEntityDeselectMessageType,
		ecs.RequestToggleEntitySelectionMessageType,
		ecs.SetComponentPropertiesMessageType,
		ecs.SetSystemPropertiesMessageType,
		ecs.SpawnEntityMessageType,
		ecs.EnableDebugDrawingMessageType,
		ecs.ToolActivatedMessageType,
	}
	assert.ElementsMatch(t, standard, f.Types())

	for _, mt := range standard {
		t.Run(ecs.Lookup(mt), func(t *testing.T) {
			m, ok := f.Create(mt)
			require.True(t, ok)
			assert.Equal(t, mt, m.Type())
			assert.NotZero(t, m.Properties().Len(), "standard messages carry fields")
		})
	}

	_, ok := f.Create(ecs.SID("NotAMessage"))
	assert.False(t, ok)
	assert.False(t, f.IsRegistered(ecs.SID("NotAMessage")))
}

func TestMessageViews(t *testing.T) {
	t.Run("tick", func(t *testing.T) {
		v := ecs.TickView{DeltaSimTime: 0.25, DeltaRealTime: 0.125, TimeScale: 2, SimulationTime: 10}
		assert.Equal(t, v, ecs.ViewTick(ecs.NewTickMessage(v)))
		assert.Equal(t, v, ecs.ViewTick(ecs.NewPostUpdateMessage(v)))
	})

	t.Run("spawner", func(t *testing.T) {
		assert.Equal(t, ecs.SpawnerView{}, ecs.ViewSpawner(ecs.NewMessage(ecs.SpawnerAddedMessageType)),
			"missing fields read as zero values")
	})

	t.Run("selection", func(t *testing.T) {
		m := ecs.NewRequestEntitySelectMessage(42, true)
		assert.Equal(t, ecs.EntityId(42), ecs.AboutEntity(m))
		assert.True(t, ecs.UseMultiSelect(m))
		assert.Equal(t, ecs.EntityId(7), ecs.AboutEntity(ecs.NewRequestToggleEntitySelectionMessage(7)))

		bare := ecs.NewMessage(ecs.RequestEntitySelectMessageType)
		assert.Equal(t, ecs.EntityId(0), ecs.AboutEntity(bare))
		assert.False(t, ecs.UseMultiSelect(bare))
	})

	t.Run("debug drawing", func(t *testing.T) {
		assert.True(t, ecs.DebugDrawingEnabled(ecs.NewEnableDebugDrawingMessage(true)))
		assert.False(t, ecs.DebugDrawingEnabled(ecs.NewMessage(ecs.EnableDebugDrawingMessageType)))
	})

	t.Run("properties", func(t *testing.T) {
		m := ecs.NewSetComponentPropertiesMessage("abc", HealthType, ecs.PropertyGroup{
			Current: ecs.NewProperty(int32(5)),
		})
		v := ecs.ViewProperties(m)
		assert.Equal(t, "abc", v.UniqueId)
		assert.Equal(t, HealthType, v.ComponentType)
		require.Contains(t, v.Properties, Current)
		assert.Equal(t, int32(5), v.Properties[Current].IntValue())
	})

	t.Run("spawn entity", func(t *testing.T) {
		v := ecs.SpawnEntityView{UniqueId: "u", EntityName: "n", SpawnerName: "s", AddToScene: true}
		assert.Equal(t, v, ecs.ViewSpawnEntity(ecs.NewSpawnEntityMessage(v)))
	})
}
