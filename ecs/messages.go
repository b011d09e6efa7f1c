package ecs

// Standard message types exchanged between the core and its collaborators.
var (
	DeleteEntityMessageType                 = SID("DeleteEntityMessage")
	SceneLoadedMessageType                  = SID("SceneLoadedMessage")
	ResetSystemMessageType                  = SID("ResetSystemMessage")
	TickMessageType                         = SID("TickMessage")
	EndOfFrameMessageType                   = SID("EndOfFrameMessage")
	PostUpdateMessageType                   = SID("PostUpdateMessage")
	TimeChangedMessageType                  = SID("TimeChangedMessage")
	SpawnerAddedMessageType                 = SID("SpawnerAddedMessage")
	SpawnerRemovedMessageType               = SID("SpawnerRemovedMessage")
	SpawnerModifiedMessageType              = SID("SpawnerModifiedMessage")
	RequestEntitySelectMessageType          = SID("RequestEntitySelectMessage")
	RequestEntityDeselectMessageType        = SID("RequestEntityDeselectMessage")
	RequestToggleEntitySelectionMessageType = SID("RequestToggleEntitySelectionMessage")
	SetComponentPropertiesMessageType       = SID("SetComponentPropertiesMessage")
	SetSystemPropertiesMessageType          = SID("SetSystemPropertiesMessage")
	SpawnEntityMessageType                  = SID("SpawnEntityMessage")
	EnableDebugDrawingMessageType           = SID("EnableDebugDrawingMessage")
	ToolActivatedMessageType                = SID("ToolActivatedMessage")
)

// Field names used by the standard messages.
var (
	FieldUniqueId       = SID("UniqueId")
	FieldEntityName     = SID("EntityName")
	FieldSpawnerName    = SID("SpawnerName")
	FieldAddToScene     = SID("AddToScene")
	FieldSceneName      = SID("SceneName")
	FieldSystemName     = SID("SystemName")
	FieldDeltaSimTime   = SID("DeltaSimTime")
	FieldDeltaRealTime  = SID("DeltaRealTime")
	FieldTimeScale      = SID("TimeScale")
	FieldSimulationTime = SID("SimulationTime")
	FieldName           = SID("Name")
	FieldMapName        = SID("MapName")
	FieldCategory       = SID("Category")
	FieldAboutEntity    = SID("AboutEntity")
	FieldUseMultiSelect = SID("UseMultiSelect")
	FieldComponentType  = SID("ComponentType")
	FieldProperties     = SID("Properties")
	FieldEnable         = SID("Enable")
	FieldToolName       = SID("ToolName")
)

// RegisterStandardMessages installs a constructor for every standard message
// type in f.
func RegisterStandardMessages(f *MessageFactory) {
	f.Register(DeleteEntityMessageType, func() *Message { return NewDeleteEntityMessage("") })
	f.Register(SceneLoadedMessageType, func() *Message { return NewSceneLoadedMessage("") })
	f.Register(ResetSystemMessageType, func() *Message { return NewResetSystemMessage("") })
	f.Register(TickMessageType, func() *Message { return NewTickMessage(TickView{}) })
	f.Register(EndOfFrameMessageType, func() *Message { return NewEndOfFrameMessage(TickView{}) })
	f.Register(PostUpdateMessageType, func() *Message { return NewPostUpdateMessage(TickView{}) })
	f.Register(TimeChangedMessageType, func() *Message { return NewTimeChangedMessage(0, 1) })
	f.Register(SpawnerAddedMessageType, func() *Message { return newSpawnerMessage(SpawnerAddedMessageType, nil) })
	f.Register(SpawnerRemovedMessageType, func() *Message { return newSpawnerMessage(SpawnerRemovedMessageType, nil) })
	f.Register(SpawnerModifiedMessageType, func() *Message { return newSpawnerMessage(SpawnerModifiedMessageType, nil) })
	f.Register(RequestEntitySelectMessageType, func() *Message { return NewRequestEntitySelectMessage(0, false) })
	f.Register(RequestEntityDeselectMessageType, func() *Message { return NewRequestEntityDeselectMessage(0) })
	f.Register(RequestToggleEntitySelectionMessageType, func() *Message { return NewRequestToggleEntitySelectionMessage(0) })
	f.Register(SetComponentPropertiesMessageType, func() *Message { return NewSetComponentPropertiesMessage("", 0, nil) })
	f.Register(SetSystemPropertiesMessageType, func() *Message { return NewSetSystemPropertiesMessage(0, nil) })
	f.Register(SpawnEntityMessageType, func() *Message { return NewSpawnEntityMessage(SpawnEntityView{}) })
	f.Register(EnableDebugDrawingMessageType, func() *Message { return NewEnableDebugDrawingMessage(false) })
	f.Register(ToolActivatedMessageType, func() *Message { return NewToolActivatedMessage("") })
}

// NewDeleteEntityMessage requests removal of the entity with the given unique id.
func NewDeleteEntityMessage(uniqueId string) *Message {
	return NewMessage(DeleteEntityMessageType).
		Register(FieldUniqueId, NewProperty(uniqueId))
}

func NewSceneLoadedMessage(scene string) *Message {
	return NewMessage(SceneLoadedMessageType).
		Register(FieldSceneName, NewProperty(scene))
}

// NewResetSystemMessage asks the systems to drop their scene state. An empty
// system name addresses every system.
func NewResetSystemMessage(system string) *Message {
	return NewMessage(ResetSystemMessageType).
		Register(FieldSystemName, NewProperty(system))
}

// TickView holds the fields of the per-frame timing messages.
type TickView struct {
	DeltaSimTime   float64
	DeltaRealTime  float64
	TimeScale      float32
	SimulationTime float64
}

func newTimingMessage(t MessageType, v TickView) *Message {
	return NewMessage(t).
		Register(FieldDeltaSimTime, NewProperty(v.DeltaSimTime)).
		Register(FieldDeltaRealTime, NewProperty(v.DeltaRealTime)).
		Register(FieldTimeScale, NewProperty(v.TimeScale)).
		Register(FieldSimulationTime, NewProperty(v.SimulationTime))
}

func NewTickMessage(v TickView) *Message       { return newTimingMessage(TickMessageType, v) }
func NewEndOfFrameMessage(v TickView) *Message { return newTimingMessage(EndOfFrameMessageType, v) }
func NewPostUpdateMessage(v TickView) *Message { return newTimingMessage(PostUpdateMessageType, v) }

// ViewTick reads a Tick, EndOfFrame or PostUpdate message.
func ViewTick(m *Message) TickView {
	return TickView{
		DeltaSimTime:   fieldOf(m, FieldDeltaSimTime).DoubleValue(),
		DeltaRealTime:  fieldOf(m, FieldDeltaRealTime).DoubleValue(),
		TimeScale:      fieldOf(m, FieldTimeScale).FloatValue(),
		SimulationTime: fieldOf(m, FieldSimulationTime).DoubleValue(),
	}
}

// NewTimeChangedMessage announces a jump of the simulation clock or a new
// time scale.
func NewTimeChangedMessage(simTime float64, scale float32) *Message {
	return NewMessage(TimeChangedMessageType).
		Register(FieldSimulationTime, NewProperty(simTime)).
		Register(FieldTimeScale, NewProperty(scale))
}

// SpawnerView holds the fields of the spawner store notifications.
type SpawnerView struct {
	Name     string
	MapName  string
	Category string
}

func newSpawnerMessage(t MessageType, s *Spawner) *Message {
	var v SpawnerView
	if s != nil {
		v = SpawnerView{Name: s.Name(), MapName: s.MapName(), Category: s.GUICategory()}
	}
	return NewMessage(t).
		Register(FieldName, NewProperty(v.Name)).
		Register(FieldMapName, NewProperty(v.MapName)).
		Register(FieldCategory, NewProperty(v.Category))
}

func ViewSpawner(m *Message) SpawnerView {
	return SpawnerView{
		Name:     fieldOf(m, FieldName).StringValue(),
		MapName:  fieldOf(m, FieldMapName).StringValue(),
		Category: fieldOf(m, FieldCategory).StringValue(),
	}
}

func NewRequestEntitySelectMessage(about EntityId, multi bool) *Message {
	return NewMessage(RequestEntitySelectMessageType).
		Register(FieldAboutEntity, NewProperty(uint32(about))).
		Register(FieldUseMultiSelect, NewProperty(multi))
}

func NewRequestEntityDeselectMessage(about EntityId) *Message {
	return NewMessage(RequestEntityDeselectMessageType).
		Register(FieldAboutEntity, NewProperty(uint32(about)))
}

func NewRequestToggleEntitySelectionMessage(about EntityId) *Message {
	return NewMessage(RequestToggleEntitySelectionMessageType).
		Register(FieldAboutEntity, NewProperty(uint32(about)))
}

// AboutEntity reads the entity a selection request refers to.
func AboutEntity(m *Message) EntityId {
	return EntityId(fieldOf(m, FieldAboutEntity).UIntValue())
}

// UseMultiSelect reports whether a select request extends the selection.
func UseMultiSelect(m *Message) bool {
	return fieldOf(m, FieldUseMultiSelect).BoolValue()
}

// NewSetComponentPropertiesMessage asks for props to be applied to the
// component of type t on the entity with the given unique id.
func NewSetComponentPropertiesMessage(uniqueId string, t ComponentType, props PropertyGroup) *Message {
	return NewMessage(SetComponentPropertiesMessageType).
		Register(FieldUniqueId, NewProperty(uniqueId)).
		Register(FieldComponentType, NewProperty(t)).
		Register(FieldProperties, NewGroupProperty(props))
}

// NewSetSystemPropertiesMessage asks for props to be applied to the system of
// type t.
func NewSetSystemPropertiesMessage(t ComponentType, props PropertyGroup) *Message {
	return NewMessage(SetSystemPropertiesMessageType).
		Register(FieldComponentType, NewProperty(t)).
		Register(FieldProperties, NewGroupProperty(props))
}

// PropertiesView holds the fields of the property bulk-set requests.
type PropertiesView struct {
	UniqueId      string
	ComponentType ComponentType
	Properties    PropertyGroup
}

func ViewProperties(m *Message) PropertiesView {
	return PropertiesView{
		UniqueId:      fieldOf(m, FieldUniqueId).StringValue(),
		ComponentType: fieldOf(m, FieldComponentType).StringIdValue(),
		Properties:    fieldOf(m, FieldProperties).GroupValue(),
	}
}

// SpawnEntityView holds the fields of a spawn request. An empty UniqueId is
// filled in by the handler.
type SpawnEntityView struct {
	UniqueId    string
	EntityName  string
	SpawnerName string
	AddToScene  bool
}

func NewSpawnEntityMessage(v SpawnEntityView) *Message {
	return NewMessage(SpawnEntityMessageType).
		Register(FieldUniqueId, NewProperty(v.UniqueId)).
		Register(FieldEntityName, NewProperty(v.EntityName)).
		Register(FieldSpawnerName, NewProperty(v.SpawnerName)).
		Register(FieldAddToScene, NewProperty(v.AddToScene))
}

func ViewSpawnEntity(m *Message) SpawnEntityView {
	return SpawnEntityView{
		UniqueId:    fieldOf(m, FieldUniqueId).StringValue(),
		EntityName:  fieldOf(m, FieldEntityName).StringValue(),
		SpawnerName: fieldOf(m, FieldSpawnerName).StringValue(),
		AddToScene:  fieldOf(m, FieldAddToScene).BoolValue(),
	}
}

func NewEnableDebugDrawingMessage(enable bool) *Message {
	return NewMessage(EnableDebugDrawingMessageType).
		Register(FieldEnable, NewProperty(enable))
}

// DebugDrawingEnabled reads an EnableDebugDrawing message. A message without
// the field disables drawing.
func DebugDrawingEnabled(m *Message) bool {
	return fieldOf(m, FieldEnable).BoolValue()
}

func NewToolActivatedMessage(tool string) *Message {
	return NewMessage(ToolActivatedMessageType).
		Register(FieldToolName, NewProperty(tool))
}

// missingField stands in for fields a message does not carry so views read
// zero values.
var missingField Property = NewProperty(false)

func fieldOf(m *Message, name StringId) Property {
	if p, ok := m.Get(name); ok {
		return p
	}
	return missingField
}
