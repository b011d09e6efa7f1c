package ecs

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommandHandler carries out the standard command messages: spawning and
// deleting entities addressed by unique id and bulk property updates. It
// keeps the unique id of every entity it spawned.
type CommandHandler struct {
	em     *EntityManager
	store  *SpawnerStore
	log    *zap.Logger
	regs   []*Registration
	byId   map[string]EntityId
	byEnt  map[EntityId]string
	names  map[EntityId]string
	closed bool
}

// NewCommandHandler registers the handler's listeners on em. store may be nil,
// in which case spawn requests naming a spawner fail.
func NewCommandHandler(em *EntityManager, store *SpawnerStore) *CommandHandler {
	h := &CommandHandler{
		em:    em,
		store: store,
		log:   em.log.Named("commands"),
		byId:  make(map[string]EntityId),
		byEnt: make(map[EntityId]string),
		names: make(map[EntityId]string),
	}
	h.regs = append(h.regs,
		em.RegisterForMessages(SpawnEntityMessageType, h.onSpawnEntity, OrderDefault, "CommandHandler.SpawnEntity"),
		em.RegisterForMessages(DeleteEntityMessageType, h.onDeleteEntity, OrderDefault, "CommandHandler.DeleteEntity"),
		em.RegisterForMessages(SetComponentPropertiesMessageType, h.onSetComponentProperties, OrderDefault, "CommandHandler.SetComponentProperties"),
		em.RegisterForMessages(SetSystemPropertiesMessageType, h.onSetSystemProperties, OrderDefault, "CommandHandler.SetSystemProperties"),
	)
	return h
}

// Close unregisters the handler's listeners.
func (h *CommandHandler) Close() {
	if h.closed {
		return
	}
	for _, r := range h.regs {
		h.em.UnregisterForMessages(r)
	}
	h.closed = true
}

// Entity returns the live entity spawned under uniqueId. Ids of entities
// killed behind the handler's back are dropped here.
func (h *CommandHandler) Entity(uniqueId string) (EntityId, bool) {
	eid, ok := h.byId[uniqueId]
	if !ok {
		return 0, false
	}
	if !h.em.EntityExists(eid) {
		h.forget(eid)
		return 0, false
	}
	return eid, true
}

// UniqueId returns the unique id the entity was spawned under.
func (h *CommandHandler) UniqueId(eid EntityId) (string, bool) {
	id, ok := h.byEnt[eid]
	return id, ok
}

// EntityName returns the name given in the spawn request.
func (h *CommandHandler) EntityName(eid EntityId) string {
	return h.names[eid]
}

// Assign records uniqueId for an entity created outside of SpawnEntity.
func (h *CommandHandler) Assign(eid EntityId, uniqueId string) error {
	if other, taken := h.byId[uniqueId]; taken && other != eid {
		return fmt.Errorf("unique id %q already used by entity %d", uniqueId, other)
	}
	if old, ok := h.byEnt[eid]; ok {
		delete(h.byId, old)
	}
	h.byId[uniqueId] = eid
	h.byEnt[eid] = uniqueId
	return nil
}

func (h *CommandHandler) forget(eid EntityId) {
	if id, ok := h.byEnt[eid]; ok {
		delete(h.byId, id)
		delete(h.byEnt, eid)
	}
	delete(h.names, eid)
}

// onSpawnEntity writes the unique id it used back into the message, so the
// emitter can read it once EmitMessage returns.
func (h *CommandHandler) onSpawnEntity(msg *Message) error {
	req := ViewSpawnEntity(msg)
	if req.UniqueId == "" {
		req.UniqueId = uuid.NewString()
	}
	if _, taken := h.byId[req.UniqueId]; taken {
		return fmt.Errorf("spawn entity: unique id %q already in use", req.UniqueId)
	}

	e, err := h.em.CreateEntity()
	if err != nil {
		return fmt.Errorf("spawn entity: %w", err)
	}
	if req.SpawnerName != "" {
		if h.store == nil {
			h.em.KillEntity(e.Id())
			return fmt.Errorf("spawn entity: %w: %q", ErrSpawnerNotFound, req.SpawnerName)
		}
		if err := h.store.Spawn(req.SpawnerName, e); err != nil {
			h.em.KillEntity(e.Id())
			return fmt.Errorf("spawn entity: %w", err)
		}
	}

	h.byId[req.UniqueId] = e.Id()
	h.byEnt[e.Id()] = req.UniqueId
	if req.EntityName != "" {
		h.names[e.Id()] = req.EntityName
	}
	h.log.Debug("spawned entity",
		zap.String("uniqueId", req.UniqueId),
		zap.String("spawner", req.SpawnerName),
		zap.Uint32("entity", uint32(e.Id())))
	return msg.Set(FieldUniqueId, NewProperty(req.UniqueId))
}

// onDeleteEntity only queues the kill; the entity disappears when the
// command buffer is flushed.
func (h *CommandHandler) onDeleteEntity(msg *Message) error {
	uid := fieldOf(msg, FieldUniqueId).StringValue()
	eid, ok := h.byId[uid]
	if !ok {
		h.log.Warn("cannot delete entity: unknown unique id", zap.String("uniqueId", uid))
		return fmt.Errorf("delete entity: %w: unique id %q", ErrEntityNotFound, uid)
	}
	h.forget(eid)
	h.em.Commands().KillEntity(eid)
	return nil
}

func (h *CommandHandler) onSetComponentProperties(msg *Message) error {
	req := ViewProperties(msg)
	eid, ok := h.byId[req.UniqueId]
	if !ok {
		return fmt.Errorf("set component properties: %w: unique id %q", ErrEntityNotFound, req.UniqueId)
	}
	c, ok := h.em.GetComponent(eid, req.ComponentType, false)
	if !ok {
		return fmt.Errorf("set component properties: %w: %s on %q",
			ErrComponentNotFound, h.em.name(req.ComponentType), req.UniqueId)
	}
	if err := applyProperties(c, req.Properties); err != nil {
		return fmt.Errorf("set component properties: %w", err)
	}
	c.Finished()
	return nil
}

func (h *CommandHandler) onSetSystemProperties(msg *Message) error {
	req := ViewProperties(msg)
	s, ok := h.em.GetEntitySystem(req.ComponentType)
	if !ok {
		return fmt.Errorf("set system properties: %w: %s", ErrSystemNotFound, h.em.name(req.ComponentType))
	}
	var listener PropertyChangeListener
	if l, ok := s.(PropertyChangeListener); ok {
		listener = l
	}
	if err := s.Properties().Apply(req.Properties, listener); err != nil {
		return fmt.Errorf("set system properties: %w", err)
	}
	return nil
}
