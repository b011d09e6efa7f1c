package ecs

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// ComponentDeletedFunc is called after a component was removed from an entity.
type ComponentDeletedFunc func(eid EntityId, c Component)

// EntitySystemRequestCallback is asked to create the system for a component
// type nobody has registered yet. It reports whether it added one.
type EntitySystemRequestCallback interface {
	CreateEntitySystem(em *EntityManager, t ComponentType) bool
}

// EntitySystemRequestFunc adapts a function to EntitySystemRequestCallback.
type EntitySystemRequestFunc func(em *EntityManager, t ComponentType) bool

func (f EntitySystemRequestFunc) CreateEntitySystem(em *EntityManager, t ComponentType) bool {
	return f(em, t)
}

// CallbackHandle identifies a registered callback for later removal.
type CallbackHandle uint64

// ManagerObserver is told about entity and component lifecycle events.
type ManagerObserver interface {
	OnEntityCreated(eid EntityId)
	OnEntityKilled(eid EntityId)
	OnComponentCreated(t ComponentType)
	OnComponentDeleted(t ComponentType)
}

type deletedCallback struct {
	handle CallbackHandle
	fn     ComponentDeletedFunc
}

type requestCallback struct {
	handle CallbackHandle
	cb     EntitySystemRequestCallback
}

// EntityManager is the registry of entities and entity systems and owns the
// message pump they talk through.
//
// CreateEntity, KillEntity's entity bookkeeping and the entity queries may be
// called from any goroutine. Everything else, component operations and
// system registration included, belongs on the simulation goroutine.
type EntityManager struct {
	mu       sync.RWMutex
	entities *intmap.Map[EntityId, *Entity]
	lastId   EntityId

	systems     map[ComponentType]EntitySystem
	systemOrder []EntitySystem
	hierarchy   *TypeHierarchy

	deletedCallbacks []deletedCallback
	requestCallbacks []requestCallback
	nextHandle       CallbackHandle

	pump     *MessagePump
	commands *Commands
	strings  *StringTable
	observer ManagerObserver
	log      *zap.Logger
}

// Option configures an EntityManager.
type Option func(*EntityManager)

// WithLogger sets the logger used by the manager and its message pump.
func WithLogger(log *zap.Logger) Option {
	return func(em *EntityManager) { em.log = log }
}

// WithStringTable sets the table used to resolve type names in diagnostics.
// The default is the process-wide Strings table.
func WithStringTable(t *StringTable) Option {
	return func(em *EntityManager) { em.strings = t }
}

// WithObserver installs an observer of entity and component events.
func WithObserver(o ManagerObserver) Option {
	return func(em *EntityManager) { em.observer = o }
}

// WithRegistry installs r as a lazy system request callback and records its
// type hierarchy.
func WithRegistry(r *ComponentRegistry) Option {
	return func(em *EntityManager) {
		r.RecordHierarchy(em.hierarchy)
		em.AddEntitySystemRequestCallback(r)
	}
}

// NewEntityManager creates an empty manager.
func NewEntityManager(opts ...Option) *EntityManager {
	em := &EntityManager{
		entities:  intmap.New[EntityId, *Entity](1024),
		systems:   make(map[ComponentType]EntitySystem),
		hierarchy: NewTypeHierarchy(),
		commands:  NewCommands(),
		strings:   Strings,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(em)
	}
	em.pump = NewMessagePump(em.log.Named("pump"))
	return em
}

func (em *EntityManager) name(id StringId) string {
	if s, ok := em.strings.Resolve(id); ok {
		return s
	}
	return fmt.Sprintf("#%d", uint32(id))
}

// Intern interns s in the manager's string table.
func (em *EntityManager) Intern(s string) StringId { return em.strings.Intern(s) }

func (em *EntityManager) StringTable() *StringTable { return em.strings }

func (em *EntityManager) Logger() *zap.Logger { return em.log }

func (em *EntityManager) Hierarchy() *TypeHierarchy { return em.hierarchy }

// Commands returns the buffer for structural changes deferred to the end of
// the frame.
func (em *EntityManager) Commands() *Commands { return em.commands }

// CreateEntity allocates a new entity. Safe for concurrent use.
func (em *EntityManager) CreateEntity() (*Entity, error) {
	em.mu.Lock()
	if em.lastId == math.MaxUint32 {
		em.mu.Unlock()
		return nil, ErrEntityIdsExhausted
	}
	em.lastId++
	e := &Entity{id: em.lastId, manager: em}
	em.entities.Put(e.id, e)
	em.mu.Unlock()

	if em.observer != nil {
		em.observer.OnEntityCreated(e.id)
	}
	return e, nil
}

// GetEntity returns the live entity with id eid.
func (em *EntityManager) GetEntity(eid EntityId) (*Entity, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return em.entities.Get(eid)
}

// EntityExists reports whether eid is a live entity. Safe for concurrent use.
func (em *EntityManager) EntityExists(eid EntityId) bool {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return em.entities.Has(eid)
}

// HasEntity is an alias of EntityExists.
func (em *EntityManager) HasEntity(eid EntityId) bool { return em.EntityExists(eid) }

// EntityIds returns every live entity id in ascending order.
func (em *EntityManager) EntityIds() []EntityId {
	em.mu.RLock()
	ids := make([]EntityId, 0, em.entities.Len())
	em.entities.ForEach(func(id EntityId, _ *Entity) bool {
		ids = append(ids, id)
		return true
	})
	em.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (em *EntityManager) HasEntities() bool { return em.EntityCount() > 0 }

func (em *EntityManager) EntityCount() int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return em.entities.Len()
}

// KillEntity removes every component of eid, running its removal hooks and
// the deleted callbacks, then forgets the entity. It reports false and does
// nothing if eid is not a live entity.
func (em *EntityManager) KillEntity(eid EntityId) bool {
	e, ok := em.GetEntity(eid)
	if !ok {
		em.log.Warn("cannot kill entity: not found", zap.Uint32("entity", uint32(eid)))
		return false
	}

	for _, s := range slices.Clone(em.systemOrder) {
		c, ok := s.GetComponent(eid)
		if !ok {
			continue
		}
		em.removeComponent(e, s, c)
	}

	em.mu.Lock()
	removed := em.entities.Del(eid)
	em.mu.Unlock()

	if removed && em.observer != nil {
		em.observer.OnEntityKilled(eid)
	}
	return removed
}

func (em *EntityManager) removeComponent(e *Entity, s EntitySystem, c Component) {
	c.OnRemovedFromEntity(e)
	s.DeleteComponent(e.id)
	for _, cb := range slices.Clone(em.deletedCallbacks) {
		cb.fn(e.id, c)
	}
	if em.observer != nil {
		em.observer.OnComponentDeleted(s.ComponentType())
	}
}

// AddEntitySystem registers s under its component type. It fails with
// ErrSystemExists if a system of that type is already registered.
func (em *EntityManager) AddEntitySystem(s EntitySystem) error {
	t := s.ComponentType()
	if _, exists := em.systems[t]; exists {
		return fmt.Errorf("%w: %s", ErrSystemExists, em.name(t))
	}
	if base := s.BaseType(); base != 0 {
		em.hierarchy.Add(t, base)
	}
	s.systemBase().manager = em
	em.systems[t] = s
	em.systemOrder = append(em.systemOrder, s)

	em.log.Debug("added entity system", zap.String("type", em.name(t)))
	if l, ok := s.(ManagerListener); ok {
		l.OnAddedToManager(em)
	}
	return nil
}

// RemoveEntitySystem unregisters s. Its components are left untouched.
func (em *EntityManager) RemoveEntitySystem(s EntitySystem) bool {
	t := s.ComponentType()
	if current, ok := em.systems[t]; !ok || current != s {
		return false
	}
	delete(em.systems, t)
	em.systemOrder = slices.DeleteFunc(em.systemOrder, func(x EntitySystem) bool { return x == s })
	if l, ok := s.(ManagerListener); ok {
		l.OnRemovedFromManager(em)
	}
	s.systemBase().manager = nil
	return true
}

func (em *EntityManager) HasEntitySystem(t ComponentType) bool {
	_, ok := em.systems[t]
	return ok
}

// GetEntitySystem returns the system registered for t.
func (em *EntityManager) GetEntitySystem(t ComponentType) (EntitySystem, bool) {
	s, ok := em.systems[t]
	return s, ok
}

// EntitySystems returns every system in registration order.
func (em *EntityManager) EntitySystems() []EntitySystem {
	return slices.Clone(em.systemOrder)
}

// requestSystem asks the request callbacks for a system of type t.
func (em *EntityManager) requestSystem(t ComponentType) (EntitySystem, bool) {
	for _, rc := range slices.Clone(em.requestCallbacks) {
		if rc.cb.CreateEntitySystem(em, t) {
			break
		}
	}
	return em.GetEntitySystem(t)
}

// CreateComponent creates a component of type t on eid and runs its
// OnAddedToEntity hook. A missing system is requested from the registered
// request callbacks once before the call fails with ErrSystemNotFound.
func (em *EntityManager) CreateComponent(eid EntityId, t ComponentType) (Component, error) {
	e, ok := em.GetEntity(eid)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrEntityNotFound, eid)
	}
	s, ok := em.systems[t]
	if !ok {
		s, ok = em.requestSystem(t)
		if !ok {
			em.log.Warn("cannot create component: no entity system",
				zap.String("type", em.name(t)),
				zap.Uint32("entity", uint32(eid)))
			return nil, fmt.Errorf("%w: %s", ErrSystemNotFound, em.name(t))
		}
	}
	c, err := s.CreateComponent(eid)
	if err != nil {
		return nil, err
	}
	c.OnAddedToEntity(e)
	if em.observer != nil {
		em.observer.OnComponentCreated(t)
	}
	return c, nil
}

// GetComponent returns the component of exact type t on eid. With
// searchDerived it falls back to components whose type derives from t,
// checking derived types in the order their relation was recorded.
func (em *EntityManager) GetComponent(eid EntityId, t ComponentType, searchDerived bool) (Component, bool) {
	if s, ok := em.systems[t]; ok {
		if c, ok := s.GetComponent(eid); ok {
			return c, true
		}
	}
	if !searchDerived {
		return nil, false
	}
	for _, d := range em.hierarchy.derived[t] {
		s, ok := em.systems[d]
		if !ok {
			continue
		}
		if c, ok := s.GetComponent(eid); ok {
			return c, true
		}
	}
	return nil, false
}

func (em *EntityManager) HasComponent(eid EntityId, t ComponentType, searchDerived bool) bool {
	_, ok := em.GetComponent(eid, t, searchDerived)
	return ok
}

// GetComponents returns every component of eid in system registration order.
func (em *EntityManager) GetComponents(eid EntityId) []Component {
	var out []Component
	for _, s := range em.systemOrder {
		if c, ok := s.GetComponent(eid); ok {
			out = append(out, c)
		}
	}
	return out
}

// DeleteComponent removes the component of exact type t from eid.
func (em *EntityManager) DeleteComponent(eid EntityId, t ComponentType) bool {
	e, ok := em.GetEntity(eid)
	if !ok {
		return false
	}
	s, ok := em.systems[t]
	if !ok {
		return false
	}
	c, ok := s.GetComponent(eid)
	if !ok {
		return false
	}
	em.removeComponent(e, s, c)
	return true
}

// DeleteComponentInstance removes c from eid if it is the component stored
// there for c's type.
func (em *EntityManager) DeleteComponentInstance(eid EntityId, c Component) bool {
	s, ok := em.systems[c.Type()]
	if !ok {
		return false
	}
	if stored, ok := s.GetComponent(eid); !ok || stored != c {
		return false
	}
	return em.DeleteComponent(eid, c.Type())
}

// CloneEntity gives target a copy of every component of origin. target must
// be a live entity without components. If a copy cannot be created, the
// copies made so far are deleted again and target is left empty.
func (em *EntityManager) CloneEntity(target, origin EntityId) error {
	if !em.EntityExists(target) {
		return fmt.Errorf("%w: clone target %d", ErrEntityNotFound, target)
	}
	if !em.EntityExists(origin) {
		return fmt.Errorf("%w: clone origin %d", ErrEntityNotFound, origin)
	}
	if len(em.GetComponents(target)) > 0 {
		return fmt.Errorf("%w: %d", ErrTargetNotEmpty, target)
	}

	var created []Component
	for _, src := range em.GetComponents(origin) {
		dst, err := em.CreateComponent(target, src.Type())
		if err != nil {
			for _, c := range created {
				em.DeleteComponent(target, c.Type())
			}
			return fmt.Errorf("clone %s: %w", em.name(src.Type()), err)
		}
		dst.Properties().CopyFrom(src.Properties())
		created = append(created, dst)
	}
	for _, c := range created {
		c.Finished()
	}
	return nil
}

// AddDeletedCallback registers fn to run after every component deletion.
func (em *EntityManager) AddDeletedCallback(fn ComponentDeletedFunc) CallbackHandle {
	em.nextHandle++
	em.deletedCallbacks = append(em.deletedCallbacks, deletedCallback{handle: em.nextHandle, fn: fn})
	return em.nextHandle
}

func (em *EntityManager) RemoveDeletedCallback(h CallbackHandle) bool {
	n := len(em.deletedCallbacks)
	em.deletedCallbacks = slices.DeleteFunc(em.deletedCallbacks, func(c deletedCallback) bool { return c.handle == h })
	return len(em.deletedCallbacks) != n
}

// AddEntitySystemRequestCallback appends cb to the callbacks consulted, in
// order, when a component of an unknown type is created.
func (em *EntityManager) AddEntitySystemRequestCallback(cb EntitySystemRequestCallback) CallbackHandle {
	em.nextHandle++
	em.requestCallbacks = append(em.requestCallbacks, requestCallback{handle: em.nextHandle, cb: cb})
	return em.nextHandle
}

func (em *EntityManager) RemoveEntitySystemRequestCallback(h CallbackHandle) bool {
	n := len(em.requestCallbacks)
	em.requestCallbacks = slices.DeleteFunc(em.requestCallbacks, func(c requestCallback) bool { return c.handle == h })
	return len(em.requestCallbacks) != n
}

// MessagePump returns the pump systems use to talk to each other.
func (em *EntityManager) MessagePump() *MessagePump { return em.pump }

func (em *EntityManager) RegisterForMessages(t MessageType, fn MessageFunc, options FilterOptions, name string) *Registration {
	return em.pump.RegisterForMessages(t, fn, options, name)
}

func (em *EntityManager) UnregisterForMessages(reg *Registration) bool {
	return em.pump.UnregisterForMessages(reg)
}

func (em *EntityManager) EmitMessage(msg *Message) error { return em.pump.EmitMessage(msg) }

func (em *EntityManager) EnqueueMessage(msg *Message, time float64) {
	em.pump.EnqueueMessage(msg, time)
}

func (em *EntityManager) EmitQueuedMessages(simtime float64) error {
	return em.pump.EmitQueuedMessages(simtime)
}

// GetSystem returns the system registered for t as an S.
func GetSystem[S EntitySystem](em *EntityManager, t ComponentType) (S, bool) {
	s, ok := em.systems[t]
	if !ok {
		var zero S
		return zero, false
	}
	typed, ok := s.(S)
	return typed, ok
}

// CreateComponentOf creates a component of type t on eid and returns it as a C.
func CreateComponentOf[C Component](em *EntityManager, eid EntityId, t ComponentType) (C, error) {
	var zero C
	c, err := em.CreateComponent(eid, t)
	if err != nil {
		return zero, err
	}
	typed, ok := c.(C)
	if !ok {
		return zero, fmt.Errorf("%w: component %s is %T", ErrTypeMismatch, em.name(t), c)
	}
	return typed, nil
}

// GetComponentOf returns the component of exact type t on eid as a C.
func GetComponentOf[C Component](em *EntityManager, eid EntityId, t ComponentType) (C, bool) {
	c, ok := em.GetComponent(eid, t, false)
	if !ok {
		var zero C
		return zero, false
	}
	typed, ok := c.(C)
	return typed, ok
}
