package ecs

import (
	"errors"
	"fmt"
)

// Commands buffers structural changes requested while systems iterate their
// components. Flush applies them once iteration is over: kills first, then
// component deletions, then spawns, then deferred functions.
type Commands struct {
	kills   []EntityId
	removes []removeComponentCommand
	spawns  []spawnCommand
	defers  []func()
}

type removeComponentCommand struct {
	entity   EntityId
	compType ComponentType
}

type spawnCommand struct {
	spawner *Spawner
	then    func(*Entity)
}

func NewCommands() *Commands {
	return &Commands{}
}

// KillEntity queues the removal of an entity.
func (c *Commands) KillEntity(eid EntityId) {
	c.kills = append(c.kills, eid)
}

// DeleteComponent queues the removal of a component of exact type t.
func (c *Commands) DeleteComponent(eid EntityId, t ComponentType) {
	c.removes = append(c.removes, removeComponentCommand{entity: eid, compType: t})
}

// Spawn queues the creation of an entity from spawner. then, if not nil, runs
// with the new entity once it is spawned.
func (c *Commands) Spawn(spawner *Spawner, then func(*Entity)) {
	c.spawns = append(c.spawns, spawnCommand{spawner: spawner, then: then})
}

// Defer queues a function to run at the end of the flush.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.kills) + len(c.removes) + len(c.spawns) + len(c.defers)
}

// Flush applies every queued operation to em and resets the buffer.
// Operations queued while flushing wait for the next Flush.
func (c *Commands) Flush(em *EntityManager) error {
	kills, removes, spawns, defers := c.kills, c.removes, c.spawns, c.defers
	c.kills, c.removes, c.spawns, c.defers = nil, nil, nil, nil

	var errs []error
	killed := make(map[EntityId]bool, len(kills))
	for _, eid := range kills {
		if killed[eid] {
			continue
		}
		if em.KillEntity(eid) {
			killed[eid] = true
		}
	}

	for _, cmd := range removes {
		if killed[cmd.entity] {
			continue
		}
		em.DeleteComponent(cmd.entity, cmd.compType)
	}

	for _, cmd := range spawns {
		e, err := cmd.spawner.SpawnEntity(em)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if cmd.then != nil {
			cmd.then(e)
		}
	}

	for _, fn := range defers {
		fn()
	}

	if len(errs) > 0 {
		return fmt.Errorf("flush commands: %w", errors.Join(errs...))
	}
	return nil
}
