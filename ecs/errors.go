package ecs

import "errors"

var (
	ErrEntityNotFound     = errors.New("entity not found")
	ErrEntityIdsExhausted = errors.New("entity ids exhausted")
	ErrSystemNotFound     = errors.New("entity system not found")
	ErrSystemExists       = errors.New("entity system already registered")
	ErrComponentExists    = errors.New("component already exists")
	ErrComponentNotFound  = errors.New("component not found")
	ErrTargetNotEmpty     = errors.New("target entity already has components")
	ErrSpawnerNotFound    = errors.New("spawner not found")
	ErrSpawnerExists      = errors.New("spawner already exists")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrTypeMismatch       = errors.New("property type mismatch")
	ErrMethodNotFound     = errors.New("scripted method not found")
)
