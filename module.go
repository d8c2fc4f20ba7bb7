package w3o

import (
	"context"

	"github.com/layer-3/w3o/core"
)

// ModuleState is the initialization state of a registered module.
// Transitions only move forward.
type ModuleState int

const (
	ModuleUninitialized ModuleState = iota
	ModuleInitializing
	ModuleInitialized
	// ModuleFailed is terminal: requirements never resolved or Init failed.
	ModuleFailed
)

func (s ModuleState) String() string {
	switch s {
	case ModuleUninitialized:
		return "uninitialized"
	case ModuleInitializing:
		return "initializing"
	case ModuleInitialized:
		return "initialized"
	case ModuleFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BaseModule provides the Module identity for embedding structs.
type BaseModule struct {
	id       core.ModuleID
	requires []string
}

// NewBaseModule returns a BaseModule for name@version.
func NewBaseModule(name, version string, requires ...string) BaseModule {
	return BaseModule{id: core.ModuleID{Name: name, Version: version}, requires: requires}
}

// ModuleID implements Module.
func (m BaseModule) ModuleID() core.ModuleID { return m.id }

// Requires implements Module.
func (m BaseModule) Requires() []string { return append([]string(nil), m.requires...) }

// ModuleSnapshot describes a module identity.
type ModuleSnapshot struct {
	ID       string   `json:"w3oId"`
	Name     string   `json:"w3oName"`
	Version  string   `json:"w3oVersion"`
	Requires []string `json:"w3oRequire"`
}

// SnapshotModule returns the identity snapshot of m.
func SnapshotModule(m Module) ModuleSnapshot {
	id := m.ModuleID()
	return ModuleSnapshot{ID: id.String(), Name: id.Name, Version: id.Version, Requires: m.Requires()}
}

// ModuleConcept is a placeholder module standing for a capability, such as
// "antelope.network.support", that other modules can require.
type ModuleConcept[T any] struct {
	BaseModule
	Data T
}

// NewModuleConcept returns a concept module carrying data.
func NewModuleConcept[T any](name, version string, data T, requires ...string) *ModuleConcept[T] {
	return &ModuleConcept[T]{BaseModule: NewBaseModule(name, version, requires...), Data: data}
}

// Init implements Initializer; concepts have nothing to set up.
func (c *ModuleConcept[T]) Init(context.Context, Instance, []Module) error { return nil }

// Snapshot implements Snapshotter.
func (c *ModuleConcept[T]) Snapshot() any { return SnapshotModule(c) }
