package spatial

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
)

// ContextID names a statically declared spatial context ("overworld", "house").
type ContextID string

// Visibility controls whether a non-focused loaded context keeps rendering.
type Visibility uint8

const (
	VisibilityStack   Visibility = iota // keeps rendering beneath the focused context
	VisibilityOverlay                   // renders only while focused
)

func (v Visibility) String() string {
	if v == VisibilityOverlay {
		return "overlay"
	}
	return "stack"
}

// Simulation controls whether a loaded context receives update ticks.
type Simulation uint8

const (
	SimulationFocusedOnly Simulation = iota
	SimulationAlways
)

func (s Simulation) String() string {
	if s == SimulationAlways {
		return "always"
	}
	return "focused-only"
}

// Policy is the per-context scheduling policy. The zero value is
// stack visibility with focused-only simulation.
type Policy struct {
	Visibility Visibility
	Simulation Simulation
}

// SetupFunc populates a freshly created World. It runs exactly once per load.
type SetupFunc func(w *ecs.World, m *Manager) error

// Definition is the static declaration of one context. An empty Parent marks
// a root.
type Definition struct {
	ID      ContextID
	Parent  ContextID
	Policy  Policy
	Setup   SetupFunc
	Systems []System
}

// Env is the host handed to every system running inside a context.
type Env struct {
	Manager *Manager
	ID      ContextID
	World   *ecs.World
}

// Focused reports whether this context held focus when the running phase
// started.
func (e *Env) Focused() bool {
	return e.Manager.ActiveFocus() == e.ID
}

type (
	System        = system.Descriptor[*Env]
	SystemContext = system.Context[*Env]
	Behavior      = system.Behavior[*Env]
	Runner        = system.Runner[*Env]
)
