package system

import (
	"time"

	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"go.uber.org/zap"
)

// Phase selects when a system runs.
type Phase int

const (
	PhaseInit   Phase = iota // once, during Runner.Initialize
	PhaseUpdate              // fixed simulation cadence
	PhaseRender              // variable frame cadence
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseUpdate:
		return "update"
	case PhaseRender:
		return "render"
	}
	return "unknown"
}

// Status is a system's lifecycle state:
// Unregistered -> Initialized -> (Enabled <-> Disabled) -> Disposed.
type Status int

const (
	StatusUnregistered Status = iota
	StatusInitialized
	StatusEnabled
	StatusDisabled
	StatusDisposed
)

func (s Status) String() string {
	switch s {
	case StatusUnregistered:
		return "unregistered"
	case StatusInitialized:
		return "initialized"
	case StatusEnabled:
		return "enabled"
	case StatusDisabled:
		return "disabled"
	case StatusDisposed:
		return "disposed"
	}
	return "unknown"
}

// Frame carries the timing of the phase being run.
type Frame struct {
	Tick  uint64        // update ticks completed before this call
	Dt    time.Duration // update interval (update phase) or time since last render
	Alpha float64       // interpolation factor in [0,1], render phase only
}

// Context is handed to every Init and Run call. Host is whatever environment
// the owner of the Runner exposes (the spatial package passes its context env).
type Context[H any] struct {
	Name  string
	World *ecs.World
	Host  H
	State any
	Frame Frame
	Log   *zap.Logger
}

// StateOf returns the system's private state as *T, or nil if it has another type.
func StateOf[T any, H any](ctx *Context[H]) *T {
	s, _ := ctx.State.(*T)
	return s
}

// Cleanup is returned by Init and called before the system is replaced or disposed.
type Cleanup func()

// Behavior is the swappable logic of a system. Run is required, Init optional.
type Behavior[H any] struct {
	Init func(ctx *Context[H]) (Cleanup, error)
	Run  func(ctx *Context[H]) error
}

// Descriptor declares a system. NewState, when set, builds the private state
// once per Runner; the scheduler never resets it afterwards.
type Descriptor[H any] struct {
	Name     string
	Phase    Phase
	Priority int // ascending; ties keep registration order
	Disabled bool
	NewState func() any
	Behavior[H]
}
