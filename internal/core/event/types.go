package event

import "github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"

// Kind is the fixed discriminant every event carries.
type Kind uint8

const (
	KindContextLoaded Kind = iota + 1
	KindContextUnloaded
	KindFocusChanged
	KindPortalActivated
)

func (k Kind) String() string {
	switch k {
	case KindContextLoaded:
		return "context_loaded"
	case KindContextUnloaded:
		return "context_unloaded"
	case KindFocusChanged:
		return "focus_changed"
	case KindPortalActivated:
		return "portal_activated"
	}
	return "unknown"
}

type Event interface {
	Kind() Kind
}

type ContextLoaded struct {
	Context string
}

type ContextUnloaded struct {
	Context string
}

type FocusChanged struct {
	From, To string
}

type PortalActivated struct {
	From, To string
	Portal   ecs.EntityID
}

func (ContextLoaded) Kind() Kind   { return KindContextLoaded }
func (ContextUnloaded) Kind() Kind { return KindContextUnloaded }
func (FocusChanged) Kind() Kind    { return KindFocusChanged }
func (PortalActivated) Kind() Kind { return KindPortalActivated }
