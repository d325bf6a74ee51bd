package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEntity matches InvalidEntityError via errors.Is.
	ErrInvalidEntity = errors.New("ecs: invalid entity")
	// ErrMissingComponent matches MissingComponentError via errors.Is.
	ErrMissingComponent = errors.New("ecs: missing component")
	// ErrForeignComponent is returned when a handle from another Registry is used.
	ErrForeignComponent = errors.New("ecs: component registered with a different registry")
)

// InvalidEntityError reports an operation on an entity that is not alive in the world.
type InvalidEntityError struct {
	Entity EntityID
	Op     string
}

func (e *InvalidEntityError) Error() string {
	return fmt.Sprintf("ecs: %s: entity %s is not alive", e.Op, e.Entity)
}

func (e *InvalidEntityError) Is(target error) bool { return target == ErrInvalidEntity }

// MissingComponentError reports a Require on an entity lacking the component.
type MissingComponentError struct {
	Entity    EntityID
	Component string
}

func (e *MissingComponentError) Error() string {
	return fmt.Sprintf("ecs: entity %s has no %s component", e.Entity, e.Component)
}

func (e *MissingComponentError) Is(target error) bool { return target == ErrMissingComponent }
