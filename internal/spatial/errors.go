package spatial

import (
	"errors"
	"fmt"
)

var (
	ErrContextNotLoaded = errors.New("spatial: context not loaded")
	ErrUnknownContext   = errors.New("spatial: unknown context")
	ErrConfig           = errors.New("spatial: invalid context configuration")
)

// ContextNotLoadedError is returned when an operation depends on a context
// whose World does not exist yet.
type ContextNotLoadedError struct {
	ID ContextID
	Op string
}

func (e *ContextNotLoadedError) Error() string {
	return fmt.Sprintf("spatial: %s: context %q not loaded", e.Op, e.ID)
}

func (e *ContextNotLoadedError) Is(target error) bool { return target == ErrContextNotLoaded }

// UnknownContextError names an id with no definition.
type UnknownContextError struct {
	ID ContextID
}

func (e *UnknownContextError) Error() string {
	return fmt.Sprintf("spatial: unknown context %q", e.ID)
}

func (e *UnknownContextError) Is(target error) bool { return target == ErrUnknownContext }

// ConfigError reports an invalid definition graph or a misuse of the manager.
type ConfigError struct {
	ID     ContextID
	Reason string
}

func (e *ConfigError) Error() string {
	if e.ID == "" {
		return "spatial: " + e.Reason
	}
	return fmt.Sprintf("spatial: context %q: %s", e.ID, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }
