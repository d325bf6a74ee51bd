package ecs

// Registry assigns component identities. Every World built from the same
// Registry agrees on which ComponentID names which type, which is what lets
// CopyEntity move data between worlds. A Registry is owned by whoever builds
// the worlds (usually one per context manager); there is no global instance.
type Registry struct {
	names     []string
	factories []func() anyStore
}

func NewRegistry() *Registry {
	return &Registry{
		names:     make([]string, 0, 16),
		factories: make([]func() anyStore, 0, 16),
	}
}

// Register adds a component type and returns its handle. Each call allocates a
// new identity, so register every type once and share the handle.
func Register[T any](r *Registry, name string) Component[T] {
	id := ComponentID(len(r.names))
	r.names = append(r.names, name)
	r.factories = append(r.factories, func() anyStore { return NewStore[T]() })
	return Component[T]{id: id, name: name, registry: r}
}

// Len returns the number of registered component types.
func (r *Registry) Len() int { return len(r.names) }

// Name returns the registered name for id, or "" if unknown.
func (r *Registry) Name(id ComponentID) string {
	if int(id) >= len(r.names) {
		return ""
	}
	return r.names[id]
}

// Lookup returns the id registered under name.
func (r *Registry) Lookup(name string) (ComponentID, bool) {
	for i, n := range r.names {
		if n == name {
			return ComponentID(i), true
		}
	}
	return 0, false
}
