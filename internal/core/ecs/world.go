package ecs

// World is the top-level ECS container. It owns the entity pool, one store per
// registered component type and a deferred destruction queue flushed by the
// cleanup system each tick. Entities and components never outlive their World,
// and an EntityID is meaningless outside the World that created it.
//
// Accessed only from the game loop goroutine; no locks.
type World struct {
	pool         *EntityPool
	registry     *Registry
	stores       []anyStore
	destroyQueue []EntityID
}

func NewWorld(r *Registry) *World {
	if r == nil {
		r = NewRegistry()
	}
	return &World{
		pool:         NewEntityPool(),
		registry:     r,
		stores:       make([]anyStore, r.Len()),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

// Create allocates a fresh entity with no components attached.
func (w *World) Create() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// Count returns the number of live entities.
func (w *World) Count() int {
	return w.pool.Len()
}

// Destroy removes the entity and every component attached to it.
func (w *World) Destroy(id EntityID) error {
	if !w.pool.Alive(id) {
		return &InvalidEntityError{Entity: id, Op: "destroy"}
	}
	for _, s := range w.stores {
		if s != nil {
			s.Remove(id)
		}
	}
	w.pool.Destroy(id)
	return nil
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue destroys all queued entities and clears their components.
// Entities already gone are skipped. Returns the number destroyed.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		if w.Destroy(id) == nil {
			n++
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}

// store returns the store for id, creating it when create is set.
func (w *World) store(id ComponentID, create bool) anyStore {
	if int(id) >= len(w.stores) {
		if !create {
			return nil
		}
		grown := make([]anyStore, w.registry.Len())
		copy(grown, w.stores)
		w.stores = grown
	}
	s := w.stores[id]
	if s == nil && create {
		s = w.registry.factories[id]()
		w.stores[id] = s
	}
	return s
}

// Add attaches or replaces the component of type c on id.
func Add[T any](w *World, id EntityID, c Component[T], v *T) error {
	if c.registry != w.registry {
		return ErrForeignComponent
	}
	if !w.pool.Alive(id) {
		return &InvalidEntityError{Entity: id, Op: "add " + c.name}
	}
	w.store(c.id, true).(*Store[T]).Set(id, v)
	return nil
}

// Get returns the component or false. Absence is routine and not an error.
func Get[T any](w *World, id EntityID, c Component[T]) (*T, bool) {
	s := StoreOf(w, c)
	if s == nil {
		return nil, false
	}
	return s.Get(id)
}

// Has reports whether id currently holds a component of type c.
func Has[T any](w *World, id EntityID, c Component[T]) bool {
	s := StoreOf(w, c)
	return s != nil && s.Has(id)
}

// Require returns the component, failing when the entity is dead or lacks it.
// Use where absence is a programming error rather than routine state.
func Require[T any](w *World, id EntityID, c Component[T]) (*T, error) {
	if !w.pool.Alive(id) {
		return nil, &InvalidEntityError{Entity: id, Op: "require " + c.name}
	}
	v, ok := Get(w, id, c)
	if !ok {
		return nil, &MissingComponentError{Entity: id, Component: c.name}
	}
	return v, nil
}

// Remove detaches the component; returns false if it was not present.
func Remove[T any](w *World, id EntityID, c Component[T]) bool {
	s := StoreOf(w, c)
	return s != nil && s.Remove(id)
}

// StoreOf returns the typed store for c, or nil if nothing was ever added.
func StoreOf[T any](w *World, c Component[T]) *Store[T] {
	if c.registry != w.registry {
		return nil
	}
	s := w.store(c.id, false)
	if s == nil {
		return nil
	}
	return s.(*Store[T])
}

// Each visits a snapshot of every entity holding c, in insertion order.
func Each[T any](w *World, c Component[T], fn func(EntityID, *T)) {
	if s := StoreOf(w, c); s != nil {
		s.Each(fn)
	}
}

// CopyEntity creates a new entity in dst carrying a shallow copy of every
// component id holds in src. Both worlds must share a Registry.
func CopyEntity(src *World, id EntityID, dst *World) (EntityID, error) {
	if src.registry != dst.registry {
		return 0, ErrForeignComponent
	}
	if !src.pool.Alive(id) {
		return 0, &InvalidEntityError{Entity: id, Op: "copy"}
	}
	to := dst.Create()
	for cid, s := range src.stores {
		if s == nil || !s.Has(id) {
			continue
		}
		s.copyTo(dst.store(ComponentID(cid), true), id, to)
	}
	return to, nil
}
