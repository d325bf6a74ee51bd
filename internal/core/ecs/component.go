package ecs

// ComponentID is the stable per-type identifier handed out by Registry.
type ComponentID uint32

// Component is the typed handle returned by Register. It carries no data,
// only the identity used to index a World's stores.
type Component[T any] struct {
	id       ComponentID
	name     string
	registry *Registry
}

func (c Component[T]) ID() ComponentID { return c.id }
func (c Component[T]) Name() string    { return c.name }

// Removable is implemented by all component stores so the World can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID) bool
}

// anyStore is the type-erased store surface used by World and the query engine.
type anyStore interface {
	Removable
	Has(id EntityID) bool
	Len() int
	Entities() []EntityID
	copyTo(dst anyStore, from, to EntityID)
}

// Store maps EntityID to *T and keeps first-insertion order.
// Removal leaves a zero tombstone in the order slice; the slice is compacted
// once tombstones outnumber live entries.
type Store[T any] struct {
	data  map[EntityID]*T
	index map[EntityID]int
	order []EntityID
	dead  int
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data:  make(map[EntityID]*T, 64),
		index: make(map[EntityID]int, 64),
		order: make([]EntityID, 0, 64),
	}
}

// Set attaches or replaces the component. Replacing keeps the original position.
func (s *Store[T]) Set(id EntityID, c *T) {
	if _, ok := s.data[id]; !ok {
		s.index[id] = len(s.order)
		s.order = append(s.order, id)
	}
	s.data[id] = c
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Remove(id EntityID) bool {
	if _, ok := s.data[id]; !ok {
		return false
	}
	delete(s.data, id)
	s.order[s.index[id]] = 0
	delete(s.index, id)
	s.dead++
	if s.dead > len(s.data) {
		s.compact()
	}
	return true
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// Entities returns a copy of the live entities in insertion order.
func (s *Store[T]) Entities() []EntityID {
	out := make([]EntityID, 0, len(s.data))
	for _, id := range s.order {
		if id != 0 {
			out = append(out, id)
		}
	}
	return out
}

// Each visits a snapshot of the store in insertion order. Entries removed by fn
// before they are reached are skipped.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for _, id := range s.Entities() {
		if c, ok := s.data[id]; ok {
			fn(id, c)
		}
	}
}

func (s *Store[T]) compact() {
	w := 0
	for _, id := range s.order {
		if id == 0 {
			continue
		}
		s.order[w] = id
		s.index[id] = w
		w++
	}
	clear(s.order[w:])
	s.order = s.order[:w]
	s.dead = 0
}

func (s *Store[T]) copyTo(dst anyStore, from, to EntityID) {
	c, ok := s.data[from]
	if !ok {
		return
	}
	v := *c
	dst.(*Store[T]).Set(to, &v)
}
