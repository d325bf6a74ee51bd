package ecs

// Query returns every entity currently holding all of the listed component
// types, as a materialized snapshot. The smallest requested store drives the
// iteration (first listed wins ties) and the result follows that store's
// insertion order. Destroying or creating entities while ranging over the
// result does not change which entities it contains.
//
// An empty type list, or any type with no store in this world, yields nil.
func (w *World) Query(types ...ComponentID) []EntityID {
	if len(types) == 0 {
		return nil
	}
	stores := make([]anyStore, len(types))
	driver := 0
	for i, id := range types {
		s := w.store(id, false)
		if s == nil || s.Len() == 0 {
			return nil
		}
		stores[i] = s
		if s.Len() < stores[driver].Len() {
			driver = i
		}
	}

	candidates := stores[driver].Entities()
	if len(stores) == 1 {
		return candidates
	}

	// Filter in place; candidates is already a private copy.
	out := candidates[:0]
	for _, e := range candidates {
		match := true
		for i, s := range stores {
			if i == driver {
				continue
			}
			if !s.Has(e) {
				match = false
				break
			}
		}
		if match {
			out = append(out, e)
		}
	}
	return out
}

// Each2 visits entities holding both A and B, driven by a Query snapshot.
func Each2[A, B any](w *World, ca Component[A], cb Component[B], fn func(EntityID, *A, *B)) {
	for _, id := range w.Query(ca.id, cb.id) {
		a, ok := Get(w, id, ca)
		if !ok {
			continue
		}
		b, ok := Get(w, id, cb)
		if !ok {
			continue
		}
		fn(id, a, b)
	}
}

// Each3 visits entities holding A, B and C, driven by a Query snapshot.
func Each3[A, B, C any](w *World, ca Component[A], cb Component[B], cc Component[C], fn func(EntityID, *A, *B, *C)) {
	for _, id := range w.Query(ca.id, cb.id, cc.id) {
		a, okA := Get(w, id, ca)
		b, okB := Get(w, id, cb)
		c, okC := Get(w, id, cc)
		if okA && okB && okC {
			fn(id, a, b, c)
		}
	}
}
