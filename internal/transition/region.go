package transition

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/ViewableGravy/better-ecs-sub001/internal/physics"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
)

// Placement is where an authored point should be attributed.
type Placement struct {
	Context spatial.ContextID
	Blocked bool // point sits on a child region inside the root
}

// ResolvePlacement bubbles from the focused context towards the root. A
// context claims the point when it lies inside that context's region, either
// one in its own World or the entry region its parent holds for it. The root
// claims whatever is left, except points over any child's entry region.
func ResolvePlacement(m *spatial.Manager, cat *component.Catalog, p physics.Vec) Placement {
	id := m.FocusedContextID()
	if id == "" {
		id = m.RootContextID()
	}
	for {
		def, ok := m.Definition(id)
		if !ok {
			return Placement{Context: m.RootContextID()}
		}
		if def.Parent == "" {
			if w, ok := m.GetWorld(id); ok && inAnyChildRegion(w, cat, id, p) {
				return Placement{Context: id, Blocked: true}
			}
			return Placement{Context: id}
		}
		if w, ok := m.GetWorld(id); ok && inRegionFor(w, cat, id, p) {
			return Placement{Context: id}
		}
		if pw, ok := m.GetWorld(def.Parent); ok && inRegionFor(pw, cat, id, p) {
			return Placement{Context: id}
		}
		id = def.Parent
	}
}

func inRegionFor(w *ecs.World, cat *component.Catalog, ctx spatial.ContextID, p physics.Vec) bool {
	found := false
	eachRegion(w, cat, func(r *component.EntryRegion, tr *component.Transform, col *component.Collider) bool {
		if r.Context == ctx && physics.Contains(col.Shape, tr.Pos(), p) {
			found = true
			return false
		}
		return true
	})
	return found
}

func inAnyChildRegion(w *ecs.World, cat *component.Catalog, root spatial.ContextID, p physics.Vec) bool {
	found := false
	eachRegion(w, cat, func(r *component.EntryRegion, tr *component.Transform, col *component.Collider) bool {
		if r.Context != root && physics.Contains(col.Shape, tr.Pos(), p) {
			found = true
			return false
		}
		return true
	})
	return found
}

// eachRegion visits complete regions until fn returns false. Regions missing
// a transform or collider are skipped.
func eachRegion(w *ecs.World, cat *component.Catalog, fn func(*component.EntryRegion, *component.Transform, *component.Collider) bool) {
	for _, id := range w.Query(cat.EntryRegion.ID(), cat.Transform.ID(), cat.Collider.ID()) {
		r, ok1 := ecs.Get(w, id, cat.EntryRegion)
		tr, ok2 := ecs.Get(w, id, cat.Transform)
		col, ok3 := ecs.Get(w, id, cat.Collider)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		if !fn(r, tr, col) {
			return
		}
	}
}
