package transition

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
)

type occupancyKey struct {
	context spatial.ContextID
	portal  ecs.EntityID
}

// Occupancy remembers, per (focused context, portal entity), whether the
// tracked entity overlapped the portal on the previous evaluation. Each portal
// system owns one; nothing is shared between systems or managers.
type Occupancy struct {
	inside map[occupancyKey]struct{}
}

func NewOccupancy() *Occupancy {
	return &Occupancy{inside: make(map[occupancyKey]struct{})}
}

// Edge stores the new overlap state and reports a not-overlapping to
// overlapping transition. The flag is stored whatever the result.
func (o *Occupancy) Edge(ctx spatial.ContextID, portal ecs.EntityID, overlapping bool) bool {
	k := occupancyKey{ctx, portal}
	_, was := o.inside[k]
	if overlapping {
		o.inside[k] = struct{}{}
	} else {
		delete(o.inside, k)
	}
	return overlapping && !was
}

func (o *Occupancy) Inside(ctx spatial.ContextID, portal ecs.EntityID) bool {
	_, ok := o.inside[occupancyKey{ctx, portal}]
	return ok
}

// Forget drops the flag of a portal, e.g. after the portal entity is destroyed.
func (o *Occupancy) Forget(ctx spatial.ContextID, portal ecs.EntityID) {
	delete(o.inside, occupancyKey{ctx, portal})
}

func (o *Occupancy) Len() int { return len(o.inside) }
