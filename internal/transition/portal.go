package transition

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/event"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
	"github.com/ViewableGravy/better-ecs-sub001/internal/physics"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Activation is what the callbacks see for one portal on one tick.
type Activation struct {
	Manager   *spatial.Manager
	World     *ecs.World
	Context   spatial.ContextID // focused context owning World
	Catalog   *component.Catalog
	Occupancy *Occupancy

	PortalEntity ecs.EntityID
	Portal       component.Portal
	Transform    *component.Transform
	Collider     *component.Collider

	Log *zap.Logger
}

// Callbacks parameterize a portal system. ShouldActivate must be edge
// triggered; OnEnter makes sure the tracked entity exists in next; OnTeleport
// positions it there.
type Callbacks struct {
	ShouldActivate func(a *Activation) bool
	OnEnter        func(a *Activation, next *ecs.World) error
	OnTeleport     func(a *Activation, next *ecs.World) error
}

// Standard is player overlap, copy on first entry, spawn at the portal's point.
func Standard() Callbacks {
	return Callbacks{
		ShouldActivate: PlayerOverlap,
		OnEnter:        EnsurePlayer,
		OnTeleport:     SpawnAtPortal,
	}
}

type portalState struct {
	occupancy   *Occupancy
	activations int
}

// NewPortalSystem returns one update-phase system. While its context is
// focused it evaluates every (Portal, Transform, Collider) entity each tick and
// activates at most the first that fires.
func NewPortalSystem(name string, cb Callbacks, cat *component.Catalog) spatial.System {
	if cb.ShouldActivate == nil {
		cb.ShouldActivate = PlayerOverlap
	}
	return spatial.System{
		Name:     name,
		Phase:    system.PhaseUpdate,
		NewState: func() any { return &portalState{occupancy: NewOccupancy()} },
		Behavior: spatial.Behavior{
			Run: func(ctx *spatial.SystemContext) error {
				return runPortals(ctx, cb, cat)
			},
		},
	}
}

// Activations returns how many times the named portal system fired in id.
func Activations(m *spatial.Manager, id spatial.ContextID, name string) int {
	r, ok := m.Runner(id)
	if !ok {
		return 0
	}
	st, ok := r.State(name)
	if !ok {
		return 0
	}
	ps, _ := st.(*portalState)
	if ps == nil {
		return 0
	}
	return ps.activations
}

func runPortals(ctx *spatial.SystemContext, cb Callbacks, cat *component.Catalog) error {
	env := ctx.Host
	if !env.Focused() {
		return nil
	}
	st := system.StateOf[portalState](ctx)
	w := ctx.World

	var fired *Activation
	for _, id := range w.Query(cat.Portal.ID(), cat.Transform.ID(), cat.Collider.ID()) {
		p, ok := ecs.Get(w, id, cat.Portal)
		if !ok {
			continue
		}
		tr, ok := ecs.Get(w, id, cat.Transform)
		if !ok {
			continue
		}
		col, ok := ecs.Get(w, id, cat.Collider)
		if !ok {
			continue
		}
		a := &Activation{
			Manager:      env.Manager,
			World:        w,
			Context:      env.ID,
			Catalog:      cat,
			Occupancy:    st.occupancy,
			PortalEntity: id,
			Portal:       *p,
			Transform:    tr,
			Collider:     col,
			Log:          ctx.Log,
		}
		// every portal is evaluated so each occupancy flag stays current
		if cb.ShouldActivate(a) && fired == nil {
			fired = a
		}
	}
	if fired == nil {
		return nil
	}
	st.activations++
	return activate(fired, cb)
}

func activate(a *Activation, cb Callbacks) error {
	target := a.Portal.Target
	next, err := a.Manager.EnsureWorldLoaded(target)
	if err != nil {
		return eris.Wrapf(err, "portal %s to %q", a.PortalEntity, target)
	}
	if cb.OnEnter != nil {
		if err := cb.OnEnter(a, next); err != nil {
			return eris.Wrapf(err, "portal %s enter %q", a.PortalEntity, target)
		}
	}
	if cb.OnTeleport != nil {
		if err := cb.OnTeleport(a, next); err != nil {
			return eris.Wrapf(err, "portal %s teleport %q", a.PortalEntity, target)
		}
	}
	if err := a.Manager.SetFocusedContextID(target); err != nil {
		return err
	}
	a.Manager.Bus().Emit(event.PortalActivated{From: string(a.Context), To: string(target), Portal: a.PortalEntity})
	a.Log.Info("portal activated",
		zap.Stringer("portal", a.PortalEntity),
		zap.String("from", string(a.Context)),
		zap.String("to", string(target)))
	return nil
}

// PlayerOverlap is the stock edge-triggered test against the World's player.
// A missing player, transform or collider skips the tick without touching the
// stored flag.
func PlayerOverlap(a *Activation) bool {
	cat := a.Catalog
	player, ok := cat.FindPlayer(a.World)
	if !ok {
		return false
	}
	ptr, ok := ecs.Get(a.World, player, cat.Transform)
	if !ok {
		return false
	}
	pcol, ok := ecs.Get(a.World, player, cat.Collider)
	if !ok {
		return false
	}
	overlapping := physics.Overlaps(a.Collider.Shape, a.Transform.Pos(), pcol.Shape, ptr.Pos())
	return a.Occupancy.Edge(a.Context, a.PortalEntity, overlapping)
}

// EnsurePlayer copies the player into next the first time next is entered.
func EnsurePlayer(a *Activation, next *ecs.World) error {
	if next == a.World {
		return nil
	}
	if _, ok := a.Catalog.FindPlayer(next); ok {
		return nil
	}
	player, ok := a.Catalog.FindPlayer(a.World)
	if !ok {
		return nil
	}
	id, err := ecs.CopyEntity(a.World, player, next)
	if err != nil {
		return err
	}
	a.Log.Debug("player copied", zap.Stringer("entity", id), zap.String("into", string(a.Portal.Target)))
	return nil
}

// SpawnAtPortal moves next's player to the portal's spawn point, if it has
// one, and resets interpolation so the jump is not tweened.
func SpawnAtPortal(a *Activation, next *ecs.World) error {
	if !a.Portal.HasSpawn {
		return nil
	}
	player, ok := a.Catalog.FindPlayer(next)
	if !ok {
		return nil
	}
	tr, ok := ecs.Get(next, player, a.Catalog.Transform)
	if !ok {
		return nil
	}
	tr.Teleport(a.Portal.SpawnX, a.Portal.SpawnY)
	return nil
}
