package component

import "github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"

// Catalog holds the handles of every runtime component type registered on one
// Registry. Worlds created from that Registry share the handles.
type Catalog struct {
	Registry    *ecs.Registry
	Transform   ecs.Component[Transform]
	Collider    ecs.Component[Collider]
	Portal      ecs.Component[Portal]
	EntryRegion ecs.Component[EntryRegion]
	Player      ecs.Component[Player]
	Sprite      ecs.Component[Sprite]
	Velocity    ecs.Component[Velocity]
}

func NewCatalog(r *ecs.Registry) *Catalog {
	return &Catalog{
		Registry:    r,
		Transform:   ecs.Register[Transform](r, "transform"),
		Collider:    ecs.Register[Collider](r, "collider"),
		Portal:      ecs.Register[Portal](r, "portal"),
		EntryRegion: ecs.Register[EntryRegion](r, "entry_region"),
		Player:      ecs.Register[Player](r, "player"),
		Sprite:      ecs.Register[Sprite](r, "sprite"),
		Velocity:    ecs.Register[Velocity](r, "velocity"),
	}
}

// FindPlayer returns the first entity carrying Player, if any.
func (c *Catalog) FindPlayer(w *ecs.World) (ecs.EntityID, bool) {
	ids := w.Query(c.Player.ID())
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}
