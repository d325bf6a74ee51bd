package system

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	coresys "github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
)

// Movement integrates Velocity into Transform over the update interval.
func Movement(cat *component.Catalog) spatial.System {
	return spatial.System{
		Name:     "movement",
		Phase:    coresys.PhaseUpdate,
		Priority: PriorityMovement,
		Behavior: spatial.Behavior{
			Run: func(ctx *spatial.SystemContext) error {
				dt := ctx.Frame.Dt.Seconds()
				ecs.Each2(ctx.World, cat.Transform, cat.Velocity, func(_ ecs.EntityID, t *component.Transform, v *component.Velocity) {
					t.X += v.X * dt
					t.Y += v.Y * dt
				})
				return nil
			},
		},
	}
}
