package system

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	coresys "github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
)

// TransformHistory copies each current position into Prev before anything
// moves, so render can interpolate between the last two updates.
func TransformHistory(cat *component.Catalog) spatial.System {
	return spatial.System{
		Name:     "transform_history",
		Phase:    coresys.PhaseUpdate,
		Priority: PriorityHistory,
		Behavior: spatial.Behavior{
			Run: func(ctx *spatial.SystemContext) error {
				ecs.Each(ctx.World, cat.Transform, func(_ ecs.EntityID, t *component.Transform) {
					t.PrevX, t.PrevY = t.X, t.Y
				})
				return nil
			},
		},
	}
}
