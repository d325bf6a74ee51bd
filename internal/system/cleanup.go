package system

import (
	coresys "github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
)

// Cleanup flushes the deferred entity destruction queue at tick end.
func Cleanup() spatial.System {
	return spatial.System{
		Name:     "cleanup",
		Phase:    coresys.PhaseUpdate,
		Priority: PriorityCleanup,
		Behavior: spatial.Behavior{
			Run: func(ctx *spatial.SystemContext) error {
				ctx.World.FlushDestroyQueue()
				return nil
			},
		},
	}
}
