package component

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/physics"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
)

// Transform is an entity's simulated position plus the value it had before
// the last update, so renderers can interpolate between the two.
type Transform struct {
	X, Y         float64
	PrevX, PrevY float64
}

func (t *Transform) Pos() physics.Vec { return physics.Vec{X: t.X, Y: t.Y} }

// Teleport sets the position and drops interpolation history.
func (t *Transform) Teleport(x, y float64) {
	t.X, t.Y = x, y
	t.PrevX, t.PrevY = x, y
}

// Lerp returns the position interpolated at alpha in [0,1].
func (t *Transform) Lerp(alpha float64) physics.Vec {
	return physics.Vec{
		X: t.PrevX + (t.X-t.PrevX)*alpha,
		Y: t.PrevY + (t.Y-t.PrevY)*alpha,
	}
}

// Collider attaches a trigger or body shape to a Transform.
type Collider struct {
	Shape physics.Shape
}

// Portal migrates the tracked entity into Target when activated.
type Portal struct {
	Target   spatial.ContextID
	HasSpawn bool
	SpawnX   float64
	SpawnY   float64
}

// EntryRegion claims the area of its Collider (or Transform point) for
// Context, so placement inside it is attributed to that context.
type EntryRegion struct {
	Context spatial.ContextID
}

// Velocity is in world units per second.
type Velocity struct {
	X, Y float64
}
