package transition

import (
	"testing"

	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/ViewableGravy/better-ecs-sub001/internal/physics"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addRegion(t *testing.T, w *ecs.World, cat *component.Catalog, ctx spatial.ContextID, x, y, size float64) {
	t.Helper()
	e := w.Create()
	require.NoError(t, ecs.Add(w, e, cat.EntryRegion, &component.EntryRegion{Context: ctx}))
	require.NoError(t, ecs.Add(w, e, cat.Transform, &component.Transform{X: x, Y: y}))
	require.NoError(t, ecs.Add(w, e, cat.Collider, &component.Collider{Shape: physics.Rect(size, size)}))
}

// world holds the house footprint at (10,10); house holds the cellar
// footprint at (10,10) and its own interior bounds.
func newRegionManager(t *testing.T) (*spatial.Manager, *component.Catalog) {
	t.Helper()
	reg := ecs.NewRegistry()
	cat := component.NewCatalog(reg)
	m, err := spatial.NewManager([]spatial.Definition{
		{ID: "world", Setup: func(w *ecs.World, _ *spatial.Manager) error {
			addRegion(t, w, cat, "house", 10, 10, 6)
			return nil
		}},
		{ID: "house", Parent: "world", Setup: func(w *ecs.World, _ *spatial.Manager) error {
			addRegion(t, w, cat, "house", 10, 10, 4)
			addRegion(t, w, cat, "cellar", 10, 10, 2)
			return nil
		}},
		{ID: "cellar", Parent: "house"},
	}, spatial.WithRegistry(reg))
	require.NoError(t, err)
	for _, id := range []spatial.ContextID{"world", "house", "cellar"} {
		_, err := m.EnsureWorldLoaded(id)
		require.NoError(t, err)
	}
	return m, cat
}

func TestResolvePlacementAtRoot(t *testing.T) {
	m, cat := newRegionManager(t)
	require.NoError(t, m.SetFocusedContextID("world"))

	assert.Equal(t, Placement{Context: "world"}, ResolvePlacement(m, cat, physics.Vec{X: 0, Y: 0}))
	assert.Equal(t, Placement{Context: "world", Blocked: true}, ResolvePlacement(m, cat, physics.Vec{X: 12, Y: 12}),
		"root blocks placement over a child region")
}

func TestResolvePlacementBubblesOutward(t *testing.T) {
	m, cat := newRegionManager(t)
	require.NoError(t, m.SetFocusedContextID("house"))

	assert.Equal(t, Placement{Context: "house"}, ResolvePlacement(m, cat, physics.Vec{X: 11, Y: 11}), "own interior")
	assert.Equal(t, Placement{Context: "house"}, ResolvePlacement(m, cat, physics.Vec{X: 12.5, Y: 12.5}),
		"outside own bounds but inside the footprint the parent claims for house")
	assert.Equal(t, Placement{Context: "world"}, ResolvePlacement(m, cat, physics.Vec{X: 30, Y: 30}))
}

func TestResolvePlacementFromGrandchild(t *testing.T) {
	m, cat := newRegionManager(t)
	require.NoError(t, m.SetFocusedContextID("cellar"))

	assert.Equal(t, Placement{Context: "cellar"}, ResolvePlacement(m, cat, physics.Vec{X: 10.5, Y: 10.5}),
		"parent's entry region for cellar")
	assert.Equal(t, Placement{Context: "house"}, ResolvePlacement(m, cat, physics.Vec{X: 11.5, Y: 11.5}))
	assert.Equal(t, Placement{Context: "world"}, ResolvePlacement(m, cat, physics.Vec{X: -5, Y: 0}))
}

func TestResolvePlacementWithoutFocusUsesRoot(t *testing.T) {
	m, cat := newRegionManager(t)
	assert.Equal(t, Placement{Context: "world", Blocked: true}, ResolvePlacement(m, cat, physics.Vec{X: 10, Y: 10}))
}
