// Package prefab turns scene entity entries into ECS entities.
package prefab

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/ViewableGravy/better-ecs-sub001/internal/data"
	"github.com/ViewableGravy/better-ecs-sub001/internal/physics"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
	"github.com/rotisserie/eris"
)

// Default glyphs per kind when the entry leaves Glyph empty. Regions draw
// nothing unless a glyph is given.
var defaultGlyph = map[string]rune{
	data.KindPlayer: '@',
	data.KindPortal: '>',
	data.KindProp:   '#',
}

// Spawn creates one entity for e in w. Player and portal entries without a
// shape get a point and a 1x1 rect respectively.
func Spawn(w *ecs.World, cat *component.Catalog, e data.EntityEntry) (ecs.EntityID, error) {
	id := w.Create()
	if err := attach(w, cat, id, e); err != nil {
		_ = w.Destroy(id)
		return 0, eris.Wrapf(err, "spawn %s", e.Kind)
	}
	return id, nil
}

func attach(w *ecs.World, cat *component.Catalog, id ecs.EntityID, e data.EntityEntry) error {
	if err := ecs.Add(w, id, cat.Transform, &component.Transform{X: e.X, Y: e.Y, PrevX: e.X, PrevY: e.Y}); err != nil {
		return err
	}

	shape, hasShape := ShapeOf(e.Shape)
	switch e.Kind {
	case data.KindPlayer:
		if !hasShape {
			shape, hasShape = physics.Point(), true
		}
		if err := ecs.Add(w, id, cat.Player, &component.Player{Name: e.Name, Speed: e.Speed}); err != nil {
			return err
		}
	case data.KindPortal:
		if !hasShape {
			shape, hasShape = physics.Rect(1, 1), true
		}
		p := &component.Portal{Target: spatial.ContextID(e.Target)}
		if e.Spawn != nil {
			p.HasSpawn, p.SpawnX, p.SpawnY = true, e.Spawn.X, e.Spawn.Y
		}
		if err := ecs.Add(w, id, cat.Portal, p); err != nil {
			return err
		}
	case data.KindRegion:
		if err := ecs.Add(w, id, cat.EntryRegion, &component.EntryRegion{Context: spatial.ContextID(e.Region)}); err != nil {
			return err
		}
	case data.KindProp:
	default:
		return eris.Errorf("unknown entity kind %q", e.Kind)
	}

	if hasShape {
		if err := ecs.Add(w, id, cat.Collider, &component.Collider{Shape: shape}); err != nil {
			return err
		}
	}
	if e.Velocity != nil {
		if err := ecs.Add(w, id, cat.Velocity, &component.Velocity{X: e.Velocity.X, Y: e.Velocity.Y}); err != nil {
			return err
		}
	}

	glyph, ok := defaultGlyph[e.Kind]
	if rs := []rune(e.Glyph); len(rs) > 0 {
		glyph, ok = rs[0], true
	}
	if ok {
		return ecs.Add(w, id, cat.Sprite, &component.Sprite{Glyph: glyph, Color: e.Color, Layer: e.Layer})
	}
	return nil
}

// ShapeOf converts a shape entry. A nil entry reports false.
func ShapeOf(s *data.ShapeEntry) (physics.Shape, bool) {
	if s == nil {
		return physics.Shape{}, false
	}
	switch s.Kind {
	case "rect":
		return physics.Rect(s.W, s.H), true
	case "circle":
		return physics.Circle(s.R), true
	}
	return physics.Point(), true
}

// Populate spawns every entry in order.
func Populate(w *ecs.World, cat *component.Catalog, entries []data.EntityEntry) error {
	for i, e := range entries {
		if _, err := Spawn(w, cat, e); err != nil {
			return eris.Wrapf(err, "entity %d", i)
		}
	}
	return nil
}
