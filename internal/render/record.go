// Package render is the boundary between simulated Worlds and a display.
// Systems collect materialized draw records; a Renderer consumes them once
// per frame and owns no World state.
package render

import (
	"sort"

	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	coresys "github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
)

// DrawRecord is one entity's visual at the interpolated position.
type DrawRecord struct {
	Context spatial.ContextID
	Entity  ecs.EntityID
	X, Y    float64
	Glyph   rune
	Color   string
	Layer   int
	Focused bool
}

// Collect builds the records for every (Transform, Sprite) entity of w. The
// list is complete before it is returned, so callers may mutate w freely
// while consuming it.
func Collect(w *ecs.World, cat *component.Catalog, ctx spatial.ContextID, alpha float64) []DrawRecord {
	ids := w.Query(cat.Sprite.ID(), cat.Transform.ID())
	out := make([]DrawRecord, 0, len(ids))
	for _, id := range ids {
		tr, ok := ecs.Get(w, id, cat.Transform)
		if !ok {
			continue
		}
		sp, ok := ecs.Get(w, id, cat.Sprite)
		if !ok {
			continue
		}
		p := tr.Lerp(alpha)
		out = append(out, DrawRecord{
			Context: ctx,
			Entity:  id,
			X:       p.X,
			Y:       p.Y,
			Glyph:   sp.Glyph,
			Color:   sp.Color,
			Layer:   sp.Layer,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Layer < out[j].Layer })
	return out
}

// Frame accumulates records across the contexts rendered in one phase.
type Frame struct {
	records []DrawRecord
}

func (f *Frame) Reset() { f.records = f.records[:0] }
func (f *Frame) Append(r ...DrawRecord) { f.records = append(f.records, r...) }
func (f *Frame) Records() []DrawRecord { return f.records }

// NewSystem returns the render-phase system that collects a context's
// records into f.
func NewSystem(cat *component.Catalog, f *Frame) spatial.System {
	return spatial.System{
		Name:  "render_collect",
		Phase: coresys.PhaseRender,
		Behavior: spatial.Behavior{
			Run: func(ctx *spatial.SystemContext) error {
				recs := Collect(ctx.World, cat, ctx.Host.ID, ctx.Frame.Alpha)
				focused := ctx.Host.Focused()
				for i := range recs {
					recs[i].Focused = focused
				}
				f.Append(recs...)
				return nil
			},
		},
	}
}

// Renderer draws a completed frame.
type Renderer interface {
	Draw(records []DrawRecord) error
	Close() error
}

// Discard drops every frame. Used in headless runs.
type Discard struct {
	Frames int
	Last   int // record count of the last frame
}

func (d *Discard) Draw(records []DrawRecord) error {
	d.Frames++
	d.Last = len(records)
	return nil
}

func (d *Discard) Close() error { return nil }
