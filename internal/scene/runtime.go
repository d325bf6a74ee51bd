package scene

import (
	coresys "github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
	"github.com/ViewableGravy/better-ecs-sub001/internal/render"
	"github.com/ViewableGravy/better-ecs-sub001/internal/scripting"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Runtime adapts a started manager to the game loop. Update applies pending
// script reloads before ticking; Render collects one frame and hands it to
// the renderer.
type Runtime struct {
	Manager  *spatial.Manager
	Frame    *render.Frame
	Renderer render.Renderer
	Scripts  *scripting.Engine
	Watcher  *scripting.Watcher // optional
	Log      *zap.Logger
}

func (r *Runtime) Update(f coresys.Frame) error {
	if r.Watcher != nil && r.Scripts != nil {
		for _, file := range r.Watcher.Changed() {
			n, err := r.Scripts.ReloadScript(r.Manager, file)
			if err != nil {
				// keep running the previous behavior
				r.log().Error("script reload failed", zap.String("file", file), zap.Error(err))
				continue
			}
			r.log().Info("script reloaded", zap.String("file", file), zap.Int("systems", n))
		}
	}
	return r.Manager.Update(f)
}

func (r *Runtime) Render(f coresys.Frame) error {
	if r.Frame == nil || r.Renderer == nil {
		return r.Manager.Render(f)
	}
	r.Frame.Reset()
	if err := r.Manager.Render(f); err != nil {
		return err
	}
	if err := r.Renderer.Draw(r.Frame.Records()); err != nil {
		return eris.Wrap(err, "draw frame")
	}
	return nil
}

func (r *Runtime) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
