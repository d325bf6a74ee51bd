package scene

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/event"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
	"go.uber.org/zap"
)

// Journal tallies the lifecycle events of a running scene. Events arrive at
// the start of the Update after they were emitted; Flush delivers the rest.
type Journal struct {
	Loaded       int
	Unloaded     int
	FocusChanges int
	Transitions  int
	Path         []spatial.ContextID // contexts entered through portals, in order

	bus *event.Bus
}

// Observe subscribes a journal to m's bus. Events still queued from scene
// start are counted too.
func Observe(m *spatial.Manager, log *zap.Logger) *Journal {
	if log == nil {
		log = zap.NewNop()
	}
	j := &Journal{bus: m.Bus()}
	event.On(j.bus, func(event.ContextLoaded) { j.Loaded++ })
	event.On(j.bus, func(event.ContextUnloaded) { j.Unloaded++ })
	event.On(j.bus, func(event.FocusChanged) { j.FocusChanges++ })
	event.On(j.bus, func(ev event.PortalActivated) {
		j.Transitions++
		j.Path = append(j.Path, spatial.ContextID(ev.To))
		log.Info("portal transition",
			zap.String("from", ev.From),
			zap.String("to", ev.To),
			zap.Stringer("portal", ev.Portal))
	})
	return j
}

// Flush delivers events emitted by the last tick.
func (j *Journal) Flush() {
	j.bus.SwapBuffers()
	j.bus.DispatchAll()
}
