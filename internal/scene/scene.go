// Package scene assembles context definitions, scene-wide systems and the
// initial focus from a scene file, and drives them from the game loop.
package scene

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/ViewableGravy/better-ecs-sub001/internal/data"
	"github.com/ViewableGravy/better-ecs-sub001/internal/prefab"
	"github.com/ViewableGravy/better-ecs-sub001/internal/render"
	"github.com/ViewableGravy/better-ecs-sub001/internal/scripting"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
	"github.com/ViewableGravy/better-ecs-sub001/internal/system"
	"github.com/ViewableGravy/better-ecs-sub001/internal/transition"
	"github.com/rotisserie/eris"
)

// PortalSystemName is the name the scene-wide portal system registers under.
const PortalSystemName = "portals"

// Scene is everything needed to start a context manager.
type Scene struct {
	Name     string
	Contexts []spatial.Definition
	Systems  []spatial.System // registered into every context first
	Focus    spatial.ContextID
	Registry *ecs.Registry // shared by every World the manager creates

	// Setup runs once at scene start with the focused context's World, after
	// the focus chain is loaded. Focus changes it makes stand.
	Setup spatial.SetupFunc
}

type BuildOptions struct {
	Catalog          *component.Catalog
	Scripts          *scripting.Engine // required when any context uses a script
	Input            *system.InputQueue
	MaxInputsPerTick int
	Frame            *render.Frame // nil skips the render collection system
	Portals          *transition.Callbacks
}

// FromFile converts a validated scene file. Entities are spawned before the
// context's setup script runs, so scripts see them.
func FromFile(f *data.SceneFile, opts BuildOptions) (*Scene, error) {
	cat := opts.Catalog
	if cat == nil {
		return nil, eris.New("build scene: catalog is required")
	}
	s := &Scene{Name: f.Name, Focus: spatial.ContextID(f.Focus), Registry: cat.Registry}

	if f.Script != "" && opts.Scripts == nil {
		return nil, eris.Errorf("scene %q has a setup script but no script engine is configured", f.Name)
	}
	for _, c := range f.Contexts {
		id := spatial.ContextID(c.ID)
		def := spatial.Definition{
			ID:     id,
			Parent: spatial.ContextID(c.Parent),
			Policy: policyOf(c),
		}

		var script spatial.SetupFunc
		if c.Script != "" || len(c.Systems) > 0 {
			if opts.Scripts == nil {
				return nil, eris.Errorf("context %q uses scripts but no script engine is configured", c.ID)
			}
		}
		if c.Script != "" {
			script = opts.Scripts.Setup(id, c.Script)
		}
		def.Setup = setupFor(cat, c.Entities, script)

		for _, entry := range c.Systems {
			sys, err := opts.Scripts.System(id, entry)
			if err != nil {
				return nil, eris.Wrapf(err, "context %q", c.ID)
			}
			def.Systems = append(def.Systems, sys)
		}
		s.Contexts = append(s.Contexts, def)
	}

	if f.Script != "" {
		s.Setup = func(w *ecs.World, m *spatial.Manager) error {
			return opts.Scripts.Setup(m.FocusedContextID(), f.Script)(w, m)
		}
	}

	s.Systems = append(s.Systems, system.Stock(cat, opts.Input, opts.MaxInputsPerTick)...)
	cb := transition.Standard()
	if opts.Portals != nil {
		cb = *opts.Portals
	}
	portals := transition.NewPortalSystem(PortalSystemName, cb, cat)
	portals.Priority = system.PriorityPortals
	s.Systems = append(s.Systems, portals)
	if opts.Frame != nil {
		s.Systems = append(s.Systems, render.NewSystem(cat, opts.Frame))
	}
	return s, nil
}

func policyOf(c data.ContextEntry) spatial.Policy {
	var p spatial.Policy
	if c.Visibility == "overlay" {
		p.Visibility = spatial.VisibilityOverlay
	}
	if c.Simulation == "always" {
		p.Simulation = spatial.SimulationAlways
	}
	return p
}

func setupFor(cat *component.Catalog, entities []data.EntityEntry, script spatial.SetupFunc) spatial.SetupFunc {
	if len(entities) == 0 && script == nil {
		return nil
	}
	return func(w *ecs.World, m *spatial.Manager) error {
		if err := prefab.Populate(w, cat, entities); err != nil {
			return err
		}
		if script != nil {
			return script(w, m)
		}
		return nil
	}
}

// Start builds the manager, then loads and focuses every context from the
// root down to the scene's focus so the focus stack holds the whole chain.
func Start(s *Scene, opts ...spatial.Option) (*spatial.Manager, error) {
	all := append([]spatial.Option{spatial.WithRegistry(s.Registry), spatial.WithSystems(s.Systems...)}, opts...)
	m, err := spatial.NewManager(s.Contexts, all...)
	if err != nil {
		return nil, eris.Wrapf(err, "start scene %q", s.Name)
	}

	focus := s.Focus
	if focus == "" {
		focus = m.RootContextID()
	}
	if _, ok := m.Definition(focus); !ok {
		return nil, eris.Wrapf(&spatial.UnknownContextError{ID: focus}, "start scene %q", s.Name)
	}
	var chain []spatial.ContextID
	for id := focus; id != ""; {
		chain = append(chain, id)
		d, _ := m.Definition(id)
		id = d.Parent
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if _, err := m.EnsureWorldLoaded(chain[i]); err != nil {
			m.Close()
			return nil, eris.Wrapf(err, "start scene %q", s.Name)
		}
		if err := m.SetFocusedContextID(chain[i]); err != nil {
			m.Close()
			return nil, err
		}
	}
	if s.Setup != nil {
		w, _ := m.GetWorld(focus)
		if err := s.Setup(w, m); err != nil {
			m.Close()
			return nil, eris.Wrapf(err, "setup scene %q", s.Name)
		}
	}
	return m, nil
}
