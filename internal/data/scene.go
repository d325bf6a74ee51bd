package data

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SceneFile is the on-disk description of a scene: its contexts and the
// entities each context's World starts with.
type SceneFile struct {
	Name     string         `yaml:"name"`
	Focus    string         `yaml:"focus,omitempty"`  // initial focus; empty means the root
	Script   string         `yaml:"script,omitempty"` // setup(world) run once at scene start
	Contexts []ContextEntry `yaml:"contexts"`
}

type ContextEntry struct {
	ID         string        `yaml:"id"`
	Parent     string        `yaml:"parent,omitempty"`
	Visibility string        `yaml:"visibility,omitempty"` // stack (default) or overlay
	Simulation string        `yaml:"simulation,omitempty"` // focused-only (default) or always
	Script     string        `yaml:"script,omitempty"`     // Lua file whose setup(world) runs on load
	Systems    []SystemEntry `yaml:"systems,omitempty"`
	Entities   []EntityEntry `yaml:"entities,omitempty"`
}

// SystemEntry is a Lua scripted system.
type SystemEntry struct {
	Name     string `yaml:"name"`
	Script   string `yaml:"script"`
	Phase    string `yaml:"phase,omitempty"` // update (default) or render
	Priority int    `yaml:"priority,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Entity kinds.
const (
	KindPlayer = "player"
	KindPortal = "portal"
	KindRegion = "region"
	KindProp   = "prop"
)

type EntityEntry struct {
	Kind     string      `yaml:"kind"`
	Name     string      `yaml:"name,omitempty"`
	X        float64     `yaml:"x"`
	Y        float64     `yaml:"y"`
	Glyph    string      `yaml:"glyph,omitempty"`
	Color    string      `yaml:"color,omitempty"`
	Layer    int         `yaml:"layer,omitempty"`
	Shape    *ShapeEntry `yaml:"shape,omitempty"`
	Target   string      `yaml:"target,omitempty"` // portal destination context
	Spawn    *PointEntry `yaml:"spawn,omitempty"`  // portal spawn point in the destination
	Region   string      `yaml:"region,omitempty"` // context a region claims
	Velocity *PointEntry `yaml:"velocity,omitempty"`
	Speed    float64     `yaml:"speed,omitempty"`
}

type ShapeEntry struct {
	Kind string  `yaml:"kind"` // point, rect or circle
	W    float64 `yaml:"w,omitempty"`
	H    float64 `yaml:"h,omitempty"`
	R    float64 `yaml:"r,omitempty"`
}

type PointEntry struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// LoadSceneFile reads and validates a scene YAML file.
func LoadSceneFile(path string) (*SceneFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read scene file")
	}
	return ParseScene(raw)
}

func ParseScene(raw []byte) (*SceneFile, error) {
	var f SceneFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrap(err, "parse scene file")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks field-level consistency. Graph checks (dangling parents,
// cycles) are left to the context manager.
func (f *SceneFile) Validate() error {
	if len(f.Contexts) == 0 {
		return eris.Errorf("scene %q has no contexts", f.Name)
	}
	ids := make(map[string]bool, len(f.Contexts))
	for _, c := range f.Contexts {
		ids[c.ID] = true
	}
	if f.Focus != "" && !ids[f.Focus] {
		return eris.Errorf("scene %q: focus %q is not a context", f.Name, f.Focus)
	}
	for _, c := range f.Contexts {
		switch c.Visibility {
		case "", "stack", "overlay":
		default:
			return eris.Errorf("context %q: unknown visibility %q", c.ID, c.Visibility)
		}
		switch c.Simulation {
		case "", "focused-only", "always":
		default:
			return eris.Errorf("context %q: unknown simulation %q", c.ID, c.Simulation)
		}
		for _, s := range c.Systems {
			if s.Name == "" || s.Script == "" {
				return eris.Errorf("context %q: scripted system needs name and script", c.ID)
			}
			switch s.Phase {
			case "", "update", "render":
			default:
				return eris.Errorf("context %q: system %q has unknown phase %q", c.ID, s.Name, s.Phase)
			}
		}
		for i, e := range c.Entities {
			if err := e.validate(ids); err != nil {
				return eris.Wrapf(err, "context %q entity %d", c.ID, i)
			}
		}
	}
	return nil
}

func (e *EntityEntry) validate(ids map[string]bool) error {
	switch e.Kind {
	case KindPlayer, KindProp:
	case KindPortal:
		if !ids[e.Target] {
			return eris.Errorf("portal target %q is not a context", e.Target)
		}
	case KindRegion:
		if !ids[e.Region] {
			return eris.Errorf("region context %q is not a context", e.Region)
		}
	default:
		return eris.Errorf("unknown entity kind %q", e.Kind)
	}
	if e.Shape != nil {
		switch e.Shape.Kind {
		case "point", "rect", "circle":
		default:
			return eris.Errorf("unknown shape kind %q", e.Shape.Kind)
		}
	}
	if len([]rune(e.Glyph)) > 1 {
		return eris.Errorf("glyph %q must be a single character", e.Glyph)
	}
	return nil
}

// Marshal renders the scene back to YAML.
func (f *SceneFile) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(f)
	if err != nil {
		return nil, eris.Wrap(err, "marshal scene file")
	}
	return out, nil
}
