package spatial

import (
	"slices"

	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/event"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type loadedContext struct {
	def    *Definition
	world  *ecs.World
	runner *Runner
}

// Manager owns the context definitions and the Worlds instantiated for them.
// Accessed only from the game loop goroutine; no locks.
type Manager struct {
	defs     map[ContextID]*Definition
	declared []ContextID
	root     ContextID

	registry *ecs.Registry
	systems  []System // registered into every context before its own systems
	bus      *event.Bus
	log      *zap.Logger

	loaded    map[ContextID]*loadedContext
	loadOrder []ContextID
	loading   map[ContextID]bool

	focused    ContextID
	focusStack []ContextID

	// focus captured at the start of the running phase
	phaseFocus ContextID
	inPhase    bool
}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithSystems adds scene-wide systems instantiated in every loaded context.
func WithSystems(s ...System) Option {
	return func(m *Manager) { m.systems = append(m.systems, s...) }
}

func WithBus(b *event.Bus) Option {
	return func(m *Manager) {
		if b != nil {
			m.bus = b
		}
	}
}

// WithRegistry sets the component registry shared by every World the
// manager creates. Sharing it is what lets entities be copied between Worlds.
func WithRegistry(r *ecs.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// NewManager validates the definition forest and returns a manager with no
// context loaded. The root is the first declared definition without a parent.
func NewManager(defs []Definition, opts ...Option) (*Manager, error) {
	m := &Manager{
		defs:     make(map[ContextID]*Definition, len(defs)),
		declared: make([]ContextID, 0, len(defs)),
		registry: ecs.NewRegistry(),
		bus:      event.NewBus(),
		log:      zap.NewNop(),
		loaded:   make(map[ContextID]*loadedContext),
		loading:  make(map[ContextID]bool),
	}
	for _, o := range opts {
		o(m)
	}

	if len(defs) == 0 {
		return nil, &ConfigError{Reason: "no context definitions"}
	}
	for i := range defs {
		d := defs[i]
		if d.ID == "" {
			return nil, &ConfigError{Reason: "definition with empty id"}
		}
		if _, dup := m.defs[d.ID]; dup {
			return nil, &ConfigError{ID: d.ID, Reason: "duplicate definition"}
		}
		d.Systems = slices.Clone(d.Systems)
		m.defs[d.ID] = &d
		m.declared = append(m.declared, d.ID)
		if d.Parent == "" && m.root == "" {
			m.root = d.ID
		}
	}
	for _, id := range m.declared {
		d := m.defs[id]
		if d.Parent == "" {
			continue
		}
		if _, ok := m.defs[d.Parent]; !ok {
			return nil, &ConfigError{ID: id, Reason: "parent " + string(d.Parent) + " is not defined"}
		}
	}
	// every parent is defined, so the walk below never leaves the map
	for _, id := range m.declared {
		d := m.defs[id]
		seen := map[ContextID]bool{id: true}
		for p := d.Parent; p != ""; p = m.defs[p].Parent {
			if seen[p] {
				return nil, &ConfigError{ID: id, Reason: "parent chain forms a cycle"}
			}
			seen[p] = true
		}
	}
	if m.root == "" {
		return nil, &ConfigError{Reason: "no root context"}
	}
	return m, nil
}

func (m *Manager) Registry() *ecs.Registry { return m.registry }
func (m *Manager) Bus() *event.Bus         { return m.bus }
func (m *Manager) Logger() *zap.Logger     { return m.log }

// EnsureWorldLoaded creates the context's World on first use, runs its setup
// exactly once and initializes its systems. Already loaded contexts are
// returned as is.
func (m *Manager) EnsureWorldLoaded(id ContextID) (*ecs.World, error) {
	def, ok := m.defs[id]
	if !ok {
		return nil, &UnknownContextError{ID: id}
	}
	if lc, ok := m.loaded[id]; ok {
		return lc.world, nil
	}
	if m.loading[id] {
		return nil, &ConfigError{ID: id, Reason: "re-entrant load during setup"}
	}
	m.loading[id] = true
	defer delete(m.loading, id)

	log := m.log.With(zap.String("context", string(id)))
	w := ecs.NewWorld(m.registry)
	env := &Env{Manager: m, ID: id, World: w}
	runner := system.NewRunner(w, env, log)
	for _, s := range m.systems {
		if err := runner.Register(s); err != nil {
			return nil, eris.Wrapf(err, "load context %q", id)
		}
	}
	for _, s := range def.Systems {
		if err := runner.Register(s); err != nil {
			return nil, eris.Wrapf(err, "load context %q", id)
		}
	}

	if def.Setup != nil {
		if err := def.Setup(w, m); err != nil {
			return nil, eris.Wrapf(err, "setup context %q", id)
		}
	}
	if err := runner.Initialize(); err != nil {
		runner.Dispose()
		return nil, eris.Wrapf(err, "initialize context %q", id)
	}

	m.loaded[id] = &loadedContext{def: def, world: w, runner: runner}
	m.loadOrder = append(m.loadOrder, id)
	m.bus.Emit(event.ContextLoaded{Context: string(id)})
	log.Info("context loaded", zap.Int("entities", w.Count()))
	return w, nil
}

// GetWorld is the non-failing lookup for optional logic.
func (m *Manager) GetWorld(id ContextID) (*ecs.World, bool) {
	lc, ok := m.loaded[id]
	if !ok {
		return nil, false
	}
	return lc.world, true
}

// RequireWorld fails when the caller depends on the context already existing.
func (m *Manager) RequireWorld(id ContextID) (*ecs.World, error) {
	lc, ok := m.loaded[id]
	if !ok {
		return nil, &ContextNotLoadedError{ID: id, Op: "require world"}
	}
	return lc.world, nil
}

func (m *Manager) Runner(id ContextID) (*Runner, bool) {
	lc, ok := m.loaded[id]
	if !ok {
		return nil, false
	}
	return lc.runner, true
}

// SetFocusedContextID moves focus to a loaded context. On error the focus is
// left untouched.
func (m *Manager) SetFocusedContextID(id ContextID) error {
	if _, ok := m.loaded[id]; !ok {
		return &ContextNotLoadedError{ID: id, Op: "set focus"}
	}
	prev := m.focused
	m.focused = id

	if i := slices.Index(m.focusStack, id); i >= 0 {
		m.focusStack = slices.Delete(m.focusStack, i, i+1)
	}
	m.focusStack = append(m.focusStack, id)

	if prev != id {
		m.bus.Emit(event.FocusChanged{From: string(prev), To: string(id)})
		m.log.Info("focus changed", zap.String("from", string(prev)), zap.String("to", string(id)))
	}
	return nil
}

// FocusedContextID returns the focused context, or "" before the first focus.
func (m *Manager) FocusedContextID() ContextID { return m.focused }

// ActiveFocus is the focus systems act on. Inside Update or Render it is the
// focus the phase started with, so a focus change made by one context's
// system is not seen by another context until the next phase.
func (m *Manager) ActiveFocus() ContextID {
	if m.inPhase {
		return m.phaseFocus
	}
	return m.focused
}

func (m *Manager) beginPhase() func() {
	m.phaseFocus, m.inPhase = m.focused, true
	return func() { m.phaseFocus, m.inPhase = "", false }
}
func (m *Manager) RootContextID() ContextID    { return m.root }

// Definitions lists the definitions in declaration order.
func (m *Manager) Definitions() []Definition {
	out := make([]Definition, 0, len(m.declared))
	for _, id := range m.declared {
		out = append(out, *m.defs[id])
	}
	return out
}

func (m *Manager) Definition(id ContextID) (Definition, bool) {
	d, ok := m.defs[id]
	if !ok {
		return Definition{}, false
	}
	return *d, true
}

// Children returns the direct children of id in declaration order.
func (m *Manager) Children(id ContextID) []ContextID {
	var out []ContextID
	for _, c := range m.declared {
		if m.defs[c].Parent == id {
			out = append(out, c)
		}
	}
	return out
}

// FocusChain walks from the focused context up to its root.
func (m *Manager) FocusChain() []ContextID {
	var out []ContextID
	for id := m.focused; id != ""; id = m.defs[id].Parent {
		out = append(out, id)
	}
	return out
}

// FocusStack returns focus history, oldest first, focused last.
func (m *Manager) FocusStack() []ContextID { return slices.Clone(m.focusStack) }

// Loaded returns loaded contexts in load order.
func (m *Manager) Loaded() []ContextID { return slices.Clone(m.loadOrder) }

func (m *Manager) IsLoaded(id ContextID) bool {
	_, ok := m.loaded[id]
	return ok
}

// Unload disposes the context's systems and drops its World. The focused
// context cannot be unloaded.
func (m *Manager) Unload(id ContextID) error {
	lc, ok := m.loaded[id]
	if !ok {
		return &ContextNotLoadedError{ID: id, Op: "unload"}
	}
	if id == m.focused {
		return &ConfigError{ID: id, Reason: "cannot unload the focused context"}
	}
	lc.runner.Dispose()
	delete(m.loaded, id)
	if i := slices.Index(m.loadOrder, id); i >= 0 {
		m.loadOrder = slices.Delete(m.loadOrder, i, i+1)
	}
	if i := slices.Index(m.focusStack, id); i >= 0 {
		m.focusStack = slices.Delete(m.focusStack, i, i+1)
	}
	m.bus.Emit(event.ContextUnloaded{Context: string(id)})
	m.log.Info("context unloaded", zap.String("context", string(id)))
	return nil
}

// Update delivers last tick's events, then runs the update phase of every
// loaded context whose policy allows it. The context set and focus are
// snapshotted first, so loads and focus changes made by systems apply from
// the next phase.
func (m *Manager) Update(f system.Frame) error {
	m.bus.SwapBuffers()
	m.bus.DispatchAll()

	defer m.beginPhase()()
	focused := m.phaseFocus
	for _, id := range slices.Clone(m.loadOrder) {
		lc, ok := m.loaded[id]
		if !ok {
			continue
		}
		if id != focused && lc.def.Policy.Simulation != SimulationAlways {
			continue
		}
		if err := lc.runner.Run(system.PhaseUpdate, f); err != nil {
			return eris.Wrapf(err, "update context %q", id)
		}
	}
	return nil
}

// Render runs the render phase bottom to top over the focus stack. The
// focused context always renders; others only under stack visibility.
func (m *Manager) Render(f system.Frame) error {
	order := m.RenderOrder()
	defer m.beginPhase()()
	for _, id := range order {
		lc, ok := m.loaded[id]
		if !ok {
			continue
		}
		if err := lc.runner.Run(system.PhaseRender, f); err != nil {
			return eris.Wrapf(err, "render context %q", id)
		}
	}
	return nil
}

// RenderOrder returns the contexts the next Render will draw, bottom first.
func (m *Manager) RenderOrder() []ContextID {
	out := make([]ContextID, 0, len(m.focusStack))
	for _, id := range m.focusStack {
		lc, ok := m.loaded[id]
		if !ok {
			continue
		}
		if id == m.focused || lc.def.Policy.Visibility == VisibilityStack {
			out = append(out, id)
		}
	}
	return out
}

// Close disposes every loaded context in reverse load order.
func (m *Manager) Close() {
	for i := len(m.loadOrder) - 1; i >= 0; i-- {
		m.loaded[m.loadOrder[i]].runner.Dispose()
	}
}
