package system

import (
	"errors"
	"slices"
	"sort"
	"sync/atomic"

	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	ErrUnknownSystem   = errors.New("system: unknown system")
	ErrDuplicateSystem = errors.New("system: duplicate system name")
	ErrInvalidSystem   = errors.New("system: invalid descriptor")
	ErrRunnerDisposed  = errors.New("system: runner disposed")
)

type entry[H any] struct {
	name     string
	phase    Phase
	priority int
	seq      int
	startOff bool

	// behavior is swapped as a unit by Reload; state is never touched by it.
	behavior atomic.Pointer[Behavior[H]]
	state    any
	status   Status
	cleanup  Cleanup
}

// Runner sequences the systems of one World. It never reads or writes World
// data itself; systems go through the ecs API.
type Runner[H any] struct {
	world *ecs.World
	host  H
	log   *zap.Logger

	entries     []*entry[H]
	byName      map[string]*entry[H]
	seq         int
	initialized bool
	disposed    bool
}

func NewRunner[H any](world *ecs.World, host H, log *zap.Logger) *Runner[H] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner[H]{
		world:   world,
		host:    host,
		log:     log,
		entries: make([]*entry[H], 0, 16),
		byName:  make(map[string]*entry[H]),
	}
}

func (r *Runner[H]) World() *ecs.World { return r.world }

// Register adds a system. On an already initialized Runner the system is
// initialized immediately.
func (r *Runner[H]) Register(d Descriptor[H]) error {
	if r.disposed {
		return ErrRunnerDisposed
	}
	if err := validate(d); err != nil {
		return err
	}
	if _, ok := r.byName[d.Name]; ok {
		return eris.Wrapf(ErrDuplicateSystem, "register %q", d.Name)
	}

	e := &entry[H]{
		name:     d.Name,
		phase:    d.Phase,
		priority: d.Priority,
		seq:      r.seq,
		startOff: d.Disabled,
	}
	r.seq++
	b := d.Behavior
	e.behavior.Store(&b)
	if d.NewState != nil {
		e.state = d.NewState()
	}

	r.entries = append(r.entries, e)
	r.byName[d.Name] = e
	r.sort()

	if r.initialized {
		return r.init(e)
	}
	return nil
}

// Initialize runs Init for every registered system in order, then the Run of
// enabled init-phase systems. Calling it twice is a no-op.
func (r *Runner[H]) Initialize() error {
	if r.disposed {
		return ErrRunnerDisposed
	}
	if r.initialized {
		return nil
	}
	r.initialized = true
	for _, e := range slices.Clone(r.entries) {
		if e.status != StatusUnregistered {
			continue
		}
		if err := r.init(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner[H]) init(e *entry[H]) error {
	b := e.behavior.Load()
	if b.Init != nil {
		cleanup, err := b.Init(r.context(e, Frame{}))
		if err != nil {
			return eris.Wrapf(err, "init system %q", e.name)
		}
		e.cleanup = cleanup
	}
	e.status = StatusInitialized
	if e.startOff {
		e.status = StatusDisabled
	} else {
		e.status = StatusEnabled
	}
	r.log.Debug("system initialized", zap.String("system", e.name), zap.Stringer("status", e.status))

	if e.phase == PhaseInit && e.status == StatusEnabled {
		if err := b.Run(r.context(e, Frame{})); err != nil {
			return eris.Wrapf(err, "system %q", e.name)
		}
	}
	return nil
}

// Run executes every enabled system of the given phase. It walks a snapshot of
// the order, so systems registered mid-run wait for the next call and systems
// disabled mid-run are skipped. The first error stops the phase.
func (r *Runner[H]) Run(phase Phase, frame Frame) error {
	if r.disposed || !r.initialized {
		return nil
	}
	for _, e := range slices.Clone(r.entries) {
		if e.phase != phase || e.status != StatusEnabled {
			continue
		}
		b := e.behavior.Load()
		if err := b.Run(r.context(e, frame)); err != nil {
			return eris.Wrapf(err, "system %q", e.name)
		}
	}
	return nil
}

func (r *Runner[H]) Enable(name string) error  { return r.toggle(name, StatusEnabled) }
func (r *Runner[H]) Disable(name string) error { return r.toggle(name, StatusDisabled) }

func (r *Runner[H]) toggle(name string, to Status) error {
	e, ok := r.byName[name]
	if !ok {
		return eris.Wrapf(ErrUnknownSystem, "%q", name)
	}
	switch e.status {
	case StatusEnabled, StatusDisabled, StatusInitialized:
		e.status = to
		return nil
	case StatusUnregistered:
		// not initialized yet; record the desired starting state
		e.startOff = to == StatusDisabled
		return nil
	}
	return ErrRunnerDisposed
}

// Replace swaps in a new descriptor under an existing name. The old cleanup
// runs first; private state is kept.
func (r *Runner[H]) Replace(d Descriptor[H]) error {
	if r.disposed {
		return ErrRunnerDisposed
	}
	if err := validate(d); err != nil {
		return err
	}
	e, ok := r.byName[d.Name]
	if !ok {
		return eris.Wrapf(ErrUnknownSystem, "replace %q", d.Name)
	}
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
	e.phase = d.Phase
	e.priority = d.Priority
	e.startOff = d.Disabled
	b := d.Behavior
	e.behavior.Store(&b)
	if e.state == nil && d.NewState != nil {
		e.state = d.NewState()
	}
	e.status = StatusUnregistered
	r.sort()
	if r.initialized {
		return r.init(e)
	}
	return nil
}

// Reload replaces only the behavior of a system. State, status and any
// cleanup from the previous Init are untouched.
func (r *Runner[H]) Reload(name string, b Behavior[H]) error {
	if b.Run == nil {
		return eris.Wrapf(ErrInvalidSystem, "reload %q: nil run", name)
	}
	e, ok := r.byName[name]
	if !ok {
		return eris.Wrapf(ErrUnknownSystem, "reload %q", name)
	}
	e.behavior.Store(&b)
	return nil
}

// Dispose runs cleanups in reverse order and retires every system.
func (r *Runner[H]) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.cleanup != nil {
			e.cleanup()
			e.cleanup = nil
		}
		e.status = StatusDisposed
	}
}

// Status returns the lifecycle state; unknown names report StatusUnregistered.
func (r *Runner[H]) Status(name string) Status {
	if e, ok := r.byName[name]; ok {
		return e.status
	}
	return StatusUnregistered
}

// State returns the private state of a system.
func (r *Runner[H]) State(name string) (any, bool) {
	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return e.state, true
}

// Names returns system names of a phase in execution order.
func (r *Runner[H]) Names(phase Phase) []string {
	var out []string
	for _, e := range r.entries {
		if e.phase == phase {
			out = append(out, e.name)
		}
	}
	return out
}

func (r *Runner[H]) context(e *entry[H], f Frame) *Context[H] {
	return &Context[H]{
		Name:  e.name,
		World: r.world,
		Host:  r.host,
		State: e.state,
		Frame: f,
		Log:   r.log.With(zap.String("system", e.name)),
	}
}

func (r *Runner[H]) sort() {
	sort.SliceStable(r.entries, func(i, j int) bool {
		a, b := r.entries[i], r.entries[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.seq < b.seq
	})
}

func validate[H any](d Descriptor[H]) error {
	if d.Name == "" {
		return eris.Wrap(ErrInvalidSystem, "empty name")
	}
	if d.Run == nil {
		return eris.Wrapf(ErrInvalidSystem, "%q: nil run", d.Name)
	}
	return nil
}
