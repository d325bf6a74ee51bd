package scripting

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
	"github.com/ViewableGravy/better-ecs-sub001/internal/data"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
	"github.com/rotisserie/eris"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// scriptState is the private state of a scripted system. The Lua table is
// handed to every update call and survives behavior reloads.
type scriptState struct {
	table  *lua.LTable
	api    *lua.LTable
	errors int
}

func (e *Engine) stateOf(ctx *spatial.SystemContext) *scriptState {
	st := system.StateOf[scriptState](ctx)
	if st == nil {
		st = &scriptState{}
		ctx.State = st
	}
	if st.table == nil {
		st.table = e.vm.NewTable()
	}
	if st.api == nil {
		st.api = e.worldAPI(ctx.Host.Manager, ctx.Host.ID, ctx.World)
	}
	return st
}

// Behavior compiles script into a system behavior. The script must define
// update(world, dt, state) and may define init(world, state).
//
// Runtime errors inside update are logged and counted; the tick goes on.
func (e *Engine) Behavior(script string) (spatial.Behavior, error) {
	env, err := e.load(script)
	if err != nil {
		return spatial.Behavior{}, err
	}
	update, ok := env.RawGetString("update").(*lua.LFunction)
	if !ok {
		return spatial.Behavior{}, eris.Errorf("script %s defines no update function", script)
	}
	initFn, _ := env.RawGetString("init").(*lua.LFunction)

	b := spatial.Behavior{
		Run: func(ctx *spatial.SystemContext) error {
			st := e.stateOf(ctx)
			dt := lua.LNumber(ctx.Frame.Dt.Seconds())
			if err := e.vm.CallByParam(lua.P{Fn: update, NRet: 0, Protect: true}, st.api, dt, st.table); err != nil {
				st.errors++
				ctx.Log.Error("lua system error",
					zap.String("system", ctx.Name),
					zap.String("script", script),
					zap.Error(err))
			}
			return nil
		},
	}
	if initFn != nil {
		b.Init = func(ctx *spatial.SystemContext) (system.Cleanup, error) {
			st := e.stateOf(ctx)
			if err := e.vm.CallByParam(lua.P{Fn: initFn, NRet: 0, Protect: true}, st.api, st.table); err != nil {
				return nil, eris.Wrapf(err, "init %s", script)
			}
			return nil, nil
		}
	}
	return b, nil
}

type binding struct {
	context spatial.ContextID
	name    string
}

// System builds the descriptor for a scripted system entry of context id and
// remembers the binding for ReloadScript.
func (e *Engine) System(id spatial.ContextID, entry data.SystemEntry) (spatial.System, error) {
	b, err := e.Behavior(entry.Script)
	if err != nil {
		return spatial.System{}, eris.Wrapf(err, "system %q", entry.Name)
	}
	e.bindings[entry.Script] = append(e.bindings[entry.Script], binding{context: id, name: entry.Name})
	phase := system.PhaseUpdate
	if entry.Phase == "render" {
		phase = system.PhaseRender
	}
	return spatial.System{
		Name:     entry.Name,
		Phase:    phase,
		Priority: entry.Priority,
		Disabled: entry.Disabled,
		NewState: func() any { return &scriptState{} },
		Behavior: b,
	}, nil
}

// Reload recompiles script and swaps it in as the behavior of the named
// system in a loaded context. The system's Lua state table is kept.
func (e *Engine) Reload(m *spatial.Manager, id spatial.ContextID, name, script string) error {
	r, ok := m.Runner(id)
	if !ok {
		return &spatial.ContextNotLoadedError{ID: id, Op: "reload system"}
	}
	b, err := e.Behavior(script)
	if err != nil {
		return eris.Wrapf(err, "reload system %q", name)
	}
	if err := r.Reload(name, b); err != nil {
		return err
	}
	e.log.Info("lua system reloaded", zap.String("context", string(id)), zap.String("system", name))
	return nil
}

// ReloadScript reloads every system bound to script in the contexts that are
// currently loaded and returns how many were swapped.
func (e *Engine) ReloadScript(m *spatial.Manager, script string) (int, error) {
	n := 0
	for _, b := range e.bindings[script] {
		if !m.IsLoaded(b.context) {
			continue
		}
		if err := e.Reload(m, b.context, b.name, script); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Errors returns how many update calls of a scripted system have failed.
func Errors(m *spatial.Manager, id spatial.ContextID, name string) int {
	r, ok := m.Runner(id)
	if !ok {
		return 0
	}
	st, ok := r.State(name)
	if !ok {
		return 0
	}
	s, _ := st.(*scriptState)
	if s == nil {
		return 0
	}
	return s.errors
}

// StateField reads a field of a scripted system's Lua state table.
func StateField(m *spatial.Manager, id spatial.ContextID, name, field string) lua.LValue {
	r, ok := m.Runner(id)
	if !ok {
		return lua.LNil
	}
	st, ok := r.State(name)
	if !ok {
		return lua.LNil
	}
	s, _ := st.(*scriptState)
	if s == nil || s.table == nil {
		return lua.LNil
	}
	return s.table.RawGetString(field)
}
