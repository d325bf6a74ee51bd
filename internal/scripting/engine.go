package scripting

import (
	"path/filepath"

	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
	"github.com/rotisserie/eris"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is exposed to scripts as the API_VERSION global.
const APIVersion = 1

// Engine wraps a single gopher-lua VM for context setup routines and scripted
// systems. Single-goroutine access only (game loop).
//
// Every script file runs in its own environment table whose __index falls back
// to the globals, so two scripts can both define update() without clobbering
// each other.
type Engine struct {
	vm  *lua.LState
	dir string
	cat *component.Catalog
	log *zap.Logger

	bindings map[string][]binding // script -> systems built from it
}

// NewEngine creates a Lua VM resolving relative script paths against dir.
func NewEngine(dir string, cat *component.Catalog, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	return &Engine{vm: vm, dir: dir, cat: cat, log: log, bindings: make(map[string][]binding)}
}

func (e *Engine) Close() { e.vm.Close() }

// Dir is the directory relative script paths resolve against.
func (e *Engine) Dir() string { return e.dir }

func (e *Engine) path(script string) string {
	if filepath.IsAbs(script) || e.dir == "" {
		return script
	}
	return filepath.Join(e.dir, script)
}

// load compiles and runs a script file in a fresh environment and returns
// that environment.
func (e *Engine) load(script string) (*lua.LTable, error) {
	path := e.path(script)
	fn, err := e.vm.LoadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "load %s", path)
	}

	env := e.vm.NewTable()
	mt := e.vm.NewTable()
	mt.RawSetString("__index", e.vm.G.Global)
	e.vm.SetMetatable(env, mt)
	fn.Env = env

	e.vm.Push(fn)
	if err := e.vm.PCall(0, 0, nil); err != nil {
		return nil, eris.Wrapf(err, "run %s", path)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return env, nil
}

// Setup returns a context setup routine that runs the script's
// setup(world) function. A script without setup only has its top level run.
func (e *Engine) Setup(id spatial.ContextID, script string) spatial.SetupFunc {
	return func(w *ecs.World, m *spatial.Manager) error {
		env, err := e.load(script)
		if err != nil {
			return err
		}
		fn, ok := env.RawGetString("setup").(*lua.LFunction)
		if !ok {
			return nil
		}
		api := e.worldAPI(m, id, w)
		if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, api); err != nil {
			return eris.Wrapf(err, "setup %s", script)
		}
		return nil
	}
}
