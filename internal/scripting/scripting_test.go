package scripting

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/system"
	"github.com/ViewableGravy/better-ecs-sub001/internal/data"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeScript(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}

type harness struct {
	dir  string
	cat  *component.Catalog
	eng  *Engine
	m    *spatial.Manager
	logs *observer.ObservedLogs
}

// newHarness builds a manager with a focused root "world" running the given
// scripted systems and an unloaded child "house".
func newHarness(t *testing.T, setup string, systems []data.SystemEntry, scripts map[string]string) *harness {
	t.Helper()
	h := &harness{dir: t.TempDir()}
	for name, src := range scripts {
		writeScript(t, h.dir, name, src)
	}
	core, logs := observer.New(zap.DebugLevel)
	h.logs = logs
	log := zap.New(core)

	reg := ecs.NewRegistry()
	h.cat = component.NewCatalog(reg)
	h.eng = NewEngine(h.dir, h.cat, log)
	t.Cleanup(h.eng.Close)

	def := spatial.Definition{ID: "world"}
	if setup != "" {
		def.Setup = h.eng.Setup("world", setup)
	}
	for _, entry := range systems {
		s, err := h.eng.System("world", entry)
		require.NoError(t, err)
		def.Systems = append(def.Systems, s)
	}
	m, err := spatial.NewManager([]spatial.Definition{def, {ID: "house", Parent: "world"}},
		spatial.WithRegistry(reg), spatial.WithLogger(log))
	require.NoError(t, err)
	h.m = m
	return h
}

func (h *harness) start(t *testing.T) *ecs.World {
	t.Helper()
	w, err := h.m.EnsureWorldLoaded("world")
	require.NoError(t, err)
	require.NoError(t, h.m.SetFocusedContextID("world"))
	return w
}

func (h *harness) tick(t *testing.T) {
	t.Helper()
	require.NoError(t, h.m.Update(system.Frame{Dt: 100 * time.Millisecond}))
}

func TestSetupScriptPopulatesWorld(t *testing.T) {
	h := newHarness(t, "world.lua", nil, map[string]string{"world.lua": `
function setup(world)
  world.spawn{kind = "player", name = "hero", x = 1, y = 2}
  world.spawn{kind = "portal", x = 5, y = 5, target = "house", spawn = {x = 0, y = 3}}
  world.log("ready " .. world.context() .. " v" .. API_VERSION)
end
`})
	w := h.start(t)

	player, ok := h.cat.FindPlayer(w)
	require.True(t, ok)
	tr, _ := ecs.Get(w, player, h.cat.Transform)
	assert.Equal(t, 1.0, tr.X)
	assert.Equal(t, 2.0, tr.Y)

	portals := w.Query(h.cat.Portal.ID())
	require.Len(t, portals, 1)
	p, _ := ecs.Get(w, portals[0], h.cat.Portal)
	assert.Equal(t, component.Portal{Target: "house", HasSpawn: true, SpawnX: 0, SpawnY: 3}, *p)

	assert.Equal(t, 1, h.logs.FilterMessage("lua").FilterField(zap.String("msg", "ready world v1")).Len())
}

func TestSetupErrorsAreReturned(t *testing.T) {
	h := newHarness(t, "broken.lua", nil, map[string]string{"broken.lua": `function setup(world) error("no map") end`})
	_, err := h.m.EnsureWorldLoaded("world")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no map")
	assert.False(t, h.m.IsLoaded("world"))

	h = newHarness(t, "missing.lua", nil, nil)
	_, err = h.m.EnsureWorldLoaded("world")
	assert.Error(t, err)
}

const counterScript = `
function update(world, dt, state)
  state.n = (state.n or 0) + 1
  state.dt = dt
  local p = world.player()
  if p then world.move(p, 1, 0) end
end
`

func TestScriptedSystemKeepsStateAcrossReload(t *testing.T) {
	h := newHarness(t, "world.lua", []data.SystemEntry{{Name: "counter", Script: "counter.lua"}}, map[string]string{
		"world.lua":   `function setup(world) world.spawn{kind = "player"} end`,
		"counter.lua": counterScript,
		"faster.lua":  `function update(world, dt, state) state.n = state.n + 10 end`,
	})
	w := h.start(t)
	h.tick(t)
	h.tick(t)
	assert.Equal(t, lua.LNumber(2), StateField(h.m, "world", "counter", "n"))
	assert.Equal(t, lua.LNumber(0.1), StateField(h.m, "world", "counter", "dt"))
	player, _ := h.cat.FindPlayer(w)
	tr, _ := ecs.Get(w, player, h.cat.Transform)
	assert.Equal(t, 2.0, tr.X)

	require.NoError(t, h.eng.Reload(h.m, "world", "counter", "faster.lua"))
	h.tick(t)
	assert.Equal(t, lua.LNumber(12), StateField(h.m, "world", "counter", "n"))
	assert.Equal(t, 2.0, tr.X, "new behavior no longer moves")
}

func TestReloadScriptSwapsBoundSystems(t *testing.T) {
	h := newHarness(t, "", []data.SystemEntry{{Name: "counter", Script: "counter.lua"}}, map[string]string{
		"counter.lua": counterScript,
	})
	n, err := h.eng.ReloadScript(h.m, "counter.lua")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "context not loaded yet")

	h.start(t)
	h.tick(t)
	writeScript(t, h.dir, "counter.lua", `function update(world, dt, state) state.n = -1 end`)
	n, err = h.eng.ReloadScript(h.m, "counter.lua")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	h.tick(t)
	assert.Equal(t, lua.LNumber(-1), StateField(h.m, "world", "counter", "n"))

	writeScript(t, h.dir, "counter.lua", `function update(`)
	_, err = h.eng.ReloadScript(h.m, "counter.lua")
	assert.Error(t, err, "compile errors leave the running behavior in place")
	h.tick(t)
	assert.Equal(t, lua.LNumber(-1), StateField(h.m, "world", "counter", "n"))
}

func TestRuntimeErrorsAreLoggedNotFatal(t *testing.T) {
	h := newHarness(t, "", []data.SystemEntry{
		{Name: "bad", Script: "bad.lua"},
		{Name: "good", Script: "good.lua", Priority: 1},
	}, map[string]string{
		"bad.lua":  `function update(world, dt, state) world.entities("nonsense") end`,
		"good.lua": `function update(world, dt, state) state.ran = true end`,
	})
	h.start(t)
	h.tick(t)
	h.tick(t)
	assert.Equal(t, 2, Errors(h.m, "world", "bad"))
	assert.Equal(t, 0, Errors(h.m, "world", "good"))
	assert.Equal(t, lua.LTrue, StateField(h.m, "world", "good", "ran"))
	assert.Equal(t, 2, h.logs.FilterMessage("lua system error").Len())
}

func TestScriptsHaveSeparateEnvironments(t *testing.T) {
	h := newHarness(t, "", []data.SystemEntry{
		{Name: "a", Script: "a.lua"},
		{Name: "b", Script: "b.lua"},
	}, map[string]string{
		"a.lua": `who = "a"; function update(world, dt, state) state.who = who end`,
		"b.lua": `who = "b"; function update(world, dt, state) state.who = who end`,
	})
	h.start(t)
	h.tick(t)
	assert.Equal(t, lua.LString("a"), StateField(h.m, "world", "a", "who"))
	assert.Equal(t, lua.LString("b"), StateField(h.m, "world", "b", "who"))
}

func TestSystemRequiresUpdate(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "idle.lua", `x = 1`)
	eng := NewEngine(dir, component.NewCatalog(ecs.NewRegistry()), nil)
	defer eng.Close()
	_, err := eng.System("world", data.SystemEntry{Name: "idle", Script: "idle.lua"})
	assert.Error(t, err)
}

func TestInitRunsOnceWithState(t *testing.T) {
	h := newHarness(t, "", []data.SystemEntry{{Name: "boot", Script: "boot.lua"}}, map[string]string{
		"boot.lua": `
function init(world, state) state.inits = (state.inits or 0) + 1 end
function update(world, dt, state) end
`,
	})
	h.start(t)
	h.tick(t)
	assert.Equal(t, lua.LNumber(1), StateField(h.m, "world", "boot", "inits"))
}

func TestScriptCanLoadAndFocusContexts(t *testing.T) {
	h := newHarness(t, "", []data.SystemEntry{{Name: "door", Script: "door.lua"}}, map[string]string{
		"door.lua": `
function update(world, dt, state)
  local ok = world.focus("house")
  state.refused = not ok
  assert(world.load("house"))
  assert(world.focus("house"))
  state.focused = world.focused()
end
`,
	})
	h.start(t)
	h.tick(t)
	assert.Equal(t, 0, Errors(h.m, "world", "door"))
	assert.Equal(t, spatial.ContextID("house"), h.m.FocusedContextID())
	assert.Equal(t, lua.LTrue, StateField(h.m, "world", "door", "refused"))
	assert.Equal(t, lua.LTrue, StateField(h.m, "world", "door", "focused"),
		"focus change applies from the next phase")
}

func TestWorldAPIEntityOps(t *testing.T) {
	h := newHarness(t, "", []data.SystemEntry{{Name: "ops", Script: "ops.lua"}}, map[string]string{
		"ops.lua": `
function update(world, dt, state)
  local e = world.spawn{x = 1, y = 1, glyph = "*", velocity = {x = 2, y = 0}}
  world.teleport(e, 4, 5)
  state.x, state.y = world.position(e)
  state.props = #world.entities("sprite")
  world.set_velocity(e, 0, 3)
  state.alive = world.alive(e)
  world.destroy(e)
  state.still_alive = world.alive(e)
end
`,
	})
	w := h.start(t)
	h.tick(t)
	require.Equal(t, 0, Errors(h.m, "world", "ops"))
	assert.Equal(t, lua.LNumber(4), StateField(h.m, "world", "ops", "x"))
	assert.Equal(t, lua.LNumber(5), StateField(h.m, "world", "ops", "y"))
	assert.Equal(t, lua.LNumber(1), StateField(h.m, "world", "ops", "props"))
	assert.Equal(t, lua.LTrue, StateField(h.m, "world", "ops", "alive"))
	assert.Equal(t, lua.LTrue, StateField(h.m, "world", "ops", "still_alive"), "destroy is deferred")

	vs := w.Query(h.cat.Velocity.ID())
	require.Len(t, vs, 1)
	v, _ := ecs.Get(w, vs[0], h.cat.Velocity)
	assert.Equal(t, component.Velocity{X: 0, Y: 3}, *v)
	assert.Equal(t, 1, w.FlushDestroyQueue())
}

func TestWatcherReportsLuaWrites(t *testing.T) {
	dir := t.TempDir()
	wt, err := NewWatcher(dir, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- wt.Run(ctx) }()

	writeScript(t, dir, "notes.txt", "ignored")
	writeScript(t, dir, "door.lua", "x = 1")
	var got []string
	assert.Eventually(t, func() bool {
		got = append(got, wt.Changed()...)
		return len(got) > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, got, "door.lua")
	assert.NotContains(t, got, "notes.txt")

	cancel()
	assert.NoError(t, <-done)
}
