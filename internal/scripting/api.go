package scripting

import (
	"github.com/ViewableGravy/better-ecs-sub001/internal/component"
	"github.com/ViewableGravy/better-ecs-sub001/internal/core/ecs"
	"github.com/ViewableGravy/better-ecs-sub001/internal/data"
	"github.com/ViewableGravy/better-ecs-sub001/internal/prefab"
	"github.com/ViewableGravy/better-ecs-sub001/internal/spatial"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Entity ids cross into Lua as numbers. Generations stay far below 2^21 in
// practice, so the float64 round trip is exact.
func pushID(id ecs.EntityID) lua.LValue { return lua.LNumber(float64(id)) }

func checkID(L *lua.LState, n int) ecs.EntityID {
	return ecs.EntityID(uint64(L.CheckNumber(n)))
}

// worldAPI builds the table scripts receive as `world`. Functions are called
// with dot syntax: world.spawn{kind = "prop", x = 1, y = 2}.
func (e *Engine) worldAPI(m *spatial.Manager, id spatial.ContextID, w *ecs.World) *lua.LTable {
	cat := e.cat
	vm := e.vm
	api := vm.NewTable()
	log := e.log.With(zap.String("context", string(id)))

	fns := map[string]lua.LGFunction{
		"spawn": func(L *lua.LState) int {
			entry := entryFromTable(L, L.CheckTable(1))
			eid, err := prefab.Spawn(w, cat, entry)
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			L.Push(pushID(eid))
			return 1
		},
		"alive": func(L *lua.LState) int {
			L.Push(lua.LBool(w.Alive(checkID(L, 1))))
			return 1
		},
		"destroy": func(L *lua.LState) int {
			w.MarkForDestruction(checkID(L, 1))
			return 0
		},
		"position": func(L *lua.LState) int {
			tr, ok := ecs.Get(w, checkID(L, 1), cat.Transform)
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LNumber(tr.X))
			L.Push(lua.LNumber(tr.Y))
			return 2
		},
		"move": func(L *lua.LState) int {
			tr, ok := ecs.Get(w, checkID(L, 1), cat.Transform)
			if ok {
				tr.X += float64(L.CheckNumber(2))
				tr.Y += float64(L.CheckNumber(3))
			}
			L.Push(lua.LBool(ok))
			return 1
		},
		"teleport": func(L *lua.LState) int {
			tr, ok := ecs.Get(w, checkID(L, 1), cat.Transform)
			if ok {
				tr.Teleport(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
			}
			L.Push(lua.LBool(ok))
			return 1
		},
		"set_velocity": func(L *lua.LState) int {
			eid := checkID(L, 1)
			v := &component.Velocity{X: float64(L.CheckNumber(2)), Y: float64(L.CheckNumber(3))}
			if cur, ok := ecs.Get(w, eid, cat.Velocity); ok {
				*cur = *v
				L.Push(lua.LTrue)
				return 1
			}
			L.Push(lua.LBool(ecs.Add(w, eid, cat.Velocity, v) == nil))
			return 1
		},
		"entities": func(L *lua.LState) int {
			name := L.CheckString(1)
			cid, ok := cat.Registry.Lookup(name)
			if !ok {
				L.ArgError(1, "unknown component "+name)
				return 0
			}
			out := L.NewTable()
			for _, eid := range w.Query(cid) {
				out.Append(pushID(eid))
			}
			L.Push(out)
			return 1
		},
		"player": func(L *lua.LState) int {
			eid, ok := cat.FindPlayer(w)
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(pushID(eid))
			return 1
		},
		"context": func(L *lua.LState) int {
			L.Push(lua.LString(id))
			return 1
		},
		"focused": func(L *lua.LState) int {
			L.Push(lua.LBool(m.ActiveFocus() == id))
			return 1
		},
		"load": func(L *lua.LState) int {
			_, err := m.EnsureWorldLoaded(spatial.ContextID(L.CheckString(1)))
			return pushResult(L, err)
		},
		"focus": func(L *lua.LState) int {
			return pushResult(L, m.SetFocusedContextID(spatial.ContextID(L.CheckString(1))))
		},
		"log": func(L *lua.LState) int {
			log.Info("lua", zap.String("msg", L.CheckString(1)))
			return 0
		},
	}
	for name, fn := range fns {
		api.RawSetString(name, vm.NewFunction(fn))
	}
	return api
}

// pushResult returns true, or false plus the error message.
func pushResult(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

func entryFromTable(L *lua.LState, t *lua.LTable) data.EntityEntry {
	str := func(k string) string {
		if s, ok := L.GetField(t, k).(lua.LString); ok {
			return string(s)
		}
		return ""
	}
	num := func(tb *lua.LTable, k string) float64 {
		if n, ok := L.GetField(tb, k).(lua.LNumber); ok {
			return float64(n)
		}
		return 0
	}
	point := func(k string) *data.PointEntry {
		sub, ok := L.GetField(t, k).(*lua.LTable)
		if !ok {
			return nil
		}
		return &data.PointEntry{X: num(sub, "x"), Y: num(sub, "y")}
	}

	e := data.EntityEntry{
		Kind:     str("kind"),
		Name:     str("name"),
		X:        num(t, "x"),
		Y:        num(t, "y"),
		Glyph:    str("glyph"),
		Color:    str("color"),
		Layer:    int(num(t, "layer")),
		Target:   str("target"),
		Region:   str("region"),
		Speed:    num(t, "speed"),
		Spawn:    point("spawn"),
		Velocity: point("velocity"),
	}
	if e.Kind == "" {
		e.Kind = data.KindProp
	}
	if sub, ok := L.GetField(t, "shape").(*lua.LTable); ok {
		kind := "point"
		if s, ok := L.GetField(sub, "kind").(lua.LString); ok {
			kind = string(s)
		}
		e.Shape = &data.ShapeEntry{Kind: kind, W: num(sub, "w"), H: num(sub, "h"), R: num(sub, "r")}
	}
	return e
}
