package loader

import (
	"fmt"

	"github.com/nathoo/fabula/engine/module"
	"github.com/nathoo/fabula/types"
	lua "github.com/yuin/gopher-lua"
)

// handler wraps a Lua function as a verb handler. The accessor is saved and
// restored rather than just cleared so a delegation chain that re-enters
// this module keeps the outer call's accessor intact.
func (m *luaModule) handler(fn *lua.LFunction) module.Handler {
	return func(sa module.StateAccessor, cmd types.Command) (types.Result, error) {
		prev := m.sa
		m.sa = sa
		defer func() { m.sa = prev }()

		err := m.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, commandToLua(m.L, cmd))
		if err != nil {
			return types.Result{}, fmt.Errorf("module %s: verb %q: %w", m.name, cmd.Verb, err)
		}
		ret := m.L.Get(-1)
		m.L.Pop(1)
		return resultFromLua(ret)
	}
}

// event wraps a Lua function as an entity event function. For world-phase
// events the entity argument is nil on the Lua side too.
func (m *luaModule) event(fn *lua.LFunction) module.EventFunc {
	return func(e *types.Entity, sa module.StateAccessor, ctx map[string]any) (types.Outcome, error) {
		prev := m.sa
		m.sa = sa
		defer func() { m.sa = prev }()

		var ent lua.LValue = lua.LNil
		if e != nil {
			ent = entityToLua(m.L, e)
		}
		err := m.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, ent, toLuaValue(m.L, anyMap(ctx)))
		if err != nil {
			return types.Outcome{}, fmt.Errorf("module %s: %w", m.name, err)
		}
		ret := m.L.Get(-1)
		m.L.Pop(1)
		return outcomeFromLua(ret)
	}
}

// resultFromLua interprets a handler's return value. A table carries
// success (default true) and message; a bare string is a successful message;
// no return is a bare success.
func resultFromLua(v lua.LValue) (types.Result, error) {
	switch val := v.(type) {
	case *lua.LNilType:
		return types.Result{Success: true}, nil
	case lua.LString:
		return types.Result{Success: true, Message: string(val)}, nil
	case *lua.LTable:
		res := types.Result{Success: true}
		if b, ok := val.RawGetString("success").(lua.LBool); ok {
			res.Success = bool(b)
		}
		res.Message = getString(val, "message")
		return res, nil
	default:
		return types.Result{}, fmt.Errorf("handler returned %s, want table, string, or nothing", v.Type())
	}
}

// outcomeFromLua interprets an event function's return value. A bare string
// is a denial carrying that message; a table carries allow (default true)
// and message; no return allows silently.
func outcomeFromLua(v lua.LValue) (types.Outcome, error) {
	switch val := v.(type) {
	case *lua.LNilType:
		return types.Outcome{Allow: true}, nil
	case lua.LString:
		return types.Outcome{Allow: false, Message: string(val)}, nil
	case *lua.LTable:
		out := types.Outcome{Allow: true}
		if b, ok := val.RawGetString("allow").(lua.LBool); ok {
			out.Allow = bool(b)
		}
		out.Message = getString(val, "message")
		return out, nil
	default:
		return types.Outcome{}, fmt.Errorf("event function returned %s, want table, string, or nothing", v.Type())
	}
}

// commandToLua builds the cmd table handed to Lua handlers.
func commandToLua(L *lua.LState, cmd types.Command) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("verb", lua.LString(cmd.Verb))
	tbl.RawSetString("object", lua.LString(cmd.Object))
	tbl.RawSetString("indirect_object", lua.LString(cmd.IndirectObject))
	tbl.RawSetString("preposition", lua.LString(cmd.Preposition))
	tbl.RawSetString("actor", lua.LString(cmd.Actor))
	tbl.RawSetString("raw", lua.LString(cmd.Raw))
	adjs := L.NewTable()
	for _, a := range cmd.Adjectives {
		adjs.Append(lua.LString(a))
	}
	tbl.RawSetString("adjectives", adjs)
	return tbl
}

// commandFromLua reads a cmd table back, for world.invoke_next.
func commandFromLua(tbl *lua.LTable) types.Command {
	cmd := types.Command{
		Verb:           getString(tbl, "verb"),
		Object:         getString(tbl, "object"),
		IndirectObject: getString(tbl, "indirect_object"),
		Preposition:    getString(tbl, "preposition"),
		Actor:          getString(tbl, "actor"),
		Raw:            getString(tbl, "raw"),
	}
	if adjs, ok := tbl.RawGetString("adjectives").(*lua.LTable); ok {
		cmd.Adjectives = toStringSlice(adjs)
	}
	return cmd
}

func entityToLua(L *lua.LState, e *types.Entity) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("id", lua.LString(e.ID))
	tbl.RawSetString("name", lua.LString(e.Name))
	tbl.RawSetString("props", toLuaValue(L, anyMap(e.Props)))
	behaviors := L.NewTable()
	for _, b := range e.Behaviors {
		behaviors.Append(lua.LString(b))
	}
	tbl.RawSetString("behaviors", behaviors)
	return tbl
}

func resultToLua(L *lua.LState, res types.Result) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("success", lua.LBool(res.Success))
	tbl.RawSetString("message", lua.LString(res.Message))
	return tbl
}

// changesFromLua reads an array of {path, value} tables.
func changesFromLua(tbl *lua.LTable) ([]types.Change, error) {
	n := tbl.MaxN()
	changes := make([]types.Change, 0, n)
	for i := 1; i <= n; i++ {
		ct, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("change %d is not a table", i)
		}
		path := getString(ct, "path")
		if path == "" {
			return nil, fmt.Errorf("change %d has no path", i)
		}
		changes = append(changes, types.Change{Path: path, Value: toGoValue(ct.RawGetString("value"))})
	}
	return changes, nil
}

// toGoValue converts a Lua value to a Go value recursively. Tables with
// sequential integer keys become []any; everything else becomes
// map[string]any.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(val)
	case *lua.LTable:
		maxN := val.MaxN()
		if maxN > 0 {
			arr := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		m := map[string]any{}
		val.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGoValue(v)
			}
		})
		return m
	default:
		return nil
	}
}

// toLuaValue converts a Go value to a Lua value recursively. It covers the
// types that survive a JSON round trip, which is everything a prop bag or
// event context may hold.
func toLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		tbl := L.NewTable()
		for _, item := range val {
			tbl.Append(toLuaValue(L, item))
		}
		return tbl
	case []string:
		tbl := L.NewTable()
		for _, item := range val {
			tbl.Append(lua.LString(item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, toLuaValue(L, item))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// anyMap keeps nil maps nil through the any conversion so they land in Lua
// as an empty table rather than LNil surprises.
func anyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getStringList returns a list-valued string field, or nil if missing.
func getStringList(tbl *lua.LTable, key string) []string {
	t, ok := tbl.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}
	return toStringSlice(t)
}

func toStringSlice(tbl *lua.LTable) []string {
	n := tbl.MaxN()
	if n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}
