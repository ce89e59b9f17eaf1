package loader

import (
	"github.com/nathoo/fabula/engine/module"
	"github.com/nathoo/fabula/types"
	lua "github.com/yuin/gopher-lua"
)

// collector accumulates a script's vocabulary contribution while the file
// executes. Declaration order within the file is preserved.
type collector struct {
	name  string
	verbs []types.VerbDef
	words []types.WordDef
	hooks map[string]string
}

// vocabulary returns the collected contribution, or nil if the script
// declared nothing.
func (c *collector) vocabulary() *types.Vocabulary {
	if len(c.verbs) == 0 && len(c.words) == 0 && len(c.hooks) == 0 {
		return nil
	}
	return &types.Vocabulary{Verbs: c.verbs, Words: c.words, Hooks: c.hooks}
}

// registerDSL registers the vocabulary constructors as globals.
func registerDSL(L *lua.LState, coll *collector) {
	// game_module "name"
	L.SetGlobal("game_module", L.NewFunction(func(L *lua.LState) int {
		coll.name = L.CheckString(1)
		return 0
	}))

	// verb "take" { synonyms = {"get"}, event = "take", object = "required" }
	// — curried: verb("take") returns a function that takes a table.
	L.SetGlobal("verb", L.NewFunction(func(L *lua.LState) int {
		word := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			def := types.VerbDef{
				Word:     word,
				Synonyms: getStringList(tbl, "synonyms"),
				Event:    getString(tbl, "event"),
				Object:   getString(tbl, "object"),
			}
			if def.Event == "" {
				def.Event = word
			}
			if def.Object == "" {
				def.Object = types.ObjectOptional
			}
			switch def.Object {
			case types.ObjectOptional, types.ObjectRequired, types.ObjectForbidden:
			default:
				L.RaiseError("verb %q: object must be optional, required, or forbidden, got %q", word, def.Object)
			}
			coll.verbs = append(coll.verbs, def)
			return 0
		}))
		return 1
	}))

	// noun "lamp" { synonyms = {"lantern"} } — curried.
	L.SetGlobal("noun", L.NewFunction(func(L *lua.LState) int {
		word := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.words = append(coll.words, types.WordDef{
				Word:     word,
				Synonyms: getStringList(tbl, "synonyms"),
				Role:     types.RoleNoun,
			})
			return 0
		}))
		return 1
	}))

	// adjective "brass" {} — curried.
	L.SetGlobal("adjective", L.NewFunction(func(L *lua.LState) int {
		word := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.words = append(coll.words, types.WordDef{
				Word:     word,
				Synonyms: getStringList(tbl, "synonyms"),
				Role:     types.RoleAdjective,
			})
			return 0
		}))
		return 1
	}))

	// hook("timers", "tick") — binds a turn-phase hook to an event.
	L.SetGlobal("hook", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		event := L.CheckString(2)
		if coll.hooks == nil {
			coll.hooks = map[string]string{}
		}
		if prev, ok := coll.hooks[name]; ok && prev != event {
			L.RaiseError("hook %q bound to both %q and %q", name, prev, event)
		}
		coll.hooks[name] = event
		return 0
	}))
}

// registerWorldAPI installs the world table. Its functions are only legal
// while a handler or event function is executing; at file scope they raise.
func registerWorldAPI(L *lua.LState, m *luaModule) {
	world := L.NewTable()
	reg := func(name string, fn lua.LGFunction) {
		world.RawSetString(name, L.NewFunction(fn))
	}

	// world.get(id) → {id, name, props, behaviors} or nil
	reg("get", func(L *lua.LState) int {
		sa := m.accessor(L)
		e, ok := sa.Get(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(entityToLua(L, e))
		return 1
	})

	// world.update(id, changes) → true, or false, err
	// changes is an array of {path = "...", value = ...} tables.
	reg("update", func(L *lua.LState) int {
		sa := m.accessor(L)
		id := L.CheckString(1)
		changes, err := changesFromLua(L.CheckTable(2))
		if err != nil {
			L.RaiseError("world.update: %s", err)
		}
		if err := sa.Update(id, changes); err != nil {
			L.Push(lua.LFalse)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		L.Push(lua.LTrue)
		return 1
	})

	// world.player() → id
	reg("player", func(L *lua.LState) int {
		sa := m.accessor(L)
		L.Push(lua.LString(sa.Player()))
		return 1
	})

	// world.entities_at(location) → array of ids
	reg("entities_at", func(L *lua.LState) int {
		sa := m.accessor(L)
		ids := sa.EntitiesAt(L.CheckString(1))
		tbl := L.NewTable()
		for _, id := range ids {
			tbl.Append(lua.LString(id))
		}
		L.Push(tbl)
		return 1
	})

	// world.find_at(location, noun [, adjectives]) → id or nil
	reg("find_at", func(L *lua.LState) int {
		sa := m.accessor(L)
		loc := L.CheckString(1)
		noun := L.CheckString(2)
		var adjs []string
		if tbl, ok := L.Get(3).(*lua.LTable); ok {
			adjs = toStringSlice(tbl)
		}
		id := sa.FindAt(loc, noun, adjs)
		if id == "" {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(id))
		return 1
	})

	// world.invoke_event(id, event [, ctx]) → {allow, message}
	// id may be "" for world-phase events.
	reg("invoke_event", func(L *lua.LState) int {
		sa := m.accessor(L)
		id := L.CheckString(1)
		event := L.CheckString(2)
		var ctx map[string]any
		if tbl, ok := L.Get(3).(*lua.LTable); ok {
			ctx, _ = toGoValue(tbl).(map[string]any)
		}
		out, err := sa.InvokeEvent(id, event, ctx)
		if err != nil {
			L.RaiseError("world.invoke_event %q on %q: %s", event, id, err)
		}
		tbl := L.NewTable()
		tbl.RawSetString("allow", lua.LBool(out.Allow))
		tbl.RawSetString("message", lua.LString(out.Message))
		L.Push(tbl)
		return 1
	})

	// world.invoke_next(verb, cmd) → {success, message}
	reg("invoke_next", func(L *lua.LState) int {
		sa := m.accessor(L)
		verb := L.CheckString(1)
		cmd := commandFromLua(L.CheckTable(2))
		res, err := sa.InvokeNext(verb, cmd)
		if err != nil {
			L.RaiseError("world.invoke_next %q: %s", verb, err)
		}
		L.Push(resultToLua(L, res))
		return 1
	})

	L.SetGlobal("world", world)
}

func (m *luaModule) accessor(L *lua.LState) module.StateAccessor {
	if m.sa == nil {
		L.RaiseError("the world API is only available inside handlers and event functions")
	}
	return m.sa
}
