// Package loader executes Lua behavior scripts in a sandboxed VM and wraps
// them as behavior modules. One .lua file is one module. Unlike a pure data
// loader the VM stays alive for the life of the module: the script's
// handle_* and on_* functions are the module's handlers, so every dispatch
// into the module re-enters its interpreter.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/fabula/engine/module"
	lua "github.com/yuin/gopher-lua"
)

// luaModule owns one script's interpreter. sa is the accessor for the call
// currently executing inside the VM; it is saved and restored around every
// entry so nested invocations unwind correctly. The engine drives modules
// from a single goroutine, so no locking is needed here.
type luaModule struct {
	L    *lua.LState
	name string
	sa   module.StateAccessor
}

// Load executes one .lua file and returns the behavior module it defines.
// The module name defaults to the file name without the extension; a
// game_module declaration in the script overrides it.
func Load(path string) (*module.Module, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)

	m := &luaModule{
		L:    L,
		name: strings.TrimSuffix(filepath.Base(path), ".lua"),
	}
	coll := &collector{}
	registerDSL(L, coll)
	registerWorldAPI(L, m)

	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("executing %s: %w", filepath.Base(path), err)
	}
	if coll.name != "" {
		m.name = coll.name
	}

	mod := &module.Module{
		Name:     m.name,
		Vocab:    coll.vocabulary(),
		Handlers: map[string]module.Handler{},
		Events:   map[string]module.EventFunc{},
	}

	// The script's capability maps are whatever handle_<verb> and
	// on_<event> functions it left in its global table.
	L.G.Global.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok {
			return
		}
		fn, ok := v.(*lua.LFunction)
		if !ok {
			return
		}
		switch {
		case strings.HasPrefix(string(name), "handle_"):
			verb := strings.TrimPrefix(string(name), "handle_")
			mod.Handlers[verb] = m.handler(fn)
		case strings.HasPrefix(string(name), "on_"):
			event := strings.TrimPrefix(string(name), "on_")
			mod.Events[event] = m.event(fn)
		}
	})

	return mod, nil
}

// LoadDir loads every .lua file in dir, one module per file, in alphabetical
// order. Alphabetical order is the modules' load order, which fixes
// same-tier precedence and world-phase event order.
func LoadDir(dir string) ([]*module.Module, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading module directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	sort.Strings(files)

	mods := make([]*module.Module, 0, len(files))
	for _, f := range files {
		mod, err := Load(filepath.Join(dir, f))
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	// Table library (table.insert, table.sort, etc.)
	lua.OpenTable(L)
	// String library (string.format, string.sub, etc.)
	lua.OpenString(L)
	// Math library (math.floor, math.max, etc.)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Remove math.randomseed to preserve determinism.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}
