package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"

	"github.com/zeusync/gameframe/internal/core/ecs"
	"github.com/zeusync/gameframe/internal/core/observability/log"
)

// APIVersion is exposed to scripts as the API_VERSION global.
const APIVersion = 1

// ScriptState is the per-entity numeric blackboard scripts read and write
// through get/set.
type ScriptState struct {
	ecs.BaseComponent
	Vars map[string]float64
}

// Engine wraps a single gopher-lua VM bound to one world.
// Single-goroutine access only (frame loop).
type Engine struct {
	vm    *lua.LState
	world *ecs.World
	log   log.Log
}

func NewEngine(w *ecs.World, logger log.Log) *Engine {
	if logger == nil {
		logger = log.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{vm: vm, world: w, log: logger.Named("lua")}
	vm.SetGlobal("get", vm.NewFunction(e.luaGet))
	vm.SetGlobal("set", vm.NewFunction(e.luaSet))
	vm.SetGlobal("destroy", vm.NewFunction(e.luaDestroy))
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))

	// Several engines may share a world; the hook only needs to exist once.
	err := ecs.RegisterAwake[ScriptState](w, "lua.state", func(s *ScriptState, _ []any) error {
		s.Vars = make(map[string]float64)
		return nil
	})
	if err != nil && !errors.Is(err, ecs.ErrDuplicateSystem) {
		e.log.Warn("script state hook", log.Error(err))
	}
	return e
}

func (e *Engine) LoadString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("load lua chunk: %w", err)
	}
	return nil
}

func (e *Engine) LoadFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", log.String("file", path))
	return nil
}

// LoadDir loads every .lua file of dir in name order. A missing dir is skipped.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		if err = e.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// HasFunction reports whether the loaded scripts define a global function name.
func (e *Engine) HasFunction(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// RegisterUpdateSystem registers an update system that calls the global Lua
// function fn(entity_id, dt) for every observed entity.
func (e *Engine) RegisterUpdateSystem(name, fn string, types ...ecs.ComponentType) error {
	return e.world.RegisterUpdateSystem(ecs.Func(name, e.tick(fn)), types...)
}

func (e *Engine) RegisterLateUpdateSystem(name, fn string, types ...ecs.ComponentType) error {
	return e.world.RegisterLateUpdateSystem(ecs.Func(name, e.tick(fn)), types...)
}

func (e *Engine) RegisterFixedUpdateSystem(name, fn string, types ...ecs.ComponentType) error {
	return e.world.RegisterFixedUpdateSystem(ecs.Func(name, e.tick(fn)), types...)
}

// tick resolves fn on every call so reloaded scripts take effect. A Lua
// error or a returned string becomes the system error.
func (e *Engine) tick(fn string) ecs.TickFunc {
	return func(ent *ecs.Entity, dt float64) error {
		f := e.vm.GetGlobal(fn)
		if f == lua.LNil {
			return fmt.Errorf("lua function %s not found", fn)
		}
		if err := e.vm.CallByParam(lua.P{
			Fn:      f,
			NRet:    1,
			Protect: true,
		}, lua.LNumber(ent.ID()), lua.LNumber(dt)); err != nil {
			return fmt.Errorf("lua %s: %w", fn, err)
		}
		ret := e.vm.Get(-1)
		e.vm.Pop(1)
		if msg, ok := ret.(lua.LString); ok && msg != "" {
			return fmt.Errorf("lua %s: %s", fn, string(msg))
		}
		return nil
	}
}

// get(id, key) -> number | nil
func (e *Engine) luaGet(L *lua.LState) int {
	id := ecs.EntityID(L.CheckNumber(1))
	key := L.CheckString(2)
	st := ecs.FindComponentOfEntity[ScriptState](e.world, id)
	if st == nil {
		L.Push(lua.LNil)
		return 1
	}
	v, ok := st.Vars[key]
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(v))
	return 1
}

// set(id, key, value) -> bool
func (e *Engine) luaSet(L *lua.LState) int {
	id := ecs.EntityID(L.CheckNumber(1))
	key := L.CheckString(2)
	val := float64(L.CheckNumber(3))
	ent, ok := e.world.FindEntity(id)
	if !ok {
		L.Push(lua.LFalse)
		return 1
	}
	st := ecs.GetComponent[ScriptState](ent)
	if st == nil {
		if st = ecs.AddComponent[ScriptState](ent); st == nil {
			L.Push(lua.LFalse)
			return 1
		}
	}
	if st.Vars == nil {
		st.Vars = make(map[string]float64)
	}
	st.Vars[key] = val
	L.Push(lua.LTrue)
	return 1
}

// destroy(id) -> bool
func (e *Engine) luaDestroy(L *lua.LState) int {
	id := ecs.EntityID(L.CheckNumber(1))
	L.Push(lua.LBool(e.world.DestroyEntity(id)))
	return 1
}

// log(msg)
func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1))
	return 0
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
