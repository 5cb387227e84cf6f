package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/gameframe/internal/core/ecs"
)

type Mover struct {
	ecs.BaseComponent
}

const moveScript = `
function move(id, dt)
  local x = get(id, "x") or 0
  set(id, "x", x + 10 * dt)
end

function fail(id, dt)
  return "stuck"
end

function crash(id, dt)
  error("nil index")
end

function reap(id, dt)
  if (get(id, "x") or 0) > 1 then
    destroy(id)
  end
end
`

func newEngine(t *testing.T) (*ecs.World, *Engine) {
	t.Helper()
	w := ecs.NewWorld()
	e := NewEngine(w, nil)
	t.Cleanup(e.Close)
	require.NoError(t, e.LoadString(moveScript))
	return w, e
}

func TestLuaUpdateSystem(t *testing.T) {
	w, e := newEngine(t)
	require.NoError(t, e.RegisterUpdateSystem("lua.move", "move", ecs.TypeOf[Mover]()))

	ent := w.CreateEntity()
	ecs.AddComponent[Mover](ent)
	w.Update(0.5)
	w.Update(0.5)

	st := ecs.GetComponent[ScriptState](ent)
	require.NotNil(t, st)
	assert.InDelta(t, 10.0, st.Vars["x"], 1e-9)
}

func TestLuaErrorsBecomeSystemFailures(t *testing.T) {
	w, e := newEngine(t)
	require.NoError(t, e.RegisterUpdateSystem("lua.fail", "fail", ecs.TypeOf[Mover]()))
	require.NoError(t, e.RegisterLateUpdateSystem("lua.crash", "crash", ecs.TypeOf[Mover]()))
	require.NoError(t, e.RegisterFixedUpdateSystem("lua.missing", "nope", ecs.TypeOf[Mover]()))

	ecs.AddComponent[Mover](w.CreateEntity())
	w.Update(1)
	w.LateUpdate(1)
	w.FixedUpdate(1)

	for _, s := range w.Stats().Systems {
		if s.Kind == ecs.KindAwake.String() {
			continue
		}
		assert.Equal(t, uint64(1), s.Failures, s.Name)
	}
}

func TestLuaDestroyEntity(t *testing.T) {
	w, e := newEngine(t)
	require.NoError(t, e.RegisterUpdateSystem("lua.move", "move", ecs.TypeOf[Mover]()))
	require.NoError(t, e.RegisterLateUpdateSystem("lua.reap", "reap", ecs.TypeOf[Mover]()))

	ent := w.CreateEntity()
	ecs.AddComponent[Mover](ent)
	w.Update(0.05)
	w.LateUpdate(0.05)
	assert.False(t, ent.Disposed())

	w.Update(0.5)
	w.LateUpdate(0.5)
	assert.True(t, ent.Disposed())
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte("A = API_VERSION"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not lua"), 0o600))

	w := ecs.NewWorld()
	e := NewEngine(w, nil)
	defer e.Close()
	require.NoError(t, e.LoadDir(dir))
	require.NoError(t, e.LoadDir(filepath.Join(dir, "missing")))
	assert.Equal(t, "1", e.vm.GetGlobal("A").String())
	assert.False(t, e.HasFunction("A"))
	assert.True(t, e.HasFunction("get"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte("this is not lua"), 0o600))
	assert.Error(t, e.LoadDir(dir))
	assert.Error(t, e.LoadString("function ("))
}

func TestSecondEngineSharesWorld(t *testing.T) {
	w := ecs.NewWorld()
	a, b := NewEngine(w, nil), NewEngine(w, nil)
	defer a.Close()
	defer b.Close()

	ent := w.CreateEntity()
	st := ecs.AddComponent[ScriptState](ent)
	require.NotNil(t, st)
	assert.NotNil(t, st.Vars)
}

func TestSetWithoutAwakeState(t *testing.T) {
	w, e := newEngine(t)
	ent := w.CreateEntity()
	// No awake system takes an argument, so Vars is never initialised here.
	st := ecs.AddComponent[ScriptState](ent, 1.0)
	require.NotNil(t, st)
	require.Nil(t, st.Vars)

	require.NoError(t, e.LoadString(fmt.Sprintf("assert(set(%d, 'hp', 3))", ent.ID())))
	assert.Equal(t, 3.0, st.Vars["hp"])
}
