package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddGetRemoveComponent(t *testing.T) {
	w, _ := newTestWorld(t)
	e := w.CreateEntity()

	p := AddComponent[Position](e)
	require.NotNil(t, p)
	assert.True(t, HasComponent[Position](e))
	assert.Same(t, p, GetComponent[Position](e))
	assert.Equal(t, e.ID(), p.EntityID())
	assert.Same(t, e, p.Entity())
	assert.Same(t, w, p.World())

	RemoveComponent[Position](e)
	assert.False(t, HasComponent[Position](e))
	assert.Nil(t, GetComponent[Position](e))
	assert.True(t, p.Disposed())
	assert.Equal(t, 0, e.ComponentCount())
}

func TestReAddGivesFreshIdentifier(t *testing.T) {
	w, _ := newTestWorld(t)
	e := w.CreateEntity()

	first := AddComponent[Position](e)
	RemoveComponent[Position](e)
	second := AddComponent[Position](e)

	require.NotNil(t, second)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.NotSame(t, first, second)
}

func TestAddComponentReplacesExisting(t *testing.T) {
	w, _ := newTestWorld(t)
	var order []string
	require.NoError(t, RegisterDestroy[Position](w, "pos.destroy", func(p *Position, _ []any) error {
		order = append(order, "destroy")
		return nil
	}))
	require.NoError(t, RegisterAwake[Position](w, "pos.awake", func(p *Position, _ []any) error {
		order = append(order, "awake")
		return nil
	}))

	e := w.CreateEntity()
	old := AddComponent[Position](e)
	fresh := AddComponent[Position](e)

	assert.Equal(t, []string{"awake", "destroy", "awake"}, order)
	assert.True(t, old.Disposed())
	assert.False(t, fresh.Disposed())
	assert.Same(t, fresh, GetComponent[Position](e))
	assert.Equal(t, 1, e.ComponentCount())
}

func TestTryAddComponentKeepsExisting(t *testing.T) {
	w, logs := newTestWorld(t)
	e := w.CreateEntity()

	p, ok := TryAddComponent[Position](e)
	require.True(t, ok)

	again, ok := TryAddComponent[Position](e)
	assert.False(t, ok)
	assert.Nil(t, again)
	assert.Same(t, p, GetComponent[Position](e))
	assert.Equal(t, 1, logs.FilterMessage("duplicated component").Len())
}

func TestRemoveAbsentComponentIsNoop(t *testing.T) {
	w, _ := newTestWorld(t)
	destroyed := 0
	require.NoError(t, RegisterDestroy[Position](w, "pos.destroy", func(*Position, []any) error {
		destroyed++
		return nil
	}))

	e := w.CreateEntity()
	RemoveComponent[Position](e)
	AddComponent[Position](e)
	RemoveComponent[Position](e)
	RemoveComponent[Position](e)

	assert.Equal(t, 1, destroyed)
}

func TestAwakeArgumentsSelectSystems(t *testing.T) {
	w, logs := newTestWorld(t)
	var got []string
	require.NoError(t, RegisterAwake[Position](w, "pos.zero", func(p *Position, _ []any) error {
		got = append(got, "zero")
		return nil
	}))
	require.NoError(t, RegisterAwake[Position](w, "pos.xy", func(p *Position, args []any) error {
		p.X, p.Y = args[0].(float64), args[1].(float64)
		got = append(got, "xy")
		return nil
	}, TypeOf[float64](), TypeOf[float64]()))

	e := w.CreateEntity()
	p := AddComponent[Position](e, 3.0, 4.0)
	assert.Equal(t, []string{"xy"}, got)
	assert.Equal(t, 3.0, p.X)
	assert.Equal(t, 4.0, p.Y)

	AddComponent[Position](e)
	assert.Equal(t, []string{"xy", "zero"}, got)

	AddComponent[Position](e, "wrong")
	assert.Equal(t, []string{"xy", "zero"}, got)
	assert.Equal(t, 1, logs.FilterMessage("awake system not found").Len())
	assert.True(t, HasComponent[Position](e))
}

func TestMissingAwakeWarningCanBeDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WarnMissingAwake = false
	w, logs := newTestWorld(t, WithConfig(cfg))

	AddComponent[Position](w.CreateEntity())
	assert.Zero(t, logs.FilterMessage("awake system not found").Len())
}

func TestDestroyArgumentsSelectSystems(t *testing.T) {
	w, _ := newTestWorld(t)
	var reasons []string
	require.NoError(t, RegisterDestroy[Health](w, "hp.reason", func(_ *Health, args []any) error {
		reasons = append(reasons, args[0].(string))
		return nil
	}, TypeOf[string]()))
	require.NoError(t, RegisterDestroy[Health](w, "hp.plain", func(*Health, []any) error {
		reasons = append(reasons, "plain")
		return nil
	}))

	e := w.CreateEntity()
	AddComponent[Health](e)
	RemoveComponent[Health](e, "killed")
	AddComponent[Health](e)
	e.Dispose()

	assert.Equal(t, []string{"killed", "plain"}, reasons)
}

func TestLifecycleErrorsAreLogged(t *testing.T) {
	w, logs := newTestWorld(t)
	require.NoError(t, RegisterAwake[Health](w, "hp.fail", func(*Health, []any) error {
		return errors.New("no hp table")
	}))

	h := AddComponent[Health](w.CreateEntity())
	require.NotNil(t, h)
	assert.Equal(t, 1, logs.FilterMessage("awake system failed").Len())
}

func TestAddComponentOnDisposedEntity(t *testing.T) {
	w, logs := newTestWorld(t)
	e := w.CreateEntity()
	e.Dispose()

	assert.Nil(t, AddComponent[Position](e))
	assert.False(t, HasComponent[Position](e))
	assert.Equal(t, 1, logs.FilterMessage("add component on disposed entity").Len())
}

func TestFindComponentOfEntity(t *testing.T) {
	w, _ := newTestWorld(t)
	e := w.CreateEntity()
	v := AddComponent[Velocity](e)

	assert.Same(t, v, FindComponentOfEntity[Velocity](w, e.ID()))
	assert.Nil(t, FindComponentOfEntity[Position](w, e.ID()))
	assert.Nil(t, FindComponentOfEntity[Velocity](w, 9999))
	assert.Nil(t, FindComponentOfEntity[Velocity](w, NoEntity))
}

func TestComponentTypesKeepAttachOrder(t *testing.T) {
	w, _ := newTestWorld(t)
	e := w.CreateEntity()
	AddComponent[Velocity](e)
	AddComponent[Position](e)
	AddComponent[Health](e)
	RemoveComponent[Position](e)

	assert.Equal(t, []ComponentType{TypeOf[Velocity](), TypeOf[Health]()}, e.ComponentTypes())
}
