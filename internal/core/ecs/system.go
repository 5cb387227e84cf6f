package ecs

import "fmt"

// SystemKind identifies the lifecycle slot a system is registered under.
type SystemKind uint8

const (
	KindAwake SystemKind = iota
	KindDestroy
	KindUpdate
	KindLateUpdate
	KindFixedUpdate

	kindCount
)

func (k SystemKind) String() string {
	switch k {
	case KindAwake:
		return "awake"
	case KindDestroy:
		return "destroy"
	case KindUpdate:
		return "update"
	case KindLateUpdate:
		return "late_update"
	case KindFixedUpdate:
		return "fixed_update"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Tickable reports whether systems of this kind run every frame and keep an
// interest list.
func (k SystemKind) Tickable() bool {
	return k == KindUpdate || k == KindLateUpdate || k == KindFixedUpdate
}

// System is the identity every registered system carries. Two systems of the
// same kind, name and signature are duplicates.
type System interface {
	Name() string
}

type AwakeSystem interface {
	System
	Awake(c Component, args []any) error
}

type DestroySystem interface {
	System
	Destroy(c Component, args []any) error
}

type UpdateSystem interface {
	System
	Update(e *Entity, dt float64) error
}

type LateUpdateSystem interface {
	System
	LateUpdate(e *Entity, dt float64) error
}

type FixedUpdateSystem interface {
	System
	FixedUpdate(e *Entity, dt float64) error
}

// TickFunc is the per-entity operation of a frame system.
type TickFunc func(e *Entity, dt float64) error

// FuncSystem adapts a TickFunc to all three frame-system interfaces.
type FuncSystem struct {
	name string
	fn   TickFunc
}

func Func(name string, fn TickFunc) FuncSystem {
	return FuncSystem{name: name, fn: fn}
}

func (s FuncSystem) Name() string                            { return s.name }
func (s FuncSystem) Update(e *Entity, dt float64) error      { return s.fn(e, dt) }
func (s FuncSystem) LateUpdate(e *Entity, dt float64) error  { return s.fn(e, dt) }
func (s FuncSystem) FixedUpdate(e *Entity, dt float64) error { return s.fn(e, dt) }

// LifecycleFunc is the hook run by awake and destroy systems.
type LifecycleFunc func(c Component, args []any) error

// HookSystem adapts a LifecycleFunc to AwakeSystem and DestroySystem.
type HookSystem struct {
	name string
	fn   LifecycleFunc
}

func Hook(name string, fn LifecycleFunc) HookSystem {
	return HookSystem{name: name, fn: fn}
}

func (s HookSystem) Name() string                          { return s.name }
func (s HookSystem) Awake(c Component, args []any) error   { return s.fn(c, args) }
func (s HookSystem) Destroy(c Component, args []any) error { return s.fn(c, args) }

// RegisterAwake registers a typed awake hook for T.
func RegisterAwake[T any, PT ComponentPtr[T]](w *World, name string, fn func(c PT, args []any) error, params ...ComponentType) error {
	return w.RegisterAwakeSystem(Hook(name, func(c Component, args []any) error {
		return fn(c.(PT), args)
	}), TypeOf[T](), params...)
}

// RegisterDestroy registers a typed destroy hook for T.
func RegisterDestroy[T any, PT ComponentPtr[T]](w *World, name string, fn func(c PT, args []any) error, params ...ComponentType) error {
	return w.RegisterDestroySystem(Hook(name, func(c Component, args []any) error {
		return fn(c.(PT), args)
	}), TypeOf[T](), params...)
}
