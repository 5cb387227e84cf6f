package ecs

import "reflect"

type (
	EntityID    uint64
	ComponentID uint64
)

// NoEntity is the sentinel for "no parent", "no scene" and "no target".
const NoEntity EntityID = 0

// ComponentType tags a component kind. It is the reflect.Type of the
// component struct, not of the pointer stored on the entity.
type ComponentType = reflect.Type

// TypeOf returns the tag for T. It is also used to describe awake/destroy
// parameter types.
func TypeOf[T any]() ComponentType {
	return reflect.TypeFor[T]()
}

// Component is implemented by embedding BaseComponent in a struct:
//
//	type Position struct {
//		ecs.BaseComponent
//		X, Y float64
//	}
type Component interface {
	ID() ComponentID
	EntityID() EntityID
	Disposed() bool
	Entity() *Entity
	base() *BaseComponent
}

// ComponentPtr constrains generic helpers to pointers of component structs.
type ComponentPtr[T any] interface {
	*T
	Component
}

type BaseComponent struct {
	id       ComponentID
	entityID EntityID
	disposed bool
	world    *World
}

func (c *BaseComponent) ID() ComponentID      { return c.id }
func (c *BaseComponent) EntityID() EntityID   { return c.entityID }
func (c *BaseComponent) Disposed() bool       { return c.disposed }
func (c *BaseComponent) base() *BaseComponent { return c }

// Entity resolves the owning entity through the world the component was
// attached in. It returns nil once the owner is gone.
func (c *BaseComponent) Entity() *Entity {
	if c.world == nil || c.entityID == NoEntity {
		return nil
	}
	e, _ := c.world.FindEntity(c.entityID)
	return e
}

// World returns the world the component was attached in.
func (c *BaseComponent) World() *World {
	return c.world
}

func componentTypeOf(c Component) ComponentType {
	t := reflect.TypeOf(c)
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// AddComponent attaches a fresh T to e, destroying any T already present
// first. args are handed to the awake systems registered for T with a
// matching parameter list. It returns nil when e is nil or disposed.
func AddComponent[T any, PT ComponentPtr[T]](e *Entity, args ...any) PT {
	if e == nil {
		return nil
	}
	c := PT(new(T))
	if !e.world.attach(e, TypeOf[T](), c, args) {
		return nil
	}
	return c
}

// TryAddComponent attaches a fresh T only when e has none yet.
func TryAddComponent[T any, PT ComponentPtr[T]](e *Entity, args ...any) (PT, bool) {
	if e == nil {
		return nil, false
	}
	ct := TypeOf[T]()
	if e.Has(ct) {
		e.world.log.Warn("duplicated component",
			stringerField("component", ct), entityField(e.id))
		return nil, false
	}
	c := PT(new(T))
	if !e.world.attach(e, ct, c, args) {
		return nil, false
	}
	return c, true
}

// RemoveComponent detaches T from e and runs the destroy systems whose
// parameter list matches args. Absent components are ignored.
func RemoveComponent[T any, PT ComponentPtr[T]](e *Entity, args ...any) {
	if e == nil {
		return
	}
	ct := TypeOf[T]()
	c, ok := e.components[ct]
	if !ok {
		return
	}
	e.world.detach(e, ct, c, args)
}

func GetComponent[T any, PT ComponentPtr[T]](e *Entity) PT {
	if e == nil {
		return nil
	}
	c, ok := e.components[TypeOf[T]()]
	if !ok {
		return nil
	}
	return c.(PT)
}

func HasComponent[T any, PT ComponentPtr[T]](e *Entity) bool {
	if e == nil {
		return false
	}
	return e.Has(TypeOf[T]())
}

// FindComponentOfEntity looks up the entity by id and returns its T, or nil.
func FindComponentOfEntity[T any, PT ComponentPtr[T]](w *World, id EntityID) PT {
	e, ok := w.FindEntity(id)
	if !ok {
		return nil
	}
	return GetComponent[T, PT](e)
}
