package ecs

import "slices"

// Entity is an addressable node that owns at most one component per type
// and an ordered list of children. Entities are only created by a World.
type Entity struct {
	world    *World
	id       EntityID
	parentID EntityID
	sceneID  EntityID
	disposed bool
	// disposing breaks cycles between scenes that contain each other.
	disposing bool

	children   []*Entity
	components map[ComponentType]Component
	// kinds keeps component insertion order for deterministic teardown.
	kinds []ComponentType

	// members is non-nil only for scenes.
	members map[EntityID]*Entity
}

func newEntity(w *World, id EntityID) *Entity {
	return &Entity{
		world:      w,
		id:         id,
		components: make(map[ComponentType]Component),
	}
}

func (e *Entity) ID() EntityID       { return e.id }
func (e *Entity) ParentID() EntityID { return e.parentID }
func (e *Entity) SceneID() EntityID  { return e.sceneID }
func (e *Entity) Disposed() bool     { return e.disposed }
func (e *Entity) World() *World      { return e.world }
func (e *Entity) IsScene() bool      { return e.members != nil }

// Parent resolves the parent through the world index.
func (e *Entity) Parent() *Entity {
	if e.parentID == NoEntity {
		return nil
	}
	p, _ := e.world.FindEntity(e.parentID)
	return p
}

// Scene resolves the scene e currently belongs to.
func (e *Entity) Scene() *Scene {
	if e.sceneID == NoEntity {
		return nil
	}
	s, _ := e.world.FindScene(e.sceneID)
	return s
}

func (e *Entity) Has(t ComponentType) bool {
	_, ok := e.components[t]
	return ok
}

func (e *Entity) Get(t ComponentType) (Component, bool) {
	c, ok := e.components[t]
	return c, ok
}

func (e *Entity) ComponentCount() int { return len(e.components) }

// ComponentTypes lists the attached types in attach order.
func (e *Entity) ComponentTypes() []ComponentType {
	return slices.Clone(e.kinds)
}

func (e *Entity) Children() []*Entity {
	return slices.Clone(e.children)
}

func (e *Entity) ChildCount() int { return len(e.children) }

// AddChild re-parents child under e. Nil, disposed and foreign-world
// entities are ignored, as are attempts to parent an entity to itself or to
// one of its own descendants.
func (e *Entity) AddChild(child *Entity) {
	if child == nil || child.disposed || e.disposed || child.world != e.world || child == e {
		return
	}
	for p := e.Parent(); p != nil; p = p.Parent() {
		if p == child {
			e.world.log.Warn("refused cyclic parenting", entityField(child.id), uint64Field("parent", uint64(e.id)))
			return
		}
	}
	if old := child.Parent(); old != nil {
		old.RemoveChild(child)
	}
	e.children = append(e.children, child)
	child.parentID = e.id
}

func (e *Entity) RemoveChild(child *Entity) {
	if child == nil {
		return
	}
	if i := slices.Index(e.children, child); i >= 0 {
		e.children = slices.Delete(e.children, i, i+1)
	}
	if child.parentID == e.id {
		child.parentID = NoEntity
	}
}

func (e *Entity) FindChild(id EntityID) *Entity {
	for _, c := range e.children {
		if c.id == id {
			return c
		}
	}
	return nil
}

// FindChildren returns the direct children accepted by pred, in order.
func (e *Entity) FindChildren(pred func(*Entity) bool) []*Entity {
	var out []*Entity
	for _, c := range e.children {
		if pred == nil || pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// Dispose tears the entity down: scene members first (for scenes), then
// children, then every component through the destroy systems. Finally it
// detaches from its parent and leaves the world index. Repeated calls are
// no-ops.
func (e *Entity) Dispose() {
	if e == nil || e.disposed || e.disposing {
		return
	}
	e.disposing = true
	if e.members != nil {
		for _, id := range sortedIDs(e.members) {
			if m, ok := e.members[id]; ok {
				m.Dispose()
			}
		}
	}

	e.disposed = true

	for i := len(e.children) - 1; i >= 0; i-- {
		child := e.children[i]
		e.children[i] = nil
		e.children = e.children[:i]
		child.Dispose()
	}

	for _, t := range slices.Clone(e.kinds) {
		if c, ok := e.components[t]; ok {
			e.world.detach(e, t, c, nil)
		}
	}

	if p := e.Parent(); p != nil {
		p.RemoveChild(e)
	}
	e.world.removeEntity(e)
	if e.members != nil {
		clear(e.members)
	}
}
