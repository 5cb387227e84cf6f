package ecs

import (
	"maps"
	"slices"
)

// Scene is an entity that also keeps a flat registry of member entities.
// Membership is independent from the parent/child tree.
type Scene struct {
	*Entity
}

// AddEntity moves e into the scene, leaving whatever scene it was in.
func (s *Scene) AddEntity(e *Entity) {
	if e == nil || e.disposed || s.disposed || e == s.Entity || e.world != s.world {
		return
	}
	if old := e.Scene(); old != nil {
		old.RemoveEntity(e.id)
	}
	s.members[e.id] = e
	e.sceneID = s.id
	s.world.log.Debug("scene add entity", entityField(e.id), uint64Field("scene", uint64(s.id)), intField("count", len(s.members)))
}

func (s *Scene) RemoveEntity(id EntityID) {
	m, ok := s.members[id]
	if !ok {
		return
	}
	delete(s.members, id)
	if m.sceneID == s.id {
		m.sceneID = NoEntity
	}
	s.world.log.Debug("scene remove entity", entityField(id), uint64Field("scene", uint64(s.id)), intField("count", len(s.members)))
}

func (s *Scene) Contains(id EntityID) bool {
	_, ok := s.members[id]
	return ok
}

func (s *Scene) Len() int { return len(s.members) }

// EntityIDs lists members in ascending id order.
func (s *Scene) EntityIDs() []EntityID {
	return sortedIDs(s.members)
}

func (s *Scene) FindEntity(id EntityID) (*Entity, bool) {
	e, ok := s.members[id]
	return e, ok
}

// FindEntities returns the ids of members accepted by pred.
func (s *Scene) FindEntities(pred func(*Entity) bool) []EntityID {
	var out []EntityID
	for _, id := range sortedIDs(s.members) {
		if pred == nil || pred(s.members[id]) {
			out = append(out, id)
		}
	}
	return out
}

// FindEntitiesWithComponent returns the ids of members owning t.
func (s *Scene) FindEntitiesWithComponent(t ComponentType) []EntityID {
	return s.FindEntities(func(e *Entity) bool { return e.Has(t) })
}

func sortedIDs(m map[EntityID]*Entity) []EntityID {
	return slices.Sorted(maps.Keys(m))
}
