package ecs

// interestList is the set of entities a frame system currently observes.
// Insertion order is kept until a removal swaps the last entry into the gap.
type interestList struct {
	entities []*Entity
	index    map[EntityID]int
}

func newInterestList() *interestList {
	return &interestList{index: make(map[EntityID]int)}
}

func (l *interestList) Len() int { return len(l.entities) }

func (l *interestList) contains(id EntityID) bool {
	_, ok := l.index[id]
	return ok
}

func (l *interestList) add(e *Entity) bool {
	if l.contains(e.id) {
		return false
	}
	l.index[e.id] = len(l.entities)
	l.entities = append(l.entities, e)
	return true
}

func (l *interestList) remove(id EntityID) bool {
	i, ok := l.index[id]
	if !ok {
		return false
	}
	last := len(l.entities) - 1
	if i != last {
		moved := l.entities[last]
		l.entities[i] = moved
		l.index[moved.id] = i
	}
	l.entities[last] = nil
	l.entities = l.entities[:last]
	delete(l.index, id)
	return true
}

func (l *interestList) ids() []EntityID {
	out := make([]EntityID, len(l.entities))
	for i, e := range l.entities {
		out[i] = e.id
	}
	return out
}

// refresh re-evaluates e against every frame system. It runs after each
// component add or remove and only ever looks at e.
func (w *World) refresh(e *Entity) {
	for kind := KindUpdate; kind <= KindFixedUpdate; kind++ {
		for _, reg := range w.registry.of(kind) {
			observed := !e.disposed && reg.signature.MatchedBy(e)
			present := reg.members.contains(e.id)
			switch {
			case observed && !present:
				reg.members.add(e)
			case !observed && present:
				reg.members.remove(e.id)
			}
		}
	}
}

// InterestList returns the ids currently observed by the named frame system.
// When several systems of the kind share the name the first registered wins.
func (w *World) InterestList(kind SystemKind, name string) []EntityID {
	if !kind.Tickable() {
		return nil
	}
	reg := w.registry.find(kind, name)
	if reg == nil {
		return nil
	}
	return reg.members.ids()
}

// Observes reports whether the named frame system has id in its interest list.
func (w *World) Observes(kind SystemKind, name string, id EntityID) bool {
	if !kind.Tickable() {
		return false
	}
	reg := w.registry.find(kind, name)
	return reg != nil && reg.members.contains(id)
}
