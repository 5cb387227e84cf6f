package ecs

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/zeusync/gameframe/internal/core/ecs/idgen"
	"github.com/zeusync/gameframe/internal/core/observability/log"
	"github.com/zeusync/gameframe/pkg/generic"
)

// Config tunes a World. It is embedded in the application config file.
//
// WarnMissingAwake and RecoverPanics are on by default. Turning
// WarnMissingAwake off silences the report for components added without a
// matching awake system. Turning RecoverPanics off lets a panicking system
// unwind through Tick and the host loop; use it only in tests or under a
// debugger.
type Config struct {
	EntityCapacity   int  `yaml:"entity_capacity" toml:"entity_capacity"`
	WarnMissingAwake bool `yaml:"warn_missing_awake" toml:"warn_missing_awake"`
	RecoverPanics    bool `yaml:"recover_panics" toml:"recover_panics"`
	// SnapshotRetain caps the capacity of pooled dispatch snapshots.
	SnapshotRetain int `yaml:"snapshot_retain" toml:"snapshot_retain"`
}

func DefaultConfig() Config {
	return Config{
		EntityCapacity:   256,
		WarnMissingAwake: true,
		RecoverPanics:    true,
		SnapshotRetain:   4096,
	}
}

type Option func(*World)

func WithLogger(l log.Log) Option {
	return func(w *World) {
		if l != nil {
			w.log = l
		}
	}
}

func WithIDGenerator(g *idgen.Generator) Option {
	return func(w *World) {
		if g != nil {
			w.ids = g
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(w *World) { w.cfg = cfg }
}

// World is the ECS module: it owns the entity index, every system
// registration, the interest lists and the message/rpc handler tables.
// A World is not safe for concurrent use; drive it from one goroutine.
type World struct {
	cfg      Config
	log      log.Log
	ids      *idgen.Generator
	entities map[EntityID]*Entity
	registry *registry

	messages map[reflect.Type][]*messageEntry
	rpcs     map[reflect.Type]*rpcEntry

	snapshots *generic.ListPool[*Entity]
	counters  counters
}

func NewWorld(opts ...Option) *World {
	w := &World{
		cfg:      DefaultConfig(),
		log:      log.NewNop(),
		ids:      idgen.New(),
		registry: newRegistry(),
		messages: make(map[reflect.Type][]*messageEntry),
		rpcs:     make(map[reflect.Type]*rpcEntry),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.Named("ecs")
	w.entities = make(map[EntityID]*Entity, max(w.cfg.EntityCapacity, 0))
	w.snapshots = generic.NewListPool[*Entity](64, w.cfg.SnapshotRetain)
	return w
}

func (w *World) Logger() log.Log       { return w.log }
func (w *World) IDs() *idgen.Generator { return w.ids }
func (w *World) Config() Config        { return w.cfg }
func (w *World) EntityCount() int      { return len(w.entities) }

// CreateEntity allocates an entity and registers it in the world index.
// IDs still held by live entities are skipped, so a reset generator never
// overwrites an indexed entity.
func (w *World) CreateEntity() *Entity {
	id := EntityID(w.ids.NewInstanceID())
	for w.entities[id] != nil {
		w.log.Warn("instance id in use", entityField(id))
		id = EntityID(w.ids.NewInstanceID())
	}
	e := newEntity(w, id)
	w.entities[e.id] = e
	return e
}

func (w *World) CreateScene() *Scene {
	e := w.CreateEntity()
	e.members = make(map[EntityID]*Entity)
	return &Scene{Entity: e}
}

func (w *World) FindEntity(id EntityID) (*Entity, bool) {
	if id == NoEntity {
		return nil, false
	}
	e, ok := w.entities[id]
	return e, ok
}

// FindScene is FindEntity restricted to scenes.
func (w *World) FindScene(id EntityID) (*Scene, bool) {
	e, ok := w.FindEntity(id)
	if !ok || e.members == nil {
		return nil, false
	}
	return &Scene{Entity: e}, true
}

// DestroyEntity disposes the entity with the given id. It reports whether
// an entity was found.
func (w *World) DestroyEntity(id EntityID) bool {
	e, ok := w.FindEntity(id)
	if !ok {
		return false
	}
	e.Dispose()
	return true
}

// EntityIDs lists live entity ids in creation order.
func (w *World) EntityIDs() []EntityID {
	return w.sortedEntityIDs()
}

func (w *World) sortedEntityIDs() []EntityID {
	return slices.Sorted(maps.Keys(w.entities))
}

func (w *World) removeEntity(e *Entity) {
	delete(w.entities, e.id)
	if s := e.Scene(); s != nil {
		s.RemoveEntity(e.id)
	}
	e.sceneID = NoEntity
}

// attach installs c on e under t, evicting any previous instance through the
// full destroy path, then runs awake systems and refreshes interest lists.
func (w *World) attach(e *Entity, t ComponentType, c Component, args []any) bool {
	if e.disposed {
		w.log.Warn("add component on disposed entity", stringerField("component", t), entityField(e.id))
		return false
	}
	if old, ok := e.components[t]; ok {
		w.detach(e, t, old, nil)
	}

	b := c.base()
	b.id = ComponentID(w.ids.NewInstanceID())
	b.entityID = e.id
	b.world = w
	e.components[t] = c
	e.kinds = append(e.kinds, t)

	w.awake(t, c, args)
	w.refresh(e)
	return true
}

func (w *World) detach(e *Entity, t ComponentType, c Component, args []any) {
	delete(e.components, t)
	if i := slices.Index(e.kinds, t); i >= 0 {
		e.kinds = slices.Delete(e.kinds, i, i+1)
	}
	w.destroy(t, c, args)
	c.base().disposed = true
	w.refresh(e)
}

func (w *World) awake(t ComponentType, c Component, args []any) {
	found := false
	for _, reg := range w.registry.of(KindAwake) {
		if !reg.signature.Contains(t) || !reg.accepts(args) {
			continue
		}
		found = true
		if err := reg.awake.Awake(c, args); err != nil {
			reg.failures++
			w.log.Error("awake system failed", nameField(reg.name), stringerField("component", t), errField(err))
		}
		reg.invocations++
	}
	if !found && w.cfg.WarnMissingAwake {
		w.log.Warn("awake system not found", stringerField("component", t), log.Strings("params", argTypeNames(args)))
	}
}

func (w *World) destroy(t ComponentType, c Component, args []any) {
	for _, reg := range w.registry.of(KindDestroy) {
		if !reg.signature.Contains(t) || !reg.accepts(args) {
			continue
		}
		if err := reg.destroy.Destroy(c, args); err != nil {
			reg.failures++
			w.log.Error("destroy system failed", nameField(reg.name), stringerField("component", t), errField(err))
		}
		reg.invocations++
	}
}

func argTypeNames(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			out[i] = "nil"
			continue
		}
		out[i] = reflect.TypeOf(a).String()
	}
	return out
}

func entityField(id EntityID) log.Field   { return log.Uint64("entity", uint64(id)) }
func nameField(name string) log.Field     { return log.String("system", name) }
func errField(err error) log.Field        { return log.Error(err) }
func intField(k string, v int) log.Field  { return log.Int(k, v) }

func uint64Field(k string, v uint64) log.Field { return log.Uint64(k, v) }

func stringerField(k string, v fmt.Stringer) log.Field { return log.Stringer(k, v) }
