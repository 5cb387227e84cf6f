package ecs

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// registration is the immutable record kept for every registered system.
type registration struct {
	kind      SystemKind
	name      string
	signature Signature
	params    []reflect.Type
	key       uint64

	awake   AwakeSystem
	destroy DestroySystem
	tick    TickFunc

	// members is the interest list; nil for awake and destroy systems.
	members *interestList

	invocations uint64
	failures    uint64
	panics      uint64
}

func (r *registration) computeKey() uint64 {
	d := xxhash.New()
	var buf [8]byte
	_, _ = d.Write([]byte{byte(r.kind)})
	_, _ = d.WriteString(r.name)
	_, _ = d.Write([]byte{0})
	binary.LittleEndian.PutUint64(buf[:], r.signature.Key())
	_, _ = d.Write(buf[:])
	for _, p := range r.params {
		_, _ = d.WriteString(typeKey(p))
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// accepts reports whether args fit the registered parameter list.
func (r *registration) accepts(args []any) bool {
	if len(args) != len(r.params) {
		return false
	}
	for i, a := range args {
		p := r.params[i]
		if a == nil {
			switch p.Kind() {
			case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
				continue
			}
			return false
		}
		if !reflect.TypeOf(a).AssignableTo(p) {
			return false
		}
	}
	return true
}

func (r *registration) paramNames() []string {
	out := make([]string, len(r.params))
	for i, p := range r.params {
		out[i] = p.String()
	}
	return out
}

// registry holds every system per kind in registration order.
type registry struct {
	systems [kindCount][]*registration
	keys    map[uint64]*registration
}

func newRegistry() *registry {
	return &registry{keys: make(map[uint64]*registration)}
}

func (r *registry) add(reg *registration) error {
	reg.key = reg.computeKey()
	if _, dup := r.keys[reg.key]; dup {
		return fmt.Errorf("%w: %s system %q %s", ErrDuplicateSystem, reg.kind, reg.name, reg.signature)
	}
	r.keys[reg.key] = reg
	r.systems[reg.kind] = append(r.systems[reg.kind], reg)
	return nil
}

func (r *registry) of(kind SystemKind) []*registration {
	return r.systems[kind]
}

func (r *registry) find(kind SystemKind, name string) *registration {
	i := slices.IndexFunc(r.systems[kind], func(reg *registration) bool { return reg.name == name })
	if i < 0 {
		return nil
	}
	return r.systems[kind][i]
}

func (w *World) RegisterAwakeSystem(sys AwakeSystem, component ComponentType, params ...ComponentType) error {
	if sys == nil {
		return ErrNilSystem
	}
	return w.registerLifecycle(&registration{kind: KindAwake, name: sys.Name(), awake: sys}, component, params)
}

func (w *World) RegisterDestroySystem(sys DestroySystem, component ComponentType, params ...ComponentType) error {
	if sys == nil {
		return ErrNilSystem
	}
	return w.registerLifecycle(&registration{kind: KindDestroy, name: sys.Name(), destroy: sys}, component, params)
}

func (w *World) RegisterUpdateSystem(sys UpdateSystem, types ...ComponentType) error {
	if sys == nil {
		return ErrNilSystem
	}
	return w.registerTickable(KindUpdate, sys.Name(), sys.Update, types)
}

func (w *World) RegisterLateUpdateSystem(sys LateUpdateSystem, types ...ComponentType) error {
	if sys == nil {
		return ErrNilSystem
	}
	return w.registerTickable(KindLateUpdate, sys.Name(), sys.LateUpdate, types)
}

func (w *World) RegisterFixedUpdateSystem(sys FixedUpdateSystem, types ...ComponentType) error {
	if sys == nil {
		return ErrNilSystem
	}
	return w.registerTickable(KindFixedUpdate, sys.Name(), sys.FixedUpdate, types)
}

func (w *World) registerLifecycle(reg *registration, component ComponentType, params []ComponentType) error {
	sig, err := NewSignature(component)
	if err != nil {
		w.log.Warn("rejected system", stringerField("kind", reg.kind), nameField(reg.name), errField(err))
		return err
	}
	for _, p := range params {
		if p == nil {
			err = fmt.Errorf("%w: nil parameter type", ErrInvalidSignature)
			w.log.Warn("rejected system", stringerField("kind", reg.kind), nameField(reg.name), errField(err))
			return err
		}
	}
	reg.signature = sig
	reg.params = slices.Clone(params)
	return w.register(reg)
}

func (w *World) registerTickable(kind SystemKind, name string, fn TickFunc, types []ComponentType) error {
	sig, err := NewSignature(types...)
	if err != nil {
		w.log.Warn("rejected system", stringerField("kind", kind), nameField(name), errField(err))
		return err
	}
	reg := &registration{
		kind:      kind,
		name:      name,
		signature: sig,
		tick:      fn,
		members:   newInterestList(),
	}
	if err = w.register(reg); err != nil {
		return err
	}
	// Entities created before the system joined still have to be observed.
	for _, id := range w.sortedEntityIDs() {
		if e := w.entities[id]; sig.MatchedBy(e) {
			reg.members.add(e)
		}
	}
	return nil
}

func (w *World) register(reg *registration) error {
	if err := w.registry.add(reg); err != nil {
		w.log.Warn("duplicated system",
			stringerField("kind", reg.kind), nameField(reg.name), stringerField("signature", reg.signature))
		return err
	}
	w.log.Debug("system registered",
		stringerField("kind", reg.kind), nameField(reg.name), stringerField("signature", reg.signature))
	return nil
}
