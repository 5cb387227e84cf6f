package ecs

import "fmt"

// Phase selects which frame systems a Tick drives.
type Phase uint8

const (
	PhaseUpdate Phase = iota
	PhaseLateUpdate
	PhaseFixedUpdate
)

func (p Phase) String() string {
	switch p {
	case PhaseUpdate:
		return "update"
	case PhaseLateUpdate:
		return "late_update"
	case PhaseFixedUpdate:
		return "fixed_update"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

func (p Phase) kind() SystemKind {
	switch p {
	case PhaseLateUpdate:
		return KindLateUpdate
	case PhaseFixedUpdate:
		return KindFixedUpdate
	default:
		return KindUpdate
	}
}

func (w *World) Update(dt float64)      { w.Tick(PhaseUpdate, dt) }
func (w *World) LateUpdate(dt float64)  { w.Tick(PhaseLateUpdate, dt) }
func (w *World) FixedUpdate(dt float64) { w.Tick(PhaseFixedUpdate, dt) }

// Tick runs every system of the phase in registration order. Each system
// iterates a snapshot of its interest list, so systems may add or remove
// components and entities while running.
func (w *World) Tick(phase Phase, dt float64) {
	w.counters.ticks[phase.kind()]++
	// Systems registered during the pass join on the next tick.
	for _, reg := range w.registry.of(phase.kind()) {
		w.runSystem(reg, dt)
	}
}

func (w *World) runSystem(reg *registration, dt float64) {
	if reg.members.Len() == 0 {
		return
	}

	snap := w.snapshots.Obtain()
	*snap = append(*snap, reg.members.entities...)
	defer w.snapshots.Release(snap)

	if w.cfg.RecoverPanics {
		defer func() {
			if r := recover(); r != nil {
				reg.panics++
				w.log.Error("system panicked",
					stringerField("kind", reg.kind), nameField(reg.name), errField(fmt.Errorf("%v", r)))
			}
		}()
	}

	for _, e := range *snap {
		// Earlier entities of this pass may have disposed or changed e.
		if e.disposed || !reg.signature.MatchedBy(e) {
			continue
		}
		reg.invocations++
		if err := reg.tick(e, dt); err != nil {
			reg.failures++
			w.log.Error("system failed",
				stringerField("kind", reg.kind), nameField(reg.name), entityField(e.id), errField(err))
		}
	}
}
