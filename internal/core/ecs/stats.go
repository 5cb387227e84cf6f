package ecs

type counters struct {
	ticks    [kindCount]uint64
	messages uint64
	rpcs     uint64
}

// SystemStats describes one registered system.
type SystemStats struct {
	Kind        string   `json:"kind"`
	Name        string   `json:"name"`
	Signature   string   `json:"signature"`
	Params      []string `json:"params,omitempty"`
	Interest    int      `json:"interest"`
	Invocations uint64   `json:"invocations"`
	Failures    uint64   `json:"failures"`
	Panics      uint64   `json:"panics"`
}

// Stats is a point-in-time view of a world, safe to hand to other goroutines.
type Stats struct {
	Entities      int           `json:"entities"`
	Scenes        int           `json:"scenes"`
	Systems       []SystemStats `json:"systems"`
	UpdateTicks   uint64        `json:"update_ticks"`
	LateTicks     uint64        `json:"late_update_ticks"`
	FixedTicks    uint64        `json:"fixed_update_ticks"`
	Messages      uint64        `json:"messages"`
	Rpcs          uint64        `json:"rpcs"`
	InstanceIDTop uint64        `json:"instance_id_top"`
}

func (w *World) Stats() Stats {
	s := Stats{
		Entities:      len(w.entities),
		UpdateTicks:   w.counters.ticks[KindUpdate],
		LateTicks:     w.counters.ticks[KindLateUpdate],
		FixedTicks:    w.counters.ticks[KindFixedUpdate],
		Messages:      w.counters.messages,
		Rpcs:          w.counters.rpcs,
		InstanceIDTop: w.ids.CurrentInstanceID(),
	}
	for _, e := range w.entities {
		if e.members != nil {
			s.Scenes++
		}
	}
	for kind := KindAwake; kind < kindCount; kind++ {
		for _, reg := range w.registry.of(kind) {
			st := SystemStats{
				Kind:        kind.String(),
				Name:        reg.name,
				Signature:   reg.signature.String(),
				Params:      reg.paramNames(),
				Invocations: reg.invocations,
				Failures:    reg.failures,
				Panics:      reg.panics,
			}
			if reg.members != nil {
				st.Interest = reg.members.Len()
			}
			s.Systems = append(s.Systems, st)
		}
	}
	return s
}
