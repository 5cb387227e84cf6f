package framework

import (
	"context"

	"github.com/zeusync/gameframe/internal/core/ecs"
	"github.com/zeusync/gameframe/internal/core/events/bus"
)

// Module is a unit driven by the Framework through the host lifecycle.
type Module interface {
	Name() string
	Init(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	Update(dt float64)
	LateUpdate(dt float64)
	FixedUpdate(dt float64)
}

// BaseModule implements every Module hook as a no-op. Embed it and override
// what the module needs.
type BaseModule struct {
	name string
}

func NewBaseModule(name string) BaseModule { return BaseModule{name: name} }

func (m BaseModule) Name() string                { return m.name }
func (m BaseModule) Init(context.Context) error  { return nil }
func (m BaseModule) Start(context.Context) error { return nil }
func (m BaseModule) Stop(context.Context) error  { return nil }
func (m BaseModule) Update(float64)              {}
func (m BaseModule) LateUpdate(float64)          {}
func (m BaseModule) FixedUpdate(float64)         {}

const (
	ECSModuleName     = "ecs"
	MessageModuleName = "message"
)

// ECSModule drives a world from the host phases.
type ECSModule struct {
	BaseModule
	World *ecs.World
}

func NewECSModule(w *ecs.World) *ECSModule {
	return &ECSModule{BaseModule: NewBaseModule(ECSModuleName), World: w}
}

func (m *ECSModule) Update(dt float64)      { m.World.Update(dt) }
func (m *ECSModule) LateUpdate(dt float64)  { m.World.LateUpdate(dt) }
func (m *ECSModule) FixedUpdate(dt float64) { m.World.FixedUpdate(dt) }

// Stop disposes every remaining root entity so destroy systems get to run.
func (m *ECSModule) Stop(context.Context) error {
	for _, id := range m.World.EntityIDs() {
		if e, ok := m.World.FindEntity(id); ok && e.ParentID() == ecs.NoEntity {
			e.Dispose()
		}
	}
	return nil
}

// MessageModule exposes the global bus and wait/notify monitor.
type MessageModule struct {
	BaseModule
	Bus     *bus.Bus
	Monitor *bus.Monitor
}

func NewMessageModule(b *bus.Bus, m *bus.Monitor) *MessageModule {
	return &MessageModule{BaseModule: NewBaseModule(MessageModuleName), Bus: b, Monitor: m}
}
