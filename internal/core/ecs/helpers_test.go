package ecs

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/gameframe/internal/core/observability/log"
)

type Position struct {
	BaseComponent
	X, Y float64
}

type Velocity struct {
	BaseComponent
	DX, DY float64
}

type Health struct {
	BaseComponent
	HP int
}

func newTestWorld(t *testing.T, opts ...Option) (*World, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	opts = append([]Option{WithLogger(log.NewWithCore(core))}, opts...)
	return NewWorld(opts...), logs
}

// recorder collects the entities a tick function was called with.
type recorder struct {
	calls []EntityID
}

func (r *recorder) tick(e *Entity, _ float64) error {
	r.calls = append(r.calls, e.ID())
	return nil
}
