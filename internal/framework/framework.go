package framework

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeusync/gameframe/internal/core/observability/log"
)

var (
	ErrDuplicateModule = errors.New("framework: duplicate module")
	ErrNilModule       = errors.New("framework: nil module")
	ErrAlreadyStarted  = errors.New("framework: already initialized")
	ErrNotInitialized  = errors.New("framework: start before init")
)

type state uint8

const (
	stateCreated state = iota
	stateInitialized
	stateStarted
	stateStopped
)

// Framework owns the modules and fans every lifecycle call out to them in
// the order they were added. Stop runs in reverse order.
type Framework struct {
	modules []Module
	byName  map[string]Module
	state   state
	log     log.Log
}

func New(logger log.Log) *Framework {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Framework{
		byName: make(map[string]Module),
		log:    logger.Named("framework"),
	}
}

func (f *Framework) AddModule(m Module) error {
	if m == nil {
		return ErrNilModule
	}
	if f.state != stateCreated {
		return ErrAlreadyStarted
	}
	name := m.Name()
	if _, dup := f.byName[name]; dup {
		f.log.Warn("duplicated module", log.String("module", name))
		return fmt.Errorf("%w: %s", ErrDuplicateModule, name)
	}
	f.modules = append(f.modules, m)
	f.byName[name] = m
	return nil
}

func (f *Framework) Module(name string) (Module, bool) {
	m, ok := f.byName[name]
	return m, ok
}

// ModuleOf returns the first module of type T.
func ModuleOf[T Module](f *Framework) (T, bool) {
	for _, m := range f.modules {
		if t, ok := m.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

func (f *Framework) Modules() []string {
	out := make([]string, len(f.modules))
	for i, m := range f.modules {
		out[i] = m.Name()
	}
	return out
}

func (f *Framework) Init(ctx context.Context) error {
	if f.state != stateCreated {
		return ErrAlreadyStarted
	}
	for _, m := range f.modules {
		if err := m.Init(ctx); err != nil {
			f.log.Error("module init failed", log.String("module", m.Name()), log.Error(err))
			return fmt.Errorf("init %s: %w", m.Name(), err)
		}
		f.log.Debug("module initialized", log.String("module", m.Name()))
	}
	f.state = stateInitialized
	return nil
}

func (f *Framework) Start(ctx context.Context) error {
	if f.state != stateInitialized {
		return ErrNotInitialized
	}
	for _, m := range f.modules {
		if err := m.Start(ctx); err != nil {
			f.log.Error("module start failed", log.String("module", m.Name()), log.Error(err))
			return fmt.Errorf("start %s: %w", m.Name(), err)
		}
	}
	f.state = stateStarted
	f.log.Info("framework started", log.Strings("modules", f.Modules()))
	return nil
}

// Update and the other phase calls are ignored until Start succeeded.
func (f *Framework) Update(dt float64) {
	if f.state != stateStarted {
		return
	}
	for _, m := range f.modules {
		m.Update(dt)
	}
}

func (f *Framework) LateUpdate(dt float64) {
	if f.state != stateStarted {
		return
	}
	for _, m := range f.modules {
		m.LateUpdate(dt)
	}
}

func (f *Framework) FixedUpdate(dt float64) {
	if f.state != stateStarted {
		return
	}
	for _, m := range f.modules {
		m.FixedUpdate(dt)
	}
}

// Stop stops every module in reverse order and joins their errors. It is a
// no-op before Init and after a previous Stop.
func (f *Framework) Stop(ctx context.Context) error {
	if f.state == stateCreated || f.state == stateStopped {
		return nil
	}
	var errs []error
	for i := len(f.modules) - 1; i >= 0; i-- {
		m := f.modules[i]
		if err := m.Stop(ctx); err != nil {
			f.log.Error("module stop failed", log.String("module", m.Name()), log.Error(err))
			errs = append(errs, fmt.Errorf("stop %s: %w", m.Name(), err))
		}
	}
	f.state = stateStopped
	f.log.Info("framework stopped")
	return errors.Join(errs...)
}
