package injector

import (
	"errors"

	"github.com/google/wire"

	"github.com/zeusync/gameframe/internal/config"
	"github.com/zeusync/gameframe/internal/core/ecs"
	"github.com/zeusync/gameframe/internal/core/ecs/idgen"
	"github.com/zeusync/gameframe/internal/core/events/bus"
	"github.com/zeusync/gameframe/internal/core/observability/log"
	"github.com/zeusync/gameframe/internal/framework"
	"github.com/zeusync/gameframe/internal/inspector"
	"github.com/zeusync/gameframe/internal/scripting"
)

// App is the fully wired game host.
type App struct {
	Config    *config.Config
	Log       log.Log
	World     *ecs.World
	Bus       *bus.Bus
	Monitor   *bus.Monitor
	Framework *framework.Framework
	Host      *framework.Host
	Scripts   *scripting.Engine
	Inspector *inspector.Inspector
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	idgen.New,
	ProvideWorld,
	ProvideBus,
	bus.NewMonitor,
	ProvideFramework,
	ProvideHost,
	ProvideScripting,
	ProvideInspector,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg *config.Config) (log.Log, func(), error) {
	l, err := log.New(cfg.Logging.LogOptions())
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Sync() }, nil
}

func ProvideWorld(cfg *config.Config, ids *idgen.Generator, logger log.Log) *ecs.World {
	return ecs.NewWorld(ecs.WithConfig(cfg.ECS), ecs.WithIDGenerator(ids), ecs.WithLogger(logger))
}

func ProvideBus(logger log.Log) *bus.Bus {
	return bus.New(bus.WithLogger(logger))
}

func ProvideFramework(logger log.Log, w *ecs.World, b *bus.Bus, m *bus.Monitor) (*framework.Framework, error) {
	fw := framework.New(logger)
	err := errors.Join(
		fw.AddModule(framework.NewECSModule(w)),
		fw.AddModule(framework.NewMessageModule(b, m)),
	)
	if err != nil {
		return nil, err
	}
	return fw, nil
}

func ProvideHost(cfg *config.Config, fw *framework.Framework, logger log.Log) *framework.Host {
	return framework.NewHost(fw, cfg.Host, logger)
}

// ProvideScripting returns nil when scripting is disabled.
func ProvideScripting(cfg *config.Config, w *ecs.World, logger log.Log) (*scripting.Engine, func(), error) {
	if !cfg.Scripting.Enabled {
		return nil, func() {}, nil
	}
	eng := scripting.NewEngine(w, logger)
	for _, path := range cfg.Scripting.Scripts {
		if err := eng.LoadFile(path); err != nil {
			eng.Close()
			return nil, nil, err
		}
	}
	return eng, eng.Close, nil
}

// ProvideInspector returns nil when the inspector is disabled. Otherwise it
// registers itself as a host service.
func ProvideInspector(cfg *config.Config, h *framework.Host, w *ecs.World, b *bus.Bus, logger log.Log) *inspector.Inspector {
	if !cfg.Inspector.Enabled {
		return nil
	}
	insp := inspector.New(cfg.Inspector, inspector.HostSource(h, w, b), logger)
	h.AddService(insp)
	return insp
}
