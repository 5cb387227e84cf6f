package main

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/zeusync/gameframe/internal/core/ecs"
	"github.com/zeusync/gameframe/internal/core/events/bus"
	"github.com/zeusync/gameframe/internal/core/observability/log"
	"github.com/zeusync/gameframe/internal/injector"
	"github.com/zeusync/gameframe/internal/scripting"
)

type Position struct {
	ecs.BaseComponent
	X, Y float64
}

type Velocity struct {
	ecs.BaseComponent
	DX, DY float64
}

// Lifetime disposes its entity once Left drops to zero.
type Lifetime struct {
	ecs.BaseComponent
	Left float64
}

type Hit struct{ Damage float64 }

type Expired struct{ Entity ecs.EntityID }

const arena = 100.0

func setupDemo(app *injector.App, n int) error {
	w := app.World

	err := errors.Join(
		ecs.RegisterAwake[Position](w, "position.spawn", func(p *Position, args []any) error {
			p.X, p.Y = args[0].(float64), args[1].(float64)
			return nil
		}, ecs.TypeOf[float64](), ecs.TypeOf[float64]()),
		ecs.RegisterAwake[Velocity](w, "velocity.random", func(v *Velocity, _ []any) error {
			v.DX, v.DY = rand.Float64()*2-1, rand.Float64()*2-1
			return nil
		}),
		ecs.RegisterAwake[Lifetime](w, "lifetime.set", func(l *Lifetime, args []any) error {
			l.Left = args[0].(float64)
			return nil
		}, ecs.TypeOf[float64]()),
		ecs.RegisterDestroy[Lifetime](w, "lifetime.expired", func(l *Lifetime, _ []any) error {
			return bus.Publish(context.Background(), app.Bus, Expired{Entity: l.EntityID()})
		}),
		w.RegisterUpdateSystem(ecs.Func("move", move), ecs.TypeOf[Position](), ecs.TypeOf[Velocity]()),
		w.RegisterLateUpdateSystem(ecs.Func("bounds", bounds), ecs.TypeOf[Position]()),
		w.RegisterFixedUpdateSystem(ecs.Func("age", age), ecs.TypeOf[Lifetime]()),
		ecs.RegisterMessageHandler[Hit](w, "lifetime.hit", ecs.MessageHandlerFunc[Hit](
			func(_ context.Context, e *ecs.Entity, h Hit) error {
				if l := ecs.GetComponent[Lifetime](e); l != nil {
					l.Left -= h.Damage
				}
				return nil
			})),
	)
	if err != nil {
		return err
	}

	bus.Subscribe(app.Bus, func(_ context.Context, ev Expired) error {
		app.Log.Debug("entity expired", log.Uint64("entity", uint64(ev.Entity)))
		return nil
	})

	if app.Scripts != nil && app.Scripts.HasFunction("tick") {
		if err = app.Scripts.RegisterUpdateSystem("lua.tick", "tick", ecs.TypeOf[scripting.ScriptState]()); err != nil {
			return err
		}
	}

	scene := w.CreateScene()
	for range n {
		e := w.CreateEntity()
		ecs.AddComponent[Position](e, rand.Float64()*arena, rand.Float64()*arena)
		ecs.AddComponent[Velocity](e)
		ecs.AddComponent[Lifetime](e, 5+rand.Float64()*20)
		if app.Scripts != nil {
			ecs.AddComponent[scripting.ScriptState](e)
		}
		scene.AddEntity(e)
	}
	app.Log.Info("demo scene ready", log.Uint64("scene", uint64(scene.ID())), log.Int("entities", scene.Len()))
	return nil
}

func move(e *ecs.Entity, dt float64) error {
	p, v := ecs.GetComponent[Position](e), ecs.GetComponent[Velocity](e)
	p.X += v.DX * dt
	p.Y += v.DY * dt
	return nil
}

func bounds(e *ecs.Entity, _ float64) error {
	p := ecs.GetComponent[Position](e)
	if p.X < 0 || p.X > arena || p.Y < 0 || p.Y > arena {
		return ecs.SendMessage(context.Background(), e.World(), e.ID(), Hit{Damage: 1})
	}
	return nil
}

func age(e *ecs.Entity, dt float64) error {
	l := ecs.GetComponent[Lifetime](e)
	l.Left -= dt
	if l.Left <= 0 {
		e.Dispose()
	}
	return nil
}
