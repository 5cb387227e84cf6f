package framework

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/gameframe/internal/config"
	"github.com/zeusync/gameframe/internal/core/observability/log"
)

var ErrHostStopped = errors.New("framework: host stopped")

// Service runs next to the frame loop for the lifetime of Host.Run, e.g. an
// HTTP endpoint. Serve must return once ctx is cancelled.
type Service interface {
	Name() string
	Serve(ctx context.Context) error
}

// Host owns the frame loop. All framework calls, and every job handed to
// Post, run on the loop goroutine.
type Host struct {
	fw       *Framework
	cfg      config.HostConfig
	log      log.Log
	services []Service

	jobs     chan func()
	done     chan struct{}
	stopOnce sync.Once

	accumulator time.Duration
	frames      uint64
	fixedFrames uint64
}

func NewHost(fw *Framework, cfg config.HostConfig, logger log.Log, services ...Service) *Host {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Host{
		fw:       fw,
		cfg:      cfg,
		log:      logger.Named("host"),
		services: services,
		jobs:     make(chan func(), max(cfg.JobQueue, 1)),
		done:     make(chan struct{}),
	}
}

func (h *Host) Framework() *Framework { return h.fw }

// AddService registers s to run alongside the loop. It must be called before Run.
func (h *Host) AddService(s Service) { h.services = append(h.services, s) }

// Post queues fn for the next frame. It blocks while the queue is full.
func (h *Host) Post(ctx context.Context, fn func()) error {
	select {
	case <-h.done:
		return ErrHostStopped
	default:
	}
	select {
	case h.jobs <- fn:
		return nil
	case <-h.done:
		return ErrHostStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call runs fn on the loop goroutine and waits for its result.
func Call[T any](ctx context.Context, h *Host, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	var zero T
	out := make(chan result, 1)
	if err := h.Post(ctx, func() {
		v, err := fn()
		out <- result{v, err}
	}); err != nil {
		return zero, err
	}
	select {
	case r := <-out:
		return r.v, r.err
	case <-h.done:
		return zero, ErrHostStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Step advances one frame by dt: queued jobs first, then as many fixed steps
// as the accumulator allows, then update and late update.
func (h *Host) Step(dt time.Duration) {
	h.drain()

	h.accumulator += dt
	fixed := h.cfg.FixedStep
	steps := 0
	for fixed > 0 && h.accumulator >= fixed && steps < h.cfg.MaxFixedSteps {
		h.fw.FixedUpdate(fixed.Seconds())
		h.accumulator -= fixed
		h.fixedFrames++
		steps++
	}
	if fixed > 0 && h.accumulator >= fixed {
		h.log.Warn("dropping fixed steps", log.Duration("backlog", h.accumulator), log.Int("max", h.cfg.MaxFixedSteps))
		h.accumulator %= fixed
	}

	seconds := dt.Seconds()
	h.fw.Update(seconds)
	h.fw.LateUpdate(seconds)
	h.frames++
}

// Frames reports how many variable and fixed frames ran.
func (h *Host) Frames() (frames, fixed uint64) { return h.frames, h.fixedFrames }

func (h *Host) drain() {
	for {
		select {
		case job := <-h.jobs:
			job()
		default:
			return
		}
	}
}

// Run initializes and starts the framework, then drives frames until ctx is
// cancelled or a service fails. The framework is stopped on the way out.
func (h *Host) Run(ctx context.Context) error {
	if err := h.fw.Init(ctx); err != nil {
		return err
	}
	if err := h.fw.Start(ctx); err != nil {
		_ = h.fw.Stop(context.WithoutCancel(ctx))
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.loop(gctx) })
	for _, s := range h.services {
		g.Go(func() error {
			h.log.Info("service started", log.String("service", s.Name()))
			if err := s.Serve(gctx); err != nil {
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
			return nil
		})
	}
	err := g.Wait()

	stopErr := h.fw.Stop(context.WithoutCancel(ctx))
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		err = nil
	}
	return errors.Join(err, stopErr)
}

func (h *Host) loop(ctx context.Context) error {
	defer h.stopOnce.Do(func() { close(h.done) })

	interval := h.cfg.FrameInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.log.Info("frame loop started", log.Duration("interval", interval), log.Duration("fixed_step", h.cfg.FixedStep))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			h.drain()
			return ctx.Err()
		case now := <-ticker.C:
			h.Step(now.Sub(last))
			last = now
		}
	}
}
