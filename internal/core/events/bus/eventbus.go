package bus

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/gameframe/internal/core/observability/log"
)

// subscription implements Subscription.
type subscription struct {
	id      string
	msgType reflect.Type
	handle  func(ctx context.Context, msg any) error
	active  atomic.Bool
	cancel  func()
}

func (s *subscription) ID() string                { return s.id }
func (s *subscription) MessageType() reflect.Type { return s.msgType }
func (s *subscription) IsActive() bool            { return s.active.Load() }
func (s *subscription) Cancel() error {
	if s.active.CompareAndSwap(true, false) && s.cancel != nil {
		s.cancel()
	}
	return nil
}

type Option func(*Bus)

func WithLogger(l log.Log) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}

// Bus is the default in-memory implementation. The zero value is not usable;
// construct it with New.
type Bus struct {
	mu sync.RWMutex
	// handlers: message type -> subscriptions in subscription order
	handlers  map[reflect.Type][]*subscription
	metrics   Metrics
	observers map[Observer]struct{}
	log       log.Log
}

func New(opts ...Option) *Bus {
	b := &Bus{
		handlers:  make(map[reflect.Type][]*subscription),
		observers: make(map[Observer]struct{}),
		log:       log.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.Named("bus")
	return b
}

// Subscribe registers h for payloads of type T and returns a Subscription
// handle that can be used to cancel later.
func Subscribe[T any](b *Bus, h Handler[T]) Subscription {
	mt := reflect.TypeFor[T]()
	s := &subscription{
		id:      uuid.NewString(),
		msgType: mt,
		handle: func(ctx context.Context, msg any) error {
			return h(ctx, msg.(T))
		},
	}
	s.active.Store(true)
	s.cancel = func() { b.remove(s) }

	b.mu.Lock()
	b.handlers[mt] = append(b.handlers[mt], s)
	b.mu.Unlock()

	b.log.Debug("subscribed", log.String("type", mt.String()), log.String("id", s.id))
	return s
}

// Unsubscribe cancels the given Subscription. It is safe to call with nil.
func (b *Bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *Bus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[s.msgType]
	if i := slices.Index(subs, s); i >= 0 {
		subs = slices.Delete(subs, i, i+1)
	}
	if len(subs) == 0 {
		delete(b.handlers, s.msgType)
		return
	}
	b.handlers[s.msgType] = subs
}

// Publish delivers msg to all active subscribers of T in subscription order,
// waiting for each handler before invoking the next. Handler errors are
// joined. A cancelled ctx stops the chain.
func Publish[T any](ctx context.Context, b *Bus, msg T) error {
	return b.deliver(ctx, reflect.TypeFor[T](), msg)
}

// PublishWithFilters applies filters before delivery; if any filter returns
// false the message is dropped and not delivered to handlers.
func PublishWithFilters[T any](ctx context.Context, b *Bus, msg T, filters ...Filter[T]) error {
	for _, f := range filters {
		if !f(msg) {
			b.mu.Lock()
			if len(b.observers) > 0 {
				b.metrics.DroppedByFilters++
			}
			b.mu.Unlock()
			return nil
		}
	}
	return Publish(ctx, b, msg)
}

// PublishAsync publishes in a separate goroutine and returns a channel that
// receives the joined error (or nil) when delivery completes; then the
// channel is closed.
func PublishAsync[T any](ctx context.Context, b *Bus, msg T) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- Publish(ctx, b, msg)
		close(ch)
	}()
	return ch
}

// PublishBatch publishes msgs sequentially and aggregates errors across them.
func PublishBatch[T any](ctx context.Context, b *Bus, msgs ...T) error {
	var all error
	for _, m := range msgs {
		if err := Publish(ctx, b, m); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

func (b *Bus) AddObserver(obs Observer) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *Bus) RemoveObserver(obs Observer) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

// Metrics returns a best-effort snapshot of accumulated metrics.
func (b *Bus) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

// Types returns a snapshot of routed message types, sorted by name.
func (b *Bus) Types() []TypeInfo {
	b.mu.RLock()
	out := make([]TypeInfo, 0, len(b.handlers))
	for mt, subs := range b.handlers {
		out = append(out, TypeInfo{Name: mt.String(), Subs: len(subs)})
	}
	b.mu.RUnlock()
	slices.SortFunc(out, func(a, c TypeInfo) int { return cmp.Compare(a.Name, c.Name) })
	return out
}

func (b *Bus) deliver(ctx context.Context, mt reflect.Type, msg any) error {
	start := time.Now()
	b.mu.RLock()
	subs := slices.Clone(b.handlers[mt])
	var observers []Observer
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	name := mt.String()
	for _, obs := range observers {
		obs.OnPublish(name, msg)
	}

	var all error
	delivered := 0
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		if err := ctx.Err(); err != nil {
			all = errors.Join(all, err)
			break
		}
		delivered++
		if err := s.handle(ctx, msg); err != nil {
			all = errors.Join(all, fmt.Errorf("subscription %s: %w", s.id, err))
		}
	}
	if all != nil {
		b.log.Debug("delivery failed", log.String("type", name), log.Error(all))
	}

	if len(observers) > 0 {
		dur := time.Since(start).Microseconds()
		for _, obs := range observers {
			obs.OnDelivered(name, delivered, all, dur)
		}
		// update metrics only when observing
		b.mu.Lock()
		b.metrics.Published++
		b.metrics.DeliveredHandlers += uint64(delivered)
		if all != nil {
			b.metrics.Errors++
		}
		b.metrics.MessageTypes = uint64(len(b.handlers))
		var active uint64
		for _, m := range b.handlers {
			active += uint64(len(m))
		}
		b.metrics.SubscribersActive = active
		b.mu.Unlock()
	}
	return all
}
