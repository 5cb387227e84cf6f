package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type testObserver struct {
	mu             sync.Mutex
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ any) {
	o.mu.Lock()
	o.publishCount++
	o.mu.Unlock()
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ int64) {
	o.mu.Lock()
	o.deliveredCount += handlers
	o.lastErr = err
	o.mu.Unlock()
}

type loaded struct{ Asset string }

type closed struct{ Reason string }

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got string
	sub := Subscribe(b, func(_ context.Context, m loaded) error {
		got = m.Asset
		return nil
	})
	if sub.ID() == "" || !sub.IsActive() {
		t.Fatalf("bad subscription: %q active=%v", sub.ID(), sub.IsActive())
	}
	if err := Publish(context.Background(), b, loaded{Asset: "hero.png"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got != "hero.png" {
		t.Fatalf("handler not called, got %q", got)
	}
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := range 5 {
		Subscribe(b, func(context.Context, loaded) error {
			order = append(order, i)
			return nil
		})
	}
	_ = Publish(context.Background(), b, loaded{})
	for i, v := range order {
		if v != i {
			t.Fatalf("out of order: %v", order)
		}
	}
	if len(order) != 5 {
		t.Fatalf("expected 5 deliveries, got %d", len(order))
	}
}

func TestTypesAreIsolated(t *testing.T) {
	b := New()
	count1, count2 := 0, 0
	Subscribe(b, func(context.Context, loaded) error { count1++; return nil })
	Subscribe(b, func(context.Context, closed) error { count2++; return nil })
	_ = Publish(context.Background(), b, loaded{})
	if count1 != 1 || count2 != 0 {
		t.Fatalf("type isolation failed: %d %d", count1, count2)
	}
	types := b.Types()
	if len(types) != 2 || types[0].Name != "bus.closed" || types[1].Subs != 1 {
		t.Fatalf("unexpected types: %+v", types)
	}
}

func TestErrorsAreJoined(t *testing.T) {
	b := New()
	e1, e2 := errors.New("one"), errors.New("two")
	Subscribe(b, func(context.Context, loaded) error { return e1 })
	Subscribe(b, func(context.Context, loaded) error { return nil })
	Subscribe(b, func(context.Context, loaded) error { return e2 })
	err := Publish(context.Background(), b, loaded{})
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("expected joined error, got %v", err)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	sub := Subscribe(b, func(context.Context, loaded) error { calls++; return nil })
	_ = Publish(context.Background(), b, loaded{})
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	_ = sub.Cancel()
	_ = b.Unsubscribe(nil)
	_ = Publish(context.Background(), b, loaded{})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if sub.IsActive() {
		t.Fatal("subscription still active")
	}
	if len(b.Types()) != 0 {
		t.Fatalf("type not released: %+v", b.Types())
	}
}

func TestCancelInsideHandler(t *testing.T) {
	b := New()
	var second Subscription
	calls := 0
	Subscribe(b, func(context.Context, loaded) error {
		_ = second.Cancel()
		return nil
	})
	second = Subscribe(b, func(context.Context, loaded) error { calls++; return nil })
	_ = Publish(context.Background(), b, loaded{})
	if calls != 0 {
		t.Fatalf("cancelled handler ran %d times", calls)
	}
}

func TestCancelledContextStopsChain(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	for range 3 {
		Subscribe(b, func(context.Context, loaded) error {
			calls++
			cancel()
			return nil
		})
	}
	err := Publish(ctx, b, loaded{})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("expected cancellation after first handler: calls=%d err=%v", calls, err)
	}
}

func TestPublishAsyncReturnsErrorChannel(t *testing.T) {
	b := New()
	handlerErr := errors.New("fail")
	Subscribe(b, func(context.Context, closed) error { return handlerErr })
	ch := PublishAsync(context.Background(), b, closed{})
	select {
	case err := <-ch:
		if !errors.Is(err, handlerErr) {
			t.Fatalf("expected handler error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("async publish did not complete")
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel not closed")
	}
}

func TestPublishWithFiltersAndBatch(t *testing.T) {
	b := New()
	obs := &testObserver{}
	b.AddObserver(obs)
	var got []string
	Subscribe(b, func(_ context.Context, c closed) error {
		got = append(got, c.Reason)
		return nil
	})

	onlyQuit := func(c closed) bool { return c.Reason == "quit" }
	_ = PublishWithFilters(context.Background(), b, closed{Reason: "idle"}, onlyQuit)
	_ = PublishWithFilters(context.Background(), b, closed{Reason: "quit"}, onlyQuit)
	_ = PublishBatch(context.Background(), b, closed{Reason: "a"}, closed{Reason: "b"})

	if len(got) != 3 || got[0] != "quit" || got[2] != "b" {
		t.Fatalf("unexpected deliveries: %v", got)
	}
	if m := b.Metrics(); m.DroppedByFilters != 1 || m.Published != 3 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	// without observer, metrics should remain zero despite activity
	Subscribe(b, func(context.Context, loaded) error { return nil })
	_ = Publish(context.Background(), b, loaded{})
	m := b.Metrics()
	if m.Published != 0 || m.DeliveredHandlers != 0 {
		t.Fatalf("metrics should be zero without observers: %+v", m)
	}
	// now add observer and expect metrics to update
	obs := &testObserver{}
	b.AddObserver(obs)
	_ = Publish(context.Background(), b, loaded{})
	m2 := b.Metrics()
	if m2.Published != 1 || m2.DeliveredHandlers != 1 || m2.SubscribersActive != 1 || m2.MessageTypes != 1 {
		t.Fatalf("metrics should update with observer: %+v", m2)
	}
	if obs.publishCount != 1 || obs.deliveredCount != 1 {
		t.Fatalf("observer not called: %+v", obs)
	}
	b.RemoveObserver(obs)
	_ = Publish(context.Background(), b, loaded{})
	if obs.publishCount != 1 {
		t.Fatal("removed observer still notified")
	}
}

func TestConcurrentSubscribePublish(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := Subscribe(b, func(context.Context, loaded) error {
				mu.Lock()
				total++
				mu.Unlock()
				return nil
			})
			_ = Publish(context.Background(), b, loaded{})
			_ = sub.Cancel()
		}()
	}
	wg.Wait()
	if total == 0 {
		t.Fatal("no deliveries")
	}
}
