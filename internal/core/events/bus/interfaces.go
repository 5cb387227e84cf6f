// Package bus is a thread-safe, in-process message bus routed by payload type.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by the Go type of the payload.
// - Ordered delivery: handlers of one type run in subscription order, one
//   after another, each awaited before the next starts.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Optional helpers: async publish, batch publish, pre-delivery filters.
// - Optional observability: metrics are produced only when observers are registered.
//
// Notes:
// - Filters are evaluated before delivery. If any filter rejects a message it
//   is dropped without error.
// - Handlers should be quick or offload heavy work to avoid blocking publishers.
// - Publish must not be called while holding locks a handler might need.
package bus

import (
	"context"
	"reflect"
)

// Handler is a user callback invoked per delivered message.
type (
	Handler[T any] func(ctx context.Context, msg T) error
	// Filter decides whether a message should be delivered. If any filter
	// returns false, the message is dropped silently.
	Filter[T any] func(msg T) bool
)

// Subscription represents a registered handler bound to a message type.
// Use Cancel or Bus.Unsubscribe to stop receiving messages.
type Subscription interface {
	// ID is a unique identifier for this subscription.
	ID() string
	// MessageType returns the payload type this subscription listens to.
	MessageType() reflect.Type
	// IsActive reports whether this subscription is still registered.
	IsActive() bool
	// Cancel de-registers the handler from the bus. Multiple calls are safe.
	Cancel() error
}

// Observer is notified about deliveries and errors. Implementations can
// export metrics, tracing, or logs. Observers should return quickly.
type Observer interface {
	OnPublish(messageType string, msg any)
	OnDelivered(messageType string, handlers int, err error, durationMicros int64)
}

// Metrics represents a minimal set of counters; it is updated only when
// at least one observer is registered.
type Metrics struct {
	Published         uint64 `json:"published"`
	DeliveredHandlers uint64 `json:"delivered_handlers"`
	Errors            uint64 `json:"errors"`
	DroppedByFilters  uint64 `json:"dropped_by_filters"`
	SubscribersActive uint64 `json:"subscribers_active"`
	MessageTypes      uint64 `json:"message_types"`
}

// TypeInfo provides a minimal snapshot about one routed message type.
type TypeInfo struct {
	Name string `json:"name"`
	Subs int    `json:"subs"`
}
