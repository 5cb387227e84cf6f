package ecs

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// MessageHandler reacts to messages of type M addressed to an entity.
type MessageHandler[M any] interface {
	HandleMessage(ctx context.Context, e *Entity, msg M) error
}

type MessageHandlerFunc[M any] func(ctx context.Context, e *Entity, msg M) error

func (f MessageHandlerFunc[M]) HandleMessage(ctx context.Context, e *Entity, msg M) error {
	return f(ctx, e, msg)
}

type messageEntry struct {
	name   string
	handle func(ctx context.Context, e *Entity, msg any) error
}

// RegisterMessageHandler appends h to the handlers of M. Handlers run in
// registration order.
func RegisterMessageHandler[M any](w *World, name string, h MessageHandler[M]) error {
	if h == nil {
		return ErrNilSystem
	}
	mt := TypeOf[M]()
	w.messages[mt] = append(w.messages[mt], &messageEntry{
		name: name,
		handle: func(ctx context.Context, e *Entity, msg any) error {
			return h.HandleMessage(ctx, e, msg.(M))
		},
	})
	w.log.Debug("message handler registered", nameField(name), stringerField("message", mt))
	return nil
}

// SendMessage delivers msg to every handler registered for its type, one at a
// time, returning once the last handler returned. An unknown entity is a
// silent no-op. Handler errors do not stop the chain; they are joined.
func SendMessage[M any](ctx context.Context, w *World, id EntityID, msg M) error {
	e, ok := w.FindEntity(id)
	if !ok {
		return nil
	}
	mt, handlers := messageHandlers(w, msg)
	if len(handlers) == 0 {
		w.log.Debug("message handler not found", stringerField("message", mt), entityField(id))
		return nil
	}
	w.counters.messages++

	var errs []error
	for _, h := range handlers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := h.handle(ctx, e, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	return errors.Join(errs...)
}

// messageHandlers routes by the concrete type msg carries, falling back to
// handlers registered for the static type M (an interface, usually).
func messageHandlers[M any](w *World, msg M) (reflect.Type, []*messageEntry) {
	static := TypeOf[M]()
	if dyn := reflect.TypeOf(any(msg)); dyn != nil && dyn != static {
		if hs := w.messages[dyn]; len(hs) > 0 {
			return dyn, hs
		}
	}
	return static, w.messages[static]
}
