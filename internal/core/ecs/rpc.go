package ecs

import (
	"context"
	"fmt"
	"reflect"

	"github.com/zeusync/gameframe/internal/core/observability/log"
)

// RpcStatus is embedded in every rpc response type.
type RpcStatus struct {
	Error        bool   `json:"error"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func (s *RpcStatus) Status() *RpcStatus { return s }

func (s *RpcStatus) Failed() bool { return s.Error }

type RpcResponse interface {
	Status() *RpcStatus
}

// ResponsePtr constrains generic rpc helpers to pointers of response structs.
type ResponsePtr[R any] interface {
	*R
	RpcResponse
}

type RpcHandler[Req, Resp any] interface {
	HandleRpc(ctx context.Context, e *Entity, req Req) (*Resp, error)
}

type RpcHandlerFunc[Req, Resp any] func(ctx context.Context, e *Entity, req Req) (*Resp, error)

func (f RpcHandlerFunc[Req, Resp]) HandleRpc(ctx context.Context, e *Entity, req Req) (*Resp, error) {
	return f(ctx, e, req)
}

type rpcEntry struct {
	name     string
	response reflect.Type
	handle   func(ctx context.Context, e *Entity, req any) (any, error)
}

// RegisterRpcHandler installs the single responder for Req. A second
// registration for the same request type is refused.
func RegisterRpcHandler[Req any, Resp any, PResp ResponsePtr[Resp]](w *World, name string, h RpcHandler[Req, Resp]) error {
	if h == nil {
		return ErrNilSystem
	}
	rt := TypeOf[Req]()
	if prev, ok := w.rpcs[rt]; ok {
		w.log.Warn("duplicated rpc handler",
			nameField(name), log.String("registered", prev.name), stringerField("request", rt))
		return fmt.Errorf("%w: %s", ErrDuplicateRpcHandler, rt)
	}
	w.rpcs[rt] = &rpcEntry{
		name:     name,
		response: TypeOf[Resp](),
		handle: func(ctx context.Context, e *Entity, req any) (any, error) {
			return h.HandleRpc(ctx, e, req.(Req))
		},
	}
	w.log.Debug("rpc handler registered", nameField(name), stringerField("request", rt))
	return nil
}

// ErrorResponse builds a Resp flagged as failed with msg.
func ErrorResponse[Resp any, PResp ResponsePtr[Resp]](msg string) PResp {
	r := PResp(new(Resp))
	st := r.Status()
	st.Error = true
	st.ErrorMessage = msg
	return r
}

// SendRpc asks the responder registered for Req on behalf of entity id. It
// never returns nil: every failure comes back as an error-flagged Resp.
func SendRpc[Req any, Resp any, PResp ResponsePtr[Resp]](ctx context.Context, w *World, id EntityID, req Req) PResp {
	rt := TypeOf[Req]()
	e, ok := w.FindEntity(id)
	if !ok {
		return rpcFailure[Resp, PResp](w, fmt.Errorf("%w: %d", ErrEntityNotFound, id), rt)
	}
	entry, ok := w.rpcs[rt]
	if !ok {
		return rpcFailure[Resp, PResp](w, fmt.Errorf("%w: %s", ErrNoRpcHandler, rt), rt)
	}
	if entry.response != TypeOf[Resp]() {
		return rpcFailure[Resp, PResp](w,
			fmt.Errorf("%w: %s answers %s, not %s", ErrRpcTypeMismatch, rt, entry.response, TypeOf[Resp]()), rt)
	}
	if err := ctx.Err(); err != nil {
		return rpcFailure[Resp, PResp](w, err, rt)
	}

	w.counters.rpcs++
	out, err := entry.handle(ctx, e, req)
	if err != nil {
		return rpcFailure[Resp, PResp](w, fmt.Errorf("%s: %w", entry.name, err), rt)
	}
	resp, _ := out.(*Resp)
	if resp == nil {
		return rpcFailure[Resp, PResp](w, fmt.Errorf("%s: nil response", entry.name), rt)
	}
	return PResp(resp)
}

func rpcFailure[Resp any, PResp ResponsePtr[Resp]](w *World, err error, request reflect.Type) PResp {
	w.log.Warn("rpc failed", stringerField("request", request), errField(err))
	return ErrorResponse[Resp, PResp](err.Error())
}
