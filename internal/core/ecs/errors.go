package ecs

import "errors"

var (
	ErrNilSystem           = errors.New("ecs: nil system")
	ErrDuplicateSystem     = errors.New("ecs: duplicate system registration")
	ErrInvalidSignature    = errors.New("ecs: invalid component signature")
	ErrDuplicateRpcHandler = errors.New("ecs: duplicate rpc handler")
	ErrEntityNotFound      = errors.New("ecs: entity not found")
	ErrNoRpcHandler        = errors.New("ecs: no rpc handler")
	ErrRpcTypeMismatch     = errors.New("ecs: rpc response type mismatch")
)
