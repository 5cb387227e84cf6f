// Package idgen issues the monotonically increasing identifiers used by the
// ECS runtime. Instance IDs are shared by entities and components; the
// general-purpose counter is independent and may be moved with SetID.
package idgen

import "sync/atomic"

type Generator struct {
	instance atomic.Uint64
	general  atomic.Uint64
}

func New() *Generator {
	return &Generator{}
}

// NewInstanceID returns the next entity/component identifier. The first call
// returns 1; 0 is reserved as the "none" sentinel.
func (g *Generator) NewInstanceID() uint64 {
	return g.instance.Add(1)
}

func (g *Generator) CurrentInstanceID() uint64 {
	return g.instance.Load()
}

// ResetInstanceID rewinds the instance counter to 0. It is meant for empty
// worlds; a world with live entities skips the IDs they still hold.
func (g *Generator) ResetInstanceID() {
	g.instance.Store(0)
}

func (g *Generator) NewID() uint64 {
	return g.general.Add(1)
}

func (g *Generator) CurrentID() uint64 {
	return g.general.Load()
}

func (g *Generator) ResetID() {
	g.general.Store(0)
}

// SetID moves the general-purpose counter, e.g. after restoring a session.
func (g *Generator) SetID(current uint64) {
	g.general.Store(current)
}
