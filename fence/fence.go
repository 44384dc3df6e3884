// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package fence implements a settable present fence, usable as a
// vsync.CompletionSignal.
package fence

import (
	"sync/atomic"

	"github.com/joeycumines/go-vsync"
)

// fence states
const (
	statePending uint32 = iota
	stateInvalid
	stateSignaled
)

// Fence is a one-shot signal, which transitions from pending to either
// signaled (with a timestamp) or invalid, exactly once. The zero value is a
// pending fence. It is safe for concurrent use.
type Fence struct {
	timestamp atomic.Int64
	state     atomic.Uint32
	// claimed serializes the single transition out of pending
	claimed atomic.Bool
}

var _ vsync.CompletionSignal = (*Fence)(nil)

// New returns a pending Fence.
func New() *Fence {
	return new(Fence)
}

// Resolved returns a Fence already signaled at timestamp.
func Resolved(timestamp int64) *Fence {
	f := New()
	f.Signal(timestamp)
	return f
}

// Invalid returns a Fence that will never signal.
func Invalid() *Fence {
	f := New()
	f.Invalidate()
	return f
}

// Signal marks the fence as signaled at timestamp. Returns false if the
// fence was not pending.
func (x *Fence) Signal(timestamp int64) bool {
	if !x.claimed.CompareAndSwap(false, true) {
		return false
	}
	x.timestamp.Store(timestamp)
	x.state.Store(stateSignaled)
	return true
}

// Invalidate marks the fence as never going to signal. Returns false if the
// fence was not pending.
func (x *Fence) Invalidate() bool {
	if !x.claimed.CompareAndSwap(false, true) {
		return false
	}
	x.state.Store(stateInvalid)
	return true
}

// Poll implements vsync.CompletionSignal.
func (x *Fence) Poll() (int64, vsync.SignalStatus) {
	switch x.state.Load() {
	case stateSignaled:
		return x.timestamp.Load(), vsync.SignalResolved
	case stateInvalid:
		return 0, vsync.SignalInvalid
	default:
		return 0, vsync.SignalPending
	}
}
