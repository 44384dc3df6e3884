// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsync

import (
	"github.com/eapache/queue"
)

// pendingSignals is a bounded FIFO of unresolved present fences.
// Not safe for concurrent use, guarded by the reactor mutex.
type pendingSignals struct {
	q     *queue.Queue
	limit int
}

func newPendingSignals(limit int) *pendingSignals {
	return &pendingSignals{
		q:     queue.New(),
		limit: limit,
	}
}

func (x *pendingSignals) len() int {
	return x.q.Length()
}

// push appends signal, evicting (and returning) the oldest entry if the
// queue was already at the limit.
func (x *pendingSignals) push(signal CompletionSignal) (evicted bool) {
	if x.q.Length() >= x.limit {
		x.q.Remove()
		evicted = true
	}
	x.q.Add(signal)
	return evicted
}

// sweep polls every queued signal, once, in insertion order. Signals that
// are still pending are retained, in order. Resolved signals are passed to
// fn then dropped, and invalid signals are dropped.
func (x *pendingSignals) sweep(fn func(timestamp int64)) (resolved, invalid int) {
	for n := x.q.Length(); n > 0; n-- {
		signal := x.q.Remove().(CompletionSignal)
		timestamp, status := signal.Poll()
		switch status {
		case SignalPending:
			x.q.Add(signal)
		case SignalResolved:
			fn(timestamp)
			resolved++
		default:
			invalid++
		}
	}
	return resolved, invalid
}

// clear drops all queued signals.
func (x *pendingSignals) clear() {
	if x.q.Length() != 0 {
		x.q = queue.New()
	}
}

// snapshot returns the queued signals, oldest first.
func (x *pendingSignals) snapshot() []CompletionSignal {
	out := make([]CompletionSignal, x.q.Length())
	for i := range out {
		out[i] = x.q.Get(i).(CompletionSignal)
	}
	return out
}
