// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsync

import (
	"time"
)

// MaxListeners is the maximum number of distinct listener handles a Reactor
// will ever track.
const MaxListeners = 3

type (
	// Clock is a monotonic time source, in nanoseconds.
	Clock interface {
		Now() int64
	}

	// Predictor models vsync timing, from timestamp samples.
	Predictor interface {
		// AddSample adds a vsync timestamp, returning false if the sample
		// was rejected (e.g. as an outlier).
		AddSample(timestamp int64) bool

		// PredictFrom returns the first anticipated vsync strictly after
		// the given timestamp.
		PredictFrom(timestamp int64) int64

		// CurrentPeriod returns the period the model is currently using.
		CurrentPeriod() time.Duration

		// SetPeriod changes the period the model uses.
		SetPeriod(period time.Duration)
	}

	// DispatchFunc is called by a Registration, when the scheduled wakeup is
	// reached. The vsyncTime is the vsync the callback was scheduled for.
	DispatchFunc func(vsyncTime, wakeupTime int64)

	// Dispatcher schedules single callbacks, relative to anticipated vsyncs.
	Dispatcher interface {
		// Register creates a new Registration, which will call fn each time
		// it fires. The name is for diagnostics only.
		Register(name string, fn DispatchFunc) Registration
	}

	// Registration is a single dispatcher entry, which may have at most one
	// pending callback at a time.
	Registration interface {
		// Schedule (re)arms the registration, to fire workload before the
		// first anticipated vsync strictly after both earliestVsync and now
		// plus workload. Any previously armed callback is replaced.
		Schedule(workload time.Duration, earliestVsync int64) error

		// Cancel disarms the registration. No callback that has not already
		// started will be made after Cancel returns.
		Cancel()

		// Unregister releases the registration. It must not be used after.
		Unregister()
	}

	// CompletionSignal is a present fence, shared with (not owned by) the
	// reactor.
	CompletionSignal interface {
		// Poll returns the signal status, without blocking. The timestamp is
		// only meaningful if the status is SignalResolved.
		Poll() (timestamp int64, status SignalStatus)
	}

	// Callback receives periodic vsync events. Implementations are used as
	// map keys, to identify listeners, and must therefore be comparable
	// (e.g. a pointer).
	Callback interface {
		OnVsync(wakeupTime int64)
	}

	// SignalStatus models the state of a CompletionSignal.
	SignalStatus int
)

const (
	// SignalPending indicates the signal has not yet fired.
	SignalPending SignalStatus = iota
	// SignalInvalid indicates the signal will never fire, e.g. due to an
	// error.
	SignalInvalid
	// SignalResolved indicates the signal fired, at the polled timestamp.
	SignalResolved
)

// String implements fmt.Stringer.
func (x SignalStatus) String() string {
	switch x {
	case SignalPending:
		return "pending"
	case SignalInvalid:
		return "invalid"
	case SignalResolved:
		return "resolved"
	default:
		return "unknown"
	}
}
