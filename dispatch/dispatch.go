// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package dispatch implements vsync.Dispatcher, using the timers of a
// [github.com/joeycumines/go-eventloop] Loop. All callbacks are made on the
// loop goroutine.
package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joeycumines/go-eventloop"
	"github.com/joeycumines/go-vsync"
	"github.com/joeycumines/logiface"
)

// ErrUnregistered is returned by Registration.Schedule after
// Registration.Unregister.
var ErrUnregistered = errors.New("dispatch: registration unregistered")

type (
	// Option configures a Dispatcher.
	Option func(d *Dispatcher)

	// Dispatcher is a vsync.Dispatcher. Instances must be initialized using
	// the New factory.
	Dispatcher struct {
		loop      *eventloop.Loop
		clock     vsync.Clock
		predictor vsync.Predictor
		logger    *logiface.Logger[logiface.Event]

		mu      sync.Mutex
		entries map[*Registration]struct{}
	}

	// Registration is a vsync.Registration.
	Registration struct {
		dispatcher *Dispatcher
		fn         vsync.DispatchFunc
		name       string

		mu     sync.Mutex
		timer  eventloop.TimerID
		gen    uint64
		target int64
		wakeup int64
		armed  bool
		closed bool
	}
)

var (
	// compile time assertions

	_ vsync.Dispatcher   = (*Dispatcher)(nil)
	_ vsync.Registration = (*Registration)(nil)
)

// WithLogger sets the structured logger, nil (the default) disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New constructs a Dispatcher, scheduling timers on loop, which must be
// running (or will be run) by the caller. Timer deadlines are derived from
// the predictor, relative to the clock. A panic will occur if any argument
// is nil.
func New(loop *eventloop.Loop, clock vsync.Clock, predictor vsync.Predictor, opts ...Option) *Dispatcher {
	if loop == nil || clock == nil || predictor == nil {
		panic(`dispatch: nil loop, clock or predictor`)
	}
	d := &Dispatcher{
		loop:      loop,
		clock:     clock,
		predictor: predictor,
		entries:   make(map[*Registration]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register implements vsync.Dispatcher.
func (x *Dispatcher) Register(name string, fn vsync.DispatchFunc) vsync.Registration {
	if fn == nil {
		panic(`dispatch: nil callback`)
	}
	r := &Registration{
		dispatcher: x,
		fn:         fn,
		name:       name,
	}
	x.mu.Lock()
	x.entries[r] = struct{}{}
	x.mu.Unlock()
	return r
}

// Len returns the number of registrations that have not been unregistered.
func (x *Dispatcher) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.entries)
}

// Schedule implements vsync.Registration. The callback will be made at
// workload before the target vsync, which is the first anticipated vsync
// after both earliestVsync and now plus workload. Any armed timer is
// replaced.
func (x *Registration) Schedule(workload time.Duration, earliestVsync int64) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return ErrUnregistered
	}

	d := x.dispatcher
	now := d.clock.Now()
	from := max(earliestVsync, now+int64(workload))
	target := d.predictor.PredictFrom(from)
	wakeup := target - int64(workload)
	delay := max(time.Duration(wakeup-now), 0)

	x.cancelLocked()

	x.gen++
	gen := x.gen
	id, err := d.loop.ScheduleTimer(delay, func() { x.fire(gen) })
	if err != nil {
		return fmt.Errorf(`dispatch: schedule %q: %w`, x.name, err)
	}

	x.timer = id
	x.target = target
	x.wakeup = wakeup
	x.armed = true

	d.logger.Trace().
		Str(`name`, x.name).
		Int64(`target`, target).
		Int64(`wakeup`, wakeup).
		Dur(`delay`, delay).
		Log(`scheduled`)

	return nil
}

// Cancel implements vsync.Registration.
func (x *Registration) Cancel() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.cancelLocked()
}

// Unregister implements vsync.Registration.
func (x *Registration) Unregister() {
	x.mu.Lock()
	if x.closed {
		x.mu.Unlock()
		return
	}
	x.cancelLocked()
	x.closed = true
	x.mu.Unlock()

	x.dispatcher.mu.Lock()
	delete(x.dispatcher.entries, x)
	x.dispatcher.mu.Unlock()
}

// Armed returns the target vsync and wakeup time of the pending callback,
// if any.
func (x *Registration) Armed() (target, wakeup int64, ok bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.target, x.wakeup, x.armed
}

// cancelLocked disarms the registration. The timer is removed on the loop,
// asynchronously, as CancelTimer blocks until the loop runs it, and the loop
// may itself be waiting on a lock held by the caller.
func (x *Registration) cancelLocked() {
	if !x.armed {
		return
	}
	x.armed = false
	// fire checks gen, so a timer that is already due is also suppressed
	x.gen++
	loop, id, logger, name := x.dispatcher.loop, x.timer, x.dispatcher.logger, x.name
	if err := loop.Submit(func() {
		if err := loop.CancelTimer(id); err != nil &&
			!errors.Is(err, eventloop.ErrTimerNotFound) &&
			!errors.Is(err, eventloop.ErrLoopTerminated) {
			logger.Warning().
				Str(`name`, name).
				Err(err).
				Log(`failed to cancel timer`)
		}
	}); err != nil && !errors.Is(err, eventloop.ErrLoopTerminated) {
		logger.Warning().
			Str(`name`, name).
			Err(err).
			Log(`failed to submit timer cancellation`)
	}
}

func (x *Registration) fire(gen uint64) {
	x.mu.Lock()
	if !x.armed || gen != x.gen {
		x.mu.Unlock()
		return
	}
	x.armed = false
	target, wakeup := x.target, x.wakeup
	x.mu.Unlock()

	x.fn(target, wakeup)
}
