// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsync

import (
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// repeater adapts a one-shot Registration into a periodic callback, which
// re-arms itself after every fire.
type repeater struct {
	callback Callback
	logger   *logiface.Logger[logiface.Event]
	name     string

	mu           sync.Mutex
	registration Registration
	period       time.Duration
	// phase is the time after the vsync the callback should be made
	phase time.Duration
	// anchor is the vsync the most recent callback was made for
	anchor  int64
	stopped bool
}

func newRepeater(dispatcher Dispatcher, logger *logiface.Logger[logiface.Event], callback Callback, name string, period, phase time.Duration, notBefore int64) *repeater {
	r := &repeater{
		callback: callback,
		logger:   logger,
		name:     name,
		period:   period,
		phase:    phase,
		anchor:   notBefore,
	}
	r.registration = dispatcher.Register(name, r.fire)
	return r
}

// start (re)starts the repeater with the given phase.
func (x *repeater) start(phase time.Duration) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.stopped = false
	x.phase = phase
	if err := x.registration.Schedule(x.workload(), x.anchor); err != nil {
		violation(x.logger, `start`, `error scheduling callback `+x.name, err)
	}
}

// setPeriod changes the period used for subsequent schedules.
func (x *repeater) setPeriod(period time.Duration) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.period = period
}

func (x *repeater) stop() {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.stopped {
		violation(x.logger, `stop`, `callback `+x.name+` already stopped`, nil)
	}
	x.stopped = true
	x.registration.Cancel()
}

// close releases the registration, which is always cancelled first.
func (x *repeater) close() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.stopped = true
	x.registration.Cancel()
	x.registration.Unregister()
}

func (x *repeater) fire(vsyncTime, wakeupTime int64) {
	x.mu.Lock()
	if x.stopped {
		x.mu.Unlock()
		return
	}
	x.anchor = vsyncTime
	x.mu.Unlock()

	x.callback.OnVsync(wakeupTime)

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.stopped {
		return
	}
	if err := x.registration.Schedule(x.workload(), vsyncTime); err != nil {
		violation(x.logger, `fire`, `error rescheduling callback `+x.name, err)
	}
}

// workload converts the phase (time after the vsync) into the dispatcher's
// workload (time before the target vsync). Note the change in sign.
func (x *repeater) workload() time.Duration {
	return x.period - x.phase
}

// listenerInfo is a snapshot of a repeater, for Reactor.Dump.
type listenerInfo struct {
	name    string
	period  time.Duration
	phase   time.Duration
	anchor  int64
	stopped bool
}

func (x *repeater) info() listenerInfo {
	x.mu.Lock()
	defer x.mu.Unlock()
	return listenerInfo{
		name:    x.name,
		period:  x.period,
		phase:   x.phase,
		anchor:  x.anchor,
		stopped: x.stopped,
	}
}
