// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsync

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// ErrClosed is returned by Reactor.RegisterListener after Reactor.Close.
var ErrClosed = errors.New("vsync: reactor closed")

// Reactor tracks vsync timing, from hardware edges and present fences, and
// drives up to MaxListeners periodic listeners.
// Instances must be initialized using the New factory.
type Reactor struct {
	clock      Clock
	dispatcher Dispatcher
	predictor  Predictor
	logger     *logiface.Logger[logiface.Event]
	warn       *warnLimiter

	mu                sync.Mutex
	pending           *pendingSignals
	transition        *periodTransition
	listeners         map[Callback]*repeater
	order             []Callback // registration order, for Dump
	stats             reactorStats
	ignoreSignals     bool
	moreSamplesNeeded bool
	closed            bool
}

type reactorStats struct {
	samples  uint64
	rejected uint64
	evicted  uint64
	invalid  uint64
	commits  uint64
}

// New constructs a Reactor. The clock, dispatcher and predictor are
// required, and are not owned by the Reactor.
func New(clock Clock, dispatcher Dispatcher, predictor Predictor, opts ...Option) (*Reactor, error) {
	if clock == nil || dispatcher == nil || predictor == nil {
		return nil, errors.New(`vsync: clock, dispatcher and predictor are required`)
	}

	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	return &Reactor{
		clock:      clock,
		dispatcher: dispatcher,
		predictor:  predictor,
		logger:     cfg.logger,
		warn:       newWarnLimiter(cfg.warnRates),
		pending:    newPendingSignals(cfg.pendingLimit),
		listeners:  make(map[Callback]*repeater, MaxListeners),
	}, nil
}

// AddCompletionSignal offers a present fence, as a (possibly future) vsync
// sample. Every previously offered fence that is still pending is re-polled.
// The return value indicates whether more samples are needed, e.g. because
// a period transition is in progress.
//
// A nil signal returns false. A signal that is already invalid returns true,
// without consulting any other state, including the ignore mode.
func (x *Reactor) AddCompletionSignal(signal CompletionSignal) bool {
	if signal == nil {
		return false
	}

	timestamp, status := signal.Poll()
	if status == SignalInvalid {
		return true
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.ignoreSignals {
		return true
	}

	_, invalid := x.pending.sweep(x.addSampleLocked)
	x.stats.invalid += uint64(invalid)

	if status == SignalPending {
		if x.pending.push(signal) {
			x.stats.evicted++
			if x.warn.allow(categoryFence) {
				x.logger.Warning().
					Str(`category`, categoryFence).
					Int(`limit`, x.pending.limit).
					Uint64(`evicted`, x.stats.evicted).
					Log(`pending present fence evicted`)
			}
		}
	} else {
		x.addSampleLocked(timestamp)
	}

	return x.moreSamplesNeeded
}

// SetIgnoreCompletionSignals toggles whether present fences are ignored.
// Enabling it drops all pending fences.
func (x *Reactor) SetIgnoreCompletionSignals(ignore bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.ignoreSignals = ignore
	if ignore {
		x.pending.clear()
	}
}

// NextVsyncAfter returns the anticipated vsync following now plus
// periodsAhead periods. Zero periodsAhead is the next vsync.
func (x *Reactor) NextVsyncAfter(periodsAhead int) int64 {
	now := x.clock.Now()
	var period time.Duration
	if periodsAhead != 0 {
		period = x.predictor.CurrentPeriod()
	}
	return x.predictor.PredictFrom(now + int64(periodsAhead)*int64(period))
}

// ExpectedPresentTime returns the next anticipated vsync.
func (x *Reactor) ExpectedPresentTime() int64 {
	return x.predictor.PredictFrom(x.clock.Now())
}

// RequestPeriod starts a transition to the given period, which will be
// committed once observed via OnHardwareEdge. Requesting the current period
// aborts any transition in progress.
func (x *Reactor) RequestPeriod(period time.Duration) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.requestPeriodLocked(period)
}

// CurrentPeriod returns the predictor's current period.
func (x *Reactor) CurrentPeriod() time.Duration {
	return x.predictor.CurrentPeriod()
}

// BeginResync is reserved for coordinating hardware resync, and is
// currently a no-op.
func (x *Reactor) BeginResync() {}

// EndResync is reserved for coordinating hardware resync, and is currently a
// no-op.
func (x *Reactor) EndResync() {}

// Reset is reserved for resetting the vsync model, and is currently a no-op.
func (x *Reactor) Reset() {}

// OnHardwareEdge reports a hardware vsync edge. The timestamp is always
// added to the predictor. The periodFlushed result is true if the edge
// committed a pending period transition, in which case all listeners were
// updated to the new period.
func (x *Reactor) OnHardwareEdge(timestamp int64) (needMoreSamples, periodFlushed bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	periodFlushed = x.onHardwareEdgeLocked(timestamp)
	return x.moreSamplesNeeded, periodFlushed
}

// RegisterListener starts (or restarts) periodic callbacks, at the given
// phase, relative to vsync. Callbacks are identified by equality, and
// registering the same callback again restarts it, with the new phase.
//
// An error wrapping ErrResourceExhausted is returned if MaxListeners
// distinct callbacks are already tracked. Note that unregistered callbacks
// continue to count towards this limit.
func (x *Reactor) RegisterListener(callback Callback, name string, phase time.Duration) error {
	if callback == nil {
		return errors.New(`vsync: nil callback`)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return ErrClosed
	}

	r, ok := x.listeners[callback]
	if !ok {
		if len(x.listeners) >= MaxListeners {
			x.logger.Err().
				Str(`category`, categoryListener).
				Str(`name`, name).
				Int(`limit`, MaxListeners).
				Int(`count`, len(x.listeners)).
				Log(`listener not added, exceeded limit`)
			return fmt.Errorf(`%w: listener %q not added, exceeded limit of %d`, ErrResourceExhausted, name, MaxListeners)
		}

		r = newRepeater(x.dispatcher, x.logger, callback, name, x.predictor.CurrentPeriod(), phase, x.clock.Now())
		x.listeners[callback] = r
		x.order = append(x.order, callback)

		x.logger.Debug().
			Str(`category`, categoryListener).
			Str(`name`, name).
			Dur(`phase`, phase).
			Log(`listener registered`)
	}

	r.start(phase)
	return nil
}

// UnregisterListener stops callbacks. Panics with a ContractViolation if the
// callback was never registered.
func (x *Reactor) UnregisterListener(callback Callback) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	r, ok := x.listeners[callback]
	if !ok {
		violation(x.logger, `UnregisterListener`, fmt.Sprintf(`callback %p not registered`, callback), nil)
	}

	r.stop()

	x.logger.Debug().
		Str(`category`, categoryListener).
		Str(`name`, r.name).
		Log(`listener stopped`)

	return nil
}

// ChangePhase restarts callbacks with a new phase. Panics with a
// ContractViolation if the callback was never registered.
func (x *Reactor) ChangePhase(callback Callback, phase time.Duration) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	r, ok := x.listeners[callback]
	if !ok {
		violation(x.logger, `ChangePhase`, fmt.Sprintf(`callback %p not registered`, callback), nil)
	}

	r.start(phase)
	return nil
}

// Close cancels and unregisters every listener. The Reactor must not be
// used to register listeners after Close.
func (x *Reactor) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true
	for _, callback := range x.order {
		x.listeners[callback].close()
	}
	return nil
}

// addSampleLocked feeds a vsync timestamp to the predictor. The caller must
// hold the reactor mutex.
func (x *Reactor) addSampleLocked(timestamp int64) {
	if x.predictor.AddSample(timestamp) {
		x.stats.samples++
	} else {
		x.stats.rejected++
	}
}
