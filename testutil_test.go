// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsync

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now int64
}

func (x *fakeClock) Now() int64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.now
}

func (x *fakeClock) set(now int64) {
	x.mu.Lock()
	x.now = now
	x.mu.Unlock()
}

// fakePredictor predicts on a grid of multiples of the period, and records
// every sample.
type fakePredictor struct {
	mu      sync.Mutex
	period  time.Duration
	samples []int64
	reject  bool
	periods []time.Duration
}

func (x *fakePredictor) AddSample(timestamp int64) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.reject {
		return false
	}
	x.samples = append(x.samples, timestamp)
	return true
}

func (x *fakePredictor) PredictFrom(timestamp int64) int64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	p := int64(x.period)
	return (timestamp/p + 1) * p
}

func (x *fakePredictor) CurrentPeriod() time.Duration {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.period
}

func (x *fakePredictor) SetPeriod(period time.Duration) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.period = period
	x.periods = append(x.periods, period)
}

func (x *fakePredictor) getSamples() []int64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]int64(nil), x.samples...)
}

type scheduleCall struct {
	workload time.Duration
	earliest int64
}

type fakeDispatcher struct {
	mu            sync.Mutex
	registrations []*fakeRegistration
}

func (x *fakeDispatcher) Register(name string, fn DispatchFunc) Registration {
	x.mu.Lock()
	defer x.mu.Unlock()
	r := &fakeRegistration{name: name, fn: fn}
	x.registrations = append(x.registrations, r)
	return r
}

func (x *fakeDispatcher) get(t *testing.T, name string) *fakeRegistration {
	t.Helper()
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, r := range x.registrations {
		if r.name == name {
			return r
		}
	}
	require.FailNow(t, `registration not found`, name)
	return nil
}

func (x *fakeDispatcher) len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.registrations)
}

var errScheduleRejected = errors.New(`schedule rejected`)

type fakeRegistration struct {
	name string
	fn   DispatchFunc

	mu           sync.Mutex
	schedules    []scheduleCall
	armed        bool
	cancels      int
	unregistered bool
	fail         bool
}

func (x *fakeRegistration) Schedule(workload time.Duration, earliestVsync int64) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.fail {
		return errScheduleRejected
	}
	x.schedules = append(x.schedules, scheduleCall{workload, earliestVsync})
	x.armed = true
	return nil
}

func (x *fakeRegistration) Cancel() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.armed = false
	x.cancels++
}

func (x *fakeRegistration) Unregister() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.armed = false
	x.unregistered = true
}

// fire simulates the dispatcher, which disarms before the callback.
func (x *fakeRegistration) fire(vsyncTime, wakeupTime int64) {
	x.mu.Lock()
	x.armed = false
	fn := x.fn
	x.mu.Unlock()
	fn(vsyncTime, wakeupTime)
}

func (x *fakeRegistration) isArmed() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.armed
}

func (x *fakeRegistration) last() scheduleCall {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.schedules[len(x.schedules)-1]
}

func (x *fakeRegistration) scheduleCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.schedules)
}

type fakeCallback struct {
	mu      sync.Mutex
	wakeups []int64
	hook    func(wakeupTime int64)
}

func (x *fakeCallback) OnVsync(wakeupTime int64) {
	x.mu.Lock()
	x.wakeups = append(x.wakeups, wakeupTime)
	hook := x.hook
	x.mu.Unlock()
	if hook != nil {
		hook(wakeupTime)
	}
}

func (x *fakeCallback) calls() []int64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]int64(nil), x.wakeups...)
}

// fakeSignal is a settable CompletionSignal, which counts polls.
type fakeSignal struct {
	mu        sync.Mutex
	timestamp int64
	status    SignalStatus
	polls     int
}

func pendingSignal() *fakeSignal { return &fakeSignal{status: SignalPending} }

func resolvedSignal(timestamp int64) *fakeSignal {
	return &fakeSignal{timestamp: timestamp, status: SignalResolved}
}

func invalidSignal() *fakeSignal { return &fakeSignal{status: SignalInvalid} }

func (x *fakeSignal) Poll() (int64, SignalStatus) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.polls++
	return x.timestamp, x.status
}

func (x *fakeSignal) resolve(timestamp int64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.timestamp = timestamp
	x.status = SignalResolved
}

func (x *fakeSignal) invalidate() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.status = SignalInvalid
}

func (x *fakeSignal) pollCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.polls
}

type testHarness struct {
	clock      *fakeClock
	predictor  *fakePredictor
	dispatcher *fakeDispatcher
	reactor    *Reactor
}

func newTestHarness(t *testing.T, period time.Duration, opts ...Option) *testHarness {
	t.Helper()
	h := &testHarness{
		clock:      &fakeClock{},
		predictor:  &fakePredictor{period: period},
		dispatcher: &fakeDispatcher{},
	}
	var err error
	h.reactor, err = New(h.clock, h.dispatcher, h.predictor, opts...)
	require.NoError(t, err)
	return h
}

// requireViolation asserts fn panics with a *ContractViolation for op.
func requireViolation(t *testing.T, op string, fn func()) *ContractViolation {
	t.Helper()
	var v *ContractViolation
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, `expected panic`)
			var ok bool
			v, ok = r.(*ContractViolation)
			require.True(t, ok, `unexpected panic value: %v`, r)
		}()
		fn()
	}()
	require.Equal(t, op, v.Op)
	return v
}
