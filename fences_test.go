// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPeriod = 16 * time.Millisecond

func TestPendingSignals_push_evictsOldest(t *testing.T) {
	p := newPendingSignals(3)
	signals := []*fakeSignal{pendingSignal(), pendingSignal(), pendingSignal(), pendingSignal()}
	for i, s := range signals[:3] {
		assert.False(t, p.push(s), i)
	}
	assert.True(t, p.push(signals[3]))
	assert.Equal(t, 3, p.len())
	assert.Equal(t, []CompletionSignal{signals[1], signals[2], signals[3]}, p.snapshot())
}

func TestPendingSignals_sweep(t *testing.T) {
	p := newPendingSignals(10)
	a, b, c, d := pendingSignal(), pendingSignal(), pendingSignal(), pendingSignal()
	for _, s := range []*fakeSignal{a, b, c, d} {
		p.push(s)
	}
	b.resolve(100)
	c.invalidate()
	d.resolve(200)

	var got []int64
	resolved, invalid := p.sweep(func(timestamp int64) { got = append(got, timestamp) })
	assert.Equal(t, 2, resolved)
	assert.Equal(t, 1, invalid)
	assert.Equal(t, []int64{100, 200}, got)
	assert.Equal(t, []CompletionSignal{a}, p.snapshot())
	assert.Equal(t, 1, a.pollCount())

	p.clear()
	assert.Equal(t, 0, p.len())
}

func TestReactor_AddCompletionSignal_nil(t *testing.T) {
	h := newTestHarness(t, testPeriod)
	h.reactor.RequestPeriod(testPeriod * 2)
	assert.False(t, h.reactor.AddCompletionSignal(nil))
	h.reactor.SetIgnoreCompletionSignals(true)
	assert.False(t, h.reactor.AddCompletionSignal(nil))
}

func TestReactor_AddCompletionSignal_invalid(t *testing.T) {
	h := newTestHarness(t, testPeriod)
	queued := pendingSignal()
	assert.False(t, h.reactor.AddCompletionSignal(queued))
	assert.Equal(t, 1, queued.pollCount())

	// invalid returns before the queue is swept
	assert.True(t, h.reactor.AddCompletionSignal(invalidSignal()))
	assert.Equal(t, 1, queued.pollCount())
	assert.Equal(t, 1, h.reactor.pending.len())

	h.reactor.SetIgnoreCompletionSignals(true)
	assert.True(t, h.reactor.AddCompletionSignal(invalidSignal()))
}

func TestReactor_AddCompletionSignal_resolvedFeedsPredictor(t *testing.T) {
	h := newTestHarness(t, testPeriod)
	assert.False(t, h.reactor.AddCompletionSignal(resolvedSignal(1_000)))
	assert.Equal(t, []int64{1_000}, h.predictor.getSamples())
	assert.Equal(t, 0, h.reactor.pending.len())
}

func TestReactor_AddCompletionSignal_sweepsPending(t *testing.T) {
	h := newTestHarness(t, testPeriod)
	a, b, c := pendingSignal(), pendingSignal(), pendingSignal()
	h.reactor.AddCompletionSignal(a)
	h.reactor.AddCompletionSignal(b)
	h.reactor.AddCompletionSignal(c)
	require.Equal(t, 3, h.reactor.pending.len())

	a.resolve(10)
	b.invalidate()
	h.reactor.AddCompletionSignal(resolvedSignal(30))

	// swept entries are fed before the new signal
	assert.Equal(t, []int64{10, 30}, h.predictor.getSamples())
	assert.Equal(t, []CompletionSignal{c}, h.reactor.pending.snapshot())
	assert.Equal(t, uint64(1), h.reactor.stats.invalid)
	assert.Equal(t, uint64(2), h.reactor.stats.samples)
}

func TestReactor_AddCompletionSignal_boundedQueue(t *testing.T) {
	const limit = 4
	h := newTestHarness(t, testPeriod, WithPendingLimit(limit))
	signals := make([]*fakeSignal, limit+1)
	for i := range signals {
		signals[i] = pendingSignal()
		h.reactor.AddCompletionSignal(signals[i])
	}
	assert.Equal(t, limit, h.reactor.pending.len())
	assert.Equal(t, uint64(1), h.reactor.stats.evicted)

	want := make([]CompletionSignal, limit)
	for i := range want {
		want[i] = signals[i+1]
	}
	assert.Equal(t, want, h.reactor.pending.snapshot())

	// the evicted signal is never polled again
	signals[0].resolve(1)
	h.reactor.AddCompletionSignal(nil)
	h.reactor.AddCompletionSignal(resolvedSignal(2))
	assert.Equal(t, []int64{2}, h.predictor.getSamples())
}

func TestReactor_SetIgnoreCompletionSignals(t *testing.T) {
	h := newTestHarness(t, testPeriod)
	h.reactor.AddCompletionSignal(pendingSignal())
	h.reactor.AddCompletionSignal(pendingSignal())

	h.reactor.SetIgnoreCompletionSignals(true)
	assert.Equal(t, 0, h.reactor.pending.len())

	assert.True(t, h.reactor.AddCompletionSignal(resolvedSignal(5)))
	assert.True(t, h.reactor.AddCompletionSignal(pendingSignal()))
	assert.Empty(t, h.predictor.getSamples())
	assert.Equal(t, 0, h.reactor.pending.len())

	h.reactor.SetIgnoreCompletionSignals(false)
	assert.False(t, h.reactor.AddCompletionSignal(resolvedSignal(5)))
	assert.Equal(t, []int64{5}, h.predictor.getSamples())
}

func TestReactor_AddCompletionSignal_needMoreSamples(t *testing.T) {
	h := newTestHarness(t, testPeriod)
	assert.False(t, h.reactor.AddCompletionSignal(resolvedSignal(1)))
	h.reactor.RequestPeriod(testPeriod / 2)
	assert.True(t, h.reactor.AddCompletionSignal(resolvedSignal(2)))
	assert.True(t, h.reactor.AddCompletionSignal(pendingSignal()))
}
