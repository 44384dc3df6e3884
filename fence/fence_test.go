// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package fence

import (
	"sync"
	"testing"

	"github.com/joeycumines/go-vsync"
	"github.com/stretchr/testify/assert"
)

func TestFence_Signal(t *testing.T) {
	f := New()
	ts, status := f.Poll()
	assert.Equal(t, vsync.SignalPending, status)
	assert.Zero(t, ts)

	assert.True(t, f.Signal(123))
	ts, status = f.Poll()
	assert.Equal(t, vsync.SignalResolved, status)
	assert.Equal(t, int64(123), ts)

	assert.False(t, f.Signal(456))
	assert.False(t, f.Invalidate())
	ts, status = f.Poll()
	assert.Equal(t, vsync.SignalResolved, status)
	assert.Equal(t, int64(123), ts)
}

func TestFence_Invalidate(t *testing.T) {
	f := New()
	assert.True(t, f.Invalidate())
	assert.False(t, f.Signal(1))
	_, status := f.Poll()
	assert.Equal(t, vsync.SignalInvalid, status)
}

func TestFence_zeroValue(t *testing.T) {
	var f Fence
	_, status := f.Poll()
	assert.Equal(t, vsync.SignalPending, status)
}

func TestResolvedInvalid(t *testing.T) {
	ts, status := Resolved(99).Poll()
	assert.Equal(t, vsync.SignalResolved, status)
	assert.Equal(t, int64(99), ts)

	_, status = Invalid().Poll()
	assert.Equal(t, vsync.SignalInvalid, status)
}

func TestFence_concurrent(t *testing.T) {
	f := New()
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won []int64
	)
	for i := int64(1); i <= 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if f.Signal(i) {
				mu.Lock()
				won = append(won, i)
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			ts, status := f.Poll()
			if status == vsync.SignalResolved && ts == 0 {
				t.Error(`resolved with zero timestamp`)
			}
		}()
	}
	wg.Wait()
	if assert.Len(t, won, 1) {
		ts, status := f.Poll()
		assert.Equal(t, vsync.SignalResolved, status)
		assert.Equal(t, won[0], ts)
	}
}
