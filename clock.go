// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsync

// SystemClock is a Clock reading the system monotonic clock.
type SystemClock struct{}

var _ Clock = SystemClock{}

// Now returns the monotonic time, in nanoseconds.
func (SystemClock) Now() int64 {
	return monotonicNow()
}
