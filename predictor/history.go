// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package predictor

import (
	"golang.org/x/exp/constraints"
)

// history is a fixed capacity ring, which overwrites the oldest value when
// full.
type history[E constraints.Integer] struct {
	s    []E
	r, w uint
}

func newHistory[E constraints.Integer](size int) *history[E] {
	if size <= 0 {
		panic(`predictor: history: size must be positive`)
	}
	return &history[E]{s: make([]E, size)}
}

func (x *history[E]) Len() int {
	return int(x.w - x.r)
}

func (x *history[E]) Cap() int {
	return len(x.s)
}

func (x *history[E]) Get(i int) E {
	if i < 0 || i >= x.Len() {
		panic(`predictor: history: get: index out of range`)
	}
	return x.s[(x.r+uint(i))%uint(len(x.s))]
}

// Last returns the most recently pushed value, which must exist.
func (x *history[E]) Last() E {
	return x.Get(x.Len() - 1)
}

func (x *history[E]) Push(value E) {
	if x.Len() == len(x.s) {
		x.r++
	}
	x.s[x.w%uint(len(x.s))] = value
	x.w++
}

func (x *history[E]) Clear() {
	x.r = 0
	x.w = 0
}
