// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsync

import (
	"io"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// log categories, used as catrate categories for throttled warnings
const (
	categoryListener   = `listener`
	categoryTransition = `transition`
	categoryFence      = `fence`
)

// DefaultWarnRates returns the default rate limits for repeated warnings,
// per category.
func DefaultWarnRates() map[time.Duration]int {
	return map[time.Duration]int{
		time.Second: 5,
		time.Minute: 60,
	}
}

// NewLogger returns a JSON logger (stumpy), writing to w, at the given level.
func NewLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// warnLimiter throttles warnings that may fire on every frame.
type warnLimiter struct {
	limiter *catrate.Limiter
}

func newWarnLimiter(rates map[time.Duration]int) *warnLimiter {
	if len(rates) == 0 {
		return &warnLimiter{}
	}
	return &warnLimiter{limiter: catrate.NewLimiter(rates)}
}

// allow reports whether a warning for category may be logged now.
func (x *warnLimiter) allow(category string) bool {
	if x == nil || x.limiter == nil {
		return true
	}
	_, ok := x.limiter.Allow(category)
	return ok
}

// violation logs then panics with a ContractViolation.
func violation(logger *logiface.Logger[logiface.Event], op, msg string, cause error) {
	v := &ContractViolation{Op: op, Message: msg, Cause: cause}
	logger.Crit().
		Str(`op`, op).
		Err(v).
		Log(`contract violation`)
	panic(v)
}
