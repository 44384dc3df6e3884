// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsync

import (
	"time"
)

// periodTransition models an in-flight period change. A nil
// *periodTransition is the stable state.
type periodTransition struct {
	target time.Duration
	// lastHwVsync is the previous hardware edge observed during this
	// transition, valid if hasLastHwVsync
	lastHwVsync    int64
	hasLastHwVsync bool
}

// detected returns true if the distance between the previous and the given
// hardware edge is strictly closer to the target period than to current.
// Ties keep the current period.
func (x *periodTransition) detected(timestamp int64, current time.Duration) bool {
	if x == nil || !x.hasLastHwVsync {
		return false
	}
	distance := time.Duration(timestamp - x.lastHwVsync)
	return (distance - x.target).Abs() < (distance - current).Abs()
}

func (x *periodTransition) String() string {
	if x == nil {
		return `stable`
	}
	return `transitioning to ` + x.target.String()
}

// requestPeriodLocked implements Reactor.RequestPeriod, the caller must hold
// the reactor mutex.
func (x *Reactor) requestPeriodLocked(period time.Duration) {
	current := x.predictor.CurrentPeriod()

	if period == current {
		if x.transition != nil {
			x.logger.Info().
				Str(`category`, categoryTransition).
				Dur(`period`, period).
				Dur(`target`, x.transition.target).
				Log(`period transition aborted`)
		}
		x.transition = nil
		x.moreSamplesNeeded = false
		return
	}

	// lastHwVsync is always reset
	x.transition = &periodTransition{target: period}
	x.moreSamplesNeeded = true

	x.logger.Info().
		Str(`category`, categoryTransition).
		Dur(`period`, current).
		Dur(`target`, period).
		Log(`period transition started`)
}

// onHardwareEdgeLocked implements Reactor.OnHardwareEdge, the caller must
// hold the reactor mutex.
func (x *Reactor) onHardwareEdgeLocked(timestamp int64) (periodFlushed bool) {
	if x.transition.detected(timestamp, x.predictor.CurrentPeriod()) {
		target := x.transition.target

		x.predictor.SetPeriod(target)
		for _, r := range x.listeners {
			r.setPeriod(target)
		}

		x.transition = nil
		x.moreSamplesNeeded = false
		x.stats.commits++
		periodFlushed = true

		x.logger.Info().
			Str(`category`, categoryTransition).
			Dur(`period`, target).
			Int64(`timestamp`, timestamp).
			Log(`period transition committed`)
	} else if x.transition != nil {
		x.transition.lastHwVsync = timestamp
		x.transition.hasLastHwVsync = true
		x.moreSamplesNeeded = true
	} else {
		x.moreSamplesNeeded = false
	}

	x.addSampleLocked(timestamp)

	return periodFlushed
}
