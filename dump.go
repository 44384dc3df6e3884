// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsync

import (
	"fmt"
	"strings"
)

// Dump returns a human-readable description of the reactor state, intended
// for diagnostics only. The format is not stable.
func (x *Reactor) Dump() string {
	x.mu.Lock()
	defer x.mu.Unlock()

	var b strings.Builder
	b.WriteString("VsyncReactor in use\n")
	fmt.Fprintf(&b, "  period: %s (%s)\n", x.predictor.CurrentPeriod(), x.transition)
	if x.transition != nil && x.transition.hasLastHwVsync {
		fmt.Fprintf(&b, "  lastHwVsync: %d\n", x.transition.lastHwVsync)
	}
	fmt.Fprintf(&b, "  moreSamplesNeeded: %t\n", x.moreSamplesNeeded)
	fmt.Fprintf(&b, "  ignoreCompletionSignals: %t\n", x.ignoreSignals)
	fmt.Fprintf(&b, "  pendingSignals: %d/%d\n", x.pending.len(), x.pending.limit)
	fmt.Fprintf(&b, "  samples: %d accepted, %d rejected\n", x.stats.samples, x.stats.rejected)
	fmt.Fprintf(&b, "  signals: %d evicted, %d invalid\n", x.stats.evicted, x.stats.invalid)
	fmt.Fprintf(&b, "  commits: %d\n", x.stats.commits)
	fmt.Fprintf(&b, "  listeners: %d/%d\n", len(x.order), MaxListeners)
	for _, callback := range x.order {
		info := x.listeners[callback].info()
		state := `running`
		if info.stopped {
			state = `stopped`
		}
		fmt.Fprintf(&b, "    %s: phase=%s period=%s anchor=%d %s\n", info.name, info.phase, info.period, info.anchor, state)
	}
	return b.String()
}
